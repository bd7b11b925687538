package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venueflow/internal/core"
	"venueflow/pkg/domain"
)

const defaultOccupancyDays = 7

func (h *handler) listStores(c *gin.Context) {
	stores, err := h.svc.ListStores(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

func (h *handler) listRooms(c *gin.Context) {
	rooms, err := h.svc.ListRoomsByStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// dateRange reads ?from&to, defaulting to a week starting today.
func (h *handler) dateRange(c *gin.Context) (string, string) {
	today := h.now()
	from := c.DefaultQuery("from", today.Format(domain.DateLayout))
	to := c.Query("to")
	if to == "" {
		to = today.AddDate(0, 0, defaultOccupancyDays-1).Format(domain.DateLayout)
		if c.Query("from") != "" {
			to = from
		}
	}
	return from, to
}

type occupancyCell struct {
	core.OccupancyCell
	Label string `json:"label"`
}

type occupancyRow struct {
	Room  domain.Room     `json:"room"`
	Cells []occupancyCell `json:"cells"`
}

func (h *handler) occupancy(c *gin.Context) {
	from, to := h.dateRange(c)
	rows, err := h.svc.Occupancy(c.Request.Context(), principal(c), c.Param("id"), from, to)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := make([]occupancyRow, 0, len(rows))
	for _, row := range rows {
		cells := make([]occupancyCell, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, occupancyCell{OccupancyCell: cell, Label: BookingStatusLabel(cell.Status)})
		}
		out = append(out, occupancyRow{Room: row.Room, Cells: cells})
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "rows": out})
}

func (h *handler) roomBookings(c *gin.Context) {
	from, to := h.dateRange(c)
	bookings, err := h.svc.BookingsByRoomAndDateRange(c.Request.Context(), principal(c), c.Param("id"), from, to)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *handler) listCustomers(c *gin.Context) {
	customers, err := h.svc.CustomersVisibleTo(c.Request.Context(), principal(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *handler) addCustomer(c *gin.Context) {
	var in core.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, err)
		return
	}
	customer, err := h.svc.AddCustomer(c.Request.Context(), principal(c), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *handler) getCustomer(c *gin.Context) {
	customer, err := h.svc.Customer(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

type customerPatchRequest struct {
	domain.CustomerPatch
	ExpectedVersion int64 `json:"expected_version"`
}

func (h *handler) updateCustomer(c *gin.Context) {
	var req customerPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	customer, err := h.svc.UpdateCustomer(c.Request.Context(), principal(c), c.Param("id"), req.CustomerPatch, req.ExpectedVersion)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *handler) listTeam(c *gin.Context) {
	p, ok := requireLeader(c, "team.list")
	if !ok {
		return
	}
	members, err := h.svc.TeamOf(c.Request.Context(), p.StaffNo)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type teamMemberRequest struct {
	StaffNo   string `json:"staff_no"`
	StaffName string `json:"staff_name"`
}

func (h *handler) addTeamMember(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	member, err := h.svc.AddTeamMember(c.Request.Context(), principal(c), req.StaffNo, req.StaffName)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *handler) removeTeamMember(c *gin.Context) {
	if err := h.svc.RemoveTeamMember(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) staffOverview(c *gin.Context) {
	overview, err := h.svc.StaffOverview(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
