package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venueflow/internal/core"
	"venueflow/pkg/domain"
)

type transitionRequest struct {
	Event           string `json:"event" binding:"required"`
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

// requireLeader aborts with 403 unless the caller is a leader.
func requireLeader(c *gin.Context, action string) (domain.Principal, bool) {
	p := principal(c)
	if !p.IsLeader() {
		respondDomainError(c, domain.AuthorizationError{StaffNo: p.StaffNo, Action: action, Reason: "leader role required"})
		return p, false
	}
	return p, true
}

func (h *handler) listBookings(c *gin.Context) {
	p := principal(c)
	if sales := c.Query("sales"); sales != "" {
		if !p.IsLeader() && sales != p.StaffNo {
			respondDomainError(c, domain.AuthorizationError{StaffNo: p.StaffNo, Action: "booking.list", Reason: "may only list own bookings"})
			return
		}
		bookings, err := h.svc.BookingsBySales(c.Request.Context(), p, sales)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": bookings})
		return
	}
	bookings, err := h.svc.ListBookings(c.Request.Context(), p)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *handler) createBooking(c *gin.Context) {
	var in core.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, err)
		return
	}
	booking, err := h.svc.CreateBooking(c.Request.Context(), principal(c), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *handler) pendingBookings(c *gin.Context) {
	p, ok := requireLeader(c, "booking.review")
	if !ok {
		return
	}
	bookings, err := h.svc.PendingBookings(c.Request.Context(), p.StaffNo)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *handler) getBooking(c *gin.Context) {
	booking, err := h.svc.Booking(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *handler) transitionBooking(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	booking, err := h.svc.TransitionBooking(c.Request.Context(), principal(c), core.BookingTransition{
		BookingID:       c.Param("id"),
		Event:           domain.BookingEvent(req.Event),
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *handler) listRecharges(c *gin.Context) {
	requests, err := h.svc.ListRecharges(c.Request.Context(), principal(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recharges": requests})
}

func (h *handler) createRecharge(c *gin.Context) {
	var in core.RechargeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, err)
		return
	}
	req, err := h.svc.CreateRechargeRequest(c.Request.Context(), principal(c), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *handler) pendingRecharges(c *gin.Context) {
	p, ok := requireLeader(c, "recharge.review")
	if !ok {
		return
	}
	requests, err := h.svc.PendingRecharges(c.Request.Context(), p.StaffNo)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recharges": requests})
}

func (h *handler) transitionRecharge(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	updated, err := h.svc.TransitionRecharge(c.Request.Context(), principal(c), requestTransition(c, req))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handler) listConsumptions(c *gin.Context) {
	requests, err := h.svc.ListConsumptions(c.Request.Context(), principal(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consumptions": requests})
}

func (h *handler) createConsumption(c *gin.Context) {
	var in core.ConsumptionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, err)
		return
	}
	req, err := h.svc.CreateConsumptionRequest(c.Request.Context(), principal(c), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *handler) pendingConsumptions(c *gin.Context) {
	p, ok := requireLeader(c, "consumption.review")
	if !ok {
		return
	}
	requests, err := h.svc.PendingConsumptions(c.Request.Context(), p.StaffNo)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consumptions": requests})
}

func (h *handler) transitionConsumption(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	updated, err := h.svc.TransitionConsumption(c.Request.Context(), principal(c), requestTransition(c, req))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func requestTransition(c *gin.Context, req transitionRequest) core.RequestTransition {
	return core.RequestTransition{
		RequestID:       c.Param("id"),
		Event:           domain.RequestEvent(req.Event),
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	}
}
