package core

import (
	"context"
	"sort"
	"time"

	"venueflow/pkg/domain"
)

// maxOccupancyDays bounds the date range of one occupancy request.
const maxOccupancyDays = 62

func newestFirst[T any](items []T, base func(T) domain.Base) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := base(items[i]), base(items[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func bookingBase(b domain.Booking) domain.Base                { return b.Base }
func rechargeBase(r domain.RechargeRequest) domain.Base       { return r.Base }
func consumptionBase(r domain.ConsumptionRequest) domain.Base { return r.Base }

// ListBookings returns the bookings visible to the principal, newest first.
func (s *Service) ListBookings(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	var out []domain.Booking
	err := s.read(ctx, func(view domain.TransactionView) error {
		roster := newRosterIndex(view)
		for _, b := range view.ListBookings() {
			if CanTransition(p, roster, bookingSubject(b), ActionViewBooking).Allowed {
				out = append(out, b)
			}
		}
		return nil
	})
	newestFirst(out, bookingBase)
	return out, err
}

// Booking returns one booking if it is visible to the principal.
func (s *Service) Booking(ctx context.Context, p domain.Principal, id string) (domain.Booking, error) {
	if err := validPrincipal(p); err != nil {
		return domain.Booking{}, err
	}
	var booking domain.Booking
	err := s.read(ctx, func(view domain.TransactionView) error {
		var ok bool
		if booking, ok = view.FindBooking(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityBooking, ID: id}
		}
		return CanTransition(p, newRosterIndex(view), bookingSubject(booking), ActionViewBooking).Err(p, ActionViewBooking)
	})
	return booking, err
}

// PendingBookings returns pending bookings created by members of leaderID's
// roster. An empty leaderID returns every pending booking.
func (s *Service) PendingBookings(ctx context.Context, leaderID string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := s.read(ctx, func(view domain.TransactionView) error {
		roster := newRosterIndex(view)
		for _, b := range view.ListBookings() {
			if b.Status != domain.BookingPending {
				continue
			}
			if leaderID != "" {
				if leader, ok := roster.LeaderFor(b.Sales.StaffNo); !ok || leader != leaderID {
					continue
				}
			}
			out = append(out, b)
		}
		return nil
	})
	newestFirst(out, bookingBase)
	return out, err
}

// PendingRecharges returns pending recharge requests awaiting leaderID.
func (s *Service) PendingRecharges(ctx context.Context, leaderID string) ([]domain.RechargeRequest, error) {
	var out []domain.RechargeRequest
	err := s.read(ctx, func(view domain.TransactionView) error {
		for _, r := range view.ListRechargeRequests() {
			if r.Status == domain.RequestPending && r.LeaderID == leaderID {
				out = append(out, r)
			}
		}
		return nil
	})
	newestFirst(out, rechargeBase)
	return out, err
}

// PendingConsumptions returns pending consumption requests awaiting leaderID.
func (s *Service) PendingConsumptions(ctx context.Context, leaderID string) ([]domain.ConsumptionRequest, error) {
	var out []domain.ConsumptionRequest
	err := s.read(ctx, func(view domain.TransactionView) error {
		for _, r := range view.ListConsumptionRequests() {
			if r.Status == domain.RequestPending && r.LeaderID == leaderID {
				out = append(out, r)
			}
		}
		return nil
	})
	newestFirst(out, consumptionBase)
	return out, err
}

// ListRecharges returns the recharge requests visible to the principal.
func (s *Service) ListRecharges(ctx context.Context, p domain.Principal) ([]domain.RechargeRequest, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	var out []domain.RechargeRequest
	err := s.read(ctx, func(view domain.TransactionView) error {
		roster := newRosterIndex(view)
		for _, r := range view.ListRechargeRequests() {
			if CanTransition(p, roster, rechargeSubject(r), ActionViewRecharge).Allowed {
				out = append(out, r)
			}
		}
		return nil
	})
	newestFirst(out, rechargeBase)
	return out, err
}

// ListConsumptions returns the consumption requests visible to the principal.
func (s *Service) ListConsumptions(ctx context.Context, p domain.Principal) ([]domain.ConsumptionRequest, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	var out []domain.ConsumptionRequest
	err := s.read(ctx, func(view domain.TransactionView) error {
		roster := newRosterIndex(view)
		for _, r := range view.ListConsumptionRequests() {
			if CanTransition(p, roster, consumptionSubject(r), ActionViewConsumption).Allowed {
				out = append(out, r)
			}
		}
		return nil
	})
	newestFirst(out, consumptionBase)
	return out, err
}

// BookingsByRoomAndDateRange returns every booking of a room, in any status,
// whose date lies within [from, to], ordered by date. Bookings outside the
// principal's view keep only their date and status.
func (s *Service) BookingsByRoomAndDateRange(ctx context.Context, p domain.Principal, roomID, from, to string) ([]domain.Booking, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	if _, _, err := parseRange(from, to, 0); err != nil {
		return nil, err
	}
	var out []domain.Booking
	err := s.read(ctx, func(view domain.TransactionView) error {
		if _, ok := view.FindRoom(roomID); !ok {
			return domain.NotFoundError{Entity: domain.EntityRoom, ID: roomID}
		}
		roster := newRosterIndex(view)
		for _, b := range view.ListBookings() {
			if b.RoomID != roomID || b.Date < from || b.Date > to {
				continue
			}
			if !CanTransition(p, roster, bookingSubject(b), ActionViewBooking).Allowed {
				b = domain.Booking{RoomID: b.RoomID, Date: b.Date, Status: b.Status}
			}
			out = append(out, b)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, err
}

// BookingsBySales returns the bookings a staff member created or served that
// the principal may view.
func (s *Service) BookingsBySales(ctx context.Context, p domain.Principal, staffNo string) ([]domain.Booking, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	var out []domain.Booking
	err := s.read(ctx, func(view domain.TransactionView) error {
		roster := newRosterIndex(view)
		for _, b := range bookingsOfStaff(view, staffNo) {
			if CanTransition(p, roster, bookingSubject(b), ActionViewBooking).Allowed {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

func bookingsOfStaff(view domain.RuleView, staffNo string) []domain.Booking {
	var out []domain.Booking
	for _, b := range view.ListBookings() {
		if b.Sales.StaffNo == staffNo || (b.ServiceSales != nil && b.ServiceSales.StaffNo == staffNo) {
			out = append(out, b)
		}
	}
	newestFirst(out, bookingBase)
	return out
}

func parseRange(from, to string, maxDays int) (time.Time, time.Time, error) {
	start, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "from", Message: "must be YYYY-MM-DD"}
	}
	end, err := time.Parse(domain.DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "to", Message: "must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "to", Message: "must not precede from"}
	}
	if maxDays > 0 && int(end.Sub(start).Hours()/24)+1 > maxDays {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "to", Message: "range too long"}
	}
	return start, end, nil
}

// OccupancyCell is the state of one room on one day.
type OccupancyCell struct {
	Date   string               `json:"date"`
	Status domain.BookingStatus `json:"status"`
	// Booking details are set only when the caller may view the booking.
	BookingID    string `json:"booking_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	SalesName    string `json:"sales_name,omitempty"`
	// CancelledNote hints that a cancelled booking exists for the slot. It
	// is informational; the slot is free for new bookings.
	CancelledNote string `json:"cancelled_note,omitempty"`
}

// OccupancyRow is one room across the requested days.
type OccupancyRow struct {
	Room  domain.Room     `json:"room"`
	Cells []OccupancyCell `json:"cells"`
}

// Occupancy builds the room by day matrix of one store for [from, to].
func (s *Service) Occupancy(ctx context.Context, p domain.Principal, storeID, from, to string) ([]OccupancyRow, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	start, end, err := parseRange(from, to, maxOccupancyDays)
	if err != nil {
		return nil, err
	}
	var rows []OccupancyRow
	err = s.read(ctx, func(view domain.TransactionView) error {
		if _, ok := view.FindStore(storeID); !ok {
			return domain.NotFoundError{Entity: domain.EntityStore, ID: storeID}
		}
		active := make(map[slotKey]domain.Booking)
		cancelled := make(map[slotKey]domain.Booking)
		for _, b := range view.ListBookings() {
			key := slotKey{roomID: b.RoomID, date: b.Date}
			switch {
			case b.Active():
				active[key] = b
			case b.Status == domain.BookingCancelled:
				cancelled[key] = b
			}
		}
		roster := newRosterIndex(view)
		for _, room := range roomsOfStore(view, storeID) {
			row := OccupancyRow{Room: room}
			for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
				key := slotKey{roomID: room.ID, date: day.Format(domain.DateLayout)}
				cell := OccupancyCell{Date: key.date, Status: domain.BookingFree}
				if b, ok := active[key]; ok {
					cell.Status = b.Status
					if CanTransition(p, roster, bookingSubject(b), ActionViewBooking).Allowed {
						cell.BookingID = b.ID
						cell.CustomerName = b.CustomerName
						cell.SalesName = b.Sales.Name
					}
				}
				if c, ok := cancelled[key]; ok {
					cell.CancelledNote = "cancelled: " + c.CancelReason
				}
				row.Cells = append(row.Cells, cell)
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}

// StaffOverview is the drill-down of one roster member.
type StaffOverview struct {
	Member       domain.TeamMember           `json:"member"`
	Customers    []domain.Customer           `json:"customers"`
	Bookings     []domain.Booking            `json:"bookings"`
	Recharges    []domain.RechargeRequest    `json:"recharges"`
	Consumptions []domain.ConsumptionRequest `json:"consumptions"`
}

// StaffOverview returns the records of a staff member in the leader's roster.
func (s *Service) StaffOverview(ctx context.Context, leader domain.Principal, staffNo string) (StaffOverview, error) {
	if err := validPrincipal(leader); err != nil {
		return StaffOverview{}, err
	}
	var out StaffOverview
	err := s.read(ctx, func(view domain.TransactionView) error {
		if err := CanTransition(leader, newRosterIndex(view), Subject{OwnerStaffNo: staffNo}, ActionViewStaffInfo).Err(leader, ActionViewStaffInfo); err != nil {
			return err
		}
		member, ok := view.FindTeamMemberByStaffNo(staffNo)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityTeamMember, ID: staffNo}
		}
		out.Member = member
		for _, c := range view.ListCustomers() {
			if c.OwnerStaffID == staffNo {
				out.Customers = append(out.Customers, c)
			}
		}
		out.Bookings = bookingsOfStaff(view, staffNo)
		for _, r := range view.ListRechargeRequests() {
			if r.Sales.StaffNo == staffNo {
				out.Recharges = append(out.Recharges, r)
			}
		}
		for _, r := range view.ListConsumptionRequests() {
			if r.ServiceSales.StaffNo == staffNo || r.BookingSales.StaffNo == staffNo {
				out.Consumptions = append(out.Consumptions, r)
			}
		}
		newestFirst(out.Recharges, rechargeBase)
		newestFirst(out.Consumptions, consumptionBase)
		return nil
	})
	return out, err
}
