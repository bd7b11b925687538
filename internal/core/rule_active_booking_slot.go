package core

import (
	"context"
	"fmt"

	"venueflow/pkg/domain"
)

// NewActiveBookingSlotRule returns the rule that allows at most one active
// booking per room and date.
func NewActiveBookingSlotRule() domain.Rule {
	return activeBookingSlotRule{}
}

type activeBookingSlotRule struct{}

type slotKey struct {
	roomID string
	date   string
}

func (activeBookingSlotRule) Name() string { return "active_booking_slot" }

func (activeBookingSlotRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	holders := make(map[slotKey][]string)
	var order []slotKey
	for _, booking := range view.ListBookings() {
		if !booking.Active() {
			continue
		}
		key := slotKey{roomID: booking.RoomID, date: booking.Date}
		if _, seen := holders[key]; !seen {
			order = append(order, key)
		}
		holders[key] = append(holders[key], booking.ID)
	}

	res := domain.Result{}
	for _, key := range order {
		ids := holders[key]
		if len(ids) < 2 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "active_booking_slot",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("room %s already booked on %s (%d active bookings)", key.roomID, key.date, len(ids)),
			Entity:   domain.EntityBooking,
			EntityID: ids[len(ids)-1],
		})
	}
	return res, nil
}
