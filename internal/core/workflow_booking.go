package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"venueflow/pkg/domain"
)

// BookingInput carries the fields of a new booking. A zero Price defaults to
// the room price.
type BookingInput struct {
	RoomID     string `json:"room_id"`
	Date       string `json:"date"`
	CustomerID string `json:"customer_id"`
	Price      int64  `json:"price"`
}

// BookingTransition requests an event on an existing booking. A non-zero
// ExpectedVersion must match the stored version.
type BookingTransition struct {
	BookingID       string              `json:"booking_id"`
	Event           domain.BookingEvent `json:"event"`
	Reason          string              `json:"reason"`
	ExpectedVersion int64               `json:"expected_version"`
}

var bookingEventActions = map[domain.BookingEvent]Action{
	domain.BookingEventApprove: ActionApproveBooking,
	domain.BookingEventReject:  ActionRejectBooking,
	domain.BookingEventCancel:  ActionCancelBooking,
}

// CreateBooking reserves a room for a date. Sales land in pending, leaders
// skip approval and land in booked.
func (s *Service) CreateBooking(ctx context.Context, p domain.Principal, in BookingInput) (domain.Booking, error) {
	if err := validPrincipal(p); err != nil {
		return domain.Booking{}, err
	}
	if err := validateBookingInput(in); err != nil {
		return domain.Booking{}, err
	}
	status := domain.BookingPending
	action := ActionCreateBooking
	if p.IsLeader() {
		status = domain.BookingBooked
		action = ActionCreateBookedBooking
	}
	var created domain.Booking
	err := s.mutate(ctx, domain.EntityBooking, "create", p, func(tx domain.Transaction) error {
		room, ok := tx.FindRoom(in.RoomID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRoom, ID: in.RoomID}
		}
		customer, ok := tx.FindCustomer(in.CustomerID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityCustomer, ID: in.CustomerID}
		}
		roster := newRosterIndex(tx)
		if err := CanTransition(p, roster, customerSubject(customer), ActionViewCustomer).Err(p, ActionViewCustomer); err != nil {
			return err
		}
		if err := CanTransition(p, roster, Subject{OwnerStaffNo: p.StaffNo}, action).Err(p, action); err != nil {
			return err
		}
		if holder, taken := activeBookingFor(tx, in.RoomID, in.Date); taken {
			return domain.ConflictError{
				Entity:  domain.EntityBooking,
				ID:      holder.ID,
				Message: fmt.Sprintf("room %s is already %s on %s", room.Name, holder.Status, in.Date),
			}
		}
		price := in.Price
		if price == 0 {
			price = room.Price
		}
		var err error
		created, err = tx.CreateBooking(domain.Booking{
			RoomID:       room.ID,
			Date:         in.Date,
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Price:        price,
			Status:       status,
			Sales:        p.Ref(),
		})
		return err
	})
	return created, err
}

func validateBookingInput(in BookingInput) error {
	if strings.TrimSpace(in.RoomID) == "" {
		return domain.ValidationError{Field: "room_id", Message: "required"}
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return domain.ValidationError{Field: "customer_id", Message: "required"}
	}
	if _, err := time.Parse(domain.DateLayout, in.Date); err != nil {
		return domain.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	if in.Price < 0 {
		return domain.ValidationError{Field: "price", Message: "must not be negative"}
	}
	return nil
}

func activeBookingFor(view domain.RuleView, roomID, date string) (domain.Booking, bool) {
	for _, b := range view.ListBookings() {
		if b.RoomID == roomID && b.Date == date && b.Active() {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// TransitionBooking applies a leader decision (approve, reject, cancel) to a booking.
// Finishing happens only through consumption approval.
func (s *Service) TransitionBooking(ctx context.Context, p domain.Principal, in BookingTransition) (domain.Booking, error) {
	if err := validPrincipal(p); err != nil {
		return domain.Booking{}, err
	}
	action, ok := bookingEventActions[in.Event]
	if !ok {
		return domain.Booking{}, domain.ValidationError{Field: "event", Message: fmt.Sprintf("unsupported booking event %q", in.Event)}
	}
	reason := strings.TrimSpace(in.Reason)
	if in.Event.RequiresReason() && reason == "" {
		return domain.Booking{}, domain.ValidationError{Field: "reason", Message: "required to " + string(in.Event)}
	}
	var updated domain.Booking
	err := s.mutate(ctx, domain.EntityBooking, string(in.Event), p, func(tx domain.Transaction) error {
		current, ok := tx.FindBooking(in.BookingID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBooking, ID: in.BookingID}
		}
		if err := CanTransition(p, newRosterIndex(tx), bookingSubject(current), action).Err(p, action); err != nil {
			return err
		}
		if err := checkVersion(domain.EntityBooking, current.ID, in.ExpectedVersion, current.Version); err != nil {
			return err
		}
		var err error
		updated, err = applyBookingTransition(tx, current.ID, in.Event, reason, nil)
		return err
	})
	return updated, err
}

// applyBookingTransition is the single path that changes a booking status. It
// sets the status together with its reason and any extra fields in one update.
func applyBookingTransition(tx domain.Transaction, id string, event domain.BookingEvent, reason string, extra func(*domain.Booking)) (domain.Booking, error) {
	return tx.UpdateBooking(id, func(b *domain.Booking) error {
		next, ok := domain.NextBookingStatus(b.Status, event)
		if !ok {
			return domain.PreconditionError{Message: fmt.Sprintf("booking %s is %s and cannot %s", b.ID, b.Status, event)}
		}
		b.Status = next
		switch event {
		case domain.BookingEventReject:
			b.RejectReason = reason
		case domain.BookingEventCancel:
			b.CancelReason = reason
		case domain.BookingEventApprove, domain.BookingEventFinish:
		}
		if extra != nil {
			extra(b)
		}
		return nil
	})
}
