package core

import (
	"context"
	"fmt"
	"strings"

	"venueflow/pkg/domain"
)

// ConsumptionInput carries the fields of a new consumption confirmation.
type ConsumptionInput struct {
	BookingID string `json:"booking_id"`
	ImageURL  string `json:"image_url"`
}

// CreateConsumptionRequest records that the principal served a booked session
// and asks their leader to confirm it.
func (s *Service) CreateConsumptionRequest(ctx context.Context, p domain.Principal, in ConsumptionInput) (domain.ConsumptionRequest, error) {
	if err := validPrincipal(p); err != nil {
		return domain.ConsumptionRequest{}, err
	}
	if strings.TrimSpace(in.BookingID) == "" {
		return domain.ConsumptionRequest{}, domain.ValidationError{Field: "booking_id", Message: "required"}
	}
	var created domain.ConsumptionRequest
	err := s.mutate(ctx, domain.EntityConsumptionRequest, "create", p, func(tx domain.Transaction) error {
		booking, ok := tx.FindBooking(in.BookingID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBooking, ID: in.BookingID}
		}
		if booking.Status != domain.BookingBooked {
			return domain.PreconditionError{Message: fmt.Sprintf("booking %s is %s, consumption needs booked", booking.ID, booking.Status)}
		}
		room, ok := tx.FindRoom(booking.RoomID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRoom, ID: booking.RoomID}
		}
		if err := CanTransition(p, newRosterIndex(tx), Subject{OwnerStaffNo: p.StaffNo}, ActionCreateConsumption).Err(p, ActionCreateConsumption); err != nil {
			return err
		}
		leaderID, ok := leaderFor(tx, p.StaffNo)
		if !ok {
			return domain.PreconditionError{Message: fmt.Sprintf("staff %s has no leader to confirm the consumption", p.StaffNo)}
		}
		for _, existing := range tx.ListConsumptionRequests() {
			if existing.BookingID == booking.ID && existing.Status == domain.RequestPending {
				return domain.ConflictError{
					Entity:  domain.EntityConsumptionRequest,
					ID:      existing.ID,
					Message: "booking " + booking.ID + " already has a pending consumption request",
				}
			}
		}
		var err error
		created, err = tx.CreateConsumptionRequest(domain.ConsumptionRequest{
			BookingID:    booking.ID,
			CustomerID:   booking.CustomerID,
			CustomerName: booking.CustomerName,
			RoomID:       room.ID,
			RoomName:     room.Name,
			Date:         booking.Date,
			BookingSales: booking.Sales,
			ServiceSales: p.Ref(),
			ImageURL:     strings.TrimSpace(in.ImageURL),
			Status:       domain.RequestPending,
			LeaderID:     leaderID,
		})
		return err
	})
	return created, err
}

// TransitionConsumption approves or rejects a pending consumption request.
// Approval also finishes the booking and stamps the serving staff onto it in
// the same transaction; if the booking is no longer booked nothing changes.
func (s *Service) TransitionConsumption(ctx context.Context, p domain.Principal, in RequestTransition) (domain.ConsumptionRequest, error) {
	if err := validPrincipal(p); err != nil {
		return domain.ConsumptionRequest{}, err
	}
	reason, err := in.validate()
	if err != nil {
		return domain.ConsumptionRequest{}, err
	}
	action := ActionApproveConsumption
	if in.Event == domain.RequestEventReject {
		action = ActionRejectConsumption
	}
	var updated domain.ConsumptionRequest
	err = s.mutate(ctx, domain.EntityConsumptionRequest, string(in.Event), p, func(tx domain.Transaction) error {
		current, ok := tx.FindConsumptionRequest(in.RequestID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityConsumptionRequest, ID: in.RequestID}
		}
		if err := CanTransition(p, newRosterIndex(tx), consumptionSubject(current), action).Err(p, action); err != nil {
			return err
		}
		if err := checkVersion(domain.EntityConsumptionRequest, current.ID, in.ExpectedVersion, current.Version); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdateConsumptionRequest(current.ID, func(r *domain.ConsumptionRequest) error {
			next, ok := domain.NextRequestStatus(r.Status, in.Event)
			if !ok {
				return domain.PreconditionError{Message: fmt.Sprintf("consumption request %s is already %s", r.ID, r.Status)}
			}
			r.Status = next
			if in.Event == domain.RequestEventReject {
				r.RejectReason = reason
			}
			return nil
		})
		if err != nil || in.Event != domain.RequestEventApprove {
			return err
		}
		if _, ok := tx.FindBooking(current.BookingID); !ok {
			return domain.NotFoundError{Entity: domain.EntityBooking, ID: current.BookingID}
		}
		service := current.ServiceSales
		_, err = applyBookingTransition(tx, current.BookingID, domain.BookingEventFinish, "", func(b *domain.Booking) {
			b.ServiceSales = &service
		})
		return err
	})
	return updated, err
}
