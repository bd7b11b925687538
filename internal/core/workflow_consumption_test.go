package core

import (
	"context"
	"errors"
	"testing"

	"venueflow/pkg/domain"
)

func TestConsumptionApprovalFinishesBooking(t *testing.T) {
	svc, store := newSeededService(t)
	ctx := context.Background()

	request, err := svc.CreateConsumptionRequest(ctx, li, ConsumptionInput{BookingID: "b1", ImageURL: " https://img/receipt.png "})
	if err != nil {
		t.Fatalf("create consumption: %v", err)
	}
	if request.Status != domain.RequestPending || request.LeaderID != leader.StaffNo {
		t.Fatalf("unexpected request: %+v", request)
	}
	if request.BookingSales.StaffNo != zhang.StaffNo || request.ServiceSales.StaffNo != li.StaffNo {
		t.Fatalf("expected booking sales 张三 and service sales 李四, got %+v / %+v", request.BookingSales, request.ServiceSales)
	}
	if request.RoomName != "101" || request.ImageURL != "https://img/receipt.png" {
		t.Fatalf("unexpected denormalized fields: %+v", request)
	}

	approved, err := svc.TransitionConsumption(ctx, leader, RequestTransition{RequestID: request.ID, Event: domain.RequestEventApprove})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.RequestApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	booking := mustBooking(t, store, "b1")
	if booking.Status != domain.BookingFinished {
		t.Fatalf("expected finished booking, got %s", booking.Status)
	}
	if booking.ServiceSales == nil || booking.ServiceSales.StaffNo != li.StaffNo || booking.ServiceSales.Name != "李四" {
		t.Fatalf("expected service sales copied onto booking, got %+v", booking.ServiceSales)
	}
}

func TestConsumptionApprovalFailureLeavesBothRecords(t *testing.T) {
	svc, store := newSeededService(t)
	ctx := context.Background()
	request, err := svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "b3"})
	if err != nil {
		t.Fatalf("create consumption: %v", err)
	}

	store.SetSnapshotSink(func(context.Context, domain.Snapshot) error { return errors.New("disk full") })
	_, err = svc.TransitionConsumption(ctx, leader, RequestTransition{RequestID: request.ID, Event: domain.RequestEventApprove})
	expectErrorAs[domain.PersistenceError](t, err)
	store.SetSnapshotSink(nil)

	state := store.ExportState()
	if got := state.ConsumptionRequests[request.ID].Status; got != domain.RequestPending {
		t.Fatalf("request must stay pending, got %s", got)
	}
	if got := state.Bookings["b3"]; got.Status != domain.BookingBooked || got.ServiceSales != nil {
		t.Fatalf("booking must stay booked, got %+v", got)
	}
}

func TestConsumptionApprovalRequiresBookedBooking(t *testing.T) {
	svc, store := newSeededService(t)
	ctx := context.Background()
	request, err := svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "b1"})
	if err != nil {
		t.Fatalf("create consumption: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateBooking("b1", func(b *domain.Booking) error {
			b.Status = domain.BookingFinished
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("finish out of band: %v", err)
	}

	_, err = svc.TransitionConsumption(ctx, leader, RequestTransition{RequestID: request.ID, Event: domain.RequestEventApprove})
	expectErrorAs[domain.PreconditionError](t, err)
	if got := store.ExportState().ConsumptionRequests[request.ID].Status; got != domain.RequestPending {
		t.Fatalf("request must stay pending, got %s", got)
	}
}

func TestCreateConsumptionGuards(t *testing.T) {
	svc, store := newSeededService(t)
	ctx := context.Background()

	_, err := svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "b2"})
	expectErrorAs[domain.PreconditionError](t, err)

	_, err = svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "missing"})
	expectErrorAs[domain.NotFoundError](t, err)

	_, err = svc.CreateConsumptionRequest(ctx, loner, ConsumptionInput{BookingID: "b1"})
	expectErrorAs[domain.PreconditionError](t, err)
	if got := len(store.ExportState().ConsumptionRequests); got != 0 {
		t.Fatalf("nothing must be created without a leader, got %d", got)
	}

	first, err := svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "b1"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err = svc.CreateConsumptionRequest(ctx, li, ConsumptionInput{BookingID: "b1"})
	conflict := expectErrorAs[domain.ConflictError](t, err)
	if conflict.ID != first.ID {
		t.Fatalf("expected conflict naming %s, got %+v", first.ID, conflict)
	}
}

func TestRejectConsumptionKeepsBooking(t *testing.T) {
	svc, store := newSeededService(t)
	ctx := context.Background()
	request, err := svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "b1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.TransitionConsumption(ctx, otherLeader, RequestTransition{RequestID: request.ID, Event: domain.RequestEventApprove})
	expectErrorAs[domain.AuthorizationError](t, err)

	_, err = svc.TransitionConsumption(ctx, leader, RequestTransition{RequestID: request.ID, Event: domain.RequestEventReject})
	expectErrorAs[domain.ValidationError](t, err)

	rejected, err := svc.TransitionConsumption(ctx, leader, RequestTransition{RequestID: request.ID, Event: domain.RequestEventReject, Reason: "照片不清晰"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.RequestRejected || rejected.RejectReason != "照片不清晰" {
		t.Fatalf("unexpected rejection: %+v", rejected)
	}
	if got := mustBooking(t, store, "b1"); got.Status != domain.BookingBooked {
		t.Fatalf("rejection must not touch the booking, got %s", got.Status)
	}

	if _, err := svc.CreateConsumptionRequest(ctx, zhang, ConsumptionInput{BookingID: "b1"}); err != nil {
		t.Fatalf("a rejected request must not block a new one: %v", err)
	}
}
