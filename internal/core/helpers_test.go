package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"venueflow/internal/infra/persistence/memory"
	"venueflow/pkg/domain"
)

var (
	zhang       = domain.Principal{StaffNo: "S0000001", Name: "张三", Role: domain.RoleSales}
	li          = domain.Principal{StaffNo: "S0000002", Name: "李四", Role: domain.RoleSales}
	leader      = domain.Principal{StaffNo: "L0000001", Name: "王队长", Role: domain.RoleLeader}
	otherLeader = domain.Principal{StaffNo: "L0000002", Name: "孙队长", Role: domain.RoleLeader}
	loner       = domain.Principal{StaffNo: "S0000009", Name: "周七", Role: domain.RoleSales}
)

func testClock() func() time.Time {
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func newMemoryStore() *memory.Store {
	return memory.NewStore(NewDefaultRulesEngine(), memory.WithClock(testClock()))
}

// newSeededService returns a service over the demo data with "today" fixed to 2025-03-10.
func newSeededService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := newMemoryStore()
	svc := NewService(store, WithServiceClock(testClock()))
	seeded, err := svc.SeedIfEmpty(context.Background())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatalf("expected seed to apply on an empty store")
	}
	return svc, store
}

func expectErrorAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %v", target, err)
	}
	return target
}

func mustBooking(t *testing.T, store *memory.Store, id string) domain.Booking {
	t.Helper()
	var booking domain.Booking
	err := store.View(context.Background(), func(view domain.TransactionView) error {
		var ok bool
		if booking, ok = view.FindBooking(id); !ok {
			t.Fatalf("booking %s missing", id)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return booking
}
