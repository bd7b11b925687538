package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"venueflow/internal/infra/blob"
	blobcore "venueflow/internal/infra/blob/core"
	"venueflow/internal/infra/persistence/memory"
	"venueflow/pkg/domain"
)

func TestOpenPersistentStoreDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  StorageConfig
	}{
		{"sqlite", StorageConfig{Driver: StorageSQLite, SQLitePath: filepath.Join(dir, "venue.db")}},
		{"blob fs", StorageConfig{Driver: StorageBlob, Blob: blob.Config{Driver: blobcore.DriverFilesystem, FSRoot: filepath.Join(dir, "blobs")}, BlobPrefix: "snapshots", BlobRetain: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMetrics(prometheus.NewRegistry())
			store, err := OpenPersistentStore(ctx, tc.cfg, NewDefaultRulesEngine(), m, zerolog.Nop(), memory.WithClock(testClock()))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			svc := NewService(store, WithServiceClock(testClock()))
			if _, err := svc.SeedIfEmpty(ctx); err != nil {
				t.Fatalf("seed: %v", err)
			}
			if got := testutil.CollectAndCount(m.snapshotSave); got != 1 {
				t.Fatalf("expected the save histogram to be collected, got %d", got)
			}
			if err := store.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reopened, err := OpenPersistentStore(ctx, tc.cfg, NewDefaultRulesEngine(), nil, zerolog.Nop())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()
			state := reopened.ExportState()
			if len(state.Bookings) != 4 || state.Bookings["b4"].Status != domain.BookingFinished {
				t.Fatalf("expected seeded bookings after reopen, got %d", len(state.Bookings))
			}
			seeded, err := NewService(reopened).SeedIfEmpty(ctx)
			if err != nil || seeded {
				t.Fatalf("reopened store must not be reseeded: %v %v", seeded, err)
			}
		})
	}
}

func TestOpenPersistentStoreMemoryAndUnknown(t *testing.T) {
	ctx := context.Background()
	store, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageMemory}, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if !store.ExportState().Empty() {
		t.Fatalf("memory store must start empty")
	}
	if _, err := OpenPersistentStore(ctx, StorageConfig{Driver: "redis"}, nil, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageBlob, Blob: blob.Config{Driver: "tape"}}, nil, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected unknown blob driver error")
	}
}

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	store := newMemoryStore()
	svc := NewService(store, WithServiceClock(testClock()), WithMetrics(m))
	ctx := context.Background()
	if _, err := svc.SeedIfEmpty(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.CreateBooking(ctx, zhang, BookingInput{RoomID: "r4", Date: "2025-03-20", CustomerID: "c0000001"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateBooking(ctx, zhang, BookingInput{RoomID: "r4", Date: "2025-03-20", CustomerID: "c0000001"}); err == nil {
		t.Fatalf("expected slot conflict")
	}
	if _, err := svc.TransitionBooking(ctx, zhang, BookingTransition{BookingID: "b2", Event: domain.BookingEventApprove}); err == nil {
		t.Fatalf("expected forbidden")
	}

	ops := m.operations
	if got := testutil.ToFloat64(ops.WithLabelValues("booking", "create", "ok")); got != 1 {
		t.Fatalf("expected 1 ok create, got %v", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("booking", "create", "conflict")); got != 1 {
		t.Fatalf("expected 1 conflict create, got %v", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("booking", "approve", "forbidden")); got != 1 {
		t.Fatalf("expected 1 forbidden approve, got %v", got)
	}

	failing := m.InstrumentSink(func(context.Context, domain.Snapshot) error { return errors.New("down") })
	store.SetSnapshotSink(failing)
	_, err := svc.CreateBooking(ctx, zhang, BookingInput{RoomID: "r4", Date: "2025-03-21", CustomerID: "c0000001"})
	expectErrorAs[domain.PersistenceError](t, err)
	if got := testutil.ToFloat64(m.snapshotFail); got != 1 {
		t.Fatalf("expected 1 save failure, got %v", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("booking", "create", "persistence")); got != 1 {
		t.Fatalf("expected 1 persistence outcome, got %v", got)
	}
}

func TestOutcomeLabel(t *testing.T) {
	cases := map[string]error{
		"ok":           nil,
		"validation":   domain.ValidationError{Field: "x"},
		"not_found":    domain.NotFoundError{Entity: domain.EntityRoom},
		"conflict":     domain.ConflictError{},
		"forbidden":    domain.AuthorizationError{},
		"precondition": domain.PreconditionError{},
		"persistence":  domain.PersistenceError{Op: "save", Err: errors.New("x")},
		"error":        errors.New("boom"),
	}
	for want, err := range cases {
		if got := outcomeLabel(err); got != want {
			t.Fatalf("outcomeLabel(%v) = %s, want %s", err, got, want)
		}
	}
	var nilMetrics *Metrics
	nilMetrics.observeOperation(domain.EntityBooking, "create", nil)
	if nilMetrics.InstrumentSink(nil) != nil {
		t.Fatalf("nil metrics must return the sink unchanged")
	}
}
