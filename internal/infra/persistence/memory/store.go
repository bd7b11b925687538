// Package memory provides the in-memory implementation of the venue
// repository. Durable backends wrap it and receive every committed snapshot.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"venueflow/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

// SnapshotSink receives the complete post-transaction state before it becomes
// visible. Returning an error aborts the commit.
type SnapshotSink func(ctx context.Context, snapshot domain.Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithSnapshotSink registers the durable save hook invoked on every commit.
func WithSnapshotSink(sink SnapshotSink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithIDGenerator overrides id generation; prefix identifies the entity kind.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Store) {
		if fn != nil {
			s.idFn = fn
		}
	}
}

// Store is a transactional, copy-on-write repository over the venue entities.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
	idFn   func(prefix string) string
	sink   SnapshotSink
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   func(prefix string) string { return prefix + "-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSnapshotSink replaces the commit hook. Durable backends call it once
// after hydrating the store.
func (s *Store) SetSnapshotSink(sink SnapshotSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot without
// invoking the snapshot sink.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// ReplaceState swaps in a whole snapshot through the commit path. The
// migrated candidate is checked by the rules engine over the full state and
// handed to the snapshot sink before it becomes visible; a blocking rule or a
// sink failure leaves the current state in place.
func (s *Store) ReplaceState(ctx context.Context, snapshot domain.Snapshot) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	candidate := memoryStateFromSnapshot(migrateSnapshot(snapshot))

	s.mu.Lock()
	defer s.mu.Unlock()
	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(&candidate), nil)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}
	if s.sink != nil {
		if err := s.sink(ctx, snapshotFromMemoryState(candidate)); err != nil {
			return result, domain.PersistenceError{Op: "save snapshot", Err: err}
		}
	}
	s.state = candidate
	return result, nil
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// RunInTransaction applies fn to a private copy of the state. The copy is
// evaluated by the rules engine, handed to the snapshot sink, and only then
// swapped in. Any failure leaves the visible state untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTransaction(s)
	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if len(tx.changes) == 0 {
		return result, nil
	}
	if s.sink != nil {
		if err := s.sink(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, domain.PersistenceError{Op: "save snapshot", Err: err}
		}
	}
	s.state = tx.state
	return result, nil
}

// View runs fn against a consistent read-only copy of the state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

func (s *Store) newID(prefix string) string {
	return s.idFn(prefix)
}
