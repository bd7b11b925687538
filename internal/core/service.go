// Package core implements the venue workflow engine: the booking, recharge
// and consumption state machines, the authorization policy, the directory of
// reference data and the read-side queries.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"venueflow/pkg/domain"
)

// Service exposes the workflow operations over a persistent store.
type Service struct {
	store   domain.PersistentStore
	logger  zerolog.Logger
	metrics *Metrics
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger used for audit events.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches transition counters.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithServiceClock overrides the clock used for default dates.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a service backed by store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *Service) Store() domain.PersistentStore { return s.store }

// mutate runs fn in a transaction, translating rule violations into conflicts,
// then records the outcome in logs and metrics.
func (s *Service) mutate(ctx context.Context, entity domain.EntityType, op string, p domain.Principal, fn func(tx domain.Transaction) error) error {
	res, err := s.store.RunInTransaction(ctx, fn)
	var ruleErr domain.RuleViolationError
	if errors.As(err, &ruleErr) {
		err = conflictFromViolations(ruleErr)
	}
	s.metrics.observeOperation(entity, op, err)
	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.
		Str("entity", string(entity)).
		Str("op", op).
		Str("staff_no", p.StaffNo).
		Str("role", string(p.Role)).
		Msg("workflow operation")
	for _, v := range res.Violations {
		if v.Severity != domain.SeverityBlock {
			s.logger.Warn().Str("rule", v.Rule).Str("entity_id", v.EntityID).Msg(v.Message)
		}
	}
	return err
}

// read runs fn against a consistent snapshot.
func (s *Service) read(ctx context.Context, fn func(view domain.TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.View(ctx, fn)
}

func (s *Service) today() string {
	return s.now().Format(domain.DateLayout)
}

func checkVersion(entity domain.EntityType, id string, expected, actual int64) error {
	if expected != 0 && expected != actual {
		return domain.ConflictError{Entity: entity, ID: id, Message: "version mismatch"}
	}
	return nil
}

func validPrincipal(p domain.Principal) error {
	if p.StaffNo == "" {
		return domain.ValidationError{Field: "principal", Message: "staff number required"}
	}
	if !p.Role.Valid() {
		return domain.ValidationError{Field: "principal", Message: "unknown role " + string(p.Role)}
	}
	return nil
}
