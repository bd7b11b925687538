package core

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"venueflow/internal/infra/persistence/memory"
	"venueflow/pkg/domain"
)

// Metrics holds the prometheus collectors for workflow and persistence events.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations   *prometheus.CounterVec
	snapshotSave prometheus.Histogram
	snapshotFail prometheus.Counter
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venueflow",
			Name:      "workflow_operations_total",
			Help:      "Workflow operations by entity, operation and outcome.",
		}, []string{"entity", "op", "outcome"}),
		snapshotSave: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "venueflow",
			Name:      "snapshot_save_seconds",
			Help:      "Duration of durable snapshot saves.",
			Buckets:   prometheus.DefBuckets,
		}),
		snapshotFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venueflow",
			Name:      "snapshot_save_failures_total",
			Help:      "Snapshot saves that failed and aborted a commit.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.snapshotSave, m.snapshotFail)
	}
	return m
}

func (m *Metrics) observeOperation(entity domain.EntityType, op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(entity), op, outcomeLabel(err)).Inc()
}

// InstrumentSink wraps a snapshot sink with duration and failure metrics.
func (m *Metrics) InstrumentSink(sink memory.SnapshotSink) memory.SnapshotSink {
	if m == nil || sink == nil {
		return sink
	}
	return func(ctx context.Context, snapshot domain.Snapshot) error {
		start := time.Now()
		err := sink(ctx, snapshot)
		m.snapshotSave.Observe(time.Since(start).Seconds())
		if err != nil {
			m.snapshotFail.Inc()
		}
		return err
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		validation   domain.ValidationError
		notFound     domain.NotFoundError
		conflict     domain.ConflictError
		authz        domain.AuthorizationError
		precondition domain.PreconditionError
		persistence  domain.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &authz):
		return "forbidden"
	case errors.As(err, &precondition):
		return "precondition"
	case errors.As(err, &persistence):
		return "persistence"
	}
	return "error"
}
