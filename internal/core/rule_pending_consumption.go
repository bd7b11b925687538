package core

import (
	"context"
	"fmt"

	"venueflow/pkg/domain"
)

// NewPendingConsumptionRule returns the rule that keeps at most one pending
// consumption request per booking.
func NewPendingConsumptionRule() domain.Rule {
	return pendingConsumptionRule{}
}

type pendingConsumptionRule struct{}

func (pendingConsumptionRule) Name() string { return "pending_consumption" }

func (pendingConsumptionRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	pending := make(map[string]string)
	res := domain.Result{}
	for _, request := range view.ListConsumptionRequests() {
		if request.Status != domain.RequestPending {
			continue
		}
		if first, dup := pending[request.BookingID]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "pending_consumption",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("booking %s already has pending consumption request %s", request.BookingID, first),
				Entity:   domain.EntityConsumptionRequest,
				EntityID: request.ID,
			})
			continue
		}
		pending[request.BookingID] = request.ID
	}
	return res, nil
}
