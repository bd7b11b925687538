package core

import (
	"context"
	"fmt"

	"venueflow/pkg/domain"
)

// LifecycleTransitionRule blocks illegal state transitions on bookings and requests.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleMachine struct {
	entity    domain.EntityType
	label     string
	initial   map[string]struct{}
	allowed   func(from, to string) bool
	extractor func(payload any) (id string, state string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityBooking: {
		entity:  domain.EntityBooking,
		label:   "booking",
		initial: toSet(string(domain.BookingPending), string(domain.BookingBooked)),
		allowed: func(from, to string) bool {
			return domain.BookingTransitionAllowed(domain.BookingStatus(from), domain.BookingStatus(to))
		},
		extractor: func(payload any) (string, string, bool) {
			booking, ok := payload.(domain.Booking)
			if !ok {
				return "", "", false
			}
			return booking.ID, string(booking.Status), true
		},
	},
	domain.EntityRechargeRequest: {
		entity:  domain.EntityRechargeRequest,
		label:   "recharge request",
		initial: toSet(string(domain.RequestPending)),
		allowed: requestTransitionAllowed,
		extractor: func(payload any) (string, string, bool) {
			request, ok := payload.(domain.RechargeRequest)
			if !ok {
				return "", "", false
			}
			return request.ID, string(request.Status), true
		},
	},
	domain.EntityConsumptionRequest: {
		entity:  domain.EntityConsumptionRequest,
		label:   "consumption request",
		initial: toSet(string(domain.RequestPending)),
		allowed: requestTransitionAllowed,
		extractor: func(payload any) (string, string, bool) {
			request, ok := payload.(domain.ConsumptionRequest)
			if !ok {
				return "", "", false
			}
			return request.ID, string(request.Status), true
		},
	},
}

func requestTransitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, event := range []domain.RequestEvent{domain.RequestEventApprove, domain.RequestEventReject} {
		if next, ok := domain.NextRequestStatus(domain.RequestStatus(from), event); ok && string(next) == to {
			return true
		}
	}
	return false
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(machine lifecycleMachine, id, message string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "lifecycle_transition",
			Severity: domain.SeverityBlock,
			Message:  message,
			Entity:   machine.entity,
			EntityID: id,
		})
	}
	for _, change := range changes {
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}
		afterID, afterState, hasAfter := machine.extractor(change.After)
		if !hasAfter {
			continue
		}
		switch change.Action {
		case domain.ActionCreate:
			if _, ok := machine.initial[afterState]; !ok {
				block(machine, afterID, fmt.Sprintf("%s %s cannot be created in state %s", machine.label, afterID, afterState))
			}
		case domain.ActionUpdate:
			_, beforeState, ok := machine.extractor(change.Before)
			if !ok {
				continue
			}
			if !machine.allowed(beforeState, afterState) {
				block(machine, afterID, fmt.Sprintf("cannot move %s %s from %s to %s", machine.label, afterID, beforeState, afterState))
			}
		case domain.ActionDelete:
		}
	}
	return res, nil
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
