package core

import (
	"strings"

	"venueflow/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewActiveBookingSlotRule())
	engine.Register(LifecycleTransitionRule())
	engine.Register(NewTeamRosterRule())
	engine.Register(NewPendingConsumptionRule())
	return engine
}

// conflictFromViolations converts blocking rule violations into a ConflictError
// naming the first offending entity.
func conflictFromViolations(err domain.RuleViolationError) error {
	blocking := err.Result.Blocking()
	if len(blocking) == 0 {
		return err
	}
	messages := make([]string, 0, len(blocking))
	for _, v := range blocking {
		messages = append(messages, v.Message)
	}
	return domain.ConflictError{
		Entity:  blocking[0].Entity,
		ID:      blocking[0].EntityID,
		Message: strings.Join(messages, "; "),
	}
}
