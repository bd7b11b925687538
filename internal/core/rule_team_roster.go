package core

import (
	"context"
	"fmt"

	"venueflow/pkg/domain"
)

// NewTeamRosterRule returns the rule that links every staff number to at most one leader.
func NewTeamRosterRule() domain.Rule {
	return teamRosterRule{}
}

type teamRosterRule struct{}

func (teamRosterRule) Name() string { return "team_roster" }

func (teamRosterRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	seen := make(map[string]domain.TeamMember)
	res := domain.Result{}
	for _, member := range view.ListTeamMembers() {
		first, dup := seen[member.StaffNo]
		if !dup {
			seen[member.StaffNo] = member
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "team_roster",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("staff %s already belongs to leader %s", member.StaffNo, first.LeaderID),
			Entity:   domain.EntityTeamMember,
			EntityID: member.ID,
		})
	}
	return res, nil
}
