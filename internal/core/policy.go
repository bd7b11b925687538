package core

import "venueflow/pkg/domain"

// Action names an operation checked by the authorization policy.
type Action string

// Policy actions.
const (
	ActionCreateBooking       Action = "booking.create"
	ActionCreateBookedBooking Action = "booking.create_booked"
	ActionApproveBooking      Action = "booking.approve"
	ActionRejectBooking       Action = "booking.reject"
	ActionCancelBooking       Action = "booking.cancel"
	ActionViewBooking         Action = "booking.view"

	ActionCreateRecharge  Action = "recharge.create"
	ActionApproveRecharge Action = "recharge.approve"
	ActionRejectRecharge  Action = "recharge.reject"
	ActionViewRecharge    Action = "recharge.view"

	ActionCreateConsumption  Action = "consumption.create"
	ActionApproveConsumption Action = "consumption.approve"
	ActionRejectConsumption  Action = "consumption.reject"
	ActionViewConsumption    Action = "consumption.view"

	ActionCreateCustomer Action = "customer.create"
	ActionUpdateCustomer Action = "customer.update"
	ActionViewCustomer   Action = "customer.view"

	ActionManageTeam    Action = "team.manage"
	ActionViewStaffInfo Action = "team.overview"
)

// Denial reasons.
const (
	ReasonRoleForbidden  = "role_forbidden"
	ReasonOutOfTeam      = "out_of_team"
	ReasonNotApprover    = "not_assigned_approver"
	ReasonNotOwner       = "not_owner"
	ReasonUnknownAction  = "unknown_action"
	ReasonInvalidSubject = "invalid_principal"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns the AuthorizationError for a denial, nil when allowed.
func (d Decision) Err(p domain.Principal, action Action) error {
	if d.Allowed {
		return nil
	}
	return domain.AuthorizationError{StaffNo: p.StaffNo, Action: string(action), Reason: d.Reason}
}

// Roster resolves the leader of a staff member.
type Roster interface {
	LeaderFor(staffNo string) (string, bool)
}

// Subject carries the attributes of the record being acted on.
type Subject struct {
	// OwnerStaffNo is the creator or owning staff member.
	OwnerStaffNo string
	// ServiceStaffNo is the staff member who served a booking, if any.
	ServiceStaffNo string
	// LeaderID is the approver captured on a request.
	LeaderID string
}

// scope describes which subjects a role may act on for an action.
type scope int

const (
	scopeNone scope = iota
	// scopeAny allows every subject.
	scopeAny
	// scopeSelf allows subjects owned or serviced by the principal.
	scopeSelf
	// scopeRoster allows subjects owned by a member of the principal's roster.
	scopeRoster
	// scopeTeam allows roster subjects plus the principal's own.
	scopeTeam
	// scopeApprover allows subjects whose captured leader is the principal.
	scopeApprover
	// scopeApproverOrTeam widens scopeApprover with scopeTeam for reads.
	scopeApproverOrTeam
)

// decisionTable defines the scope of every Action for every Role.
var decisionTable = map[Action]map[domain.Role]scope{
	ActionCreateBooking:       {domain.RoleSales: scopeAny, domain.RoleLeader: scopeAny},
	ActionCreateBookedBooking: {domain.RoleSales: scopeNone, domain.RoleLeader: scopeAny},
	ActionApproveBooking:      {domain.RoleSales: scopeNone, domain.RoleLeader: scopeRoster},
	ActionRejectBooking:       {domain.RoleSales: scopeNone, domain.RoleLeader: scopeRoster},
	ActionCancelBooking:       {domain.RoleSales: scopeNone, domain.RoleLeader: scopeTeam},
	ActionViewBooking:         {domain.RoleSales: scopeSelf, domain.RoleLeader: scopeTeam},

	ActionCreateRecharge:  {domain.RoleSales: scopeAny, domain.RoleLeader: scopeAny},
	ActionApproveRecharge: {domain.RoleSales: scopeNone, domain.RoleLeader: scopeApprover},
	ActionRejectRecharge:  {domain.RoleSales: scopeNone, domain.RoleLeader: scopeApprover},
	ActionViewRecharge:    {domain.RoleSales: scopeSelf, domain.RoleLeader: scopeApproverOrTeam},

	ActionCreateConsumption:  {domain.RoleSales: scopeAny, domain.RoleLeader: scopeAny},
	ActionApproveConsumption: {domain.RoleSales: scopeNone, domain.RoleLeader: scopeApprover},
	ActionRejectConsumption:  {domain.RoleSales: scopeNone, domain.RoleLeader: scopeApprover},
	ActionViewConsumption:    {domain.RoleSales: scopeSelf, domain.RoleLeader: scopeApproverOrTeam},

	ActionCreateCustomer: {domain.RoleSales: scopeAny, domain.RoleLeader: scopeAny},
	ActionUpdateCustomer: {domain.RoleSales: scopeSelf, domain.RoleLeader: scopeTeam},
	ActionViewCustomer:   {domain.RoleSales: scopeSelf, domain.RoleLeader: scopeTeam},

	ActionManageTeam:    {domain.RoleSales: scopeNone, domain.RoleLeader: scopeAny},
	ActionViewStaffInfo: {domain.RoleSales: scopeNone, domain.RoleLeader: scopeRoster},
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// CanTransition decides whether principal may perform action on subject.
// It is a pure function of its inputs.
func CanTransition(p domain.Principal, roster Roster, subject Subject, action Action) Decision {
	if p.StaffNo == "" || !p.Role.Valid() {
		return deny(ReasonInvalidSubject)
	}
	byRole, ok := decisionTable[action]
	if !ok {
		return deny(ReasonUnknownAction)
	}
	switch byRole[p.Role] {
	case scopeAny:
		return allow()
	case scopeSelf:
		if isSelf(p, subject) {
			return allow()
		}
		return deny(ReasonNotOwner)
	case scopeRoster:
		if inRoster(p, roster, subject) {
			return allow()
		}
		return deny(ReasonOutOfTeam)
	case scopeTeam:
		if isSelf(p, subject) || inRoster(p, roster, subject) {
			return allow()
		}
		return deny(ReasonOutOfTeam)
	case scopeApprover:
		if subject.LeaderID != "" && subject.LeaderID == p.StaffNo {
			return allow()
		}
		return deny(ReasonNotApprover)
	case scopeApproverOrTeam:
		if subject.LeaderID == p.StaffNo || isSelf(p, subject) || inRoster(p, roster, subject) {
			return allow()
		}
		return deny(ReasonOutOfTeam)
	case scopeNone:
	}
	return deny(ReasonRoleForbidden)
}

func isSelf(p domain.Principal, subject Subject) bool {
	return subject.OwnerStaffNo == p.StaffNo || (subject.ServiceStaffNo != "" && subject.ServiceStaffNo == p.StaffNo)
}

func inRoster(p domain.Principal, roster Roster, subject Subject) bool {
	if roster == nil {
		return false
	}
	for _, staffNo := range []string{subject.OwnerStaffNo, subject.ServiceStaffNo} {
		if staffNo == "" {
			continue
		}
		if leader, ok := roster.LeaderFor(staffNo); ok && leader == p.StaffNo {
			return true
		}
	}
	return false
}

// rosterIndex is a Roster built from the team members of one view.
type rosterIndex map[string]string

func newRosterIndex(view domain.RuleView) rosterIndex {
	members := view.ListTeamMembers()
	idx := make(rosterIndex, len(members))
	for _, m := range members {
		idx[m.StaffNo] = m.LeaderID
	}
	return idx
}

func (r rosterIndex) LeaderFor(staffNo string) (string, bool) {
	leader, ok := r[staffNo]
	return leader, ok
}

func bookingSubject(b domain.Booking) Subject {
	s := Subject{OwnerStaffNo: b.Sales.StaffNo}
	if b.ServiceSales != nil {
		s.ServiceStaffNo = b.ServiceSales.StaffNo
	}
	return s
}

func rechargeSubject(r domain.RechargeRequest) Subject {
	return Subject{OwnerStaffNo: r.Sales.StaffNo, LeaderID: r.LeaderID}
}

func consumptionSubject(r domain.ConsumptionRequest) Subject {
	return Subject{OwnerStaffNo: r.ServiceSales.StaffNo, ServiceStaffNo: r.BookingSales.StaffNo, LeaderID: r.LeaderID}
}

func customerSubject(c domain.Customer) Subject {
	return Subject{OwnerStaffNo: c.OwnerStaffID}
}
