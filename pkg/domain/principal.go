package domain

// Role is the permission class of an authenticated staff member.
type Role string

// Supported roles.
const (
	RoleSales  Role = "sales"
	RoleLeader Role = "leader"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool { return r == RoleSales || r == RoleLeader }

// Principal is the authenticated caller of a core operation.
type Principal struct {
	StaffNo string `json:"staff_no"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
}

// IsLeader reports whether the principal holds the leader role.
func (p Principal) IsLeader() bool { return p.Role == RoleLeader }

// Ref returns the staff reference stamped onto records created by p.
func (p Principal) Ref() StaffRef {
	return StaffRef{ID: p.StaffNo, Name: p.Name, StaffNo: p.StaffNo}
}
