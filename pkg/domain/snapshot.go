package domain

// Snapshot captures a point-in-time copy of the full repository state.
type Snapshot struct {
	Stores              map[string]Store              `json:"stores"`
	Rooms               map[string]Room               `json:"rooms"`
	Customers           map[string]Customer           `json:"customers"`
	TeamMembers         map[string]TeamMember         `json:"team_members"`
	Bookings            map[string]Booking            `json:"bookings"`
	RechargeRequests    map[string]RechargeRequest    `json:"recharge_requests"`
	ConsumptionRequests map[string]ConsumptionRequest `json:"consumption_requests"`
}

// SnapshotBuckets lists the bucket names used by row-per-bucket backends.
var SnapshotBuckets = []string{
	"stores",
	"rooms",
	"customers",
	"team_members",
	"bookings",
	"recharge_requests",
	"consumption_requests",
}

// Bucket returns a pointer to the map stored under name, suitable for both
// json.Marshal and json.Unmarshal.
func (s *Snapshot) Bucket(name string) (any, bool) {
	switch name {
	case "stores":
		return &s.Stores, true
	case "rooms":
		return &s.Rooms, true
	case "customers":
		return &s.Customers, true
	case "team_members":
		return &s.TeamMembers, true
	case "bookings":
		return &s.Bookings, true
	case "recharge_requests":
		return &s.RechargeRequests, true
	case "consumption_requests":
		return &s.ConsumptionRequests, true
	}
	return nil, false
}

// Empty reports whether the snapshot holds no records at all.
func (s Snapshot) Empty() bool {
	return len(s.Stores) == 0 &&
		len(s.Rooms) == 0 &&
		len(s.Customers) == 0 &&
		len(s.TeamMembers) == 0 &&
		len(s.Bookings) == 0 &&
		len(s.RechargeRequests) == 0 &&
		len(s.ConsumptionRequests) == 0
}

// Normalize replaces nil maps with empty ones so encoded snapshots never carry null buckets.
func (s *Snapshot) Normalize() {
	if s.Stores == nil {
		s.Stores = map[string]Store{}
	}
	if s.Rooms == nil {
		s.Rooms = map[string]Room{}
	}
	if s.Customers == nil {
		s.Customers = map[string]Customer{}
	}
	if s.TeamMembers == nil {
		s.TeamMembers = map[string]TeamMember{}
	}
	if s.Bookings == nil {
		s.Bookings = map[string]Booking{}
	}
	if s.RechargeRequests == nil {
		s.RechargeRequests = map[string]RechargeRequest{}
	}
	if s.ConsumptionRequests == nil {
		s.ConsumptionRequests = map[string]ConsumptionRequest{}
	}
}
