package memory

import "venueflow/pkg/domain"

type memoryState struct {
	stores       map[string]domain.Store
	rooms        map[string]domain.Room
	customers    map[string]domain.Customer
	team         map[string]domain.TeamMember
	bookings     map[string]domain.Booking
	recharges    map[string]domain.RechargeRequest
	consumptions map[string]domain.ConsumptionRequest
}

func newMemoryState() memoryState {
	return memoryState{
		stores:       make(map[string]domain.Store),
		rooms:        make(map[string]domain.Room),
		customers:    make(map[string]domain.Customer),
		team:         make(map[string]domain.TeamMember),
		bookings:     make(map[string]domain.Booking),
		recharges:    make(map[string]domain.RechargeRequest),
		consumptions: make(map[string]domain.ConsumptionRequest),
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		stores:       make(map[string]domain.Store, len(s.stores)),
		rooms:        make(map[string]domain.Room, len(s.rooms)),
		customers:    make(map[string]domain.Customer, len(s.customers)),
		team:         make(map[string]domain.TeamMember, len(s.team)),
		bookings:     make(map[string]domain.Booking, len(s.bookings)),
		recharges:    make(map[string]domain.RechargeRequest, len(s.recharges)),
		consumptions: make(map[string]domain.ConsumptionRequest, len(s.consumptions)),
	}
	for k, v := range s.stores {
		out.stores[k] = v
	}
	for k, v := range s.rooms {
		out.rooms[k] = v
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.team {
		out.team[k] = v
	}
	for k, v := range s.bookings {
		out.bookings[k] = cloneBooking(v)
	}
	for k, v := range s.recharges {
		out.recharges[k] = v
	}
	for k, v := range s.consumptions {
		out.consumptions[k] = v
	}
	return out
}

// cloneBooking copies the optional service staff reference so callers never share it.
func cloneBooking(b domain.Booking) domain.Booking {
	if b.ServiceSales != nil {
		ref := *b.ServiceSales
		b.ServiceSales = &ref
	}
	return b
}

func snapshotFromMemoryState(state memoryState) domain.Snapshot {
	c := state.clone()
	return domain.Snapshot{
		Stores:              c.stores,
		Rooms:               c.rooms,
		Customers:           c.customers,
		TeamMembers:         c.team,
		Bookings:            c.bookings,
		RechargeRequests:    c.recharges,
		ConsumptionRequests: c.consumptions,
	}
}

func memoryStateFromSnapshot(s domain.Snapshot) memoryState {
	return sharedState(s).clone()
}

// sharedState views the snapshot buckets as a state without copying them.
func sharedState(s domain.Snapshot) memoryState {
	return memoryState{
		stores:       s.Stores,
		rooms:        s.Rooms,
		customers:    s.Customers,
		team:         s.TeamMembers,
		bookings:     s.Bookings,
		recharges:    s.RechargeRequests,
		consumptions: s.ConsumptionRequests,
	}
}

// migrateSnapshot returns a normalized copy of a decoded snapshot: nil buckets
// become empty, records missing their id take it from the map key, and
// versions start at 1. The input is left untouched. Dangling references are
// kept; readers resolve them lazily as not found.
func migrateSnapshot(in domain.Snapshot) domain.Snapshot {
	snapshot := snapshotFromMemoryState(sharedState(in))
	snapshot.Normalize()
	for id, v := range snapshot.Stores {
		if v.ID == "" {
			v.ID = id
			snapshot.Stores[id] = v
		}
	}
	for id, v := range snapshot.Rooms {
		if v.ID == "" {
			v.ID = id
		}
		if !v.Size.Valid() {
			v.Size = domain.RoomSmall
		}
		snapshot.Rooms[id] = v
	}
	for id, v := range snapshot.Customers {
		v.Base = migrateBase(id, v.Base)
		snapshot.Customers[id] = v
	}
	for id, v := range snapshot.TeamMembers {
		v.Base = migrateBase(id, v.Base)
		snapshot.TeamMembers[id] = v
	}
	for id, v := range snapshot.Bookings {
		v.Base = migrateBase(id, v.Base)
		snapshot.Bookings[id] = v
	}
	for id, v := range snapshot.RechargeRequests {
		v.Base = migrateBase(id, v.Base)
		snapshot.RechargeRequests[id] = v
	}
	for id, v := range snapshot.ConsumptionRequests {
		v.Base = migrateBase(id, v.Base)
		snapshot.ConsumptionRequests[id] = v
	}
	return snapshot
}

func migrateBase(id string, b domain.Base) domain.Base {
	if b.ID == "" {
		b.ID = id
	}
	if b.Version < 1 {
		b.Version = 1
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	return b
}
