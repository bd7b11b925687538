package memory

import (
	"time"

	"venueflow/pkg/domain"
)

// ID prefixes per entity kind.
const (
	prefixStore       = "store"
	prefixRoom        = "r"
	prefixCustomer    = "c"
	prefixTeamMember  = "tm"
	prefixBooking     = "b"
	prefixRecharge    = "rr"
	prefixConsumption = "cr"
)

// transaction represents a mutation set applied to a private copy of the store state.
type transaction struct {
	transactionView
	store   *Store
	state   memoryState
	changes []domain.Change
	now     time.Time
}

func newTransaction(s *Store) *transaction {
	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	tx.transactionView = transactionView{state: &tx.state}
	return tx
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view of the transaction's current state.
func (tx *transaction) Snapshot() domain.TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) stampCreate(b *domain.Base, prefix string) {
	if b.ID == "" {
		b.ID = tx.store.newID(prefix)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	b.Version = 1
}

func (tx *transaction) stampUpdate(b *domain.Base, before domain.Base) {
	b.ID = before.ID
	b.CreatedAt = before.CreatedAt
	b.UpdatedAt = tx.now
	b.Version = before.Version + 1
}

func duplicate(entity domain.EntityType, id string) error {
	return domain.ConflictError{Entity: entity, ID: id, Message: "already exists"}
}

// CreateStore stores a new venue location.
func (tx *transaction) CreateStore(s domain.Store) (domain.Store, error) {
	if s.ID == "" {
		s.ID = tx.store.newID(prefixStore)
	}
	if _, exists := tx.state.stores[s.ID]; exists {
		return domain.Store{}, duplicate(domain.EntityStore, s.ID)
	}
	tx.state.stores[s.ID] = s
	tx.recordChange(domain.Change{Entity: domain.EntityStore, Action: domain.ActionCreate, After: s})
	return s, nil
}

// CreateRoom stores a new room.
func (tx *transaction) CreateRoom(r domain.Room) (domain.Room, error) {
	if r.ID == "" {
		r.ID = tx.store.newID(prefixRoom)
	}
	if _, exists := tx.state.rooms[r.ID]; exists {
		return domain.Room{}, duplicate(domain.EntityRoom, r.ID)
	}
	tx.state.rooms[r.ID] = r
	tx.recordChange(domain.Change{Entity: domain.EntityRoom, Action: domain.ActionCreate, After: r})
	return r, nil
}

// CreateCustomer stores a new customer.
func (tx *transaction) CreateCustomer(c domain.Customer) (domain.Customer, error) {
	tx.stampCreate(&c.Base, prefixCustomer)
	if _, exists := tx.state.customers[c.ID]; exists {
		return domain.Customer{}, duplicate(domain.EntityCustomer, c.ID)
	}
	tx.state.customers[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityCustomer, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateCustomer mutates a customer using the provided mutator function.
func (tx *transaction) UpdateCustomer(id string, mutator func(*domain.Customer) error) (domain.Customer, error) {
	current, ok := tx.state.customers[id]
	if !ok {
		return domain.Customer{}, domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Customer{}, err
	}
	tx.stampUpdate(&current.Base, before.Base)
	tx.state.customers[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityCustomer, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateTeamMember stores a new roster link.
func (tx *transaction) CreateTeamMember(m domain.TeamMember) (domain.TeamMember, error) {
	tx.stampCreate(&m.Base, prefixTeamMember)
	if _, exists := tx.state.team[m.ID]; exists {
		return domain.TeamMember{}, duplicate(domain.EntityTeamMember, m.ID)
	}
	tx.state.team[m.ID] = m
	tx.recordChange(domain.Change{Entity: domain.EntityTeamMember, Action: domain.ActionCreate, After: m})
	return m, nil
}

// DeleteTeamMember removes a roster link.
func (tx *transaction) DeleteTeamMember(id string) error {
	current, ok := tx.state.team[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTeamMember, ID: id}
	}
	delete(tx.state.team, id)
	tx.recordChange(domain.Change{Entity: domain.EntityTeamMember, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateBooking stores a new booking.
func (tx *transaction) CreateBooking(b domain.Booking) (domain.Booking, error) {
	tx.stampCreate(&b.Base, prefixBooking)
	if _, exists := tx.state.bookings[b.ID]; exists {
		return domain.Booking{}, duplicate(domain.EntityBooking, b.ID)
	}
	tx.state.bookings[b.ID] = cloneBooking(b)
	tx.recordChange(domain.Change{Entity: domain.EntityBooking, Action: domain.ActionCreate, After: cloneBooking(b)})
	return cloneBooking(b), nil
}

// UpdateBooking mutates a booking using the provided mutator function.
func (tx *transaction) UpdateBooking(id string, mutator func(*domain.Booking) error) (domain.Booking, error) {
	current, ok := tx.state.bookings[id]
	if !ok {
		return domain.Booking{}, domain.NotFoundError{Entity: domain.EntityBooking, ID: id}
	}
	before := cloneBooking(current)
	current = cloneBooking(current)
	if err := mutator(&current); err != nil {
		return domain.Booking{}, err
	}
	tx.stampUpdate(&current.Base, before.Base)
	tx.state.bookings[id] = cloneBooking(current)
	tx.recordChange(domain.Change{Entity: domain.EntityBooking, Action: domain.ActionUpdate, Before: before, After: cloneBooking(current)})
	return cloneBooking(current), nil
}

// CreateRechargeRequest stores a new recharge request.
func (tx *transaction) CreateRechargeRequest(r domain.RechargeRequest) (domain.RechargeRequest, error) {
	tx.stampCreate(&r.Base, prefixRecharge)
	if _, exists := tx.state.recharges[r.ID]; exists {
		return domain.RechargeRequest{}, duplicate(domain.EntityRechargeRequest, r.ID)
	}
	tx.state.recharges[r.ID] = r
	tx.recordChange(domain.Change{Entity: domain.EntityRechargeRequest, Action: domain.ActionCreate, After: r})
	return r, nil
}

// UpdateRechargeRequest mutates a recharge request using the provided mutator function.
func (tx *transaction) UpdateRechargeRequest(id string, mutator func(*domain.RechargeRequest) error) (domain.RechargeRequest, error) {
	current, ok := tx.state.recharges[id]
	if !ok {
		return domain.RechargeRequest{}, domain.NotFoundError{Entity: domain.EntityRechargeRequest, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.RechargeRequest{}, err
	}
	tx.stampUpdate(&current.Base, before.Base)
	tx.state.recharges[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityRechargeRequest, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateConsumptionRequest stores a new consumption request.
func (tx *transaction) CreateConsumptionRequest(c domain.ConsumptionRequest) (domain.ConsumptionRequest, error) {
	tx.stampCreate(&c.Base, prefixConsumption)
	if _, exists := tx.state.consumptions[c.ID]; exists {
		return domain.ConsumptionRequest{}, duplicate(domain.EntityConsumptionRequest, c.ID)
	}
	tx.state.consumptions[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityConsumptionRequest, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateConsumptionRequest mutates a consumption request using the provided mutator function.
func (tx *transaction) UpdateConsumptionRequest(id string, mutator func(*domain.ConsumptionRequest) error) (domain.ConsumptionRequest, error) {
	current, ok := tx.state.consumptions[id]
	if !ok {
		return domain.ConsumptionRequest{}, domain.NotFoundError{Entity: domain.EntityConsumptionRequest, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.ConsumptionRequest{}, err
	}
	tx.stampUpdate(&current.Base, before.Base)
	tx.state.consumptions[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityConsumptionRequest, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}
