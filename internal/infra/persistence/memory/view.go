package memory

import (
	"sort"

	"venueflow/pkg/domain"
)

// transactionView exposes a read-only snapshot of the transactional state to rules and queries.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) domain.TransactionView {
	return transactionView{state: state}
}

// sortedValues returns the map values ordered by key so listings are deterministic.
func sortedValues[T any](m map[string]T, clone func(T) T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if clone != nil {
			v = clone(v)
		}
		out = append(out, v)
	}
	return out
}

func (v transactionView) ListStores() []domain.Store {
	return sortedValues(v.state.stores, nil)
}

func (v transactionView) ListRooms() []domain.Room {
	return sortedValues(v.state.rooms, nil)
}

func (v transactionView) ListCustomers() []domain.Customer {
	return sortedValues(v.state.customers, nil)
}

func (v transactionView) ListTeamMembers() []domain.TeamMember {
	return sortedValues(v.state.team, nil)
}

func (v transactionView) ListBookings() []domain.Booking {
	return sortedValues(v.state.bookings, cloneBooking)
}

func (v transactionView) ListRechargeRequests() []domain.RechargeRequest {
	return sortedValues(v.state.recharges, nil)
}

func (v transactionView) ListConsumptionRequests() []domain.ConsumptionRequest {
	return sortedValues(v.state.consumptions, nil)
}

func (v transactionView) FindStore(id string) (domain.Store, bool) {
	s, ok := v.state.stores[id]
	return s, ok
}

func (v transactionView) FindRoom(id string) (domain.Room, bool) {
	r, ok := v.state.rooms[id]
	return r, ok
}

func (v transactionView) FindCustomer(id string) (domain.Customer, bool) {
	c, ok := v.state.customers[id]
	return c, ok
}

func (v transactionView) FindTeamMember(id string) (domain.TeamMember, bool) {
	m, ok := v.state.team[id]
	return m, ok
}

func (v transactionView) FindTeamMemberByStaffNo(staffNo string) (domain.TeamMember, bool) {
	for _, m := range v.state.team {
		if m.StaffNo == staffNo {
			return m, true
		}
	}
	return domain.TeamMember{}, false
}

func (v transactionView) FindBooking(id string) (domain.Booking, bool) {
	b, ok := v.state.bookings[id]
	if !ok {
		return domain.Booking{}, false
	}
	return cloneBooking(b), true
}

func (v transactionView) FindRechargeRequest(id string) (domain.RechargeRequest, bool) {
	r, ok := v.state.recharges[id]
	return r, ok
}

func (v transactionView) FindConsumptionRequest(id string) (domain.ConsumptionRequest, bool) {
	c, ok := v.state.consumptions[id]
	return c, ok
}
