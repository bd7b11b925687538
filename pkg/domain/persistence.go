package domain

import "context"

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListStores() []Store
	FindStore(id string) (Store, bool)
	FindTeamMember(id string) (TeamMember, bool)
	FindTeamMemberByStaffNo(staffNo string) (TeamMember, bool)
	FindRechargeRequest(id string) (RechargeRequest, bool)
	FindConsumptionRequest(id string) (ConsumptionRequest, bool)
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Reads observe the transaction's own writes.
type Transaction interface {
	TransactionView
	Snapshot() TransactionView
	CreateStore(Store) (Store, error)
	CreateRoom(Room) (Room, error)
	CreateCustomer(Customer) (Customer, error)
	UpdateCustomer(id string, mutator func(*Customer) error) (Customer, error)
	CreateTeamMember(TeamMember) (TeamMember, error)
	DeleteTeamMember(id string) error
	CreateBooking(Booking) (Booking, error)
	UpdateBooking(id string, mutator func(*Booking) error) (Booking, error)
	CreateRechargeRequest(RechargeRequest) (RechargeRequest, error)
	UpdateRechargeRequest(id string, mutator func(*RechargeRequest) error) (RechargeRequest, error)
	CreateConsumptionRequest(ConsumptionRequest) (ConsumptionRequest, error)
	UpdateConsumptionRequest(id string, mutator func(*ConsumptionRequest) error) (ConsumptionRequest, error)
}

// PersistentStore is the repository contract used by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	ImportState(Snapshot)
	Close() error
}

// SnapshotStore durably stores and retrieves the complete state document.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}
