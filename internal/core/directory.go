package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"venueflow/pkg/domain"
)

// ListStores returns every store ordered by id.
func (s *Service) ListStores(ctx context.Context) ([]domain.Store, error) {
	var out []domain.Store
	err := s.read(ctx, func(view domain.TransactionView) error {
		out = view.ListStores()
		return nil
	})
	return out, err
}

// ListRoomsByStore returns the rooms of one store ordered by name.
func (s *Service) ListRoomsByStore(ctx context.Context, storeID string) ([]domain.Room, error) {
	var out []domain.Room
	err := s.read(ctx, func(view domain.TransactionView) error {
		if _, ok := view.FindStore(storeID); !ok {
			return domain.NotFoundError{Entity: domain.EntityStore, ID: storeID}
		}
		out = roomsOfStore(view, storeID)
		return nil
	})
	return out, err
}

func roomsOfStore(view domain.RuleView, storeID string) []domain.Room {
	var out []domain.Room
	for _, room := range view.ListRooms() {
		if room.StoreID == storeID {
			out = append(out, room)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Room returns one room.
func (s *Service) Room(ctx context.Context, id string) (domain.Room, error) {
	var room domain.Room
	err := s.read(ctx, func(view domain.TransactionView) error {
		var ok bool
		if room, ok = view.FindRoom(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityRoom, ID: id}
		}
		return nil
	})
	return room, err
}

// TeamOf returns the roster of a leader ordered by staff number.
func (s *Service) TeamOf(ctx context.Context, leaderID string) ([]domain.TeamMember, error) {
	var out []domain.TeamMember
	err := s.read(ctx, func(view domain.TransactionView) error {
		out = teamOf(view, leaderID)
		return nil
	})
	return out, err
}

func teamOf(view domain.RuleView, leaderID string) []domain.TeamMember {
	var out []domain.TeamMember
	for _, m := range view.ListTeamMembers() {
		if m.LeaderID == leaderID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffNo < out[j].StaffNo })
	return out
}

// LeaderFor resolves the leader of staffNo.
func (s *Service) LeaderFor(ctx context.Context, staffNo string) (string, bool, error) {
	var (
		leader string
		ok     bool
	)
	err := s.read(ctx, func(view domain.TransactionView) error {
		leader, ok = leaderFor(view, staffNo)
		return nil
	})
	return leader, ok, err
}

func leaderFor(view domain.TransactionView, staffNo string) (string, bool) {
	member, ok := view.FindTeamMemberByStaffNo(staffNo)
	if !ok {
		return "", false
	}
	return member.LeaderID, true
}

// CustomersVisibleTo returns the customers the principal may see: their own,
// plus the roster's customers for a leader.
func (s *Service) CustomersVisibleTo(ctx context.Context, p domain.Principal) ([]domain.Customer, error) {
	if err := validPrincipal(p); err != nil {
		return nil, err
	}
	var out []domain.Customer
	err := s.read(ctx, func(view domain.TransactionView) error {
		roster := newRosterIndex(view)
		for _, c := range view.ListCustomers() {
			if CanTransition(p, roster, customerSubject(c), ActionViewCustomer).Allowed {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}

// Customer returns one customer if it is visible to the principal.
func (s *Service) Customer(ctx context.Context, p domain.Principal, id string) (domain.Customer, error) {
	if err := validPrincipal(p); err != nil {
		return domain.Customer{}, err
	}
	var customer domain.Customer
	err := s.read(ctx, func(view domain.TransactionView) error {
		var ok bool
		if customer, ok = view.FindCustomer(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
		}
		return CanTransition(p, newRosterIndex(view), customerSubject(customer), ActionViewCustomer).Err(p, ActionViewCustomer)
	})
	return customer, err
}

// AddTeamMember links staffNo to the calling leader.
func (s *Service) AddTeamMember(ctx context.Context, leader domain.Principal, staffNo, staffName string) (domain.TeamMember, error) {
	staffNo, staffName = strings.TrimSpace(staffNo), strings.TrimSpace(staffName)
	if err := validPrincipal(leader); err != nil {
		return domain.TeamMember{}, err
	}
	if err := CanTransition(leader, nil, Subject{}, ActionManageTeam).Err(leader, ActionManageTeam); err != nil {
		return domain.TeamMember{}, err
	}
	if staffNo == "" {
		return domain.TeamMember{}, domain.ValidationError{Field: "staff_no", Message: "required"}
	}
	if staffName == "" {
		return domain.TeamMember{}, domain.ValidationError{Field: "staff_name", Message: "required"}
	}
	if staffNo == leader.StaffNo {
		return domain.TeamMember{}, domain.ValidationError{Field: "staff_no", Message: "a leader cannot join their own team"}
	}
	var created domain.TeamMember
	err := s.mutate(ctx, domain.EntityTeamMember, "add", leader, func(tx domain.Transaction) error {
		if existing, ok := tx.FindTeamMemberByStaffNo(staffNo); ok {
			return domain.ConflictError{
				Entity:  domain.EntityTeamMember,
				ID:      existing.ID,
				Message: "staff " + staffNo + " already belongs to leader " + existing.LeaderID,
			}
		}
		var err error
		created, err = tx.CreateTeamMember(domain.TeamMember{StaffNo: staffNo, StaffName: staffName, LeaderID: leader.StaffNo})
		return err
	})
	return created, err
}

// RemoveTeamMember unlinks a member from the calling leader's roster.
func (s *Service) RemoveTeamMember(ctx context.Context, leader domain.Principal, memberID string) error {
	if err := validPrincipal(leader); err != nil {
		return err
	}
	if err := CanTransition(leader, nil, Subject{}, ActionManageTeam).Err(leader, ActionManageTeam); err != nil {
		return err
	}
	return s.mutate(ctx, domain.EntityTeamMember, "remove", leader, func(tx domain.Transaction) error {
		member, ok := tx.FindTeamMember(memberID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityTeamMember, ID: memberID}
		}
		if member.LeaderID != leader.StaffNo {
			return domain.AuthorizationError{StaffNo: leader.StaffNo, Action: string(ActionManageTeam), Reason: ReasonOutOfTeam}
		}
		return tx.DeleteTeamMember(memberID)
	})
}

// CustomerInput carries the fields of a new customer.
type CustomerInput struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	IDNumber    string          `json:"id_number"`
	CardTier    domain.CardTier `json:"card_tier"`
	OpenDate    string          `json:"open_date"`
	Balance     int64           `json:"balance"`
	GiftBalance int64           `json:"gift_balance"`
}

// AddCustomer onboards a customer owned by the principal.
func (s *Service) AddCustomer(ctx context.Context, p domain.Principal, in CustomerInput) (domain.Customer, error) {
	if err := validPrincipal(p); err != nil {
		return domain.Customer{}, err
	}
	if err := CanTransition(p, nil, Subject{OwnerStaffNo: p.StaffNo}, ActionCreateCustomer).Err(p, ActionCreateCustomer); err != nil {
		return domain.Customer{}, err
	}
	customer := domain.Customer{
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		IDNumber:     strings.TrimSpace(in.IDNumber),
		CardTier:     in.CardTier,
		OpenDate:     in.OpenDate,
		Balance:      in.Balance,
		GiftBalance:  in.GiftBalance,
		OwnerStaffID: p.StaffNo,
	}
	if customer.CardTier == "" {
		customer.CardTier = domain.CardRegular
	}
	if customer.OpenDate == "" {
		customer.OpenDate = s.today()
	}
	if err := validateCustomer(customer); err != nil {
		return domain.Customer{}, err
	}
	var created domain.Customer
	err := s.mutate(ctx, domain.EntityCustomer, "add", p, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateCustomer(customer)
		return err
	})
	return created, err
}

// UpdateCustomer applies a partial patch to a visible customer. A non-zero
// expectedVersion must match the stored version.
func (s *Service) UpdateCustomer(ctx context.Context, p domain.Principal, id string, patch domain.CustomerPatch, expectedVersion int64) (domain.Customer, error) {
	if err := validPrincipal(p); err != nil {
		return domain.Customer{}, err
	}
	var updated domain.Customer
	err := s.mutate(ctx, domain.EntityCustomer, "update", p, func(tx domain.Transaction) error {
		current, ok := tx.FindCustomer(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
		}
		if err := CanTransition(p, newRosterIndex(tx), customerSubject(current), ActionUpdateCustomer).Err(p, ActionUpdateCustomer); err != nil {
			return err
		}
		if err := checkVersion(domain.EntityCustomer, id, expectedVersion, current.Version); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdateCustomer(id, func(c *domain.Customer) error {
			patch.Apply(c)
			c.Name = strings.TrimSpace(c.Name)
			c.Phone = strings.TrimSpace(c.Phone)
			return validateCustomer(*c)
		})
		return err
	})
	return updated, err
}

func validateCustomer(c domain.Customer) error {
	if c.Name == "" {
		return domain.ValidationError{Field: "name", Message: "required"}
	}
	if c.Phone == "" {
		return domain.ValidationError{Field: "phone", Message: "required"}
	}
	if !c.CardTier.Valid() {
		return domain.ValidationError{Field: "card_tier", Message: "unknown tier " + string(c.CardTier)}
	}
	if _, err := time.Parse(domain.DateLayout, c.OpenDate); err != nil {
		return domain.ValidationError{Field: "open_date", Message: "must be YYYY-MM-DD"}
	}
	if c.Balance < 0 || c.GiftBalance < 0 {
		return domain.ValidationError{Field: "balance", Message: "must not be negative"}
	}
	return nil
}
