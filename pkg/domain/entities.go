// Package domain defines the persistent venue entities, status machines,
// error taxonomy and rule evaluation primitives used by venueflow.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityStore identifies a venue location.
	EntityStore EntityType = "store"
	// EntityRoom identifies a bookable room.
	EntityRoom EntityType = "room"
	// EntityCustomer identifies a member customer.
	EntityCustomer EntityType = "customer"
	// EntityTeamMember identifies a staff -> leader roster link.
	EntityTeamMember EntityType = "team_member"
	// EntityBooking identifies a room booking for one date.
	EntityBooking EntityType = "booking"
	// EntityRechargeRequest identifies a balance recharge awaiting approval.
	EntityRechargeRequest EntityType = "recharge_request"
	// EntityConsumptionRequest identifies an on-site consumption confirmation.
	EntityConsumptionRequest EntityType = "consumption_request"
)

// DateLayout is the calendar format used for booking dates and open dates.
const DateLayout = "2006-01-02"

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all mutable domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Store is a venue location. Reference data, immutable after creation.
type Store struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomSize classifies rooms by capacity.
type RoomSize string

// Room size classes.
const (
	RoomSmall  RoomSize = "small"
	RoomMedium RoomSize = "medium"
	RoomLarge  RoomSize = "large"
)

// Valid reports whether the size is a known class.
func (s RoomSize) Valid() bool {
	switch s {
	case RoomSmall, RoomMedium, RoomLarge:
		return true
	}
	return false
}

// Room is a bookable room belonging to exactly one store.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Price   int64    `json:"price"`
	Size    RoomSize `json:"size"`
	StoreID string   `json:"store_id"`
}

// CardTier is the membership card level of a customer.
type CardTier string

// Membership tiers, stored with their original labels.
const (
	CardRegular CardTier = "普"
	CardSilver  CardTier = "银"
	CardGold    CardTier = "金"
)

// Valid reports whether the tier is known.
func (t CardTier) Valid() bool {
	switch t {
	case CardRegular, CardSilver, CardGold:
		return true
	}
	return false
}

// Customer is a member onboarded by a staff member. OwnerStaffID scopes visibility.
type Customer struct {
	Base
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	IDNumber     string   `json:"id_number"`
	CardTier     CardTier `json:"card_tier"`
	OpenDate     string   `json:"open_date"`
	Balance      int64    `json:"balance"`
	GiftBalance  int64    `json:"gift_balance"`
	OwnerStaffID string   `json:"owner_staff_id"`
}

// CustomerPatch carries a partial customer update; nil fields are left untouched.
type CustomerPatch struct {
	Name        *string   `json:"name,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	IDNumber    *string   `json:"id_number,omitempty"`
	CardTier    *CardTier `json:"card_tier,omitempty"`
	OpenDate    *string   `json:"open_date,omitempty"`
	Balance     *int64    `json:"balance,omitempty"`
	GiftBalance *int64    `json:"gift_balance,omitempty"`
}

// Apply copies the set fields of the patch onto c.
func (p CustomerPatch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.IDNumber != nil {
		c.IDNumber = *p.IDNumber
	}
	if p.CardTier != nil {
		c.CardTier = *p.CardTier
	}
	if p.OpenDate != nil {
		c.OpenDate = *p.OpenDate
	}
	if p.Balance != nil {
		c.Balance = *p.Balance
	}
	if p.GiftBalance != nil {
		c.GiftBalance = *p.GiftBalance
	}
}

// TeamMember links a staff number to its leader.
type TeamMember struct {
	Base
	StaffNo   string `json:"staff_no"`
	StaffName string `json:"staff_name"`
	LeaderID  string `json:"leader_id"`
}

// StaffRef identifies a staff member stamped onto a record.
type StaffRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	StaffNo string `json:"staff_no"`
}

// IsZero reports whether no staff member is recorded.
func (r StaffRef) IsZero() bool { return r.ID == "" && r.StaffNo == "" }

// Booking reserves one room for one date.
type Booking struct {
	Base
	RoomID       string        `json:"room_id"`
	Date         string        `json:"date"`
	CustomerID   string        `json:"customer_id"`
	CustomerName string        `json:"customer_name"`
	Price        int64         `json:"price"`
	Status       BookingStatus `json:"status"`
	Sales        StaffRef      `json:"sales"`
	RejectReason string        `json:"reject_reason,omitempty"`
	CancelReason string        `json:"cancel_reason,omitempty"`
	ServiceSales *StaffRef     `json:"service_sales,omitempty"`
}

// Active reports whether the booking occupies its (room, date) slot.
func (b Booking) Active() bool { return b.Status.Active() }

// RechargeRequest asks the creator's leader to approve a balance top-up.
type RechargeRequest struct {
	Base
	CustomerID   string        `json:"customer_id"`
	CustomerName string        `json:"customer_name"`
	Amount       int64         `json:"amount"`
	GiftProduct  string        `json:"gift_product"`
	ImageURL     string        `json:"image_url,omitempty"`
	Status       RequestStatus `json:"status"`
	Sales        StaffRef      `json:"sales"`
	LeaderID     string        `json:"leader_id"`
	RejectReason string        `json:"reject_reason,omitempty"`
}

// ConsumptionRequest confirms that the service of a booked session was delivered.
type ConsumptionRequest struct {
	Base
	BookingID    string        `json:"booking_id"`
	CustomerID   string        `json:"customer_id"`
	CustomerName string        `json:"customer_name"`
	RoomID       string        `json:"room_id"`
	RoomName     string        `json:"room_name"`
	Date         string        `json:"date"`
	BookingSales StaffRef      `json:"booking_sales"`
	ServiceSales StaffRef      `json:"service_sales"`
	ImageURL     string        `json:"image_url,omitempty"`
	Status       RequestStatus `json:"status"`
	LeaderID     string        `json:"leader_id"`
	RejectReason string        `json:"reject_reason,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns only the blocking violations.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
