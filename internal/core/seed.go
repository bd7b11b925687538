package core

import (
	"context"

	"venueflow/pkg/domain"
)

var seedStores = []domain.Store{
	{ID: "store1", Name: "上海店"},
	{ID: "store2", Name: "武汉店"},
}

var seedRooms = []domain.Room{
	{ID: "r1", Name: "101", Price: 288, Size: domain.RoomSmall, StoreID: "store1"},
	{ID: "r2", Name: "102", Price: 288, Size: domain.RoomSmall, StoreID: "store1"},
	{ID: "r3", Name: "201", Price: 388, Size: domain.RoomMedium, StoreID: "store1"},
	{ID: "r4", Name: "202", Price: 388, Size: domain.RoomMedium, StoreID: "store1"},
	{ID: "r5", Name: "301", Price: 588, Size: domain.RoomLarge, StoreID: "store1"},
	{ID: "r6", Name: "302", Price: 588, Size: domain.RoomLarge, StoreID: "store1"},
	{ID: "r7", Name: "A01", Price: 258, Size: domain.RoomSmall, StoreID: "store2"},
	{ID: "r8", Name: "A02", Price: 258, Size: domain.RoomSmall, StoreID: "store2"},
	{ID: "r9", Name: "B01", Price: 358, Size: domain.RoomMedium, StoreID: "store2"},
	{ID: "r10", Name: "B02", Price: 358, Size: domain.RoomMedium, StoreID: "store2"},
	{ID: "r11", Name: "C01", Price: 558, Size: domain.RoomLarge, StoreID: "store2"},
}

var seedCustomers = []domain.Customer{
	{Base: domain.Base{ID: "c0000001"}, Name: "陈先生", Phone: "13800138001", IDNumber: "310101199001011234", CardTier: domain.CardGold, OpenDate: "2024-01-15", Balance: 5000, GiftBalance: 500, OwnerStaffID: "S0000001"},
	{Base: domain.Base{ID: "c0000002"}, Name: "刘女士", Phone: "13800138002", IDNumber: "310101199202022345", CardTier: domain.CardSilver, OpenDate: "2024-02-20", Balance: 2000, GiftBalance: 200, OwnerStaffID: "S0000001"},
	{Base: domain.Base{ID: "c0000003"}, Name: "王先生", Phone: "13800138003", IDNumber: "310101198803033456", CardTier: domain.CardRegular, OpenDate: "2024-03-10", Balance: 800, OwnerStaffID: "S0000002"},
	{Base: domain.Base{ID: "c0000004"}, Name: "赵女士", Phone: "13800138004", IDNumber: "310101199504044567", CardTier: domain.CardGold, OpenDate: "2024-01-01", Balance: 8000, GiftBalance: 1000, OwnerStaffID: "S0000001"},
}

var seedTeam = []domain.TeamMember{
	{Base: domain.Base{ID: "tm1"}, StaffNo: "S0000001", StaffName: "张三", LeaderID: "L0000001"},
	{Base: domain.Base{ID: "tm2"}, StaffNo: "S0000002", StaffName: "李四", LeaderID: "L0000001"},
}

type seedBooking struct {
	id, roomID, customerID string
	dayOffset              int
	price                  int64
	status                 domain.BookingStatus
	sales                  domain.StaffRef
}

var (
	seedZhang = domain.StaffRef{ID: "S0000001", Name: "张三", StaffNo: "S0000001"}
	seedLi    = domain.StaffRef{ID: "S0000002", Name: "李四", StaffNo: "S0000002"}
)

var seedBookings = []seedBooking{
	{id: "b1", roomID: "r1", customerID: "c0000001", dayOffset: 0, price: 288, status: domain.BookingBooked, sales: seedZhang},
	{id: "b2", roomID: "r3", customerID: "c0000002", dayOffset: 1, price: 388, status: domain.BookingPending, sales: seedZhang},
	{id: "b3", roomID: "r5", customerID: "c0000004", dayOffset: 2, price: 588, status: domain.BookingBooked, sales: seedZhang},
	{id: "b4", roomID: "r2", customerID: "c0000003", dayOffset: -1, price: 288, status: domain.BookingFinished, sales: seedLi},
}

// SeedIfEmpty loads the demo venue data when the repository holds no records.
// Booking dates are relative to the service clock.
func (s *Service) SeedIfEmpty(ctx context.Context) (bool, error) {
	if !s.store.ExportState().Empty() {
		return false, nil
	}
	today := s.now()
	system := domain.Principal{StaffNo: "system", Role: domain.RoleLeader}
	err := s.mutate(ctx, domain.EntityStore, "seed", system, func(tx domain.Transaction) error {
		for _, store := range seedStores {
			if _, err := tx.CreateStore(store); err != nil {
				return err
			}
		}
		for _, room := range seedRooms {
			if _, err := tx.CreateRoom(room); err != nil {
				return err
			}
		}
		for _, customer := range seedCustomers {
			if _, err := tx.CreateCustomer(customer); err != nil {
				return err
			}
		}
		for _, member := range seedTeam {
			if _, err := tx.CreateTeamMember(member); err != nil {
				return err
			}
		}
		for _, sb := range seedBookings {
			customer, _ := tx.FindCustomer(sb.customerID)
			initial := sb.status
			if initial == domain.BookingFinished {
				initial = domain.BookingBooked
			}
			if _, err := tx.CreateBooking(domain.Booking{
				Base:         domain.Base{ID: sb.id},
				RoomID:       sb.roomID,
				Date:         today.AddDate(0, 0, sb.dayOffset).Format(domain.DateLayout),
				CustomerID:   sb.customerID,
				CustomerName: customer.Name,
				Price:        sb.price,
				Status:       initial,
				Sales:        sb.sales,
			}); err != nil {
				return err
			}
			if sb.status == domain.BookingFinished {
				served := sb.sales
				if _, err := applyBookingTransition(tx, sb.id, domain.BookingEventFinish, "", func(b *domain.Booking) {
					b.ServiceSales = &served
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
