package httpapi

import "venueflow/pkg/domain"

// Labels maps closed enum values to their display text.
type Labels struct {
	BookingStatus map[domain.BookingStatus]string `json:"booking_status"`
	RequestStatus map[domain.RequestStatus]string `json:"request_status"`
	Role          map[domain.Role]string          `json:"role"`
	RoomSize      map[domain.RoomSize]string      `json:"room_size"`
	CardTier      map[domain.CardTier]string      `json:"card_tier"`
}

var displayLabels = Labels{
	BookingStatus: map[domain.BookingStatus]string{
		domain.BookingFree:      "可预订",
		domain.BookingPending:   "待审核",
		domain.BookingBooked:    "已预订",
		domain.BookingFinished:  "已完成",
		domain.BookingRejected:  "已驳回",
		domain.BookingCancelled: "已取消",
	},
	RequestStatus: map[domain.RequestStatus]string{
		domain.RequestPending:  "待审核",
		domain.RequestApproved: "已通过",
		domain.RequestRejected: "已驳回",
	},
	Role: map[domain.Role]string{
		domain.RoleSales:  "业务员",
		domain.RoleLeader: "队长",
	},
	RoomSize: map[domain.RoomSize]string{
		domain.RoomSmall:  "小包",
		domain.RoomMedium: "中包",
		domain.RoomLarge:  "大包",
	},
	CardTier: map[domain.CardTier]string{
		domain.CardRegular: "普卡",
		domain.CardSilver:  "银卡",
		domain.CardGold:    "金卡",
	},
}

// BookingStatusLabel returns the display text of s, or s itself when unknown.
func BookingStatusLabel(s domain.BookingStatus) string {
	if label, ok := displayLabels.BookingStatus[s]; ok {
		return label
	}
	return string(s)
}
