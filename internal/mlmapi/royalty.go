package mlmapi

import "time"

const (
	RoyaltyWeek    = "week"
	RoyaltyTenDays = "tenDays"

	RoyaltyPending = "pending"
	RoyaltyPaid    = "paid"
)

// RoyaltyPaidHistory is one detected eligibility per (user, type, window).
// The engine only ever creates pending rows with a nil reward; an admin
// later sets the amount and flips the status. The unique window index is
// the sole dedup mechanism.
type RoyaltyPaidHistory struct {
	Id            uint       `json:"id" gorm:"primarykey"`
	CreatedAt     time.Time  `json:"created_at"`
	UserId        uint       `json:"user_id" gorm:"index;uniqueIndex:idx_royalty_window"`
	RoyaltyType   string     `json:"royalty_type" gorm:"size:16;uniqueIndex:idx_royalty_window"`
	Status        string     `json:"status" gorm:"size:16"`
	RoyaltyReward *float64   `json:"royalty_reward"`
	DateFrom      time.Time  `json:"date_from" gorm:"uniqueIndex:idx_royalty_window"`
	DateTo        time.Time  `json:"date_to"`
	PaidAt        *time.Time `json:"paid_at"`
}
