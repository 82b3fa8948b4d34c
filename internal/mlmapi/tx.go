package mlmapi

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// WithdrawalRequest is an internal financial operation against the main
// wallet. The amount is validated against balance and the renewal reserve
// at request time and debited on approval.
type WithdrawalRequest struct {
	Id         uint       `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time  `json:"created_at"`
	UserId     uint       `json:"user_id" gorm:"index"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status" gorm:"size:16;index"`
	Reason     string     `json:"reason"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// TransferHistory records paying another user's subscription out of the
// sender's main wallet.
type TransferHistory struct {
	Id         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	FromUserId uint      `json:"from_user_id" gorm:"index"`
	ToUserId   uint      `json:"to_user_id" gorm:"index"`
	Amount     float64   `json:"amount"`
}

type TransferToMainWalletHistory struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UserId    uint      `json:"user_id" gorm:"index"`
	Amount    float64   `json:"amount"`
}

// SubscriptionEntry is the user's subscription history, both the initial
// purchase and automatic renewals funded by the daily programs.
type SubscriptionEntry struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UserId    uint      `json:"user_id" gorm:"index"`
	Amount    float64   `json:"amount"`
	Kind      string    `json:"kind" gorm:"size:16"` // "purchase" or "renewal"
}
