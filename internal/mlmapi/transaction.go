package mlmapi

import "time"

// PendingSubscription is the single active payment proof a user is waiting
// to have approved. Its existence check is what makes a retried approval a
// no-op.
type PendingSubscription struct {
	Id             uint      `json:"id" gorm:"primarykey"`
	CreatedAt      time.Time `json:"created_at"`
	UserId         uint      `json:"user_id" gorm:"uniqueIndex"`
	Amount         float64   `json:"amount"`
	HashString     string    `json:"hash_string"`
	ScreenshotPath string    `json:"screenshot_path"`
}

type ApprovedSubscription struct {
	Id         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	UserId     uint      `json:"user_id" gorm:"index"`
	Amount     float64   `json:"amount"`
	HashString string    `json:"hash_string"`
	ApprovedAt time.Time `json:"approved_at"`
}

// TransactionHash enforces global uniqueness of a payment proof. Reusing a
// hash bumps the submitter's repeat counter, three strikes block the account.
type TransactionHash struct {
	Hash      string    `json:"hash" gorm:"primaryKey;size:128"`
	UserId    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
