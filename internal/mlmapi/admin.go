package mlmapi

import "time"

// Admin is a singleton row: global subscription price, running company
// turnover and the roi-sweep watermark. It is the serialization point for
// turnover and sweep bookkeeping, so updates to it stay narrow.
type Admin struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email    string `gorm:"uniqueIndex" json:"email"`
	Password string `json:"-"`
	Otp      string `json:"-"`

	SubscriptionAmount float64 `json:"subscription_amount"`
	CompanyTurnover    float64 `json:"company_turnover"`
	Notification       string  `json:"notification"`
	Maintenance        bool    `json:"maintenance"`

	// LastRoiSweepDay is the newest calendar day the roi sweep completed.
	// The per-day done flag itself lives in the Mark table.
	LastRoiSweepDay string `json:"last_roi_sweep_day"`
}

// TurnoverEntry keeps company turnover by calendar day.
type TurnoverEntry struct {
	Day       string    `json:"day" gorm:"primaryKey;size:10"`
	Amount    float64   `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}
