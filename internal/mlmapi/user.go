package mlmapi

import (
	"gorm.io/gorm"
	"time"
)

type User struct {
	Id        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNo  string `gorm:"index" json:"phone_no"`
	Password string `json:"-"`
	Otp      string `json:"-"`
	Verified bool   `json:"verified"`
	Blocked  bool   `json:"blocked"`

	// SponsorCode is the referral code the user signed up with, not an
	// internal id. Upward walks resolve the sponsor row by this code.
	SponsorCode  string   `gorm:"index" json:"sponsor_code"`
	SponsorName  string   `json:"sponsor_name"`
	ReferralCode string   `gorm:"uniqueIndex" json:"referral_code"`
	Ancestry     CodePath `gorm:"serializer:json" json:"ancestry"` // referral codes, root first

	// Balance buckets. WalletBalance collects daily program payouts,
	// MainWalletBalance is the withdrawable wallet, RoiWallet accrues the
	// investor's own ROI, PendingWallet holds income earned while
	// unsubscribed and is flushed on approval.
	WalletBalance             float64 `json:"wallet_balance"`
	MainWalletBalance         float64 `json:"main_wallet_balance"`
	RoiWallet                 float64 `json:"roi_wallet"`
	PendingWallet             float64 `json:"pending_wallet"`
	SubscriptionWalletBalance float64 `json:"subscription_wallet_balance"`
	SubscriptionWithdraw      float64 `json:"subscription_withdraw"`

	ReferIncome               float64 `json:"refer_income"`
	PendingReferIncome        float64 `json:"pending_refer_income"`
	ReferBonusIncome          float64 `json:"refer_bonus_income"`
	PendingReferBonusIncome   float64 `json:"pending_refer_bonus_income"`
	RoiToLevelIncome          float64 `json:"roi_to_level_income"`
	PendingRoiToLevelIncome   float64 `json:"pending_roi_to_level_income"`
	TeamBusinessIncome        float64 `json:"team_business_income"`
	PendingTeamBusinessIncome float64 `json:"pending_team_business_income"`
	RoyaltyIncome             float64 `json:"royalty_income"`
	PendingRoyaltyIncome      float64 `json:"pending_royalty_income"`
	TotalEarning              float64 `json:"total_earning"`
	TotalWithdrawal           float64 `json:"total_withdrawal"`

	Investment            float64    `json:"investment"`
	FirstInvestment       float64    `json:"first_investment"`
	LastInvestment        float64    `json:"last_investment"`
	LastInvestmentOn      *time.Time `json:"last_investment_on"`
	LastInvestmentRoi     float64    `json:"last_investment_roi"` // ROI paid against LastInvestment, capped at 2x
	Subscribed            bool       `gorm:"index" json:"subscribed"`
	SubscribedOn          *time.Time `json:"subscribed_on"`
	WorldUsersOnSubscribe int64      `json:"world_users_on_subscribe"`

	// NextRoyaltyFrom is the watermark the royalty eligibility window is
	// measured from. It only ever moves forward, in 10-day steps.
	NextRoyaltyFrom *time.Time `json:"next_royalty_from"`

	HashRepeatCount uint   `json:"hash_repeat_count"`
	ScreenshotPath  string `json:"screenshot_path"`
	BankId          string `json:"bank_id"`
	WalletQr        string `json:"wallet_qr"`
}

type CodePath []string

// UserData is the profile summary sent to the dashboard
type UserData struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	ReferralCode    string  `json:"referral_code"`
	SponsorCode     string  `json:"sponsor_code"`
	SponsorName     string  `json:"sponsor_name"`
	Wallet          float64 `json:"wallet"`
	MainWallet      float64 `json:"main_wallet"`
	RoiWallet       float64 `json:"roi_wallet"`
	PendingWallet   float64 `json:"pending_wallet"`
	TotalEarning    float64 `json:"total_earning"`
	TotalWithdrawal float64 `json:"total_withdrawal"`
	Investment      float64 `json:"investment"`
	Subscribed      bool    `json:"subscribed"`
	DirectTeam      int64   `json:"direct_team"`
	LevelTeam       int64   `json:"level_team"`
	RoyaltyIncome   float64 `json:"royalty_income"`
	CompanyTurnover float64 `json:"company_turnover"`
	Notification    string  `json:"notification"`
}
