package store

import (
	"context"
	"errors"
	"time"

	"fortuna/internal/mlmapi"
)

var ErrNotFound = errors.New("store: not found")

// Delta is an additive balance update applied per user in one shot. The roi
// sweep merges every cascade credit hitting the same sponsor into a single
// Delta before flushing, so concurrent walks never read-modify-write a
// stale row.
type Delta struct {
	Wallet                    float64
	MainWallet                float64
	RoiWallet                 float64
	PendingWallet             float64
	SubscriptionWallet        float64
	ReferIncome               float64
	PendingReferIncome        float64
	ReferBonusIncome          float64
	PendingReferBonusIncome   float64
	RoiToLevelIncome          float64
	PendingRoiToLevelIncome   float64
	TeamBusinessIncome        float64
	PendingTeamBusinessIncome float64
	RoyaltyIncome             float64
	PendingRoyaltyIncome      float64
	TotalEarning              float64
	LastInvestmentRoi         float64
}

func (d *Delta) Merge(o Delta) {
	d.Wallet += o.Wallet
	d.MainWallet += o.MainWallet
	d.RoiWallet += o.RoiWallet
	d.PendingWallet += o.PendingWallet
	d.SubscriptionWallet += o.SubscriptionWallet
	d.ReferIncome += o.ReferIncome
	d.PendingReferIncome += o.PendingReferIncome
	d.ReferBonusIncome += o.ReferBonusIncome
	d.PendingReferBonusIncome += o.PendingReferBonusIncome
	d.RoiToLevelIncome += o.RoiToLevelIncome
	d.PendingRoiToLevelIncome += o.PendingRoiToLevelIncome
	d.TeamBusinessIncome += o.TeamBusinessIncome
	d.PendingTeamBusinessIncome += o.PendingTeamBusinessIncome
	d.RoyaltyIncome += o.RoyaltyIncome
	d.PendingRoyaltyIncome += o.PendingRoyaltyIncome
	d.TotalEarning += o.TotalEarning
	d.LastInvestmentRoi += o.LastInvestmentRoi
}

// Apply folds a Delta into a user row. The gorm store translates the same
// fields into column increments instead.
func Apply(u *mlmapi.User, d Delta) {
	u.WalletBalance += d.Wallet
	u.MainWalletBalance += d.MainWallet
	u.RoiWallet += d.RoiWallet
	u.PendingWallet += d.PendingWallet
	u.SubscriptionWalletBalance += d.SubscriptionWallet
	u.ReferIncome += d.ReferIncome
	u.PendingReferIncome += d.PendingReferIncome
	u.ReferBonusIncome += d.ReferBonusIncome
	u.PendingReferBonusIncome += d.PendingReferBonusIncome
	u.RoiToLevelIncome += d.RoiToLevelIncome
	u.PendingRoiToLevelIncome += d.PendingRoiToLevelIncome
	u.TeamBusinessIncome += d.TeamBusinessIncome
	u.PendingTeamBusinessIncome += d.PendingTeamBusinessIncome
	u.RoyaltyIncome += d.RoyaltyIncome
	u.PendingRoyaltyIncome += d.PendingRoyaltyIncome
	u.TotalEarning += d.TotalEarning
	u.LastInvestmentRoi += d.LastInvestmentRoi
}

// Store is the persistence contract the accrual engines run against. Every
// mutation the engines rely on for correctness is either an atomic
// increment (CreditUser, AddTurnover) or a conditional insert returning
// whether this call won the race (AddReferral, LogCronIncome, SetMark,
// AddRoyalty).
type Store interface {
	// Atomic runs fn inside one transaction; fn receives a Store bound to it.
	Atomic(ctx context.Context, fn func(Store) error) error

	UserByID(ctx context.Context, id uint) (*mlmapi.User, error)
	UserByCode(ctx context.Context, code string) (*mlmapi.User, error)
	SaveUser(ctx context.Context, u *mlmapi.User) error
	CreditUser(ctx context.Context, id uint, d Delta) error
	SetSubscribed(ctx context.Context, id uint, subscribed bool) error
	Users(ctx context.Context) ([]mlmapi.User, error)
	SubscribedInvestors(ctx context.Context) ([]mlmapi.User, error)
	CountSubscribed(ctx context.Context) (int64, error)

	AddReferral(ctx context.Context, r mlmapi.Referral) (bool, error)
	CountReferrals(ctx context.Context, referrerId uint, scope string, lvl int) (int64, error)
	CountDirectsBetween(ctx context.Context, referrerId uint, from, to time.Time) (int64, error)
	DirectTeam(ctx context.Context, referrerId uint) ([]mlmapi.Referral, error)

	CronState(ctx context.Context, userId uint, jobLevel int) (*mlmapi.CronLevelState, error)
	SaveCronState(ctx context.Context, st *mlmapi.CronLevelState) error
	RunningCronStates(ctx context.Context) ([]mlmapi.CronLevelState, error)
	LogCronIncome(ctx context.Context, log mlmapi.CronIncomeLog) (bool, error)

	SetMark(ctx context.Context, entity, op, period string) (bool, error)
	HasMark(ctx context.Context, entity, op, period string) (bool, error)

	Admin(ctx context.Context) (*mlmapi.Admin, error)
	// SetRoiSweepDay advances the sweep watermark as a single-column
	// update. The admin row has concurrent writers (notification,
	// maintenance), so nothing may write it whole.
	SetRoiSweepDay(ctx context.Context, day string) error
	AddTurnover(ctx context.Context, day string, amount float64) error

	AddRoyalty(ctx context.Context, h *mlmapi.RoyaltyPaidHistory) (bool, error)
	RoyaltyByID(ctx context.Context, id uint) (*mlmapi.RoyaltyPaidHistory, error)
	SaveRoyalty(ctx context.Context, h *mlmapi.RoyaltyPaidHistory) error
	RoyaltiesByUser(ctx context.Context, userId uint) ([]mlmapi.RoyaltyPaidHistory, error)

	PendingSubscriptionByUser(ctx context.Context, userId uint) (*mlmapi.PendingSubscription, error)
	DeletePendingSubscription(ctx context.Context, id uint) error
	AddApprovedSubscription(ctx context.Context, s *mlmapi.ApprovedSubscription) error
	AddSubscriptionEntry(ctx context.Context, e *mlmapi.SubscriptionEntry) error
}
