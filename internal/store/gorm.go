package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fortuna/internal/mlmapi"
)

// Gorm is the production Store backed by postgres.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func (s *Gorm) UserByID(ctx context.Context, id uint) (*mlmapi.User, error) {
	var user mlmapi.User
	res := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&user)
	if res.RowsAffected < 1 {
		return nil, ErrNotFound
	}
	return &user, res.Error
}

func (s *Gorm) UserByCode(ctx context.Context, code string) (*mlmapi.User, error) {
	var user mlmapi.User
	res := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referral_code = ?", code).First(&user)
	if res.RowsAffected < 1 {
		return nil, ErrNotFound
	}
	return &user, res.Error
}

func (s *Gorm) SaveUser(ctx context.Context, u *mlmapi.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *Gorm) CreditUser(ctx context.Context, id uint, d Delta) error {
	cols := map[string]interface{}{}
	add := func(col string, v float64) {
		if v != 0 {
			cols[col] = gorm.Expr(col+" + ?", v)
		}
	}
	add("wallet_balance", d.Wallet)
	add("main_wallet_balance", d.MainWallet)
	add("roi_wallet", d.RoiWallet)
	add("pending_wallet", d.PendingWallet)
	add("subscription_wallet_balance", d.SubscriptionWallet)
	add("refer_income", d.ReferIncome)
	add("pending_refer_income", d.PendingReferIncome)
	add("refer_bonus_income", d.ReferBonusIncome)
	add("pending_refer_bonus_income", d.PendingReferBonusIncome)
	add("roi_to_level_income", d.RoiToLevelIncome)
	add("pending_roi_to_level_income", d.PendingRoiToLevelIncome)
	add("team_business_income", d.TeamBusinessIncome)
	add("pending_team_business_income", d.PendingTeamBusinessIncome)
	add("royalty_income", d.RoyaltyIncome)
	add("pending_royalty_income", d.PendingRoyaltyIncome)
	add("total_earning", d.TotalEarning)
	add("last_investment_roi", d.LastInvestmentRoi)
	if len(cols) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&mlmapi.User{}).
		Where("id = ?", id).
		UpdateColumns(cols).Error
}

func (s *Gorm) SetSubscribed(ctx context.Context, id uint, subscribed bool) error {
	return s.db.WithContext(ctx).Model(&mlmapi.User{}).
		Where("id = ?", id).
		UpdateColumn("subscribed", subscribed).Error
}

func (s *Gorm) Users(ctx context.Context) (users []mlmapi.User, err error) {
	err = s.db.WithContext(ctx).Find(&users).Error
	return users, err
}

func (s *Gorm) SubscribedInvestors(ctx context.Context) (users []mlmapi.User, err error) {
	err = s.db.WithContext(ctx).
		Where("subscribed = ? AND last_investment_on IS NOT NULL", true).
		Find(&users).Error
	return users, err
}

func (s *Gorm) CountSubscribed(ctx context.Context) (counter int64, err error) {
	err = s.db.WithContext(ctx).Model(&mlmapi.User{}).
		Where("subscribed = ?", true).
		Count(&counter).Error
	return counter, err
}

func (s *Gorm) AddReferral(ctx context.Context, r mlmapi.Referral) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&r)
	return res.RowsAffected == 1, res.Error
}

func (s *Gorm) CountReferrals(ctx context.Context, referrerId uint, scope string, lvl int) (counter int64, err error) {
	q := s.db.WithContext(ctx).Model(&mlmapi.Referral{}).
		Where("referrer_id = ? AND scope = ?", referrerId, scope)
	if lvl >= 0 {
		q = q.Where("lvl = ?", lvl)
	}
	err = q.Count(&counter).Error
	return counter, err
}

func (s *Gorm) CountDirectsBetween(ctx context.Context, referrerId uint, from, to time.Time) (counter int64, err error) {
	err = s.db.WithContext(ctx).Model(&mlmapi.Referral{}).
		Where(
			"referrer_id = ? AND scope = ? AND joined_at >= ? AND joined_at <= ?",
			referrerId,
			mlmapi.RefScopeHistory,
			from,
			to,
		).Count(&counter).Error
	return counter, err
}

func (s *Gorm) DirectTeam(ctx context.Context, referrerId uint) (team []mlmapi.Referral, err error) {
	err = s.db.WithContext(ctx).
		Where("referrer_id = ? AND scope = ?", referrerId, mlmapi.RefScopeHistory).
		Order("joined_at").
		Find(&team).Error
	return team, err
}

func (s *Gorm) CronState(ctx context.Context, userId uint, jobLevel int) (*mlmapi.CronLevelState, error) {
	var state mlmapi.CronLevelState
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND job_level = ?", userId, jobLevel).
		First(&state)
	if res.RowsAffected < 1 {
		return nil, ErrNotFound
	}
	return &state, res.Error
}

func (s *Gorm) SaveCronState(ctx context.Context, st *mlmapi.CronLevelState) error {
	return s.db.WithContext(ctx).Save(st).Error
}

func (s *Gorm) RunningCronStates(ctx context.Context) (states []mlmapi.CronLevelState, err error) {
	err = s.db.WithContext(ctx).
		Where("started = ?", true).
		Find(&states).Error
	return states, err
}

func (s *Gorm) LogCronIncome(ctx context.Context, log mlmapi.CronIncomeLog) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&log)
	return res.RowsAffected == 1, res.Error
}

func (s *Gorm) SetMark(ctx context.Context, entity, op, period string) (bool, error) {
	mark := mlmapi.Mark{Entity: entity, Op: op, Period: period}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&mark)
	return res.RowsAffected == 1, res.Error
}

func (s *Gorm) HasMark(ctx context.Context, entity, op, period string) (bool, error) {
	var mark mlmapi.Mark
	res := s.db.WithContext(ctx).
		Where("entity = ? AND op = ? AND period = ?", entity, op, period).
		First(&mark)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Gorm) Admin(ctx context.Context) (*mlmapi.Admin, error) {
	var admin mlmapi.Admin
	res := s.db.WithContext(ctx).First(&admin)
	if res.RowsAffected < 1 {
		return nil, ErrNotFound
	}
	return &admin, res.Error
}

func (s *Gorm) SetRoiSweepDay(ctx context.Context, day string) error {
	return s.db.WithContext(ctx).Model(&mlmapi.Admin{}).
		Where("id > 0").
		UpdateColumn("last_roi_sweep_day", day).Error
}

func (s *Gorm) AddTurnover(ctx context.Context, day string, amount float64) error {
	res := s.db.WithContext(ctx).Model(&mlmapi.Admin{}).
		Where("id > 0").
		UpdateColumn("company_turnover", gorm.Expr("company_turnover + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	entry := mlmapi.TurnoverEntry{Day: day, Amount: amount}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"amount": gorm.Expr("turnover_entries.amount + ?", amount)}),
		}).
		Create(&entry).Error
}

func (s *Gorm) AddRoyalty(ctx context.Context, h *mlmapi.RoyaltyPaidHistory) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(h)
	return res.RowsAffected == 1, res.Error
}

func (s *Gorm) RoyaltyByID(ctx context.Context, id uint) (*mlmapi.RoyaltyPaidHistory, error) {
	var history mlmapi.RoyaltyPaidHistory
	res := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&history)
	if res.RowsAffected < 1 {
		return nil, ErrNotFound
	}
	return &history, res.Error
}

func (s *Gorm) SaveRoyalty(ctx context.Context, h *mlmapi.RoyaltyPaidHistory) error {
	return s.db.WithContext(ctx).Save(h).Error
}

func (s *Gorm) RoyaltiesByUser(ctx context.Context, userId uint) (history []mlmapi.RoyaltyPaidHistory, err error) {
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("date_from").
		Find(&history).Error
	return history, err
}

func (s *Gorm) PendingSubscriptionByUser(ctx context.Context, userId uint) (*mlmapi.PendingSubscription, error) {
	var pending mlmapi.PendingSubscription
	res := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userId).First(&pending)
	if res.RowsAffected < 1 {
		return nil, ErrNotFound
	}
	return &pending, res.Error
}

func (s *Gorm) DeletePendingSubscription(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&mlmapi.PendingSubscription{}, id).Error
}

func (s *Gorm) AddApprovedSubscription(ctx context.Context, sub *mlmapi.ApprovedSubscription) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *Gorm) AddSubscriptionEntry(ctx context.Context, e *mlmapi.SubscriptionEntry) error {
	return s.db.WithContext(ctx).Create(e).Error
}
