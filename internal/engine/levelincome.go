package engine

import (
	"context"
	"errors"
	"fmt"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// distributeLevelIncome walks the sponsor chain upward once per first
// approved investment, crediting each ancestor its level share. Runs inside
// the approval transaction so a crash mid-walk leaves no partial credits.
// Levels are processed strictly in ascending order; the walk stops at the
// root code or when no further sponsor exists.
func (e *Engine) distributeLevelIncome(ctx context.Context, tx store.Store, user *mlmapi.User, amount float64) error {
	now := e.Now()
	code := user.SponsorCode
	var direct *mlmapi.User
	for lvl := 0; lvl < len(LevelIncomeShare) && code != ""; lvl++ {
		referrer, err := tx.UserByCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Println("[level income] sponsor not found:", code)
				break
			}
			return err
		}
		reward := mlmapi.RoundFloat(amount*LevelIncomeShare[lvl], 4)
		delta := store.Delta{TotalEarning: reward}
		if referrer.Subscribed {
			delta.MainWallet = reward
			delta.ReferIncome = reward
		} else {
			delta.PendingWallet = reward
			delta.PendingReferIncome = reward
		}
		if lvl == 0 {
			direct = referrer
			delta.TotalEarning += DirectIncome
			if referrer.Subscribed {
				delta.MainWallet += DirectIncome
				delta.ReferIncome += DirectIncome
			} else {
				delta.PendingWallet += DirectIncome
				delta.PendingReferIncome += DirectIncome
			}
			// direct-join log entry, the royalty windows count these
			if _, err := tx.AddReferral(ctx, mlmapi.Referral{
				ReferrerId: referrer.Id,
				UserId:     user.Id,
				Scope:      mlmapi.RefScopeHistory,
				Lvl:        0,
				UserName:   user.Name,
				UserCode:   user.ReferralCode,
				JoinedAt:   now,
			}); err != nil {
				return err
			}
		}
		// attribution row, deduped on the composite key so a concurrent
		// retry cannot double-insert
		if _, err := tx.AddReferral(ctx, mlmapi.Referral{
			ReferrerId: referrer.Id,
			UserId:     user.Id,
			Scope:      mlmapi.RefScopePaid,
			Lvl:        lvl,
			UserName:   user.Name,
			UserCode:   user.ReferralCode,
			Reward:     reward,
			JoinedAt:   now,
		}); err != nil {
			return err
		}
		if err := tx.CreditUser(ctx, referrer.Id, delta); err != nil {
			return err
		}
		if referrer.ReferralCode == RootCode {
			break
		}
		code = referrer.SponsorCode
	}
	if direct != nil {
		if err := e.evaluateReferBonus(ctx, tx, direct.Id); err != nil {
			return err
		}
		if err := e.checkRoyalty(ctx, tx, direct.Id, now); err != nil {
			return err
		}
	}
	return nil
}
