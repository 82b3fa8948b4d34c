package engine

import (
	"context"
	"fmt"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// EvaluateReferBonus re-checks a sponsor's direct team size against the
// bonus tiers. Safe to call on every login and every new direct.
func (e *Engine) EvaluateReferBonus(ctx context.Context, userId uint) error {
	return e.St.Atomic(ctx, func(tx store.Store) error {
		return e.evaluateReferBonus(ctx, tx, userId)
	})
}

func (e *Engine) evaluateReferBonus(ctx context.Context, tx store.Store, userId uint) error {
	count, err := tx.CountReferrals(ctx, userId, mlmapi.RefScopeHistory, -1)
	if err != nil {
		return err
	}
	tier, ok := MatchBonusTier(count)
	if !ok {
		return nil
	}
	won, err := tx.SetMark(ctx, userEntity(userId), "refer-bonus", tier.Flag)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}
	user, err := tx.UserByID(ctx, userId)
	if err != nil {
		return err
	}
	delta := store.Delta{TotalEarning: tier.Bonus}
	if user.Subscribed {
		delta.MainWallet = tier.Bonus
		delta.ReferBonusIncome = tier.Bonus
	} else {
		delta.PendingWallet = tier.Bonus
		delta.PendingReferBonusIncome = tier.Bonus
	}
	if err := tx.CreditUser(ctx, userId, delta); err != nil {
		return err
	}
	fmt.Println("[refer bonus] paid", tier.Bonus, "to user", userId, "at", count, "directs")
	return nil
}
