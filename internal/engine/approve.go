package engine

import (
	"context"
	"errors"
	"fmt"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// OnInvestmentApproved settles a user's pending investment in one
// all-or-nothing unit: turnover, subscription state, first-investment
// income distribution, pending-bucket flush and the pending-to-approved
// record conversion. A retried approval finds no pending record and
// returns ErrAlreadyProcessed without touching the ledger.
func (e *Engine) OnInvestmentApproved(ctx context.Context, userId uint) error {
	now := e.Now()
	return e.St.Atomic(ctx, func(tx store.Store) error {
		pending, err := tx.PendingSubscriptionByUser(ctx, userId)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAlreadyProcessed
			}
			return err
		}
		if _, err := tx.Admin(ctx); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAdminMissing
			}
			return err
		}
		user, err := tx.UserByID(ctx, userId)
		if err != nil {
			return err
		}

		amount := pending.Amount
		first := user.Investment == 0

		if err := tx.AddTurnover(ctx, e.day(now), amount); err != nil {
			return err
		}

		worldCount, err := tx.CountSubscribed(ctx)
		if err != nil {
			return err
		}

		midnight := e.midnight(now)
		user.Subscribed = true
		user.SubscribedOn = &now
		user.Investment += amount
		user.LastInvestment = amount
		user.LastInvestmentOn = &midnight
		user.LastInvestmentRoi = 0
		if first {
			user.FirstInvestment = amount
			user.WorldUsersOnSubscribe = worldCount
			if user.NextRoyaltyFrom == nil {
				user.NextRoyaltyFrom = &midnight
			}
		}

		// Flush income held back while unsubscribed. TotalEarning was
		// already counted at accrual time.
		user.MainWalletBalance += user.PendingWallet
		user.ReferIncome += user.PendingReferIncome
		user.ReferBonusIncome += user.PendingReferBonusIncome
		user.RoiToLevelIncome += user.PendingRoiToLevelIncome
		user.TeamBusinessIncome += user.PendingTeamBusinessIncome
		user.RoyaltyIncome += user.PendingRoyaltyIncome
		user.PendingWallet = 0
		user.PendingReferIncome = 0
		user.PendingReferBonusIncome = 0
		user.PendingRoiToLevelIncome = 0
		user.PendingTeamBusinessIncome = 0
		user.PendingRoyaltyIncome = 0

		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}

		if first {
			if err := e.distributeLevelIncome(ctx, tx, user, amount); err != nil {
				return err
			}
		}

		if err := tx.DeletePendingSubscription(ctx, pending.Id); err != nil {
			return err
		}
		if err := tx.AddApprovedSubscription(ctx, &mlmapi.ApprovedSubscription{
			UserId:     userId,
			Amount:     amount,
			HashString: pending.HashString,
			ApprovedAt: now,
		}); err != nil {
			return err
		}
		if err := tx.AddSubscriptionEntry(ctx, &mlmapi.SubscriptionEntry{
			UserId: userId,
			Amount: amount,
			Kind:   "purchase",
		}); err != nil {
			return err
		}
		fmt.Println("[approve] investment settled. user", userId, "amount", amount, "first", first)
		return nil
	})
}
