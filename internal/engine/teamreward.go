package engine

import (
	"context"
	"fmt"

	"fortuna/internal/store"
)

// EvaluateTeamBusinessReward checks the user against the team-business
// ladder and pays the highest qualifying unpaid tier. Qualification needs
// the user's own earnings at the threshold, the direct team's combined
// earnings at the threshold, and at least one direct leg carrying half of
// it. Each tier pays once per user, keyed by the one-shot mark.
func (e *Engine) EvaluateTeamBusinessReward(ctx context.Context, userId uint) error {
	return e.St.Atomic(ctx, func(tx store.Store) error {
		user, err := tx.UserByID(ctx, userId)
		if err != nil {
			return err
		}
		own := user.MainWalletBalance + user.RoiWallet

		team, err := tx.DirectTeam(ctx, userId)
		if err != nil {
			return err
		}
		var teamTotal, bestLeg float64
		for _, ref := range team {
			member, err := tx.UserByID(ctx, ref.UserId)
			if err != nil {
				continue
			}
			leg := member.MainWalletBalance + member.RoiWallet
			teamTotal += leg
			if leg > bestLeg {
				bestLeg = leg
			}
		}

		for _, tier := range TeamBusinessLadder {
			if own < tier.Threshold || teamTotal < tier.Threshold || bestLeg < tier.Threshold/2 {
				continue
			}
			won, err := tx.SetMark(ctx, userEntity(userId), "team-business", fmt.Sprintf("tier-%d", int(tier.Threshold)))
			if err != nil {
				return err
			}
			if !won {
				// the highest reachable tier was settled earlier
				return nil
			}
			delta := store.Delta{TotalEarning: tier.Reward}
			if user.Subscribed {
				delta.MainWallet = tier.Reward
				delta.TeamBusinessIncome = tier.Reward
			} else {
				delta.PendingWallet = tier.Reward
				delta.PendingTeamBusinessIncome = tier.Reward
			}
			if err := tx.CreditUser(ctx, userId, delta); err != nil {
				return err
			}
			fmt.Println("[team business] paid", tier.Reward, "to user", userId, "at", tier.Threshold)
			return nil
		}
		return nil
	})
}
