package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// OnDirectReferralRecorded re-evaluates a sponsor's royalty windows after a
// new direct lands. The same check runs from the scheduler so windows close
// on time even for sponsors who stop recruiting.
func (e *Engine) OnDirectReferralRecorded(ctx context.Context, userId uint) error {
	return e.St.Atomic(ctx, func(tx store.Store) error {
		return e.checkRoyalty(ctx, tx, userId, e.Now())
	})
}

// CheckRoyaltyAll walks every subscribed user's window. Individual failures
// are logged and skipped so one bad row cannot stall the batch.
func (e *Engine) CheckRoyaltyAll(ctx context.Context) error {
	users, err := e.St.SubscribedInvestors(ctx)
	if err != nil {
		return err
	}
	now := e.Now()
	for i := range users {
		id := users[i].Id
		err := e.St.Atomic(ctx, func(tx store.Store) error {
			return e.checkRoyalty(ctx, tx, id, now)
		})
		if err != nil {
			fmt.Println("[royalty] check failed for user", id, ":", err)
		}
	}
	return nil
}

// checkRoyalty advances one user's rolling 10-day royalty window. Directs
// recruited since the watermark decide the outcome: ten directs inside the
// first week earn both the week and ten-day records at once, five earn the
// week record only, and a full ten-day span with ten directs earns the
// ten-day record. Whenever a ten-day span elapses the watermark jumps
// forward exactly ten days, whether or not anything was earned, so stale
// accounts fast-forward through missed windows one span at a time without
// ever overshooting the present.
func (e *Engine) checkRoyalty(ctx context.Context, tx store.Store, userId uint, now time.Time) error {
	user, err := tx.UserByID(ctx, userId)
	if err != nil {
		return err
	}
	if !user.Subscribed || user.NextRoyaltyFrom == nil {
		return nil
	}

	for {
		wm := *user.NextRoyaltyFrom
		if !wm.Before(now) {
			return nil
		}
		days := mlmapi.DaysBetween(wm, now, e.Loc)
		count, err := tx.CountDirectsBetween(ctx, userId, wm, now)
		if err != nil {
			return err
		}

		weekTo := wm.AddDate(0, 0, RoyaltyWeekDays)
		windowTo := wm.AddDate(0, 0, RoyaltyWindowDays)
		advanced := false

		switch {
		case days <= RoyaltyWeekDays:
			if count >= int64(RoyaltyTenDaysDirects) {
				if err := e.recordRoyalty(ctx, tx, userId, mlmapi.RoyaltyWeek, wm, weekTo); err != nil {
					return err
				}
				won, err := e.recordRoyaltyWon(ctx, tx, userId, mlmapi.RoyaltyTenDays, wm, windowTo)
				if err != nil {
					return err
				}
				if won {
					next := windowTo
					user.NextRoyaltyFrom = &next
					advanced = true
				}
			} else if count >= int64(RoyaltyWeekDirects) {
				if err := e.recordRoyalty(ctx, tx, userId, mlmapi.RoyaltyWeek, wm, weekTo); err != nil {
					return err
				}
			}
		case days <= RoyaltyWindowDays:
			if count >= int64(RoyaltyTenDaysDirects) {
				if err := e.recordRoyalty(ctx, tx, userId, mlmapi.RoyaltyTenDays, wm, windowTo); err != nil {
					return err
				}
			}
			if days == RoyaltyWindowDays {
				next := windowTo
				user.NextRoyaltyFrom = &next
				advanced = true
			}
		default:
			next := windowTo
			user.NextRoyaltyFrom = &next
			advanced = true
		}

		if !advanced {
			return nil
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		// another span may already be fully in the past, loop until the
		// watermark catches up to now
	}
}

func (e *Engine) recordRoyalty(ctx context.Context, tx store.Store, userId uint, typ string, from, to time.Time) error {
	_, err := e.recordRoyaltyWon(ctx, tx, userId, typ, from, to)
	return err
}

func (e *Engine) recordRoyaltyWon(ctx context.Context, tx store.Store, userId uint, typ string, from, to time.Time) (bool, error) {
	won, err := tx.AddRoyalty(ctx, &mlmapi.RoyaltyPaidHistory{
		UserId:      userId,
		RoyaltyType: typ,
		Status:      mlmapi.RoyaltyPending,
		DateFrom:    from,
		DateTo:      to,
	})
	if err != nil {
		return false, err
	}
	if won {
		fmt.Println("[royalty] user", userId, "achieved", typ, "window", from.Format(mlmapi.DayFormat))
	}
	return won, nil
}

// PayRoyaltyAchiever settles one pending royalty record with an admin-chosen
// reward. Paying twice returns ErrAlreadyProcessed.
func (e *Engine) PayRoyaltyAchiever(ctx context.Context, historyId uint, reward float64) error {
	if reward <= 0 {
		return ErrPolicyViolation
	}
	now := e.Now()
	return e.St.Atomic(ctx, func(tx store.Store) error {
		hist, err := tx.RoyaltyByID(ctx, historyId)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAlreadyProcessed
			}
			return err
		}
		if hist.Status == mlmapi.RoyaltyPaid {
			return ErrAlreadyProcessed
		}
		user, err := tx.UserByID(ctx, hist.UserId)
		if err != nil {
			return err
		}
		delta := store.Delta{TotalEarning: reward}
		if user.Subscribed {
			delta.MainWallet = reward
			delta.RoyaltyIncome = reward
		} else {
			delta.PendingWallet = reward
			delta.PendingRoyaltyIncome = reward
		}
		if err := tx.CreditUser(ctx, user.Id, delta); err != nil {
			return err
		}
		hist.Status = mlmapi.RoyaltyPaid
		hist.RoyaltyReward = &reward
		hist.PaidAt = &now
		if err := tx.SaveRoyalty(ctx, hist); err != nil {
			return err
		}
		fmt.Println("[royalty] paid", reward, "to user", hist.UserId, "for", hist.RoyaltyType)
		return nil
	})
}
