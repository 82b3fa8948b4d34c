package engine

import (
	"context"
	"errors"
	"fmt"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// EvaluateCronEligibility starts every world-progression program the user
// now qualifies for. Rungs unlock strictly in order: the scan stops at the
// first rung whose growth or directs requirement is unmet. Re-running it is
// harmless, already-started rungs are skipped.
func (e *Engine) EvaluateCronEligibility(ctx context.Context, userId uint) error {
	now := e.Now()
	return e.St.Atomic(ctx, func(tx store.Store) error {
		user, err := tx.UserByID(ctx, userId)
		if err != nil {
			return err
		}
		if !user.Subscribed {
			return nil
		}
		world, err := tx.CountSubscribed(ctx)
		if err != nil {
			return err
		}
		growth := world - user.WorldUsersOnSubscribe
		directs, err := tx.CountReferrals(ctx, userId, mlmapi.RefScopeHistory, -1)
		if err != nil {
			return err
		}
		for lvl, rung := range CronLadder {
			if _, err := tx.CronState(ctx, userId, lvl); err == nil {
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if growth < rung.WorldUsers || directs < rung.Directs {
				break
			}
			started := e.midnight(now)
			st := &mlmapi.CronLevelState{
				UserId:    userId,
				JobLevel:  lvl,
				Started:   true,
				StartedOn: &started,
			}
			if err := tx.SaveCronState(ctx, st); err != nil {
				return err
			}
			fmt.Println("[world cron] user", userId, "started level", lvl, "on", e.day(started))
		}
		return nil
	})
}

// ResumeCronPrograms pays out missed days for every running program. One
// program failing does not stall the rest.
func (e *Engine) ResumeCronPrograms(ctx context.Context) error {
	states, err := e.St.RunningCronStates(ctx)
	if err != nil {
		return err
	}
	for _, st := range states {
		if err := e.ResumeCronProgram(ctx, st.UserId, st.JobLevel); err != nil {
			fmt.Println("[world cron] resume failed for user", st.UserId, "level", st.JobLevel, ":", err)
		}
	}
	return nil
}

// ResumeCronProgram pays the days elapsed since the program's last payout.
// The start day itself earns nothing. Each day is keyed by its calendar
// date, so a progress counter that fell behind the income log resyncs by
// advancing without paying twice.
func (e *Engine) ResumeCronProgram(ctx context.Context, userId uint, jobLevel int) error {
	if jobLevel < 0 || jobLevel >= len(CronLadder) {
		return ErrPolicyViolation
	}
	rung := CronLadder[jobLevel]
	now := e.Now()
	return e.St.Atomic(ctx, func(tx store.Store) error {
		st, err := tx.CronState(ctx, userId, jobLevel)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if !st.Started || st.StartedOn == nil {
			return nil
		}
		due := mlmapi.DaysBetween(*st.StartedOn, now, e.Loc)
		if due > rung.TotalDays {
			due = rung.TotalDays
		}
		if due <= st.Progress {
			return nil
		}
		user, err := tx.UserByID(ctx, userId)
		if err != nil {
			return err
		}
		paid := 0
		for i := st.Progress + 1; i <= due; i++ {
			won, err := e.payCronDay(ctx, tx, st, user, rung, i)
			if err != nil {
				return err
			}
			if won {
				paid++
			}
		}
		if st.Progress >= rung.TotalDays {
			st.Started = false
		}
		if err := tx.SaveCronState(ctx, st); err != nil {
			return err
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		if paid > 0 {
			fmt.Println("[world cron] user", userId, "level", jobLevel, "paid", paid, "day(s)")
		}
		return nil
	})
}

// payCronDay settles program day i, dated StartedOn plus i days. Progress
// always advances to i; the wallet moves only when this call inserted the
// day's log row.
func (e *Engine) payCronDay(ctx context.Context, tx store.Store, st *mlmapi.CronLevelState, user *mlmapi.User, rung CronLevel, i int) (bool, error) {
	date := st.StartedOn.AddDate(0, 0, i)
	won, err := tx.LogCronIncome(ctx, mlmapi.CronIncomeLog{
		UserId:   st.UserId,
		JobLevel: st.JobLevel,
		Day:      e.day(date),
		Amount:   rung.RewardPerDay,
	})
	if err != nil {
		return false, err
	}
	st.Progress = i
	if !won {
		return false, nil
	}
	st.Income += rung.RewardPerDay
	user.WalletBalance += rung.RewardPerDay
	user.TotalEarning += rung.RewardPerDay
	user.SubscriptionWalletBalance += rung.RewardPerDay

	// auto renewal once the accumulator crosses the threshold
	if user.SubscriptionWalletBalance >= RenewalThreshold {
		user.SubscriptionWalletBalance = 0
		user.MainWalletBalance -= RenewalFee
		user.SubscriptionWithdraw = 0
		if err := tx.AddSubscriptionEntry(ctx, &mlmapi.SubscriptionEntry{
			UserId: user.Id,
			Amount: RenewalFee,
			Kind:   "renewal",
		}); err != nil {
			return false, err
		}
		fmt.Println("[world cron] auto renewal charged for user", user.Id)
	}
	return true, nil
}
