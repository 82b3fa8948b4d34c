package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// RunDailyRoiSweep catches the roi accrual up to asOf, one calendar day per
// transaction. Days already swept are skipped by the per-day mark, so a
// crashed or doubled run resumes cleanly from the admin watermark.
func (e *Engine) RunDailyRoiSweep(ctx context.Context, asOf time.Time) error {
	admin, err := e.St.Admin(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAdminMissing
		}
		return err
	}

	start := e.midnight(asOf)
	if admin.LastRoiSweepDay != "" {
		last, err := time.ParseInLocation(mlmapi.DayFormat, admin.LastRoiSweepDay, e.Loc)
		if err != nil {
			return fmt.Errorf("bad roi sweep watermark %q: %w", admin.LastRoiSweepDay, err)
		}
		start = last.AddDate(0, 0, 1)
	}

	for day := start; !day.After(e.midnight(asOf)); day = day.AddDate(0, 0, 1) {
		if err := e.sweepDay(ctx, day); err != nil {
			if errors.Is(err, ErrAlreadyProcessed) {
				continue
			}
			return err
		}
	}
	return nil
}

// sweepDay accrues one day of roi for every subscribed investor and cascades
// each investor's uncapped reward up to twenty sponsor levels. All credits
// hitting the same user merge into one delta before any write. The day mark
// is taken first inside the transaction, so a lost race rolls the whole day
// back with zero writes.
func (e *Engine) sweepDay(ctx context.Context, day time.Time) error {
	key := e.day(day)
	return e.St.Atomic(ctx, func(tx store.Store) error {
		won, err := tx.SetMark(ctx, "admin", "roi-sweep", key)
		if err != nil {
			return err
		}
		if !won {
			return ErrAlreadyProcessed
		}
		if err := tx.SetRoiSweepDay(ctx, key); err != nil {
			return err
		}
		if mlmapi.IsWeekend(day, e.Loc) {
			fmt.Println("[roi sweep] weekend, skipping", key)
			return nil
		}

		investors, err := tx.SubscribedInvestors(ctx)
		if err != nil {
			return err
		}
		all, err := tx.Users(ctx)
		if err != nil {
			return err
		}
		byCode := make(map[string]*mlmapi.User, len(all))
		for i := range all {
			byCode[all[i].ReferralCode] = &all[i]
		}

		deltas := make(map[uint]*store.Delta)
		add := func(id uint, d store.Delta) {
			cur, ok := deltas[id]
			if !ok {
				cur = &store.Delta{}
				deltas[id] = cur
			}
			cur.Merge(d)
		}
		var unsubscribe []uint

		for i := range investors {
			inv := &investors[i]
			rate := DailyRoiRate(inv.LastInvestment)
			if rate == 0 {
				continue
			}
			// accrual begins the day after the investment landed
			if inv.LastInvestmentOn != nil && !day.After(*inv.LastInvestmentOn) {
				continue
			}
			remaining := mlmapi.RoundFloat(RoiCapMultiple*inv.LastInvestment-inv.LastInvestmentRoi, 4)
			if remaining <= 0 {
				unsubscribe = append(unsubscribe, inv.Id)
				continue
			}
			reward := mlmapi.RoundFloat(inv.LastInvestment*rate, 4)
			actual := reward
			if actual > remaining {
				actual = remaining
			}
			add(inv.Id, store.Delta{
				RoiWallet:         actual,
				TotalEarning:      actual,
				LastInvestmentRoi: actual,
			})
			if actual == remaining {
				unsubscribe = append(unsubscribe, inv.Id)
			}

			// the cascade shares the uncapped reward, the investor's own
			// cap does not shrink the upline's cut
			code := inv.SponsorCode
			for lvl := 0; lvl < len(RoiCascadeShare) && code != ""; lvl++ {
				sp, ok := byCode[code]
				if !ok {
					break
				}
				share := mlmapi.RoundFloat(reward*RoiCascadeShare[lvl], 4)
				d := store.Delta{TotalEarning: share}
				if sp.Subscribed {
					d.MainWallet = share
					d.RoiToLevelIncome = share
				} else {
					d.PendingWallet = share
					d.PendingRoiToLevelIncome = share
				}
				add(sp.Id, d)
				if sp.ReferralCode == RootCode {
					break
				}
				code = sp.SponsorCode
			}
		}

		ids := make([]uint, 0, len(deltas))
		for id := range deltas {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			if err := tx.CreditUser(ctx, id, *deltas[id]); err != nil {
				return err
			}
		}
		for _, id := range unsubscribe {
			if err := tx.SetSubscribed(ctx, id, false); err != nil {
				return err
			}
		}
		fmt.Println("[roi sweep]", key, "credited", len(ids), "users, retired", len(unsubscribe))
		return nil
	})
}
