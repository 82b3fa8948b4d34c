package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

func seedRoyaltyUser(st *store.Mem, watermark time.Time) mlmapi.User {
	u := seedUser(st, 1, "", true)
	u.NextRoyaltyFrom = &watermark
	st.PutUser(u)
	return u
}

func seedDirects(st *store.Mem, referrerId uint, n int, joinedAt time.Time) {
	for i := 0; i < n; i++ {
		seedDirect(st, referrerId, uint(100+i), joinedAt)
	}
}

func TestRoyaltyWeekOnlyInsideSevenDays(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	wm := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedRoyaltyUser(st, wm)
	seedDirects(st, 1, 7, wm.AddDate(0, 0, 2))

	e := testEngine(st, wm.AddDate(0, 0, 6))
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))

	history, err := st.RoyaltiesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, mlmapi.RoyaltyWeek, history[0].RoyaltyType)
	assert.Equal(t, mlmapi.RoyaltyPending, history[0].Status)
	assert.Nil(t, history[0].RoyaltyReward)

	// seven directs are not ten, the watermark stays put
	got := mustUser(st, 1)
	assert.True(t, got.NextRoyaltyFrom.Equal(wm))

	// retrigger changes nothing
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))
	history, err = st.RoyaltiesByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRoyaltyTenDirectsInsideWeekEarnsBoth(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	wm := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedRoyaltyUser(st, wm)
	seedDirects(st, 1, 10, wm.AddDate(0, 0, 1))

	e := testEngine(st, wm.AddDate(0, 0, 5))
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))

	history, err := st.RoyaltiesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	types := []string{history[0].RoyaltyType, history[1].RoyaltyType}
	assert.Contains(t, types, mlmapi.RoyaltyWeek)
	assert.Contains(t, types, mlmapi.RoyaltyTenDays)

	got := mustUser(st, 1)
	assert.True(t, got.NextRoyaltyFrom.Equal(wm.AddDate(0, 0, RoyaltyWindowDays)))
}

func TestRoyaltyTenDayWindowClosesWithTenDirects(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	wm := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedRoyaltyUser(st, wm)
	seedDirects(st, 1, 10, wm.AddDate(0, 0, 8))

	e := testEngine(st, wm.AddDate(0, 0, 9))
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))

	history, err := st.RoyaltiesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, mlmapi.RoyaltyTenDays, history[0].RoyaltyType)

	// the window has not fully elapsed yet
	assert.True(t, mustUser(st, 1).NextRoyaltyFrom.Equal(wm))

	// at day ten the watermark advances whether or not anything was earned
	e = testEngine(st, wm.AddDate(0, 0, 10))
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))
	assert.True(t, mustUser(st, 1).NextRoyaltyFrom.Equal(wm.AddDate(0, 0, 10)))
}

func TestRoyaltyWatermarkCatchesUpWithoutOvershoot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	wm := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedRoyaltyUser(st, wm)

	// 25 days later with no recruits: two full spans elapsed, the third
	// is still open
	e := testEngine(st, wm.AddDate(0, 0, 25))
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))

	got := mustUser(st, 1)
	assert.True(t, got.NextRoyaltyFrom.Equal(wm.AddDate(0, 0, 20)))

	history, err := st.RoyaltiesByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPayRoyaltyAchiever(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	wm := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedRoyaltyUser(st, wm)
	seedDirects(st, 1, 5, wm.AddDate(0, 0, 1))

	e := testEngine(st, wm.AddDate(0, 0, 6))
	require.NoError(t, e.OnDirectReferralRecorded(ctx, 1))

	history, err := st.RoyaltiesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	require.ErrorIs(t, e.PayRoyaltyAchiever(ctx, history[0].Id, 0), ErrPolicyViolation)

	require.NoError(t, e.PayRoyaltyAchiever(ctx, history[0].Id, 40))
	got := mustUser(st, 1)
	assert.Equal(t, 40.0, got.MainWalletBalance)
	assert.Equal(t, 40.0, got.RoyaltyIncome)
	assert.Equal(t, 40.0, got.TotalEarning)

	paid, err := st.RoyaltyByID(ctx, history[0].Id)
	require.NoError(t, err)
	assert.Equal(t, mlmapi.RoyaltyPaid, paid.Status)
	require.NotNil(t, paid.RoyaltyReward)
	assert.Equal(t, 40.0, *paid.RoyaltyReward)

	// paying twice is refused and moves no money
	require.ErrorIs(t, e.PayRoyaltyAchiever(ctx, history[0].Id, 40), ErrAlreadyProcessed)
	assert.Equal(t, 40.0, mustUser(st, 1).MainWalletBalance)
}
