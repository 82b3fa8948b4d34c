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

func seedCronState(st *store.Mem, userId uint, jobLevel int, startedOn time.Time, progress int) {
	_ = st.SaveCronState(context.Background(), &mlmapi.CronLevelState{
		UserId:    userId,
		JobLevel:  jobLevel,
		Started:   true,
		StartedOn: &startedOn,
		Progress:  progress,
		Income:    float64(progress) * CronLadder[jobLevel].RewardPerDay,
	})
}

func TestCronEligibilityStartsQualifiedLevels(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	for id := uint(1); id <= 30; id++ {
		seedUser(st, id, "", true)
	}
	seedDirect(st, 1, 2, time.Now())

	e := testEngine(st, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, e.EvaluateCronEligibility(ctx, 1))

	state, err := st.CronState(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, state.Started)
	assert.Equal(t, 0, state.Progress)
	require.NotNil(t, state.StartedOn)
	assert.Equal(t, "2026-03-02", state.StartedOn.Format(mlmapi.DayFormat))

	// level 1 needs 145 new subscribers, not reached
	_, err = st.CronState(ctx, 1, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCronEligibilityIgnoresUnsubscribed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	for id := uint(1); id <= 30; id++ {
		seedUser(st, id, "", true)
	}
	target := mustUser(st, 1)
	target.Subscribed = false
	st.PutUser(target)
	seedDirect(st, 1, 2, time.Now())

	e := testEngine(st, time.Now())
	require.NoError(t, e.EvaluateCronEligibility(ctx, 1))

	_, err := st.CronState(ctx, 1, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCronResumePaysExactlyMissedDays(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", true)
	started := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCronState(st, 1, 0, started, 3)

	e := testEngine(st, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, e.ResumeCronProgram(ctx, 1, 0))

	state, err := st.CronState(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, state.Progress)

	got := mustUser(st, 1)
	assert.InDelta(t, 5*0.25, got.WalletBalance, 1e-9)
	assert.InDelta(t, 5*0.25, got.TotalEarning, 1e-9)
	assert.InDelta(t, 5*0.25, got.SubscriptionWalletBalance, 1e-9)

	// same clock again: nothing left due
	require.NoError(t, e.ResumeCronProgram(ctx, 1, 0))
	assert.InDelta(t, 5*0.25, mustUser(st, 1).WalletBalance, 1e-9)
}

func TestCronResumeResyncsWithoutDoublePay(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", true)
	started := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCronState(st, 1, 0, started, 0)

	e := testEngine(st, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, e.ResumeCronProgram(ctx, 1, 0))
	wallet := mustUser(st, 1).WalletBalance

	// knock the counter back as a crashed run would, the day log keeps
	// the money from moving twice
	state, err := st.CronState(ctx, 1, 0)
	require.NoError(t, err)
	state.Progress = 3
	require.NoError(t, st.SaveCronState(ctx, state))

	require.NoError(t, e.ResumeCronProgram(ctx, 1, 0))
	state, err = st.CronState(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, state.Progress)
	assert.Equal(t, wallet, mustUser(st, 1).WalletBalance)
}

func TestCronProgramFinishesAtTotalDays(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", true)
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedCronState(st, 1, 0, started, 59)

	e := testEngine(st, started.AddDate(0, 0, 90))
	require.NoError(t, e.ResumeCronProgram(ctx, 1, 0))

	state, err := st.CronState(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 60, state.Progress)
	assert.False(t, state.Started)
	assert.InDelta(t, 0.25, mustUser(st, 1).WalletBalance, 1e-9)
}

func TestCronPayoutTriggersRenewal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	u := seedUser(st, 1, "", true)
	u.SubscriptionWalletBalance = 17.8
	u.MainWalletBalance = 10
	u.SubscriptionWithdraw = 3
	st.PutUser(u)
	started := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCronState(st, 1, 0, started, 0)

	e := testEngine(st, started.AddDate(0, 0, 1))
	require.NoError(t, e.ResumeCronProgram(ctx, 1, 0))

	got := mustUser(st, 1)
	assert.Equal(t, 0.0, got.SubscriptionWalletBalance)
	assert.Equal(t, 4.0, got.MainWalletBalance)
	assert.Equal(t, 0.0, got.SubscriptionWithdraw)

	entries := st.SubscriptionEntries(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "renewal", entries[0].Kind)
	assert.Equal(t, RenewalFee, entries[0].Amount)
}

func TestResumeCronProgramsContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 2, "", true)
	started := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// user 1 has a state but no row, resume logs and moves on
	seedCronState(st, 1, 0, started, 0)
	seedCronState(st, 2, 0, started, 0)

	e := testEngine(st, started.AddDate(0, 0, 2))
	require.NoError(t, e.ResumeCronPrograms(ctx))

	assert.InDelta(t, 2*0.25, mustUser(st, 2).WalletBalance, 1e-9)
}
