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

func seedInvestor(st *store.Mem, id uint, sponsorCode string, lastInvestment, paidRoi float64, investedOn time.Time) {
	u := seedUser(st, id, sponsorCode, true)
	u.Investment = lastInvestment
	u.LastInvestment = lastInvestment
	u.LastInvestmentRoi = paidRoi
	u.LastInvestmentOn = &investedOn
	st.PutUser(u)
}

func TestRoiSweepAccruesAndCascades(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1, LastRoiSweepDay: "2026-03-01"})
	seedUser(st, 1, "", true)
	invested := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInvestor(st, 2, testCode(1), 1000, 0, invested)

	// monday
	e := testEngine(st, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))

	investor := mustUser(st, 2)
	assert.Equal(t, 50.0, investor.RoiWallet)
	assert.Equal(t, 50.0, investor.LastInvestmentRoi)
	assert.Equal(t, 50.0, investor.TotalEarning)

	sponsor := mustUser(st, 1)
	assert.Equal(t, 5.0, sponsor.MainWalletBalance)
	assert.Equal(t, 5.0, sponsor.RoiToLevelIncome)

	admin, err := st.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", admin.LastRoiSweepDay)
}

func TestRoiSweepSecondRunSameDayWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1, LastRoiSweepDay: "2026-03-01"})
	invested := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInvestor(st, 1, "", 1000, 0, invested)

	e := testEngine(st, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))

	assert.Equal(t, 50.0, mustUser(st, 1).RoiWallet)

	// even a direct replay of the day loses the mark race and rolls back
	err := e.sweepDay(ctx, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 50.0, mustUser(st, 1).RoiWallet)
}

func TestRoiSweepSkipsWeekends(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1, LastRoiSweepDay: "2026-03-05"})
	invested := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInvestor(st, 1, "", 1000, 0, invested)

	// thursday watermark, monday run: friday and monday pay, the weekend
	// days are marked but earn nothing
	e := testEngine(st, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))

	assert.Equal(t, 100.0, mustUser(st, 1).RoiWallet)
	admin, err := st.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", admin.LastRoiSweepDay)
}

func TestRoiSweepWatermarkLeavesAdminEditsAlone(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{
		Id:              1,
		LastRoiSweepDay: "2026-03-01",
		Notification:    "promo live",
		Maintenance:     true,
		CompanyTurnover: 1234,
	})
	invested := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInvestor(st, 1, "", 1000, 0, invested)

	e := testEngine(st, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))

	// only the watermark column moves, everything else on the admin row
	// belongs to other writers
	admin, err := st.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", admin.LastRoiSweepDay)
	assert.Equal(t, "promo live", admin.Notification)
	assert.True(t, admin.Maintenance)
	assert.Equal(t, 1234.0, admin.CompanyTurnover)
}

func TestRoiSweepCapsAtTwiceInvestment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1, LastRoiSweepDay: "2026-03-01"})
	seedUser(st, 1, "", true)
	invested := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInvestor(st, 2, testCode(1), 1000, 1990, invested)

	e := testEngine(st, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))

	investor := mustUser(st, 2)
	assert.Equal(t, 10.0, investor.RoiWallet)
	assert.Equal(t, 2000.0, investor.LastInvestmentRoi)
	assert.False(t, investor.Subscribed)

	// the upline's share comes off the uncapped daily reward
	assert.Equal(t, 5.0, mustUser(st, 1).RoiToLevelIncome)
}

func TestRoiSweepCascadeMergesAndHoldsPending(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1, LastRoiSweepDay: "2026-03-01"})
	seedUser(st, 1, "", false)
	invested := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedInvestor(st, 2, testCode(1), 1000, 0, invested)
	seedInvestor(st, 3, testCode(1), 1000, 0, invested)

	e := testEngine(st, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.RunDailyRoiSweep(ctx, e.Now()))

	// two legs, one sponsor: both shares land in one pending credit
	sponsor := mustUser(st, 1)
	assert.Equal(t, 0.0, sponsor.MainWalletBalance)
	assert.Equal(t, 10.0, sponsor.PendingWallet)
	assert.Equal(t, 10.0, sponsor.PendingRoiToLevelIncome)
	assert.Equal(t, 10.0, sponsor.TotalEarning)
}
