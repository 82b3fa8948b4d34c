package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fortuna/internal/store"
)

func seedEarner(st *store.Mem, id uint, sponsorCode string, earnings float64) {
	u := seedUser(st, id, sponsorCode, true)
	u.MainWalletBalance = earnings
	st.PutUser(u)
}

func TestTeamBusinessRewardPaysHighestTierOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	joined := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedEarner(st, 1, "", 1200)
	seedEarner(st, 2, testCode(1), 700)
	seedEarner(st, 3, testCode(1), 400)
	seedDirect(st, 1, 2, joined)
	seedDirect(st, 1, 3, joined)

	e := testEngine(st, joined)
	require.NoError(t, e.EvaluateTeamBusinessReward(ctx, 1))

	// own 1200, team 1100, best leg 700: the 1000 tier qualifies
	got := mustUser(st, 1)
	assert.Equal(t, 50.0, got.TeamBusinessIncome)
	assert.Equal(t, 1250.0, got.MainWalletBalance)
	assert.Equal(t, 50.0, got.TotalEarning)

	require.NoError(t, e.EvaluateTeamBusinessReward(ctx, 1))
	assert.Equal(t, 50.0, mustUser(st, 1).TeamBusinessIncome)
}

func TestTeamBusinessRewardNeedsStrongLeg(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	joined := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedEarner(st, 1, "", 1200)
	seedEarner(st, 2, testCode(1), 400)
	seedEarner(st, 3, testCode(1), 400)
	seedEarner(st, 4, testCode(1), 400)
	seedDirect(st, 1, 2, joined)
	seedDirect(st, 1, 3, joined)
	seedDirect(st, 1, 4, joined)

	e := testEngine(st, joined)
	require.NoError(t, e.EvaluateTeamBusinessReward(ctx, 1))

	// team total clears 1000 but no leg carries 500, only the lower
	// tiers can pay
	got := mustUser(st, 1)
	assert.Equal(t, 20.0, got.TeamBusinessIncome)
}

func TestTeamBusinessRewardClimbsTiers(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	joined := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedEarner(st, 1, "", 300)
	seedEarner(st, 2, testCode(1), 300)
	seedDirect(st, 1, 2, joined)

	e := testEngine(st, joined)
	require.NoError(t, e.EvaluateTeamBusinessReward(ctx, 1))
	assert.Equal(t, 10.0, mustUser(st, 1).TeamBusinessIncome)

	// the team grows into the next tier, it pays on top
	u := mustUser(st, 1)
	u.MainWalletBalance = 600
	st.PutUser(u)
	member := mustUser(st, 2)
	member.MainWalletBalance = 600
	st.PutUser(member)

	require.NoError(t, e.EvaluateTeamBusinessReward(ctx, 1))
	assert.Equal(t, 30.0, mustUser(st, 1).TeamBusinessIncome)
}
