package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fortuna/internal/store"
)

func TestReferBonusPaysTierOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", true)
	joined := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedDirects(st, 1, 9, joined)

	e := testEngine(st, joined)
	require.NoError(t, e.EvaluateReferBonus(ctx, 1))
	assert.Equal(t, 0.0, mustUser(st, 1).ReferBonusIncome)

	// the tenth direct unlocks the first tier
	seedDirect(st, 1, 200, joined)
	require.NoError(t, e.EvaluateReferBonus(ctx, 1))
	got := mustUser(st, 1)
	assert.Equal(t, 10.0, got.ReferBonusIncome)
	assert.Equal(t, 10.0, got.MainWalletBalance)
	assert.Equal(t, 10.0, got.TotalEarning)

	marked, err := st.HasMark(ctx, "user:1", "refer-bonus", "tier-10")
	require.NoError(t, err)
	assert.True(t, marked)

	// still in the same tier: no second payout
	seedDirect(st, 1, 201, joined)
	require.NoError(t, e.EvaluateReferBonus(ctx, 1))
	assert.Equal(t, 10.0, mustUser(st, 1).ReferBonusIncome)
}

func TestReferBonusNextTierPaysAgain(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", true)
	joined := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedDirects(st, 1, 10, joined)

	e := testEngine(st, joined)
	require.NoError(t, e.EvaluateReferBonus(ctx, 1))
	assert.Equal(t, 10.0, mustUser(st, 1).ReferBonusIncome)

	for i := 0; i < 10; i++ {
		seedDirect(st, 1, uint(300+i), joined)
	}
	require.NoError(t, e.EvaluateReferBonus(ctx, 1))
	assert.Equal(t, 35.0, mustUser(st, 1).ReferBonusIncome)

	require.NoError(t, e.EvaluateReferBonus(ctx, 1))
	assert.Equal(t, 35.0, mustUser(st, 1).ReferBonusIncome)
}

func TestReferBonusHeldPendingWhileUnsubscribed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", false)
	joined := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedDirects(st, 1, 10, joined)

	e := testEngine(st, joined)
	require.NoError(t, e.EvaluateReferBonus(ctx, 1))

	got := mustUser(st, 1)
	assert.Equal(t, 0.0, got.MainWalletBalance)
	assert.Equal(t, 10.0, got.PendingWallet)
	assert.Equal(t, 10.0, got.PendingReferBonusIncome)
	assert.Equal(t, 10.0, got.TotalEarning)
}
