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

func TestApprovalDistributesLevelIncome(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1, Email: "admin@example.com"})
	seedChain(st, 3, true)

	joiner := mustUser(st, 3)
	joiner.Subscribed = false
	joiner.PendingWallet = 5
	joiner.PendingReferIncome = 5
	st.PutUser(joiner)
	st.PutPendingSubscription(mlmapi.PendingSubscription{UserId: 3, Amount: 100, HashString: "0xabc"})

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	e := testEngine(st, now)

	require.NoError(t, e.OnInvestmentApproved(ctx, 3))

	got := mustUser(st, 3)
	assert.True(t, got.Subscribed)
	assert.Equal(t, 100.0, got.Investment)
	assert.Equal(t, 100.0, got.FirstInvestment)
	assert.Equal(t, 100.0, got.LastInvestment)
	assert.Equal(t, 0.0, got.LastInvestmentRoi)
	assert.Equal(t, int64(2), got.WorldUsersOnSubscribe)
	require.NotNil(t, got.NextRoyaltyFrom)

	// pending income flushed into the main wallet, counters follow
	assert.Equal(t, 5.0, got.MainWalletBalance)
	assert.Equal(t, 0.0, got.PendingWallet)
	assert.Equal(t, 5.0, got.ReferIncome)
	assert.Equal(t, 0.0, got.PendingReferIncome)

	// direct sponsor: 10% level share plus the flat direct bonus
	direct := mustUser(st, 2)
	assert.Equal(t, 11.0, direct.MainWalletBalance)
	assert.Equal(t, 11.0, direct.ReferIncome)
	assert.Equal(t, 11.0, direct.TotalEarning)

	// level-1 ancestor: 5%
	upline := mustUser(st, 1)
	assert.Equal(t, 5.0, upline.MainWalletBalance)
	assert.Equal(t, 5.0, upline.ReferIncome)

	directs, err := st.CountReferrals(ctx, 2, mlmapi.RefScopeHistory, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), directs)

	assert.Equal(t, 100.0, st.Turnover("2026-03-02"))

	entries := st.SubscriptionEntries(3)
	require.Len(t, entries, 1)
	assert.Equal(t, "purchase", entries[0].Kind)
}

func TestApprovalIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1})
	seedChain(st, 2, true)

	joiner := mustUser(st, 2)
	joiner.Subscribed = false
	st.PutUser(joiner)
	st.PutPendingSubscription(mlmapi.PendingSubscription{UserId: 2, Amount: 100})

	e := testEngine(st, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, e.OnInvestmentApproved(ctx, 2))

	before := mustUser(st, 1)
	err := e.OnInvestmentApproved(ctx, 2)
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	after := mustUser(st, 1)
	assert.Equal(t, before, after)
	assert.Equal(t, 100.0, mustUser(st, 2).Investment)
}

func TestApprovalCreditsUnsubscribedSponsorAsPending(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1})
	seedUser(st, 1, "", false)
	seedUser(st, 2, testCode(1), false)
	st.PutPendingSubscription(mlmapi.PendingSubscription{UserId: 2, Amount: 100})

	e := testEngine(st, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, e.OnInvestmentApproved(ctx, 2))

	sponsor := mustUser(st, 1)
	assert.Equal(t, 0.0, sponsor.MainWalletBalance)
	assert.Equal(t, 11.0, sponsor.PendingWallet)
	assert.Equal(t, 11.0, sponsor.PendingReferIncome)
	assert.Equal(t, 11.0, sponsor.TotalEarning)
}

func TestApprovalRepeatInvestmentSkipsLevelIncome(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	st.PutAdmin(mlmapi.Admin{Id: 1})
	seedChain(st, 2, true)

	joiner := mustUser(st, 2)
	joiner.Investment = 100
	joiner.FirstInvestment = 100
	st.PutUser(joiner)
	st.PutPendingSubscription(mlmapi.PendingSubscription{UserId: 2, Amount: 500})

	e := testEngine(st, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, e.OnInvestmentApproved(ctx, 2))

	got := mustUser(st, 2)
	assert.Equal(t, 600.0, got.Investment)
	assert.Equal(t, 500.0, got.LastInvestment)
	assert.Equal(t, 100.0, got.FirstInvestment)

	// a top-up pays no second round of level income
	sponsor := mustUser(st, 1)
	assert.Equal(t, 0.0, sponsor.MainWalletBalance)
	assert.Equal(t, 0.0, sponsor.ReferIncome)
}

func TestApprovalRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	st := store.NewMem()
	seedUser(st, 1, "", false)
	st.PutPendingSubscription(mlmapi.PendingSubscription{UserId: 1, Amount: 100})

	e := testEngine(st, time.Now())
	require.ErrorIs(t, e.OnInvestmentApproved(ctx, 1), ErrAdminMissing)
}
