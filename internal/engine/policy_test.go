package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"fortuna/internal/mlmapi"
)

func TestWithdrawKeepsRenewalReserve(t *testing.T) {
	subscribed := &mlmapi.User{Subscribed: true, MainWalletBalance: 17.99}
	assert.False(t, CanWithdraw(subscribed, 6))

	subscribed.MainWalletBalance = 18
	assert.True(t, CanWithdraw(subscribed, 6))
	assert.False(t, CanWithdraw(subscribed, 6.01))

	// no reserve once unsubscribed
	free := &mlmapi.User{MainWalletBalance: 6}
	assert.True(t, CanWithdraw(free, 6))
	assert.False(t, CanWithdraw(free, 6.01))
}

func TestTransferToMainCycleAllowance(t *testing.T) {
	u := &mlmapi.User{Subscribed: true, WalletBalance: 50, SubscriptionWithdraw: 10}
	assert.Equal(t, 2.0, RemainingCycleAllowance(u))

	u.SubscriptionWithdraw = 12
	assert.Equal(t, 0.0, RemainingCycleAllowance(u))

	// overshoot from older data clamps instead of going negative
	u.SubscriptionWithdraw = 13
	assert.Equal(t, 0.0, RemainingCycleAllowance(u))

	// a charged renewal resets the counter and restores the full allowance
	u.SubscriptionWithdraw = 0
	assert.Equal(t, RenewalReserve, RemainingCycleAllowance(u))

	u.Subscribed = false
	assert.True(t, math.IsInf(RemainingCycleAllowance(u), 1))
}

func TestHashReuseThreeStrikesBlocks(t *testing.T) {
	u := &mlmapi.User{}
	assert.False(t, RegisterHashReuse(u, 3))
	assert.False(t, RegisterHashReuse(u, 3))
	assert.False(t, u.Blocked)

	assert.True(t, RegisterHashReuse(u, 3))
	assert.True(t, u.Blocked)
	assert.Equal(t, uint(3), u.HashRepeatCount)

	// further reuses stay blocked
	assert.True(t, RegisterHashReuse(u, 3))
}
