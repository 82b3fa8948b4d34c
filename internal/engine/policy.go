package engine

import (
	"math"

	"fortuna/internal/mlmapi"
)

// CanWithdraw reports whether amount may leave the main wallet. Subscribed
// accounts must keep the renewal reserve behind.
func CanWithdraw(u *mlmapi.User, amount float64) bool {
	reserve := 0.0
	if u.Subscribed {
		reserve = RenewalReserve
	}
	return u.MainWalletBalance >= amount+reserve
}

// RemainingCycleAllowance is how much program-wallet balance may still move
// to the main wallet before the next renewal is charged. The counter resets
// when a renewal fee is taken; unsubscribed accounts are not cycle-limited.
func RemainingCycleAllowance(u *mlmapi.User) float64 {
	if !u.Subscribed {
		return math.Inf(1)
	}
	rem := RenewalReserve - u.SubscriptionWithdraw
	if rem < 0 {
		rem = 0
	}
	return rem
}

// RegisterHashReuse counts one reuse of an already-seen transaction hash
// against the account and reports whether it is now blocked.
func RegisterHashReuse(u *mlmapi.User, strikes uint) bool {
	u.HashRepeatCount++
	if u.HashRepeatCount >= strikes {
		u.Blocked = true
	}
	return u.Blocked
}
