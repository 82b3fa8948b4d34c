package engine

import (
	"context"
	"fmt"
	"time"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// testEngine pins the clock and the timezone so calendar-day logic is
// reproducible regardless of where the tests run.
func testEngine(st store.Store, at time.Time) *Engine {
	e := New(st, time.UTC)
	e.Now = func() time.Time { return at }
	return e
}

func testCode(id uint) string {
	return fmt.Sprintf("%s%06d", CodePrefix, 100+id)
}

func seedUser(st *store.Mem, id uint, sponsorCode string, subscribed bool) mlmapi.User {
	u := mlmapi.User{
		Id:           id,
		Name:         fmt.Sprintf("user-%d", id),
		Email:        fmt.Sprintf("user-%d@example.com", id),
		ReferralCode: testCode(id),
		SponsorCode:  sponsorCode,
		Subscribed:   subscribed,
		Verified:     true,
	}
	st.PutUser(u)
	return u
}

// seedChain builds a straight sponsor line: user 1 is the top, user n the
// bottom, each sponsored by the one above.
func seedChain(st *store.Mem, n uint, subscribed bool) {
	sponsor := ""
	for id := uint(1); id <= n; id++ {
		seedUser(st, id, sponsor, subscribed)
		sponsor = testCode(id)
	}
}

func seedDirect(st *store.Mem, referrerId, userId uint, joinedAt time.Time) {
	_, _ = st.AddReferral(context.Background(), mlmapi.Referral{
		ReferrerId: referrerId,
		UserId:     userId,
		Scope:      mlmapi.RefScopeHistory,
		Lvl:        0,
		UserCode:   testCode(userId),
		JoinedAt:   joinedAt,
	})
}

func mustUser(st *store.Mem, id uint) mlmapi.User {
	u, err := st.UserByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return *u
}
