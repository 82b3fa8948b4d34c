package engine

import (
	"fmt"
	"time"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

// Engine runs the incentive accrual schemes against a Store. All engine
// entry points are idempotent and safe to call redundantly: re-triggers
// from logins, admin actions and scheduler ticks resolve through store
// level idempotency keys, never in-memory state.
type Engine struct {
	St  store.Store
	Loc *time.Location
	Now func() time.Time
}

func New(st store.Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = mlmapi.AppLocation()
	}
	return &Engine{
		St:  st,
		Loc: loc,
		Now: time.Now,
	}
}

func (e *Engine) day(t time.Time) string {
	return mlmapi.DayKey(t, e.Loc)
}

func (e *Engine) midnight(t time.Time) time.Time {
	return mlmapi.Midnight(t, e.Loc)
}

func userEntity(id uint) string {
	return fmt.Sprintf("user:%d", id)
}
