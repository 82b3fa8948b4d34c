package mlmapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetweenAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08 02:00 jumps to 03:00, leaving the raw span an hour short
	// of five full days
	a := time.Date(2026, 3, 6, 10, 0, 0, 0, loc)
	b := time.Date(2026, 3, 11, 10, 0, 0, 0, loc)
	assert.Equal(t, 5, DaysBetween(a, b, loc))
}

func TestDaysBetweenAcrossFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-11-01 rolls the clock back, stretching the span by an hour
	a := time.Date(2026, 10, 30, 10, 0, 0, 0, loc)
	b := time.Date(2026, 11, 4, 10, 0, 0, 0, loc)
	assert.Equal(t, 5, DaysBetween(a, b, loc))
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 3, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b, time.UTC))
	assert.Equal(t, 0, DaysBetween(a, a, time.UTC))
}
