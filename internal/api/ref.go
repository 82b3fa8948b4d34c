package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

type PaginatedRef struct {
	Count    int               `json:"count"`
	Next     string            `json:"next"`
	Previous string            `json:"previous"`
	Results  []mlmapi.Referral `json:"results"`
}

// GetReferrals lists the caller's downward index, paginated. scope selects
// the edge kind: history (direct joins), paid (level income attribution) or
// all (signup-time index).
func GetReferrals(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}

	scope := c.DefaultQuery("scope", mlmapi.RefScopeHistory)
	if scope != mlmapi.RefScopeHistory && scope != mlmapi.RefScopePaid && scope != mlmapi.RefScopeAll {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	q := app.Db.Model(&mlmapi.Referral{}).
		Where("referrer_id = ? AND scope = ?", user.Id, scope)
	if lvlRaw := c.Query("lvl"); lvlRaw != "" {
		if lvl, err := strconv.Atoi(lvlRaw); err == nil {
			q = q.Where("lvl = ?", lvl)
		}
	}

	var total int64
	q.Count(&total)
	var rows []mlmapi.Referral
	q.Order("joined_at DESC").Limit(limit).Offset(offset).Find(&rows)

	c.JSON(http.StatusOK, PaginatedRef{
		Count:   int(total),
		Results: rows,
	})
}

// GetRoyaltyIncomes lists the caller's royalty windows. A week record is
// hidden when a ten-day record covers the same window, the bigger
// achievement absorbs the smaller one for display.
func GetRoyaltyIncomes(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}

	st := store.NewGorm(app.Db)
	history, err := st.RoyaltiesByUser(ctx, user.Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tenDayWindows := map[int64]bool{}
	for _, h := range history {
		if h.RoyaltyType == mlmapi.RoyaltyTenDays {
			tenDayWindows[h.DateFrom.Unix()] = true
		}
	}
	out := make([]mlmapi.RoyaltyPaidHistory, 0, len(history))
	for _, h := range history {
		if h.RoyaltyType == mlmapi.RoyaltyWeek && tenDayWindows[h.DateFrom.Unix()] {
			continue
		}
		out = append(out, h)
	}

	c.JSON(http.StatusOK, out)
}
