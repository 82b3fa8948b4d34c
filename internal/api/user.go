package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fortuna/internal/engine"
	"fortuna/internal/mlmapi"
)

// GetProfile is the dashboard endpoint. Opening it doubles as the user's
// accrual tick: eligibility checks and catch-up payouts run here, all of
// them idempotent, before the fresh row is aggregated and returned.
func GetProfile(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}

	eng := appEngine(app)
	if err := eng.EvaluateCronEligibility(ctx, user.Id); err != nil {
		fmt.Println("profile: cron eligibility:", err)
	}
	for lvl := range engine.CronLadder {
		if err := eng.ResumeCronProgram(ctx, user.Id, lvl); err != nil {
			fmt.Println("profile: cron resume:", err)
		}
	}
	if err := eng.OnDirectReferralRecorded(ctx, user.Id); err != nil {
		fmt.Println("profile: royalty check:", err)
	}
	if err := eng.EvaluateReferBonus(ctx, user.Id); err != nil {
		fmt.Println("profile: refer bonus:", err)
	}
	if err := eng.EvaluateTeamBusinessReward(ctx, user.Id); err != nil {
		fmt.Println("profile: team business:", err)
	}

	// reload after the ticks
	res := app.Db.Where("id = ?", user.Id).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	teamStats := mlmapi.GetTeamStats(app.Db, user)
	teamStats.WorldCounter = uint(mlmapi.CountWorldTeam(app.Db, user))

	var admin mlmapi.Admin
	_ = app.Db.First(&admin)

	c.JSON(http.StatusOK, gin.H{
		"user": mlmapi.UserData{
			ID:              user.Id,
			Name:            user.Name,
			ReferralCode:    user.ReferralCode,
			SponsorCode:     user.SponsorCode,
			SponsorName:     user.SponsorName,
			Wallet:          user.WalletBalance,
			MainWallet:      user.MainWalletBalance,
			RoiWallet:       user.RoiWallet,
			PendingWallet:   user.PendingWallet,
			TotalEarning:    user.TotalEarning,
			TotalWithdrawal: user.TotalWithdrawal,
			Investment:      user.Investment,
			Subscribed:      user.Subscribed,
			DirectTeam:      int64(teamStats.DirectCounter),
			LevelTeam:       int64(teamStats.LevelCounter),
			RoyaltyIncome:   user.RoyaltyIncome,
			CompanyTurnover: admin.CompanyTurnover,
			Notification:    admin.Notification,
		},
		"team": teamStats,
	})
}

// GetCronPrograms lists the user's world-progression states.
func GetCronPrograms(c *gin.Context) {
	app, user, ok := currentUser(c)
	if !ok {
		return
	}
	var states []mlmapi.CronLevelState
	app.Db.Where("user_id = ?", user.Id).Order("job_level").Find(&states)
	c.JSON(http.StatusOK, states)
}
