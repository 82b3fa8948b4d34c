package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fortuna/internal/api/jwt"
	"fortuna/internal/engine"
	"fortuna/internal/mlmapi"
)

type payRoyaltyParams struct {
	HistoryId uint    `json:"history_id" binding:"required"`
	Reward    float64 `json:"reward" binding:"required,gt=0"`
}

type notificationParams struct {
	Notification string `json:"notification" validate:"max=500"`
}

type maintenanceParams struct {
	Maintenance bool `json:"maintenance"`
}

func AdminLogin(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var loginP loginParams
	if err := c.ShouldBindJSON(&loginP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin mlmapi.Admin
	res := app.Db.Where("email = ?", loginP.Email).First(&admin)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(loginP.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := jwt.GenerateJWT(admin.Email, jwt.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": token})
}

func AdminForgotPassword(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var loginP struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&loginP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var admin mlmapi.Admin
	res := app.Db.Where("email = ?", loginP.Email).First(&admin)
	if res.RowsAffected == 1 {
		otp := newOtp()
		admin.Otp = otp
		app.Db.Save(&admin)
		sendOtpMail(admin.Email, "admin", otp)
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset code sent if the account exists"})
}

func AdminResetPassword(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var resetP resetParams
	if err := c.ShouldBindJSON(&resetP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var admin mlmapi.Admin
	res := app.Db.Where("email = ?", resetP.Email).First(&admin)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if admin.Otp == "" || admin.Otp != resetP.Otp {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(resetP.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	admin.Password = string(hashed)
	admin.Otp = ""
	app.Db.Save(&admin)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// AdminDashboard aggregates platform-wide counters.
func AdminDashboard(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)

	var admin mlmapi.Admin
	_ = app.Db.First(&admin)

	var totalUsers, subscribed, pendingSubs, pendingWithdrawals int64
	app.Db.Model(&mlmapi.User{}).Count(&totalUsers)
	app.Db.Model(&mlmapi.User{}).Where("subscribed = ?", true).Count(&subscribed)
	app.Db.Model(&mlmapi.PendingSubscription{}).Count(&pendingSubs)
	app.Db.Model(&mlmapi.WithdrawalRequest{}).Where("status = ?", mlmapi.StatusPending).Count(&pendingWithdrawals)

	c.JSON(http.StatusOK, gin.H{
		"total_users":         totalUsers,
		"subscribed_users":    subscribed,
		"pending_payments":    pendingSubs,
		"pending_withdrawals": pendingWithdrawals,
		"company_turnover":    admin.CompanyTurnover,
		"last_roi_sweep_day":  admin.LastRoiSweepDay,
		"maintenance":         admin.Maintenance,
		"notification":        admin.Notification,
	})
}

// AdminGetUsers lists accounts, newest first.
func AdminGetUsers(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	var users []mlmapi.User
	app.Db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users)
	c.JSON(http.StatusOK, users)
}

func AdminGetPendingSubscriptions(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var pending []mlmapi.PendingSubscription
	app.Db.Order("created_at").Find(&pending)
	c.JSON(http.StatusOK, pending)
}

func AdminGetApprovedSubscriptions(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	var approved []mlmapi.ApprovedSubscription
	app.Db.Order("approved_at DESC").Limit(limit).Offset(offset).Find(&approved)
	c.JSON(http.StatusOK, approved)
}

// AdminApproveSubscription settles a reviewed payment. A doubled click on
// the approve button resolves to a conflict, not a second payout.
func AdminApproveSubscription(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userId < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	eng := appEngine(app)
	err = eng.OnInvestmentApproved(ctx, uint(userId))
	if err != nil {
		if errors.Is(err, engine.ErrAlreadyProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "nothing pending for this user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	msg := fmt.Sprintf("Subscription approved for user %d", userId)
	_ = mlmapi.SendTelegramMessage(mlmapi.EscapeMarkdownV2(msg), "finance")

	c.JSON(http.StatusOK, gin.H{"message": "subscription approved"})
}

// AdminRejectSubscription drops a reviewed payment without settling it.
func AdminRejectSubscription(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userId < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	res := app.Db.Where("user_id = ?", userId).Delete(&mlmapi.PendingSubscription{})
	if res.RowsAffected < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing pending for this user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subscription rejected"})
}

func AdminGetWithdrawals(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	status := c.DefaultQuery("status", mlmapi.StatusPending)
	var requests []mlmapi.WithdrawalRequest
	app.Db.Where("status = ?", status).Order("created_at").Find(&requests)
	c.JSON(http.StatusOK, requests)
}

// AdminApproveWithdrawal debits the wallet and closes the request in one
// transaction. The balance is re-checked under lock, it may have moved
// since the request was filed.
func AdminApproveWithdrawal(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	requestId, err := strconv.Atoi(c.Param("requestId"))
	if err != nil || requestId < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	err = app.Db.Transaction(func(tx *gorm.DB) error {
		var request mlmapi.WithdrawalRequest
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", requestId, mlmapi.StatusPending).
			First(&request)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusConflict, gin.H{"error": "request is not pending"})
			return nil
		}
		var user mlmapi.User
		res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", request.UserId).First(&user)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return nil
		}
		if user.MainWalletBalance < request.Amount {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return nil
		}
		user.MainWalletBalance -= request.Amount
		user.TotalWithdrawal += request.Amount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		now := time.Now()
		request.Status = mlmapi.StatusApproved
		request.ResolvedAt = &now
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("Withdrawal of %.2f approved for user %d", request.Amount, user.Id)
		_ = mlmapi.SendTelegramMessage(mlmapi.EscapeMarkdownV2(msg), "finance")
		c.JSON(http.StatusOK, request)
		return nil
	})
	if err != nil && !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func AdminRejectWithdrawal(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	requestId, err := strconv.Atoi(c.Param("requestId"))
	if err != nil || requestId < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	var rejectP struct {
		Reason string `json:"reason" validate:"max=250"`
	}
	_ = c.ShouldBindJSON(&rejectP)

	var request mlmapi.WithdrawalRequest
	res := app.Db.Where("id = ? AND status = ?", requestId, mlmapi.StatusPending).First(&request)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusConflict, gin.H{"error": "request is not pending"})
		return
	}
	now := time.Now()
	request.Status = mlmapi.StatusRejected
	request.Reason = rejectP.Reason
	request.ResolvedAt = &now
	app.Db.Save(&request)
	c.JSON(http.StatusOK, request)
}

// AdminGetRoyaltyAchievers lists royalty records, optionally filtered by
// status and a date-from range.
func AdminGetRoyaltyAchievers(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	q := app.Db.Model(&mlmapi.RoyaltyPaidHistory{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.ParseInLocation(mlmapi.DayFormat, from, mlmapi.AppLocation()); err == nil {
			q = q.Where("date_from >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.ParseInLocation(mlmapi.DayFormat, to, mlmapi.AppLocation()); err == nil {
			q = q.Where("date_from <= ?", t)
		}
	}
	var history []mlmapi.RoyaltyPaidHistory
	q.Order("date_from").Find(&history)
	c.JSON(http.StatusOK, history)
}

// AdminPayRoyalty settles one achieved royalty window with a chosen reward.
func AdminPayRoyalty(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var payP payRoyaltyParams
	if err := c.ShouldBindJSON(&payP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eng := appEngine(app)
	err := eng.PayRoyaltyAchiever(ctx, payP.HistoryId, payP.Reward)
	if err != nil {
		if errors.Is(err, engine.ErrAlreadyProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "already paid"})
			return
		}
		if errors.Is(err, engine.ErrPolicyViolation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	msg := fmt.Sprintf("Royalty of %.2f paid, history %d", payP.Reward, payP.HistoryId)
	_ = mlmapi.SendTelegramMessage(mlmapi.EscapeMarkdownV2(msg), "finance")

	c.JSON(http.StatusOK, gin.H{"message": "royalty paid"})
}

// AdminGetTurnover returns daily turnover entries for a date range.
func AdminGetTurnover(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	q := app.Db.Model(&mlmapi.TurnoverEntry{})
	if from := c.Query("from"); from != "" {
		q = q.Where("day >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		q = q.Where("day <= ?", to)
	}
	var entries []mlmapi.TurnoverEntry
	q.Order("day").Find(&entries)
	c.JSON(http.StatusOK, entries)
}

func AdminSetBlocked(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userId < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var blockP struct {
		Blocked bool `json:"blocked"`
	}
	if err := c.ShouldBindJSON(&blockP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := app.Db.Model(&mlmapi.User{}).
		Where("id = ?", userId).
		UpdateColumn("blocked", blockP.Blocked)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": blockP.Blocked})
}

func AdminSetMaintenance(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var maintenanceP maintenanceParams
	if err := c.ShouldBindJSON(&maintenanceP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app.Db.Model(&mlmapi.Admin{}).
		Where("id > 0").
		UpdateColumn("maintenance", maintenanceP.Maintenance)
	c.JSON(http.StatusOK, gin.H{"maintenance": maintenanceP.Maintenance})
}

// AdminRunSweep enqueues a sweep task out of schedule. Every sweep is a
// catch-up pass, so running one early or twice is harmless.
func AdminRunSweep(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	task := c.Param("task")
	var taskType string
	switch task {
	case "roi":
		taskType = mlmapi.TaskRoiSweep
	case "cron":
		taskType = mlmapi.TaskCronSweep
	case "royalty":
		taskType = mlmapi.TaskRoyaltySweep
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sweep"})
		return
	}

	info, err := app.Aqc.Enqueue(asynq.NewTask(taskType, nil), asynq.Queue(mlmapi.SweepQueue))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
}

// AdminGetSweepQueue reports the sweep queue depth and failure counters.
func AdminGetSweepQueue(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	info, err := app.Aqi.GetQueueInfo(mlmapi.SweepQueue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"queue":     info.Queue,
		"size":      info.Size,
		"pending":   info.Pending,
		"active":    info.Active,
		"retry":     info.Retry,
		"archived":  info.Archived,
		"processed": info.Processed,
		"failed":    info.Failed,
	})
}

func AdminSetNotification(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	var notificationP notificationParams
	if err := c.ShouldBindJSON(&notificationP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app.Db.Model(&mlmapi.Admin{}).
		Where("id > 0").
		UpdateColumn("notification", notificationP.Notification)
	c.JSON(http.StatusOK, gin.H{"notification": notificationP.Notification})
}
