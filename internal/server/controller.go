package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"fortuna/internal/api"
	"fortuna/internal/api/middleware"
	"fortuna/internal/mlmapi"
)

var App *mlmapi.App

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func ApiInit() { // Run Api Server
	// @title Fortuna Backend
	// @version 0.1
	// @description Fortuna Backend: referral & rewards REST API
	// @host localhost:8000
	// @BasePath /
	// @schemes http https
	App = mlmapi.Init()
	SetLogger(os.Getenv("API_LOG_FILE"))
	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// This makes it so each ip can only make 100 requests per second
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       1,
		}),
		Rate:  time.Second,
		Limit: 100,
	})
	mw := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://0.0.0.0:3000",
			"http://localhost:3000",
		},
		AllowHeaders:  []string{"Origin", "Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET, POST, OPTIONS, PUT, DELETE"},
		MaxAge:        24 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Set("app", App)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/config", mw, api.GetAppConfig)
	auth := router.Group("/auth/")
	{
		auth.POST("/signup", mw, api.Signup)
		auth.POST("/verify", mw, api.VerifyOtp)
		auth.POST("/login", mw, api.Login)
		auth.POST("/forgot", mw, api.ForgotPassword)
		auth.POST("/reset", mw, api.ResetPassword)
	}
	users := router.Group("/users/").Use(middleware.Auth())
	{
		users.GET("/me", mw, api.GetProfile)
		users.GET("/programs", mw, api.GetCronPrograms)
		users.GET("/ref", mw, api.GetReferrals)
		users.GET("/royalty", mw, api.GetRoyaltyIncomes)
		users.GET("/subscriptions", mw, api.GetSubscriptions)
		users.GET("/withdrawals", mw, api.GetUserWithdrawals)
		users.POST("/password", mw, api.ChangePassword)
	}
	tx := router.Group("/tx/").Use(middleware.Auth())
	{
		tx.POST("/subscribe", mw, api.PurchaseSubscription)
		tx.POST("/withdraw", mw, api.Withdraw)
		tx.POST("/transfer", mw, api.TransferFunds)
		tx.POST("/transfer-main", mw, api.TransferToMainWallet)
	}
	router.POST("/admin/login", mw, api.AdminLogin)
	router.POST("/admin/forgot", mw, api.AdminForgotPassword)
	router.POST("/admin/reset", mw, api.AdminResetPassword)
	admin := router.Group("/admin/").Use(middleware.Auth(), middleware.AdminOnly())
	{
		admin.GET("/dashboard", mw, api.AdminDashboard)
		admin.GET("/users", mw, api.AdminGetUsers)
		admin.POST("/users/:userId/blocked", mw, api.AdminSetBlocked)
		admin.GET("/subscriptions/pending", mw, api.AdminGetPendingSubscriptions)
		admin.GET("/subscriptions/approved", mw, api.AdminGetApprovedSubscriptions)
		admin.POST("/subscriptions/:userId/approve", mw, api.AdminApproveSubscription)
		admin.POST("/subscriptions/:userId/reject", mw, api.AdminRejectSubscription)
		admin.GET("/withdrawals", mw, api.AdminGetWithdrawals)
		admin.POST("/withdrawals/:requestId/approve", mw, api.AdminApproveWithdrawal)
		admin.POST("/withdrawals/:requestId/reject", mw, api.AdminRejectWithdrawal)
		admin.GET("/royalty", mw, api.AdminGetRoyaltyAchievers)
		admin.POST("/royalty/pay", mw, api.AdminPayRoyalty)
		admin.GET("/turnover", mw, api.AdminGetTurnover)
		admin.POST("/maintenance", mw, api.AdminSetMaintenance)
		admin.POST("/notification", mw, api.AdminSetNotification)
		admin.POST("/sweeps/:task", mw, api.AdminRunSweep)
		admin.GET("/sweeps", mw, api.AdminGetSweepQueue)
	}
	fmt.Println("[ Fortuna Backend is up and listening to :8000 ]")
	if err := router.Run(":8000"); err != nil {
		log.Fatal("Failed to run Fortuna Backend on :8000: ", err)
	}
}
