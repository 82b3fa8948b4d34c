package mlmapi

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type App struct {
	Rdb *redis.Client
	Db  *gorm.DB
	Aqc *asynq.Client
	Aqi *asynq.Inspector
}

// Background task types consumed by the sweeper process.
const (
	TaskRoiSweep     = "sweep:roi"
	TaskCronSweep    = "sweep:cron"
	TaskRoyaltySweep = "sweep:royalty"

	SweepQueue = "sweeps"
)

type AppConfig struct {
	Settings AppSettings `json:"settings"`
}

type AppSettings struct {
	Subscription SubscriptionSettings `json:"subscription"`
	Limits       SettingLimit         `json:"limits"`
}

type SubscriptionSettings struct {
	Price            float64 `json:"price"`
	RenewalThreshold float64 `json:"renewal_threshold"`
	RenewalFee       float64 `json:"renewal_fee"`
	RenewalReserve   float64 `json:"renewal_reserve"`
}

type SettingLimit struct {
	WithdrawMin   float64 `json:"withdraw_min"`
	MinInvestment float64 `json:"min_investment"`
	HashStrikes   uint    `json:"hash_strikes"`
}

var (
	DefaultAppConfig *AppConfig
	CurrentAppConfig *AppConfig
)

func Init() *App {
	loadEnv()
	redisClient := setupRedis()
	db := setupDb()
	asynqClient := setupAsynqClient()
	asynqInspector := setupAsynqInspector()

	DefaultAppConfig = &AppConfig{
		Settings: AppSettings{
			Subscription: SubscriptionSettings{
				Price:            6,
				RenewalThreshold: 18,
				RenewalFee:       6,
				RenewalReserve:   12,
			},
			Limits: SettingLimit{
				WithdrawMin:   6,
				MinInvestment: 100,
				HashStrikes:   3,
			},
		},
	}
	CurrentAppConfig = DefaultAppConfig

	app := &App{
		Rdb: redisClient,
		Db:  db,
		Aqc: asynqClient,
		Aqi: asynqInspector,
	}
	isSet := false
	appConfigRaw, _ := app.Rdb.Get(context.Background(), "app_config").Result()
	if len(appConfigRaw) > 0 {
		err := json.Unmarshal([]byte(appConfigRaw), &CurrentAppConfig)
		if err != nil {
		} else {
			isSet = true
		}
	}
	if !isSet {
		currentConfig, _ := json.Marshal(DefaultAppConfig)
		app.Rdb.Set(context.Background(), "app_config", currentConfig, 0)
	}
	return app
}

type AppSweep struct {
	Rdb *redis.Client
	Db  *gorm.DB
	Aqs *asynq.Server
}

func InitSweep() *AppSweep {
	loadEnv()
	redisClient := setupRedis()
	db := setupDb()
	asynqServer := setupAsynqServer()

	app := &AppSweep{
		Rdb: redisClient,
		Db:  db,
		Aqs: asynqServer,
	}
	return app
}

func setupRedis() *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	return redisClient
}

func setupDb() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect to the db")
	}
	err = db.AutoMigrate(
		&User{},
		&Admin{},
		&TurnoverEntry{},
		&Referral{},
		&CronLevelState{},
		&CronIncomeLog{},
		&Mark{},
		&RoyaltyPaidHistory{},
		&PendingSubscription{},
		&ApprovedSubscription{},
		&TransactionHash{},
		&WithdrawalRequest{},
		&TransferHistory{},
		&TransferToMainWalletHistory{},
		&SubscriptionEntry{},
	)
	if err != nil {
		panic("failed to run migrations")
	}

	return db
}

func setupAsynqClient() *asynq.Client {
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return asynqClient
}

func setupAsynqInspector() *asynq.Inspector {
	asynqInspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return asynqInspector
}

func setupAsynqServer() *asynq.Server {
	concurency, err := strconv.Atoi(os.Getenv("SWEEPER_SCALE"))
	if err != nil {
		concurency = 4
	}
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		asynq.Config{
			Concurrency: concurency,
			Queues: map[string]int{
				SweepQueue: 1,
			},
		},
	)
	return asynqServer
}

func loadEnv() {
	env := os.Getenv("APP_ENV")
	if "" == env {
		env = "development"
	}

	godotenv.Load(".env." + env + ".local")

	if "test" != env {
		godotenv.Load(".env.local")
	}
	godotenv.Load(".env." + env)
	godotenv.Load()
}
