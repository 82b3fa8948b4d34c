package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"fortuna/internal/engine"
	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
	"fortuna/internal/worker"
)

var AppSweep *mlmapi.AppSweep

// SweepInit runs the scheduler process: an asynq scheduler enqueues the
// daily ticks and the asynq server consumes them. Every handler is a full
// catch-up pass, so a missed tick costs nothing but delay.
func SweepInit() {
	AppSweep = mlmapi.InitSweep()
	SetLogger(os.Getenv("SWEEPER_LOG_FILE"))

	redisOpt := asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: mlmapi.AppLocation(),
	})
	// after business midnight; the royalty pass follows the cron pass
	entries := map[string]string{
		mlmapi.TaskRoiSweep:     "5 0 * * *",
		mlmapi.TaskCronSweep:    "15 0 * * *",
		mlmapi.TaskRoyaltySweep: "25 0 * * *",
	}
	for taskType, spec := range entries {
		if _, err := scheduler.Register(
			spec,
			asynq.NewTask(taskType, nil),
			asynq.Queue(mlmapi.SweepQueue),
		); err != nil {
			log.Fatal("Failed to register schedule for ", taskType, ": ", err)
		}
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatal("Failed to run sweep scheduler: ", err)
		}
	}()

	mux := asynq.NewServeMux()
	mux.HandleFunc(mlmapi.TaskRoiSweep, handleRoiSweep)
	mux.HandleFunc(mlmapi.TaskCronSweep, handleCronSweep)
	mux.HandleFunc(mlmapi.TaskRoyaltySweep, handleRoyaltySweep)

	fmt.Println("[ Fortuna Sweeper is up ]")
	if err := AppSweep.Aqs.Run(mux); err != nil {
		log.Fatal("Failed to run sweep server: ", err)
	}
}

func sweepEngine() *engine.Engine {
	return engine.New(store.NewGorm(AppSweep.Db), nil)
}

func handleRoiSweep(ctx context.Context, t *asynq.Task) error {
	eng := sweepEngine()
	if err := eng.RunDailyRoiSweep(ctx, time.Now()); err != nil {
		Logger.Error(fmt.Sprint("roi sweep failed: ", err))
		return err
	}
	return nil
}

type cronResumeTask struct {
	ctx   context.Context
	eng   *engine.Engine
	state mlmapi.CronLevelState
}

func (t cronResumeTask) Execute() {
	if err := t.eng.ResumeCronProgram(t.ctx, t.state.UserId, t.state.JobLevel); err != nil {
		fmt.Println("cron sweep: resume failed for user", t.state.UserId, "level", t.state.JobLevel, ":", err)
	}
}

// handleCronSweep fans the running programs out over a worker pool. Each
// program settles in its own transaction, so partial progress is fine.
func handleCronSweep(ctx context.Context, t *asynq.Task) error {
	eng := sweepEngine()
	states, err := eng.St.RunningCronStates(ctx)
	if err != nil {
		Logger.Error(fmt.Sprint("cron sweep failed to list programs: ", err))
		return err
	}
	speed, err := strconv.Atoi(os.Getenv("SWEEPER_SCALE"))
	if err != nil {
		speed = 4
	}
	pool := worker.NewPool(speed, len(states)+1)
	for _, state := range states {
		pool.Exec(cronResumeTask{ctx: ctx, eng: eng, state: state})
	}
	pool.Close()
	pool.Wait()
	fmt.Println("[cron sweep] resumed", len(states), "programs")
	return nil
}

func handleRoyaltySweep(ctx context.Context, t *asynq.Task) error {
	eng := sweepEngine()
	if err := eng.CheckRoyaltyAll(ctx); err != nil {
		Logger.Error(fmt.Sprint("royalty sweep failed: ", err))
		return err
	}
	return nil
}
