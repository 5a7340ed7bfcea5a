// Package job runs background work on asynq: transactional emails and
// province imports.
package job

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/email"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// JobService owns the asynq client, worker server and optional scheduler.
type JobService struct {
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler
	schedule  string
	logger    *zerolog.Logger

	emails   emailSender
	importer ProvinceImporter
}

func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueCritical: 6, // OTP codes, the user is waiting
				QueueDefault:  3,
				QueueLow:      1,
			},
			Logger: newAsynqLogger(logger),
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("task_type", task.Type()).Msg("task failed")
			}),
		},
	)

	j := &JobService{
		Client:   asynq.NewClient(redisOpt),
		server:   server,
		schedule: cfg.Import.Schedule,
		logger:   logger,
	}

	if cfg.Import.Schedule != "" {
		j.scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   newAsynqLogger(logger),
		})
	}

	return j
}

// InitHandlers wires the dependencies task handlers need. It must be called
// before Start.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger, importer ProvinceImporter) {
	j.emails = email.NewClient(cfg, logger)
	j.importer = importer
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	mux.HandleFunc(TaskOTP, j.handleOTPEmailTask)
	mux.HandleFunc(TaskProvinceImport, j.handleProvinceImportTask)
	return mux
}

// Start launches the workers and, when an import schedule is configured, the
// scheduler. Both run in the background.
func (j *JobService) Start() error {
	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(j.Mux()); err != nil {
		return err
	}

	if j.scheduler != nil {
		task, err := NewProvinceImportTask("scheduler")
		if err != nil {
			return err
		}
		entryID, err := j.scheduler.Register(j.schedule, task)
		if err != nil {
			return err
		}
		if err := j.scheduler.Start(); err != nil {
			return err
		}
		j.logger.Info().
			Str("schedule", j.schedule).
			Str("entry_id", entryID).
			Msg("scheduled province import")
	}

	return nil
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	if j.scheduler != nil {
		j.scheduler.Shutdown()
	}
	j.server.Shutdown()
	j.Client.Close()
}
