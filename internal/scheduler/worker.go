package scheduler

import (
	"context"
	"time"

	"relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/platform/config"
	"relocation_quiz_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultPruneSchedule = "@hourly"

// Worker processes background tasks and owns the periodic schedule that
// produces them.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pruner repository.RateLimitPruner, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskPruneRateLimits, NewPruneHandler(pruner, cfg.GetRateLimitRetention(), log))

	periodic := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	schedule := cfg.GetRateLimitPruneSchedule()
	if schedule == "" {
		schedule = defaultPruneSchedule
	}
	task, err := NewPruneRateLimitsTask(PruneRateLimitsPayload{})
	if err != nil {
		return nil, err
	}
	// Unique keeps overlapping schedulers from queueing the same run twice.
	if _, err := periodic.Register(schedule, task, asynq.Queue(queue), asynq.Unique(time.Hour)); err != nil {
		return nil, err
	}

	return &Worker{
		server:    server,
		scheduler: periodic,
		mux:       mux,
		log:       log,
	}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if err := w.scheduler.Start(); err != nil {
		w.log.Error("periodic scheduler failed to start", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
