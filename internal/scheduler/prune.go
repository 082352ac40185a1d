package scheduler

import (
	"context"
	"fmt"
	"time"

	"relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultRateLimitRetention = 7 * 24 * time.Hour

// PruneHandler deletes rate-limit records older than the retention. The
// retention must exceed every form window or throttling would be weakened.
type PruneHandler struct {
	pruner    repository.RateLimitPruner
	retention time.Duration
	now       func() time.Time
	log       *logger.Logger
}

var _ asynq.Handler = (*PruneHandler)(nil)

func NewPruneHandler(pruner repository.RateLimitPruner, retention time.Duration, log *logger.Logger) *PruneHandler {
	if retention <= 0 {
		retention = defaultRateLimitRetention
	}
	return &PruneHandler{
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (h *PruneHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePruneRateLimitsPayload(task)
	if err != nil {
		// Retrying a malformed payload cannot succeed.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	cutoff := h.now().Add(-h.retention)
	if payload.Before != nil {
		cutoff = *payload.Before
	}

	deleted, err := h.pruner.PruneRateLimitRecords(ctx, cutoff)
	if err != nil {
		h.log.Warn("rate limit prune failed", "error", err)
		return err
	}

	if deleted > 0 {
		h.log.Info("rate limit prune deleted stale records", "deleted", deleted, "before", cutoff)
	}
	return nil
}
