package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskPruneRateLimits = "rate_limits.prune"

// PruneRateLimitsPayload optionally pins the cutoff. Periodic runs leave it
// empty and the worker derives the cutoff from its retention.
type PruneRateLimitsPayload struct {
	Before *time.Time `json:"before,omitempty"`
}

func NewPruneRateLimitsTask(payload PruneRateLimitsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPruneRateLimits, data), nil
}

func ParsePruneRateLimitsPayload(task *asynq.Task) (PruneRateLimitsPayload, error) {
	var payload PruneRateLimitsPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PruneRateLimitsPayload{}, err
	}
	return payload, nil
}
