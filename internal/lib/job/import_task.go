package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskProvinceImport = "province:import"

type ProvinceImportPayload struct {
	// RequestedBy is a user id, or "scheduler" / "cli".
	RequestedBy string `json:"requested_by"`
}

// NewProvinceImportTask builds an import task. Unique keeps a second import
// from being queued while one is pending; the summary is retained as the
// task result for a day.
func NewProvinceImportTask(requestedBy string) (*asynq.Task, error) {
	payload, err := json.Marshal(ProvinceImportPayload{RequestedBy: requestedBy})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProvinceImport,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueLow),
		asynq.Timeout(10*time.Minute),
		asynq.Unique(10*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// EnqueueProvinceImport queues an import and returns the task info.
func (j *JobService) EnqueueProvinceImport(ctx context.Context, requestedBy string) (*asynq.TaskInfo, error) {
	task, err := NewProvinceImportTask(requestedBy)
	if err != nil {
		return nil, err
	}
	return j.Client.EnqueueContext(ctx, task)
}
