package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mentordesk/mentordesk/internal/collection"
)

// Enqueuer is the part of asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqScheduler hands collection steps to the worker through redis.
type AsynqScheduler struct {
	enqueuer Enqueuer
	maxRetry int
	now      func() time.Time
}

// NewAsynqScheduler constructs a scheduler enqueuing through e.
func NewAsynqScheduler(e Enqueuer) *AsynqScheduler {
	return &AsynqScheduler{enqueuer: e, maxRetry: 3, now: time.Now}
}

// Schedule enqueues step to be processed after step.Delay.
func (s *AsynqScheduler) Schedule(ctx context.Context, step collection.Step) error {
	task, err := NewStepTask(step, s.now())
	if err != nil {
		return err
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.ProcessIn(step.Delay),
		asynq.MaxRetry(s.maxRetry),
	); err != nil {
		return fmt.Errorf("jobs: enqueue %s: %w", step.Action, err)
	}
	return nil
}
