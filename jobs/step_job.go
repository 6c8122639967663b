package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mentordesk/mentordesk/internal/collection"
	jobmetrics "github.com/mentordesk/mentordesk/internal/jobs"
)

// StepJob applies collection steps picked up by the worker.
type StepJob struct {
	Steps   *collection.Steps
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewStepJob wires dependencies for the step handler.
func NewStepJob(steps *collection.Steps, logger *slog.Logger, metrics *jobmetrics.Metrics) *StepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepJob{Steps: steps, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle processes TaskTypeStep tasks. The target collection is reloaded
// first so the step sees writes made by the API process.
func (j *StepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Steps == nil {
		return errors.New("step job: handler not configured")
	}
	var payload StepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	step := payload.Step
	if !j.Steps.Known(step.Action) {
		j.Logger.Warn("unknown step action", slog.String("action", step.Action))
		return asynq.SkipRetry
	}
	if !payload.DueAt.IsZero() {
		j.Metrics.ObserveLag(step.Action, j.clock().Sub(payload.DueAt))
	}

	tracker := j.Metrics.Track(step.Action)
	logger := j.Logger.With(slog.String("action", step.Action), slog.String("record_id", step.RecordID))
	if err := j.Steps.Refresh(ctx, step.Key); err != nil {
		logger.Error("refresh collection", slog.Any("error", err))
		return tracker.End(err)
	}
	if err := j.Steps.Dispatch(ctx, step); err != nil {
		logger.Error("apply step", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Debug("step applied")
	return tracker.End(nil)
}
