package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mentordesk/mentordesk/internal/collection"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeStep carries one delayed collection step.
	TaskTypeStep = "collection:step"
)

// StepPayload is the task body of TaskTypeStep.
type StepPayload struct {
	Step  collection.Step `json:"step"`
	DueAt time.Time       `json:"due_at"`
}

// NewStepTask wraps step in an asynq task due after its delay.
func NewStepTask(step collection.Step, now time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(StepPayload{Step: step, DueAt: now.Add(step.Delay).UTC()})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode step: %w", err)
	}
	return asynq.NewTask(TaskTypeStep, data), nil
}
