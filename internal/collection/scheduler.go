package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Step is one delayed status progression, for example a reply moving from
// "sent" to "delivered". Steps are fire-and-forget: there is no cancellation,
// so every handler must re-check that its record still exists before writing.
type Step struct {
	Action   string            `json:"action"`
	Key      string            `json:"key"`
	RecordID string            `json:"record_id"`
	Args     map[string]string `json:"args,omitempty"`
	Delay    time.Duration     `json:"delay"`
}

// StepHandler applies a Step.
type StepHandler func(ctx context.Context, step Step) error

// Scheduler runs Steps after their delay.
type Scheduler interface {
	Schedule(ctx context.Context, step Step) error
}

// Steps routes Steps to their handlers and knows how to refresh the
// collection a Step targets.
type Steps struct {
	mu        sync.RWMutex
	handlers  map[string]StepHandler
	reloaders map[string]func(context.Context) error
}

// NewSteps returns an empty registry.
func NewSteps() *Steps {
	return &Steps{
		handlers:  make(map[string]StepHandler),
		reloaders: make(map[string]func(context.Context) error),
	}
}

// Handle registers the handler for action.
func (s *Steps) Handle(action string, h StepHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[action] = h
}

// Track registers how to reload the collection stored under key.
func (s *Steps) Track(key string, reload func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloaders[key] = reload
}

// Known reports whether action has a handler.
func (s *Steps) Known(action string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handlers[action]
	return ok
}

// Dispatch runs the handler for step.
func (s *Steps) Dispatch(ctx context.Context, step Step) error {
	s.mu.RLock()
	h, ok := s.handlers[step.Action]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("collection: no handler for step %q", step.Action)
	}
	return h(ctx, step)
}

// Refresh reloads the collection under key, when one is tracked.
func (s *Steps) Refresh(ctx context.Context, key string) error {
	s.mu.RLock()
	reload, ok := s.reloaders[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return reload(ctx)
}

// Keys lists the tracked collection keys.
func (s *Steps) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.reloaders))
	for k := range s.reloaders {
		keys = append(keys, k)
	}
	return keys
}

// TimerScheduler runs Steps in-process with time.AfterFunc.
type TimerScheduler struct {
	steps  *Steps
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewTimerScheduler constructs a TimerScheduler dispatching through steps.
func NewTimerScheduler(steps *Steps, logger *slog.Logger) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerScheduler{steps: steps, logger: logger}
}

// Schedule arms a timer for step. The caller's context is not carried into
// the timer because the step outlives the request that scheduled it.
func (t *TimerScheduler) Schedule(_ context.Context, step Step) error {
	if !t.steps.Known(step.Action) {
		return fmt.Errorf("collection: no handler for step %q", step.Action)
	}
	t.wg.Add(1)
	time.AfterFunc(step.Delay, func() {
		defer t.wg.Done()
		if err := t.steps.Dispatch(context.Background(), step); err != nil {
			t.logger.Warn("delayed step failed",
				slog.String("action", step.Action),
				slog.String("record_id", step.RecordID),
				slog.Any("error", err))
		}
	})
	return nil
}

// Wait blocks until every armed timer has fired.
func (t *TimerScheduler) Wait() {
	t.wg.Wait()
}
