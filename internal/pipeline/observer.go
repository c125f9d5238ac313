package pipeline

import (
	"context"
	"time"

	"github.com/FocuswithJustin/mushaf/internal/logging"
)

// Observer is notified around every applied step.
type Observer interface {
	StepStarted(ctx context.Context, step string, index, total int)
	StepFinished(ctx context.Context, step string, statements int, elapsed time.Duration)
}

// LogObserver writes step events to the structured log.
type LogObserver struct{}

func (LogObserver) StepStarted(ctx context.Context, step string, index, total int) {
	logging.StepStarted(ctx, step, index, total)
}

func (LogObserver) StepFinished(ctx context.Context, step string, statements int, elapsed time.Duration) {
	logging.StepFinished(ctx, step, statements, elapsed)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) StepStarted(context.Context, string, int, int)            {}
func (NopObserver) StepFinished(context.Context, string, int, time.Duration) {}
