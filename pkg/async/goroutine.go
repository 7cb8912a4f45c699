package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/tenantgate/pkg/observability"
)

// ErrPanic wraps a value recovered from a panicking task
var ErrPanic = errors.New("task panicked")

// Task describes one unit of background work
type Task struct {
	// Name identifies the task in logs
	Name string

	// Timeout bounds the task context; zero means only the parent context applies
	Timeout time.Duration

	// Run is the work itself
	Run func(ctx context.Context) error

	// OnFailure, when set, receives the error returned by Run or a wrapped ErrPanic
	OnFailure func(err error)
}

// SafeGo executes a task in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// Use this instead of bare `go func()` so a failing task never takes the process down.
//
// Example:
//
//	async.SafeGo(ctx, logger, async.Task{
//	    Name:    "gate evaluation",
//	    Timeout: 10 * time.Second,
//	    Run:     func(ctx context.Context) error { return evaluate(ctx) },
//	})
func SafeGo(parent context.Context, logger *observability.Logger, task Task) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	go func() {
		ctx := parent
		if task.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, task.Timeout)
			defer cancel()
		}

		err := run(ctx, task.Run)
		if err == nil {
			return
		}

		entry := logger.WithField("task", task.Name).WithError(err)
		if errors.Is(err, ErrPanic) {
			entry.WithField("stack", string(debug.Stack())).Error("background task panicked")
		} else {
			entry.Warn("background task failed")
		}

		if task.OnFailure != nil {
			task.OnFailure(err)
		}
	}()
}

func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx)
}
