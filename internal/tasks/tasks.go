package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"lexguard-backend/internal/shared/telemetry"
)

// Runner supervises detached background tasks. Every task gets a recover
// guard and a logged outcome, so background failures are observable instead
// of vanishing into dropped goroutines.
type Runner struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewRunner constructs a Runner allowing up to maxConcurrent tasks at once.
func NewRunner(maxConcurrent int) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		sem: make(chan struct{}, maxConcurrent),
	}
}

// Go runs fn on a detached goroutine under the runner's supervision. The task
// receives the given context, which should outlive the originating request
// (use context.Background or a derived carrier).
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.sem <- struct{}{}
		defer func() { <-r.sem }()

		started := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("task.panic", map[string]any{
					"task":  name,
					"error": fmt.Sprint(rec),
					"stack": string(debug.Stack()),
				})
			}
		}()

		if err := fn(ctx); err != nil {
			telemetry.Error("task.failed", map[string]any{
				"task":        name,
				"error":       err.Error(),
				"duration_ms": float64(time.Since(started).Microseconds()) / 1000.0,
			})
			return
		}
		telemetry.Info("task.completed", map[string]any{
			"task":        name,
			"duration_ms": float64(time.Since(started).Microseconds()) / 1000.0,
		})
	}()
}

// Shutdown waits up to timeout for in-flight tasks and reports whether they
// all finished.
func (r *Runner) Shutdown(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
