package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/logging"
)

// continuationTimeout bounds one detached continuation. The HTTP response
// has already been sent by the time this runs, so the request context
// cannot be used.
const continuationTimeout = 60 * time.Second

// Runner executes work detached from the request that spawned it. The
// platform has already been acknowledged, so failures here are reported
// to the user with a best-effort reply, never as an HTTP error.
type Runner struct {
	wg  sync.WaitGroup
	log *logging.Logger
}

// NewRunner returns a runner logging through the given logger.
func NewRunner(log *logging.Logger) *Runner {
	return &Runner{log: log.Named("background")}
}

// Go runs fn in a fresh goroutine with its own deadline. Panics are
// recovered and logged. When fn fails, notify is invoked with the error
// to tell the user; notify may be nil.
func (r *Runner) Go(name string, fn func(ctx context.Context) error, notify func(ctx context.Context, err error)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), continuationTimeout)
		defer cancel()

		err := func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			return fn(ctx)
		}()
		if err == nil {
			return
		}

		r.log.Error(ctx, "background continuation failed",
			zap.String("continuation", name), zap.Error(err))
		if notify != nil {
			notify(ctx, err)
		}
	}()
}

// Wait blocks until every in-flight continuation has finished or the
// context expires.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
