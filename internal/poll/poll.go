// Package poll runs fixed-interval refresh loops for the live queue views.
// The first fetch is loud (errors surface to the caller starting the loop);
// every later tick is silent, so a flaky backend degrades to stale data
// instead of flapping the UI.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/openclinic/frontdesk/pkg/logging"
)

// Fetch refreshes one view. silent marks background ticks, whose errors are
// logged instead of surfaced.
type Fetch func(ctx context.Context, silent bool) error

type Runner struct {
	name     string
	interval time.Duration
	fetch    Fetch
	logger   *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewRunner(name string, interval time.Duration, fetch Fetch, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		name:     name,
		interval: interval,
		fetch:    fetch,
		logger:   logger,
	}
}

// Start performs the initial loud fetch, then keeps refreshing on the
// interval until the context is cancelled or Stop is called. The initial
// fetch error is returned; the loop still starts so the view recovers once
// the backend comes back.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.mu.Unlock()

	err := r.fetch(ctx, false)
	if err != nil {
		r.logger.Error("initial refresh failed", "poller", r.name, "error", err)
	}

	go r.loop(ctx)
	return err
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("poller stopped", "poller", r.name)
			return
		case <-ticker.C:
			if err := r.fetch(ctx, true); err != nil {
				r.logger.Warn("silent refresh failed", "poller", r.name, "error", err)
			}
		}
	}
}

// Stop cancels the loop and waits for it to exit. Safe to call more than
// once, and before Start.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
}
