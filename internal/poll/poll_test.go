package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	calls   []bool // silent flag per call
	err     error
	fetched chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fetched: make(chan struct{}, 16)}
}

func (r *recorder) fetch(_ context.Context, silent bool) error {
	r.mu.Lock()
	r.calls = append(r.calls, silent)
	err := r.err
	r.mu.Unlock()
	select {
	case r.fetched <- struct{}{}:
	default:
	}
	return err
}

func (r *recorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.calls...)
}

func waitForFetches(t *testing.T, r *recorder, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for len(r.snapshot()) < n {
		select {
		case <-r.fetched:
		case <-deadline:
			t.Fatalf("expected %d fetches, got %d", n, len(r.snapshot()))
		}
	}
}

func TestRunnerFirstFetchLoudRestSilent(t *testing.T) {
	rec := newRecorder()
	runner := NewRunner("queues", 10*time.Millisecond, rec.fetch, nil)

	require.NoError(t, runner.Start(context.Background()))
	waitForFetches(t, rec, 3)
	runner.Stop()

	calls := rec.snapshot()
	assert.False(t, calls[0], "initial fetch is loud")
	for i, silent := range calls[1:] {
		assert.True(t, silent, "tick %d should be silent", i+1)
	}
}

func TestRunnerSurfacesInitialErrorButKeepsRunning(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("backend unreachable")
	runner := NewRunner("display", 10*time.Millisecond, rec.fetch, nil)

	err := runner.Start(context.Background())
	require.Error(t, err)

	// The loop keeps ticking so the view recovers.
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	waitForFetches(t, rec, 2)
	runner.Stop()
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	rec := newRecorder()
	runner := NewRunner("queues", time.Hour, rec.fetch, nil)

	runner.Stop() // before Start: no-op
	require.NoError(t, runner.Start(context.Background()))
	runner.Stop()
	runner.Stop()

	assert.Len(t, rec.snapshot(), 1, "only the initial fetch ran")
}

func TestRunnerStopsOnContextCancel(t *testing.T) {
	rec := newRecorder()
	runner := NewRunner("queues", 10*time.Millisecond, rec.fetch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runner.Start(ctx))
	waitForFetches(t, rec, 2)
	cancel()

	time.Sleep(30 * time.Millisecond)
	n := len(rec.snapshot())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, len(rec.snapshot()), "no fetches after cancel")
}
