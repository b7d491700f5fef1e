package writing

import (
	"context"
	"sync"
	"time"
)

// debouncer runs at most one pending task per key. Scheduling again before
// the delay elapses replaces the pending task and restarts the clock.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingTask
}

type pendingTask struct {
	timer *time.Timer
	run   func(ctx context.Context)
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingTask),
	}
}

// Schedule supersedes any pending task for key
func (d *debouncer) Schedule(key string, run func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}

	task := &pendingTask{run: run}
	task.timer = time.AfterFunc(d.delay, func() {
		if d.take(key, task) {
			task.run(context.Background())
		}
	})
	d.pending[key] = task
}

// Flush runs the pending task for key now, if there is one
func (d *debouncer) Flush(ctx context.Context, key string) bool {
	d.mu.Lock()
	task, ok := d.pending[key]
	if ok {
		task.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}
	task.run(ctx)
	return true
}

// Cancel drops the pending task for key without running it
func (d *debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if task, ok := d.pending[key]; ok {
		task.timer.Stop()
		delete(d.pending, key)
	}
}

// Pending reports whether key has a scheduled task
func (d *debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// take removes task if it is still the current one for key. A timer that
// fires after being superseded finds a different task and does nothing.
func (d *debouncer) take(key string, task *pendingTask) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] != task {
		return false
	}
	delete(d.pending, key)
	return true
}
