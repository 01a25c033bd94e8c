package tubelib

import (
	"context"
	"sync/atomic"
)

// Task is one execution attempt of a job. It is created on admission,
// dropped when the attempt finishes and never reused.
type Task struct {
	job       Job
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
	throttle  *Throttler
}

func newTask(parent context.Context, job Job, throttle *Throttler) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		job:      job,
		ctx:      ctx,
		cancel:   cancel,
		throttle: throttle,
	}
}

// Job returns the job as it was when the task was admitted.
func (t *Task) Job() Job {
	return t.job
}

// Cancel raises the cancellation signal. Repeated calls are no-ops.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// IsCancelled reports whether Cancel was called.
func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}

// Done is closed once the task is cancelled or its parent context ends.
func (t *Task) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Context is cancelled together with the task.
func (t *Task) Context() context.Context {
	return t.ctx
}

// release frees the context resources without marking the task cancelled.
func (t *Task) release() {
	t.cancel()
}
