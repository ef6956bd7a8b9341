package ai

import (
	"context"
	"sync/atomic"
)

var jobSeq atomic.Uint64

// Job is an in-flight refine request. Cancelling it aborts the HTTP call
// and marks the result as stale so callers can drop it.
type Job struct {
	id     uint64
	input  string
	cancel context.CancelFunc
	done   chan struct{}
	result string
	stale  atomic.Bool
}

// Start runs Refine in the background.
func (r *Refiner) Start(ctx context.Context, input string) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		id:     jobSeq.Add(1),
		input:  input,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(j.done)
		defer cancel()
		j.result = r.Refine(ctx, input)
	}()

	return j
}

// ID identifies the job. IDs are unique within the process.
func (j *Job) ID() uint64 { return j.id }

// Cancel aborts the request. A later Wait reports the result as discarded.
func (j *Job) Cancel() {
	j.stale.Store(true)
	j.cancel()
}

// Wait blocks until the job finishes. It returns the refined text and
// false if the job was cancelled, in which case the text is the input.
func (j *Job) Wait() (string, bool) {
	<-j.done
	if j.stale.Load() {
		return j.input, false
	}
	return j.result, true
}
