package worker

import (
	"context"
	"sync"
)

// Handle refers to one run loop started by StartBatch or Resume.
type Handle struct {
	BatchID string
	JobIDs  []string
	done    <-chan struct{}
}

// Done is closed when the run loop has exited, whether the batch finished,
// was paused, cancelled or reset.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the bookkeeping of one run loop goroutine.
type run struct {
	epoch    uint64
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newRun(epoch uint64) *run {
	return &run{
		epoch: epoch,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (r *run) signalStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *run) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// wait blocks until the loop has exited. A nil run is already finished.
func (r *run) wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
