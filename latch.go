package teleprompter

import (
	"context"
	"sync/atomic"
)

// StopLatch is the cancellation source shared between a Director and whoever
// may abort its runs.
//
// The latch only moves false→true while a run is in progress. The Director
// clears it at the start of the next run, so a stale stop request never
// cancels a fresh run.
type StopLatch struct {
	stopped atomic.Bool
}

// Stop requests cancellation. Safe to call from any goroutine, any number of times.
func (l *StopLatch) Stop() {
	l.stopped.Store(true)
}

// Stopped reports whether cancellation has been requested
func (l *StopLatch) Stopped() bool {
	return l.stopped.Load()
}

func (l *StopLatch) reset() {
	l.stopped.Store(false)
}

// RunState is the transient state of a single run. It is created when a run
// starts and discarded when it ends.
type RunState struct {
	latch *StopLatch
	ctx   context.Context

	// LoopIndex is the 1-based iteration currently executing (0 before the first)
	LoopIndex int
}

func newRunState(ctx context.Context, latch *StopLatch) *RunState {
	return &RunState{latch: latch, ctx: ctx}
}

// Cancelled reports whether the run should stop. A finished context counts
// as a stop request and sets the latch so the answer never flips back.
func (s *RunState) Cancelled() bool {
	if s.latch.Stopped() {
		return true
	}
	if s.ctx != nil && s.ctx.Err() != nil {
		s.latch.Stop()
		return true
	}
	return false
}

// Done returns the run context's done channel, or nil if there is none
func (s *RunState) Done() <-chan struct{} {
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Done()
}
