package teleprompter

import "time"

// waitSliced blocks for d in slices of at most slice, checking for
// cancellation before each slice. It returns false if the run was cancelled.
//
// A finished run context also wakes the current slice early, but the latch is
// still only polled between slices, so stop latency is bounded by one slice.
func waitSliced(d, slice time.Duration, state *RunState) bool {
	if slice <= 0 {
		slice = DefaultSlice
	}

	for remaining := d; remaining > 0; remaining -= slice {
		if state.Cancelled() {
			return false
		}

		step := slice
		if remaining < step {
			step = remaining
		}

		timer := time.NewTimer(step)
		select {
		case <-timer.C:
		case <-state.Done():
			timer.Stop()
		}
	}

	return !state.Cancelled()
}

// pause sleeps for a short fixed settle delay. Settle delays are not
// interruptible; they are shorter than a wait slice.
func pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
