package teleprompter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/teranos/teleprompter/trip"
)

const (
	// DefaultSettle is the pause after every key edge and literal character
	DefaultSettle = 30 * time.Millisecond

	// DefaultSlice is the longest uninterrupted sleep inside any wait. It bounds
	// how long a stop request can go unnoticed.
	DefaultSlice = 50 * time.Millisecond

	// DefaultMaxSpliceDepth bounds {messageN} nesting
	DefaultMaxSpliceDepth = 16
)

// DirectorConfig configures the pacing of a Director.
//
// Example usage:
//
//	config := teleprompter.DirectorConfig{
//		Settle:         0,                    // No pacing for tests
//		Slice:          5 * time.Millisecond, // Very responsive stop
//		MaxSpliceDepth: 4,
//	}
//
//	director := NewDirector(injector, table).WithConfig(config)
type DirectorConfig struct {
	// Settle is the pause after each key edge (0 = no pause)
	Settle time.Duration
	// Slice is the granularity of every interruptible wait
	Slice time.Duration
	// MaxSpliceDepth is how deep {messageN} splices may nest
	MaxSpliceDepth int
}

// DefaultDirectorConfig returns a DirectorConfig with sensible defaults.
//
// The default configuration provides:
//   - 30ms settle delay so consumers see discrete key presses
//   - 50ms wait slices, so a stop lands within 50ms
//   - splices nested at most 16 deep
func DefaultDirectorConfig() DirectorConfig {
	return DirectorConfig{
		Settle:         DefaultSettle,
		Slice:          DefaultSlice,
		MaxSpliceDepth: DefaultMaxSpliceDepth,
	}
}

// Director runs scripts: it owns the start delay, the loop count and the delay
// between loops, and hands each loop's script to the interpreter.
//
// A Director runs one script at a time. Stop may be called from any goroutine
// and ends the current run within one wait slice.
//
// Example usage:
//
//	director := NewDirector(injector, table).
//		WithObserver(journal).
//		WithConfig(DefaultDirectorConfig())
//
//	go func() {
//		<-stopButton
//		director.Stop()
//	}()
//
//	report := director.Execute(ctx, RunConfig{Script: "hi{enter}", Loops: 2})
//	fmt.Println(report.Summary)
type Director struct {
	injector Injector
	mapper   KeyMapper
	table    MessageTable
	observer Observer
	config   DirectorConfig
	latch    *StopLatch

	running atomic.Bool
	loop    atomic.Int64

	// recordMu guards current and its actions
	recordMu sync.Mutex
	current  *RunReport
}

// NewDirector creates a Director with the default key mapper, no observer and
// the default configuration
func NewDirector(injector Injector, table MessageTable) *Director {
	return &Director{
		injector: injector,
		mapper:   DefaultKeyMapper{},
		table:    table,
		observer: nopObserver{},
		config:   DefaultDirectorConfig(),
		latch:    &StopLatch{},
	}
}

// WithMapper sets the character-to-key mapper
func (d *Director) WithMapper(mapper KeyMapper) *Director {
	if mapper != nil {
		d.mapper = mapper
	}
	return d
}

// WithObserver sets the sink for progress and diagnostic lines
func (d *Director) WithObserver(observer Observer) *Director {
	if observer != nil {
		d.observer = observer
	}
	return d
}

// WithConfig sets the pacing configuration. Zero or negative slice and depth
// values fall back to the defaults.
func (d *Director) WithConfig(config DirectorConfig) *Director {
	if config.Slice <= 0 {
		config.Slice = DefaultSlice
	}
	if config.MaxSpliceDepth <= 0 {
		config.MaxSpliceDepth = DefaultMaxSpliceDepth
	}
	if config.Settle < 0 {
		config.Settle = 0
	}
	d.config = config
	return d
}

// WithLatch shares an existing stop latch with the Director
func (d *Director) WithLatch(latch *StopLatch) *Director {
	if latch != nil {
		d.latch = latch
	}
	return d
}

// Config returns the pacing configuration in use
func (d *Director) Config() DirectorConfig {
	return d.config
}

// Stop requests that the current run ends. It has no effect on a run that
// starts afterwards.
func (d *Director) Stop() {
	d.latch.Stop()
}

// Running reports whether a run is in progress
func (d *Director) Running() bool {
	return d.running.Load()
}

// CurrentLoop returns the 1-based loop index of the run in progress, or 0
func (d *Director) CurrentLoop() int {
	return int(d.loop.Load())
}

// Progress reports on the run in progress, or on the last run once it is over
func (d *Director) Progress() Progress {
	d.recordMu.Lock()
	defer d.recordMu.Unlock()

	p := Progress{Running: d.running.Load(), Loop: d.CurrentLoop()}
	if d.current != nil {
		p.RunID = d.current.RunID.String()
		p.Loops = d.current.Config.Loops
		p.Actions = len(d.current.Actions)
	}
	return p
}

// Execute performs a run and blocks until it completes or is cancelled.
//
// Cancellation comes from Stop or from ctx. Either way the run ends cleanly:
// a held key is released and the report says where the run stopped.
func (d *Director) Execute(ctx context.Context, cfg RunConfig) *RunReport {
	return d.ExecuteWithID(ctx, ulid.Make(), cfg)
}

// ExecuteWithID is Execute with a caller-chosen run id
func (d *Director) ExecuteWithID(ctx context.Context, id ulid.ULID, cfg RunConfig) *RunReport {
	report := newRunReport(id, cfg)

	if err := cfg.Validate(); err != nil {
		d.observer.Observe(fmt.Sprintf("ERROR: run rejected: %v", err))
		report.Trips.Record(trip.NewFall("config", err.Error(), trip.Context{"run_id": id.String()}))
		report.Err = err
		return report.finish()
	}

	if !d.running.CompareAndSwap(false, true) {
		d.observer.Observe("ERROR: run rejected: a run is already in progress")
		report.Err = ErrRunInProgress
		report.Trips.Record(trip.NewFall("config", ErrRunInProgress.Error(), trip.Context{"run_id": id.String()}))
		return report.finish()
	}
	defer func() {
		d.loop.Store(0)
		d.running.Store(false)
	}()

	// a new run always starts un-cancelled
	d.latch.reset()
	state := newRunState(ctx, d.latch)

	d.recordMu.Lock()
	d.current = report
	d.recordMu.Unlock()

	in := &interpreter{
		injector: d.injector,
		mapper:   d.mapper,
		table:    d.table,
		observer: d.observer,
		scanner:  NewScanner(d.table, d.observer).withTrips(report.Trips),
		trips:    report.Trips,
		config:   d.config,
		record: func(actionType string, details interface{}) {
			d.recordMu.Lock()
			defer d.recordMu.Unlock()
			report.recordAction(actionType, details)
		},
	}

	d.observer.Observe(fmt.Sprintf("SIM: Run %s StartDelay=%d, LoopDelay=%d, Loops=%d, text='%s'",
		id, cfg.StartDelay.Milliseconds(), cfg.LoopDelay.Milliseconds(), cfg.Loops, cfg.Script))

	if cfg.StartDelay > 0 {
		d.observer.Observe(fmt.Sprintf("SIM: Sleeping %d ms before typing...", cfg.StartDelay.Milliseconds()))
		if !waitSliced(cfg.StartDelay, d.config.Slice, state) {
			d.observer.Observe("SIM: Aborted before typing began.")
			return d.conclude(report, state)
		}
	}

	for l := 1; l <= cfg.Loops; l++ {
		if state.Cancelled() {
			break
		}

		state.LoopIndex = l
		d.loop.Store(int64(l))
		d.recordMu.Lock()
		report.loop = l
		d.recordMu.Unlock()

		d.observer.Observe(fmt.Sprintf("SIM: Loop %d/%d begin", l, cfg.Loops))
		in.run(cfg.Script, state)
		if state.Cancelled() {
			d.observer.Observe(fmt.Sprintf("SIM: Loop interrupted by stop at loop %d/%d", l, cfg.Loops))
			break
		}

		d.observer.Observe(fmt.Sprintf("SIM: Loop %d/%d done", l, cfg.Loops))
		report.LoopsCompleted = l

		if l < cfg.Loops && cfg.LoopDelay > 0 {
			d.observer.Observe(fmt.Sprintf("SIM: Sleeping %d ms before next loop...", cfg.LoopDelay.Milliseconds()))
			if !waitSliced(cfg.LoopDelay, d.config.Slice, state) {
				d.observer.Observe(fmt.Sprintf("SIM: Aborted between loops at loop %d/%d", l, cfg.Loops))
				break
			}
		}
	}

	return d.conclude(report, state)
}

// conclude fills in the outcome and emits the single terminal line
func (d *Director) conclude(report *RunReport, state *RunState) *RunReport {
	if state.Cancelled() {
		report.Cancelled = true
		report.CancelledAt = state.LoopIndex
		d.observer.Observe(fmt.Sprintf("SIM: Stopped by user at loop %d/%d. %s",
			state.LoopIndex, report.Config.Loops, report.Trips.Summary()))
	} else {
		report.Completed = true
		d.observer.Observe(fmt.Sprintf("SIM: All loops completed successfully. %s", report.Trips.Summary()))
	}

	d.recordMu.Lock()
	defer d.recordMu.Unlock()
	return report.finish()
}
