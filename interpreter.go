package teleprompter

import (
	"fmt"
	"time"

	"github.com/teranos/teleprompter/trip"
)

// interpreter walks one script, turning it into key events.
//
// It checks for cancellation before every character or directive and between
// every slice of a hold. It never clears the cancellation itself.
type interpreter struct {
	injector Injector
	mapper   KeyMapper
	table    MessageTable
	observer Observer
	scanner  *Scanner
	trips    *trip.Handler
	config   DirectorConfig

	// record is called for every key edge and splice, in order
	record func(actionType string, details interface{})
}

// run interprets text from the start until it ends or the run is cancelled
func (in *interpreter) run(text string, state *RunState) {
	in.runAt([]rune(text), state, 0)
}

func (in *interpreter) runAt(text []rune, state *RunState, depth int) {
	for pos := 0; pos < len(text); {
		if state.Cancelled() {
			return
		}

		act, consumed := in.scanner.Scan(text, pos)
		if consumed == 0 {
			in.typeRune(text[pos], state)
			pos++
			continue
		}

		switch act.Kind {
		case ActionMessageSplice:
			in.splice(act.Index, state, depth)
		case ActionKeyTap:
			in.observer.Observe(fmt.Sprintf("SIM: Quick press %s", act.Key))
			in.tap(act.Key, state)
		case ActionKeyHold:
			if act.Hold > 0 {
				in.hold(act.Key, act.Hold, state)
			} else {
				in.observer.Observe(fmt.Sprintf("SIM: Quick press %s", act.Key))
				in.tap(act.Key, state)
			}
		case ActionUnmappable:
			in.record("skip", act.Reason)
		}

		pos += consumed
	}
}

// splice interprets message table entry index (0-based) in place
func (in *interpreter) splice(index int, state *RunState, depth int) {
	line, _ := in.table.At(index + 1)

	if depth >= in.config.MaxSpliceDepth {
		in.observer.Observe(fmt.Sprintf("ERROR: {message%d} nesting exceeds depth %d, skipped", index+1, in.config.MaxSpliceDepth))
		in.trips.Record(trip.NewTrip("nesting", fmt.Sprintf("{message%d} nested past depth %d", index+1, in.config.MaxSpliceDepth), trip.Context{
			"index": index + 1,
			"depth": depth,
		}).WithLoop(state.LoopIndex))
		in.record("skip", fmt.Sprintf("message%d", index+1))
		return
	}

	in.observer.Observe(fmt.Sprintf("SIM: Insert line => %q", line))
	in.record("splice", index+1)
	in.runAt([]rune(line), state, depth+1)
}

// typeRune types a literal character. One settle delay always follows,
// whether or not the character had a key.
func (in *interpreter) typeRune(r rune, state *RunState) {
	in.observer.Observe(fmt.Sprintf("SIM: Sending char %q", r))

	key, ok := in.mapper.MapRune(r)
	if !ok {
		in.observer.Observe(fmt.Sprintf("WARN: No key for %q (U+%04X)", r, r))
		in.trips.Record(trip.NewStumble("mapping", fmt.Sprintf("No key for %q", r), trip.Context{
			"rune": r,
		}).WithLoop(state.LoopIndex))
		in.record("skip", string(r))
	} else {
		in.tap(key, state)
	}

	pause(in.config.Settle)
}

// tap presses and releases k with a settle delay after each edge
func (in *interpreter) tap(k NamedKey, state *RunState) {
	in.press(k, true, state)
	pause(in.config.Settle)
	in.press(k, false, state)
	pause(in.config.Settle)
}

// hold presses k, waits d in slices, then releases k. The release is issued
// even when the wait is cut short, so no key is ever left down.
func (in *interpreter) hold(k NamedKey, d time.Duration, state *RunState) {
	in.observer.Observe(fmt.Sprintf("SIM: Holding %s for %d ms", k, d.Milliseconds()))

	in.press(k, true, state)
	if !waitSliced(d, in.config.Slice, state) {
		in.observer.Observe(fmt.Sprintf("SIM: Hold of %s cut short, releasing", k))
	}
	in.press(k, false, state)
	pause(in.config.Settle)
}

func (in *interpreter) press(k NamedKey, down bool, state *RunState) {
	edge, call := "up", in.injector.PressUp
	if down {
		edge, call = "down", in.injector.PressDown
	}

	in.record("press_"+edge, k)

	if err := call(k); err != nil {
		in.observer.Observe(fmt.Sprintf("WARN: press %s of %s failed: %v", edge, k, err))
		in.trips.Record(trip.NewStumble("injection", fmt.Sprintf("press %s of %s failed: %v", edge, k, err), trip.Context{
			"key":  k.String(),
			"edge": edge,
		}).WithLoop(state.LoopIndex))
	}
}
