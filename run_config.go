package teleprompter

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MaxDelayMs is the longest millisecond delay that fits in a time.Duration
const MaxDelayMs = math.MaxInt64 / int64(time.Millisecond)

// Milliseconds converts ms to a Duration, saturating at MaxDelayMs instead of
// wrapping around
func Milliseconds(ms int64) time.Duration {
	if ms > MaxDelayMs {
		ms = MaxDelayMs
	}
	if ms < -MaxDelayMs {
		ms = -MaxDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}

// RunConfig is one run request: the script, how many times to type it and the
// delays around it. A RunConfig is not changed while its run is in progress.
//
// On the wire the delays are whole milliseconds.
type RunConfig struct {
	Script     string        `yaml:"script"`
	Loops      int           `yaml:"loops"`
	StartDelay time.Duration `yaml:"start_delay"`
	LoopDelay  time.Duration `yaml:"loop_delay"`
}

// NewRunConfig builds a RunConfig from millisecond delays
func NewRunConfig(script string, loops int, startDelayMs, loopDelayMs int64) RunConfig {
	return RunConfig{
		Script:     script,
		Loops:      loops,
		StartDelay: Milliseconds(startDelayMs),
		LoopDelay:  Milliseconds(loopDelayMs),
	}
}

type runConfigJSON struct {
	Script       string `json:"script"`
	Loops        int    `json:"loops"`
	StartDelayMs int64  `json:"start_delay_ms"`
	LoopDelayMs  int64  `json:"loop_delay_ms"`
}

// MarshalJSON implements json.Marshaler
func (c RunConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(runConfigJSON{
		Script:       c.Script,
		Loops:        c.Loops,
		StartDelayMs: c.StartDelay.Milliseconds(),
		LoopDelayMs:  c.LoopDelay.Milliseconds(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (c *RunConfig) UnmarshalJSON(data []byte) error {
	var w runConfigJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = NewRunConfig(w.Script, w.Loops, w.StartDelayMs, w.LoopDelayMs)
	return nil
}

// ValidateDelayMs checks a millisecond delay before it is converted
func ValidateDelayMs(name string, ms int64) error {
	if ms < 0 {
		return fmt.Errorf("%s must not be negative, got %dms", name, ms)
	}
	if ms > MaxDelayMs {
		return fmt.Errorf("%s must be at most %dms, got %dms", name, MaxDelayMs, ms)
	}
	return nil
}

// Validate reports the first field that cannot be run as given
func (c RunConfig) Validate() error {
	if c.Loops < 1 {
		return fmt.Errorf("loops must be at least 1, got %d", c.Loops)
	}
	if c.StartDelay < 0 {
		return fmt.Errorf("start delay must not be negative, got %s", c.StartDelay)
	}
	if c.LoopDelay < 0 {
		return fmt.Errorf("loop delay must not be negative, got %s", c.LoopDelay)
	}
	return nil
}

// Normalize clamps out-of-range fields the way the input form does:
// a loop count below one becomes one and negative delays become zero.
func (c RunConfig) Normalize() RunConfig {
	if c.Loops < 1 {
		c.Loops = 1
	}
	if c.StartDelay < 0 {
		c.StartDelay = 0
	}
	if c.LoopDelay < 0 {
		c.LoopDelay = 0
	}
	return c
}
