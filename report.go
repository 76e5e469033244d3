package teleprompter

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/teranos/teleprompter/trip"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("a run is already in progress")

// ActionRecord is one key edge, splice or skip performed during a run
type ActionRecord struct {
	Timestamp time.Time   `json:"timestamp"`
	Loop      int         `json:"loop"`
	Type      string      `json:"type"` // "press_down", "press_up", "splice", "skip"
	Details   interface{} `json:"details"`
}

// RunReport describes the outcome of one Execute call.
//
// Exactly one of Completed and Cancelled is true for a run that started. A run
// that was rejected has neither set and carries Err.
type RunReport struct {
	RunID          ulid.ULID      `json:"run_id"`
	Config         RunConfig      `json:"config"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	Completed      bool           `json:"completed"`
	Cancelled      bool           `json:"cancelled"`
	CancelledAt    int            `json:"cancelled_at"` // loop index cancellation was observed in, 0 = during the start delay
	LoopsCompleted int            `json:"loops_completed"`
	Actions        []ActionRecord `json:"actions"`
	Summary        string         `json:"summary"`
	Issues         map[string]int `json:"issues,omitempty"` // trip counts by type
	Error          string         `json:"error,omitempty"`

	Trips *trip.Handler `json:"-"`
	Err   error         `json:"-"`

	loop int
}

func newRunReport(id ulid.ULID, cfg RunConfig) *RunReport {
	return &RunReport{
		RunID:     id,
		Config:    cfg,
		StartedAt: time.Now(),
		Actions:   make([]ActionRecord, 0),
		Trips:     trip.NewHandler("run"),
	}
}

func (r *RunReport) recordAction(actionType string, details interface{}) {
	r.Actions = append(r.Actions, ActionRecord{
		Timestamp: time.Now(),
		Loop:      r.loop,
		Type:      actionType,
		Details:   details,
	})
}

// finish stamps the duration and the flattened summary fields
func (r *RunReport) finish() *RunReport {
	r.Duration = time.Since(r.StartedAt)
	r.Summary = r.Trips.Summary()
	if r.Trips.HasTrips() || r.Trips.HasStumbles() {
		r.Issues = r.Trips.CountByType()
	}
	if r.Err != nil {
		r.Error = r.Err.Error()
	}
	return r
}

// Presses returns the keys pressed down during the run, in order
func (r *RunReport) Presses() []NamedKey {
	var keys []NamedKey
	for _, a := range r.Actions {
		if a.Type != "press_down" {
			continue
		}
		if k, ok := a.Details.(NamedKey); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// CountActions returns how many actions of the given type were recorded
func (r *RunReport) CountActions(actionType string) int {
	n := 0
	for _, a := range r.Actions {
		if a.Type == actionType {
			n++
		}
	}
	return n
}

// Progress is a point-in-time view of a Director
type Progress struct {
	RunID   string `json:"run_id,omitempty"`
	Running bool   `json:"running"`
	Loop    int    `json:"loop"`
	Loops   int    `json:"loops"`
	Actions int    `json:"actions"`
}
