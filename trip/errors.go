// Package trip records the things that go wrong during a teleprompter run.
//
// The trip package uses stumbling metaphors for error handling: a run that
// meets an unresolvable reference "stumbles", logs it and keeps going. Nothing
// inside a run is allowed to bring it down; trips exist so the run can report
// afterwards what it skipped and why.
package trip

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Trip represents a problem met during a run, with context.
//
// Error types used by teleprompter:
//   - "reference": a {messageN} index outside the message table
//   - "mapping": a literal character with no key
//   - "injection": the key injector failed a press or release
//   - "nesting": message splices nested deeper than allowed
//   - "config": a run request that cannot be started
//
// Example usage:
//
//	t := NewStumble("mapping", "No key for '\\t'",
//	    Context{"rune": '\t', "position": 12})
//
//	if t.CanRecover() {
//	    // skip the character and carry on typing
//	}
type Trip struct {
	Type      string    // Error category
	Message   string    // Human-readable description
	Context   Context   // Additional debugging information
	Timestamp time.Time // When the problem occurred
	Loop      int       // Which loop iteration was running (0 = before the first)
	Severity  Severity  // How serious this problem is
}

// Context provides structured debugging information for trips
type Context map[string]interface{}

// Severity indicates how serious a trip is
type Severity int

const (
	// Stumble is a skipped unit of work that does not affect the rest of the run.
	// Examples: unmappable character, out of range message, failed key press
	Stumble Severity = iota

	// Error is a skipped directive the script author almost certainly did not intend.
	// Example: message splices nested past the depth limit
	Error

	// Fall means the run never started.
	// Example: a run requested with a loop count below one
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Error:
		return "error"
	case Fall:
		return "fall"
	default:
		return "unknown"
	}
}

// NewTrip creates a new trip with Error severity and the current timestamp
func NewTrip(errorType, message string, context Context) *Trip {
	return &Trip{
		Type:      errorType,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Error,
	}
}

// NewStumble creates a new trip with Stumble severity
func NewStumble(errorType, message string, context Context) *Trip {
	t := NewTrip(errorType, message, context)
	t.Severity = Stumble
	return t
}

// NewFall creates a new trip with Fall severity
func NewFall(errorType, message string, context Context) *Trip {
	t := NewTrip(errorType, message, context)
	t.Severity = Fall
	return t
}

// WithLoop sets the loop iteration the trip happened in
func (t *Trip) WithLoop(loop int) *Trip {
	t.Loop = loop
	return t
}

// Error implements the error interface
func (t *Trip) Error() string {
	return fmt.Sprintf("[%s:%s] %s", t.Type, t.Severity, t.Message)
}

// CanRecover returns true if the run can continue past this trip
func (t *Trip) CanRecover() bool {
	return t.Severity != Fall
}

// IsFall returns true if this trip stopped the run from starting
func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns a specific context value if it exists
func (t *Trip) GetContext(key string) (interface{}, bool) {
	if t.Context == nil {
		return nil, false
	}
	val, exists := t.Context[key]
	return val, exists
}

// DetailedString returns a comprehensive description with context.
// Context keys are sorted so the output is stable.
func (t *Trip) DetailedString() string {
	var details strings.Builder

	details.WriteString(t.Error())
	details.WriteString(fmt.Sprintf("\n  Time: %s", t.Timestamp.Format("15:04:05.000")))

	if t.Loop > 0 {
		details.WriteString(fmt.Sprintf("\n  Loop: %d", t.Loop))
	}

	if len(t.Context) > 0 {
		keys := make([]string, 0, len(t.Context))
		for key := range t.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		details.WriteString("\n  Context:")
		for _, key := range keys {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, t.Context[key]))
		}
	}

	return details.String()
}

// Handler collects the trips of one run.
//
// Stumbles and more serious trips are kept apart so a summary can say at a
// glance whether anything beyond routine skips happened.
type Handler struct {
	mu        sync.Mutex
	component string  // Component name (e.g., "run")
	trips     []*Trip // Errors and falls in chronological order
	stumbles  []*Trip // Stumbles in chronological order
}

// NewHandler creates a new handler for a component
func NewHandler(component string) *Handler {
	return &Handler{
		component: component,
		trips:     make([]*Trip, 0),
		stumbles:  make([]*Trip, 0),
	}
}

// Record adds a trip to the handler's collection
func (h *Handler) Record(trip *Trip) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if trip.Severity == Stumble {
		h.stumbles = append(h.stumbles, trip)
	} else {
		h.trips = append(h.trips, trip)
	}
}

// HasTrips returns true if any errors or falls (non-stumbles) have been recorded
func (h *Handler) HasTrips() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.trips) > 0
}

// HasStumbles returns true if any stumbles have been recorded
func (h *Handler) HasStumbles() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stumbles) > 0
}

// HasFall returns true if a fall has been recorded
func (h *Handler) HasFall() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.trips {
		if t.IsFall() {
			return true
		}
	}
	return false
}

// GetTrips returns a copy of all recorded errors and falls
func (h *Handler) GetTrips() []*Trip {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Trip(nil), h.trips...)
}

// GetStumbles returns a copy of all recorded stumbles
func (h *Handler) GetStumbles() []*Trip {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Trip(nil), h.stumbles...)
}

// CountByType returns how many trips of each type (any severity) were recorded
func (h *Handler) CountByType() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := make(map[string]int)
	for _, t := range h.trips {
		counts[t.Type]++
	}
	for _, t := range h.stumbles {
		counts[t.Type]++
	}
	return counts
}

// Summary provides a concise overview of all trips and stumbles
func (h *Handler) Summary() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.summary()
}

func (h *Handler) summary() string {
	if len(h.trips) == 0 && len(h.stumbles) == 0 {
		return fmt.Sprintf("[%s] no issues", h.component)
	}

	return fmt.Sprintf("[%s] %d trips, %d stumbles",
		h.component, len(h.trips), len(h.stumbles))
}

// DetailedReport provides a comprehensive report of all issues
func (h *Handler) DetailedReport() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s report ===\n", h.component))
	report.WriteString(h.summary() + "\n")

	if len(h.trips) > 0 {
		report.WriteString("\nTrips:\n")
		for i, trip := range h.trips {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, trip.DetailedString()))
		}
	}

	if len(h.stumbles) > 0 {
		report.WriteString("\nStumbles:\n")
		for i, stumble := range h.stumbles {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, stumble.DetailedString()))
		}
	}

	return report.String()
}
