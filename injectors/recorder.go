// Package injectors holds the Key Injector backends a Director can drive.
//
//   - Native presses real keys through the OS (linux uinput)
//   - Tea sends key messages into a running bubbletea program
//   - Recorder injects nothing and remembers every edge (dry runs, tests)
package injectors

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teranos/teleprompter"
)

// Event is one key edge seen by a Recorder
type Event struct {
	Timestamp time.Time
	Down      bool
	Key       teleprompter.NamedKey
}

func (e Event) String() string {
	if e.Down {
		return "down " + e.Key.String()
	}
	return "up " + e.Key.String()
}

// Recorder is an Injector that records key edges instead of performing them.
// With an observer attached it also logs each edge, which is what -dry-run shows.
type Recorder struct {
	mu       sync.Mutex
	events   []Event
	observer teleprompter.Observer
}

// NewRecorder creates a recorder. observer may be nil.
func NewRecorder(observer teleprompter.Observer) *Recorder {
	return &Recorder{observer: observer}
}

// PressDown implements teleprompter.Injector
func (r *Recorder) PressDown(k teleprompter.NamedKey) error {
	r.record(true, k)
	return nil
}

// PressUp implements teleprompter.Injector
func (r *Recorder) PressUp(k teleprompter.NamedKey) error {
	r.record(false, k)
	return nil
}

func (r *Recorder) record(down bool, k teleprompter.NamedKey) {
	e := Event{Timestamp: time.Now(), Down: down, Key: k}

	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.Observe(fmt.Sprintf("DRY: %s", e))
	}
}

// Events returns a copy of every recorded edge
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Text reassembles what a text field would show after the recorded presses.
// Named keys other than Enter and Space are ignored.
func (r *Recorder) Text() string {
	var b strings.Builder
	for _, e := range r.Events() {
		if !e.Down {
			continue
		}
		switch e.Key.Code {
		case teleprompter.KeyRune:
			b.WriteRune(e.Key.Rune)
		case teleprompter.KeySpace:
			b.WriteByte(' ')
		case teleprompter.KeyEnter:
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Reset forgets every recorded edge
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
