package teleprompter

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// mockInjector records every key edge it is asked to perform
type mockInjector struct {
	mu     sync.Mutex
	events []string
	fail   bool

	// onDown runs after each press-down is recorded
	onDown func(k NamedKey)
}

func (m *mockInjector) PressDown(k NamedKey) error {
	m.mu.Lock()
	m.events = append(m.events, "down "+k.String())
	hook := m.onDown
	m.mu.Unlock()

	if hook != nil {
		hook(k)
	}
	if m.fail {
		return errors.New("device unplugged")
	}
	return nil
}

func (m *mockInjector) PressUp(k NamedKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "up "+k.String())
	if m.fail {
		return errors.New("device unplugged")
	}
	return nil
}

func (m *mockInjector) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// Typed returns the keys pressed down, as their String forms
func (m *mockInjector) Typed() []string {
	var typed []string
	for _, e := range m.Events() {
		if strings.HasPrefix(e, "down ") {
			typed = append(typed, strings.TrimPrefix(e, "down "))
		}
	}
	return typed
}

// collectingObserver keeps every observed line
type collectingObserver struct {
	mu    sync.Mutex
	lines []string

	// onLine runs after each line is stored
	onLine func(line string)
}

func (o *collectingObserver) Observe(line string) {
	o.mu.Lock()
	o.lines = append(o.lines, line)
	hook := o.onLine
	o.mu.Unlock()

	if hook != nil {
		hook(line)
	}
}

func (o *collectingObserver) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.lines...)
}

func (o *collectingObserver) Contains(substr string) bool {
	for _, l := range o.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func (o *collectingObserver) Last() string {
	lines := o.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// fastConfig keeps timing tests quick while still slicing waits
func fastConfig() DirectorConfig {
	return DirectorConfig{
		Settle:         0,
		Slice:          5 * time.Millisecond,
		MaxSpliceDepth: DefaultMaxSpliceDepth,
	}
}

func newTestDirector(table MessageTable) (*Director, *mockInjector, *collectingObserver) {
	injector := &mockInjector{}
	observer := &collectingObserver{}
	director := NewDirector(injector, table).
		WithObserver(observer).
		WithConfig(fastConfig())
	return director, injector, observer
}
