package teleprompter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/teleprompter/trip"
)

func TestScanner_Directives(t *testing.T) {
	table := MessageTable{"hello", "{up}", "third"}

	tests := []struct {
		name     string
		text     string
		action   Action
		consumed int
	}{
		{"tap up", "{up}", KeyTap(Key(KeyUp)), 4},
		{"tap down", "{down}", KeyTap(Key(KeyDown)), 6},
		{"tap left", "{left}", KeyTap(Key(KeyLeft)), 6},
		{"tap right", "{right}", KeyTap(Key(KeyRight)), 7},
		{"tap enter", "{enter}", KeyTap(Key(KeyEnter)), 7},
		{"tap shift", "{shift}", KeyTap(Key(KeyShift)), 7},
		{"tap ctrl", "{ctrl}", KeyTap(Key(KeyControl)), 6},
		{"tap alt", "{alt}", KeyTap(Key(KeyAlt)), 5},
		{"tap space", "{space}", KeyTap(Key(KeySpace)), 7},
		{"hold", "{up:500}", KeyHold(Key(KeyUp), 500*time.Millisecond), 8},
		{"hold with trailing text", "{alt:20}xyz", KeyHold(Key(KeyAlt), 20*time.Millisecond), 8},
		{"hold without digits", "{enter:}", KeyHold(Key(KeyEnter), 0), 8},
		{"first message", "{message1}", MessageSplice(0), 10},
		{"last message", "{message3}!", MessageSplice(2), 10},
		{"leading zeros", "{message002}", MessageSplice(1), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(table, nil)
			act, consumed := s.Scan([]rune(tt.text), 0)
			assert.Equal(t, tt.action, act)
			assert.Equal(t, tt.consumed, consumed)
		})
	}
}

func TestScanner_NotDirectives(t *testing.T) {
	table := MessageTable{"only"}

	tests := []struct {
		name string
		text string
	}{
		{"unknown keyword", "{xyz}"},
		{"keyword prefix", "{upward}"},
		{"keyword prefix with colon later", "{upper:10}"},
		{"uppercase keyword", "{UP}"},
		{"unterminated keyword", "{up"},
		{"hold without close", "{up:12"},
		{"hold with junk", "{up:12a}"},
		{"negative hold", "{up:-5}"},
		{"empty braces", "{}"},
		{"lone brace", "{"},
		{"message without digits", "{message}"},
		{"message with junk", "{message1x}"},
		{"message unterminated", "{message1"},
		{"message with space", "{message 1}"},
		{"not a brace", "up}"},
		{"spaced keyword", "{ up}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(table, nil)
			act, consumed := s.Scan([]rune(tt.text), 0)
			assert.Equal(t, 0, consumed)
			assert.Equal(t, Action{}, act)
		})
	}
}

func TestScanner_MessageOutOfRange(t *testing.T) {
	observer := &collectingObserver{}
	trips := trip.NewHandler("run")
	s := NewScanner(MessageTable{"a", "b"}, observer).withTrips(trips)

	_, consumed := s.Scan([]rune("{message5}"), 0)
	assert.Equal(t, 0, consumed)
	assert.True(t, observer.Contains("WARN: {message5} out of range (1..2)"))

	_, consumed = s.Scan([]rune("{message0}"), 0)
	assert.Equal(t, 0, consumed)

	// a number too large for an int is still just out of range
	_, consumed = s.Scan([]rune("{message99999999999999999999999}"), 0)
	assert.Equal(t, 0, consumed)

	require.Len(t, trips.GetStumbles(), 3)
	assert.Equal(t, "reference", trips.GetStumbles()[0].Type)
}

func TestScanner_MessageBeatsKeywords(t *testing.T) {
	// an empty table makes every {messageN} out of range; it must not be
	// retried as a keyword directive
	s := NewScanner(MessageTable{}, nil)
	_, consumed := s.Scan([]rune("{message1}"), 0)
	assert.Equal(t, 0, consumed)
}

func TestScanner_HoldOverflow(t *testing.T) {
	observer := &collectingObserver{}
	trips := trip.NewHandler("run")
	s := NewScanner(nil, observer).withTrips(trips)

	text := "{up:99999999999999999999}"
	act, consumed := s.Scan([]rune(text), 0)

	assert.Equal(t, ActionUnmappable, act.Kind)
	assert.Equal(t, len([]rune(text)), consumed)
	assert.Contains(t, act.Reason, "out of range")
	assert.True(t, trips.HasStumbles())
}

func TestScanner_Position(t *testing.T) {
	s := NewScanner(nil, nil)
	text := []rune("ab{left}c")

	_, consumed := s.Scan(text, 0)
	assert.Equal(t, 0, consumed, "position without a brace")

	act, consumed := s.Scan(text, 2)
	assert.Equal(t, KeyTap(Key(KeyLeft)), act)
	assert.Equal(t, 6, consumed)

	_, consumed = s.Scan(text, -1)
	assert.Equal(t, 0, consumed)
	_, consumed = s.Scan(text, len(text))
	assert.Equal(t, 0, consumed)
}

func TestScanner_UnmatchedIsLogged(t *testing.T) {
	observer := &collectingObserver{}
	s := NewScanner(nil, observer)

	s.Scan([]rune("{xyz} and more"), 0)
	assert.True(t, observer.Contains(`DEBUG: "{xyz}" is not a directive`))
}

// scanPartition walks text the way the interpreter does and returns every
// step's consumed length
func scanPartition(s *Scanner, text []rune) []int {
	var steps []int
	for pos := 0; pos < len(text); {
		_, consumed := s.Scan(text, pos)
		if consumed == 0 {
			consumed = 1
		}
		steps = append(steps, consumed)
		pos += consumed
	}
	return steps
}

func TestScanner_ConsumedPartitionsScript(t *testing.T) {
	s := NewScanner(MessageTable{"one", "two"}, nil)

	scripts := []string{
		"",
		"plain text only",
		"{up}{down:20}{message2}{message9}",
		"{{{up}}}",
		"{xyz}{upward}{up:}{alt:99999999999999999999999}",
		"héllo {enter} wörld {space:5}",
		"{message1",
		"}{",
	}

	for _, script := range scripts {
		text := []rune(script)
		total := 0
		for _, n := range scanPartition(s, text) {
			assert.Greater(t, n, 0)
			total += n
		}
		assert.Equal(t, len(text), total, "script %q", script)
	}
}

func TestScanner_NestedBraces(t *testing.T) {
	s := NewScanner(nil, nil)
	text := []rune("{{up}}")

	steps := scanPartition(s, text)
	assert.Equal(t, []int{1, 4, 1}, steps)
}
