package teleprompter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/teranos/teleprompter/trip"
)

const messagePrefix = "{message"

// maxHoldMs is the longest hold that still fits in a time.Duration
const maxHoldMs = MaxDelayMs

// Scanner recognises directives inside script text.
//
// Scan is called with a position that holds a '{'. It either decodes a whole
// directive, through its closing '}', and reports how many runes it
// consumed, or reports consumed == 0 and leaves the '{' for the caller to
// type literally. It never consumes part of a directive.
//
// Directives are checked in priority order:
//
//	{message<digits>}         splice message table entry <digits> (1-based)
//	{<keyword>}               tap a named key
//	{<keyword>:<digits>}      hold a named key for <digits> milliseconds
//
// Keywords are up, down, left, right, enter, shift, ctrl, alt and space.
// Matching is exact and case-sensitive.
type Scanner struct {
	table    MessageTable
	observer Observer
	trips    *trip.Handler
}

// NewScanner creates a scanner over a message table. Diagnostics go to observer,
// which may be nil.
func NewScanner(table MessageTable, observer Observer) *Scanner {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Scanner{table: table, observer: observer}
}

// withTrips returns a copy of the scanner that also records stumbles
func (s *Scanner) withTrips(trips *trip.Handler) *Scanner {
	c := *s
	c.trips = trips
	return &c
}

// Scan decodes the directive starting at text[pos]. Any action returned with
// consumed > 0 covers text[pos:pos+consumed] exactly.
func (s *Scanner) Scan(text []rune, pos int) (Action, int) {
	if pos < 0 || pos >= len(text) || text[pos] != '{' {
		return Action{}, 0
	}
	rest := text[pos:]

	if hasPrefix(rest, messagePrefix) {
		return s.scanMessage(rest)
	}

	if act, n := s.scanKeyword(rest); n > 0 {
		return act, n
	}

	s.observer.Observe(fmt.Sprintf("DEBUG: %q is not a directive, typing it literally", snippet(rest)))
	return Action{}, 0
}

// scanMessage handles text starting with "{message". It never falls through to
// keyword matching.
func (s *Scanner) scanMessage(rest []rune) (Action, int) {
	idx := len(messagePrefix)
	digits, end := takeDigits(rest, idx)

	if end >= len(rest) || rest[end] != '}' {
		s.observer.Observe(fmt.Sprintf("DEBUG: %q is not a directive, typing it literally", snippet(rest)))
		return Action{}, 0
	}

	// an empty or overflowing number is simply out of range
	n, err := strconv.Atoi(digits)
	if err != nil && digits != "" {
		n = math.MaxInt
	}

	if n < 1 || n > s.table.Len() {
		s.observer.Observe(fmt.Sprintf("WARN: {message%s} out of range (1..%d)", digits, s.table.Len()))
		s.stumble(trip.NewStumble("reference", fmt.Sprintf("{message%s} out of range", digits), trip.Context{
			"directive": string(rest[:end+1]),
			"table_len": s.table.Len(),
		}))
		return Action{}, 0
	}

	line, _ := s.table.At(n)
	s.observer.Observe(fmt.Sprintf("SIM: Found token {message%s} => line %d: %q", digits, n, line))
	return MessageSplice(n - 1), end + 1
}

// scanKeyword matches {keyword} and {keyword:digits}
func (s *Scanner) scanKeyword(rest []rune) (Action, int) {
	// the keyword runs up to the first '}' or ':', which must appear within
	// reach of the longest keyword
	end := 1
	for end < len(rest) && end <= longestKeyword+1 && rest[end] != '}' && rest[end] != ':' {
		end++
	}
	if end >= len(rest) || (rest[end] != '}' && rest[end] != ':') {
		return Action{}, 0
	}

	code, ok := LookupKeyword(string(rest[1:end]))
	if !ok {
		return Action{}, 0
	}
	key := Key(code)

	if rest[end] == '}' {
		return KeyTap(key), end + 1
	}

	digits, close := takeDigits(rest, end+1)
	if close >= len(rest) || rest[close] != '}' {
		return Action{}, 0
	}
	consumed := close + 1

	// "{up:}" holds for zero milliseconds, which is a tap
	if digits == "" {
		return KeyHold(key, 0), consumed
	}

	ms, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || ms > maxHoldMs {
		reason := fmt.Sprintf("hold duration %sms out of range", digits)
		s.observer.Observe(fmt.Sprintf("WARN: %s, skipped %s", reason, string(rest[:consumed])))
		s.stumble(trip.NewStumble("reference", reason, trip.Context{
			"directive": string(rest[:consumed]),
		}))
		return Unmappable(reason), consumed
	}

	return KeyHold(key, time.Duration(ms)*time.Millisecond), consumed
}

func (s *Scanner) stumble(t *trip.Trip) {
	if s.trips != nil {
		s.trips.Record(t)
	}
}

// takeDigits collects decimal digits from text[from:] and returns them with
// the index of the first non-digit
func takeDigits(text []rune, from int) (string, int) {
	i := from
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	return string(text[from:i]), i
}

func hasPrefix(text []rune, prefix string) bool {
	p := []rune(prefix)
	if len(text) < len(p) {
		return false
	}
	for i, r := range p {
		if text[i] != r {
			return false
		}
	}
	return true
}

// snippet returns the text up to and including the next '}', capped for logging
func snippet(text []rune) string {
	const maxSnippet = 24
	for i, r := range text {
		if i >= maxSnippet {
			return string(text[:i]) + "..."
		}
		if r == '}' {
			return string(text[:i+1])
		}
	}
	return string(text)
}
