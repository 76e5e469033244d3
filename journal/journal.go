// Package journal is the log sink for teleprompter runs.
//
// A Journal keeps the most recent lines in memory for display, appends every
// line to an optional log file as it arrives, and fans lines out to
// subscribers such as the TUI log panel or the HTTP log endpoint.
package journal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxEntries is how many entries are kept in memory
const DefaultMaxEntries = 200

// Entry is a single line in the journal
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Line      string    `json:"line"`

	// Repeated counts how many identical lines directly followed this one
	Repeated int `json:"repeated,omitempty"`
}

func (e Entry) String() string {
	if e.Repeated > 0 {
		return fmt.Sprintf("%s (repeat x%d)", e.Line, e.Repeated+1)
	}
	return e.Line
}

// Journal collects log lines. It implements teleprompter.Observer and is safe
// for concurrent use.
type Journal struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	sink       io.Writer
	closer     io.Closer

	subs    map[int]chan Entry
	nextSub int

	// lines dropped because a subscriber was not keeping up
	dropped atomic.Int64
}

// New creates an in-memory journal keeping at most maxEntries entries
func New(maxEntries int) *Journal {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Journal{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
		subs:       make(map[int]chan Entry),
	}
}

// Open creates a journal that also appends every line to the file at path.
// The file is created if it does not exist.
func Open(path string, maxEntries int) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	j := New(maxEntries)
	j.sink = f
	j.closer = f
	return j, nil
}

// WithWriter sends every line to w as well. Mainly for echoing to stdout.
func (j *Journal) WithWriter(w io.Writer) *Journal {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.sink == nil {
		j.sink = w
	} else {
		j.sink = io.MultiWriter(j.sink, w)
	}
	return j
}

// Observe records a line
func (j *Journal) Observe(line string) {
	// an entry is always a single line
	line = strings.ReplaceAll(line, "\n", " ")
	line = strings.TrimRight(line, "\r")
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	if n := len(j.entries); n > 0 && j.entries[n-1].Line == line {
		j.entries[n-1].Repeated++
		j.entries[n-1].Timestamp = now
	} else {
		j.entries = append(j.entries, Entry{Timestamp: now, Line: line})
		if len(j.entries) > j.maxEntries {
			j.entries = append(j.entries[:0], j.entries[len(j.entries)-j.maxEntries:]...)
		}
	}

	// the file gets every line, collapsed or not
	if j.sink != nil {
		io.WriteString(j.sink, line+"\n")
	}

	latest := j.entries[len(j.entries)-1]
	for _, ch := range j.subs {
		select {
		case ch <- latest:
		default:
			j.dropped.Add(1)
		}
	}
}

// Logf records a formatted line with a tag prefix, e.g. Logf("INFO", "loaded %d", n)
func (j *Journal) Logf(tag, format string, args ...interface{}) {
	j.Observe(tag + ": " + fmt.Sprintf(format, args...))
}

// Entries returns a copy of every entry in memory, oldest first
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	c := make([]Entry, len(j.entries))
	copy(c, j.entries)
	return c
}

// Tail returns at most the n newest entries, oldest first
func (j *Journal) Tail(n int) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	if n > len(j.entries) || n < 0 {
		n = len(j.entries)
	}
	c := make([]Entry, n)
	copy(c, j.entries[len(j.entries)-n:])
	return c
}

// Lines returns the entries in memory as display strings
func (j *Journal) Lines() []string {
	entries := j.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Len returns the number of entries in memory
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Clear drops the in-memory entries. The log file is untouched.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = j.entries[:0]
}

// Subscribe returns a channel that receives every entry recorded from now on
// and a function that ends the subscription. A subscriber that falls more
// than buffer entries behind misses lines; see Dropped.
func (j *Journal) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Entry, buffer)

	j.mu.Lock()
	id := j.nextSub
	j.nextSub++
	j.subs[id] = ch
	j.mu.Unlock()

	return ch, func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := j.subs[id]; ok {
			delete(j.subs, id)
			close(ch)
		}
	}
}

// Dropped returns how many entries subscribers have missed
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Close closes the log file, if any
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for id, ch := range j.subs {
		delete(j.subs, id)
		close(ch)
	}

	if j.closer == nil {
		return nil
	}
	err := j.closer.Close()
	j.closer = nil
	j.sink = nil
	return err
}
