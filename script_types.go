// Package teleprompter drives synthetic keyboard input from a small cue-script
// language.
//
// A script is plain text with bracketed directives mixed in. Plain characters
// are typed as-is; directives press named keys, hold them for a while, or
// splice in a line from an external message table:
//
//	Hello{enter}         types "Hello" and taps Enter
//	{up:3000}            holds Up for three seconds
//	{message3}           types message table line 3 (itself a script)
//
// Teleprompter reads its script the way a camera operator reads cue cards:
// one line at a time, steady pacing, and ready to cut the moment someone
// shouts stop.
//
// Basic usage:
//
//	director := teleprompter.NewDirector(injector, table).
//		WithObserver(journal)
//
//	report := director.Execute(ctx, teleprompter.RunConfig{
//		Script:     "hello{enter}",
//		Loops:      3,
//		StartDelay: 3 * time.Second,
//		LoopDelay:  2 * time.Second,
//	})
//
//	if report.Cancelled {
//		fmt.Printf("stopped at loop %d\n", report.CancelledAt)
//	}
//
// Stopping a run from another goroutine (a UI key handler, an HTTP request,
// a signal handler) is a single call:
//
//	director.Stop()
package teleprompter

import (
	"fmt"
	"time"
)

// ActionKind tags the decoded meaning of one script token
type ActionKind int

const (
	// ActionLiteral types a single character
	ActionLiteral ActionKind = iota
	// ActionKeyTap presses and releases a named key
	ActionKeyTap
	// ActionKeyHold presses a named key, waits, then releases it
	ActionKeyHold
	// ActionMessageSplice re-runs the interpreter over a message table entry
	ActionMessageSplice
	// ActionUnmappable is a recognised directive whose resource is invalid.
	// The caller logs it and skips the consumed characters.
	ActionUnmappable
)

func (k ActionKind) String() string {
	switch k {
	case ActionLiteral:
		return "literal"
	case ActionKeyTap:
		return "tap"
	case ActionKeyHold:
		return "hold"
	case ActionMessageSplice:
		return "splice"
	case ActionUnmappable:
		return "unmappable"
	default:
		return "unknown"
	}
}

// Action is a decoded script token.
//
// Only the fields relevant to Kind are set:
//   - ActionLiteral: Rune
//   - ActionKeyTap: Key
//   - ActionKeyHold: Key, Hold
//   - ActionMessageSplice: Index (0-based into the message table)
//   - ActionUnmappable: Reason
type Action struct {
	Kind   ActionKind
	Rune   rune
	Key    NamedKey
	Hold   time.Duration
	Index  int
	Reason string
}

// Literal returns the action that types r
func Literal(r rune) Action {
	return Action{Kind: ActionLiteral, Rune: r}
}

// KeyTap returns the action that taps k
func KeyTap(k NamedKey) Action {
	return Action{Kind: ActionKeyTap, Key: k}
}

// KeyHold returns the action that holds k for d
func KeyHold(k NamedKey, d time.Duration) Action {
	return Action{Kind: ActionKeyHold, Key: k, Hold: d}
}

// MessageSplice returns the action that splices in message table entry index (0-based)
func MessageSplice(index int) Action {
	return Action{Kind: ActionMessageSplice, Index: index}
}

// Unmappable returns an action describing a directive that could not be resolved
func Unmappable(reason string) Action {
	return Action{Kind: ActionUnmappable, Reason: reason}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionLiteral:
		return fmt.Sprintf("literal(%q)", a.Rune)
	case ActionKeyTap:
		return fmt.Sprintf("tap(%s)", a.Key)
	case ActionKeyHold:
		return fmt.Sprintf("hold(%s, %dms)", a.Key, a.Hold.Milliseconds())
	case ActionMessageSplice:
		return fmt.Sprintf("splice(#%d)", a.Index+1)
	case ActionUnmappable:
		return fmt.Sprintf("unmappable(%s)", a.Reason)
	default:
		return "unknown"
	}
}

// KeyMapper resolves a literal character to the key that produces it.
//
// The second return value is false when the character has no key, in which
// case the interpreter logs it and moves on without emitting any key event.
type KeyMapper interface {
	MapRune(r rune) (NamedKey, bool)
}

// Injector performs the actual press-down and press-up of a key.
//
// Each call may fail independently. Failures are logged and recorded as
// stumbles; they never abort a run.
type Injector interface {
	PressDown(k NamedKey) error
	PressUp(k NamedKey) error
}

// Observer receives human-readable progress and diagnostic lines.
//
// Observe is fire-and-forget: the caller owns no buffering or persistence.
type Observer interface {
	Observe(line string)
}

// ObserverFunc adapts a plain function to the Observer interface
type ObserverFunc func(line string)

// Observe implements Observer
func (f ObserverFunc) Observe(line string) {
	f(line)
}

type nopObserver struct{}

func (nopObserver) Observe(string) {}
