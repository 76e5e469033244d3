package tui

import (
	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/journal"
)

// LogEntryMsg carries one journal entry into the message loop
type LogEntryMsg struct {
	Entry journal.Entry
}

// RunDoneMsg signals that a run has finished, completed or not
type RunDoneMsg struct {
	Report *teleprompter.RunReport
}

// CaptureDoneMsg reports the outcome of an F3 transcript capture
type CaptureDoneMsg struct {
	Path string
	Err  error
}
