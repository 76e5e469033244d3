package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/journal"
)

// RunCmd returns a tea.Cmd that performs a run and reports it with RunDoneMsg.
// The run blocks its own goroutine; the message loop stays responsive.
func RunCmd(ctx context.Context, director *teleprompter.Director, cfg teleprompter.RunConfig) tea.Cmd {
	return func() tea.Msg {
		return RunDoneMsg{Report: director.Execute(ctx, cfg)}
	}
}

// WaitForLogCmd returns a tea.Cmd that blocks until the next journal entry
// arrives. It returns nil once the subscription is closed.
func WaitForLogCmd(entries <-chan journal.Entry) tea.Cmd {
	if entries == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-entries
		if !ok {
			return nil
		}
		return LogEntryMsg{Entry: e}
	}
}

// CaptureCmd returns a tea.Cmd that writes the journal transcript to path
func CaptureCmd(j *journal.Journal, path string) tea.Cmd {
	return func() tea.Msg {
		err := j.CaptureFile(path, journal.DefaultCaptureConfig())
		return CaptureDoneMsg{Path: path, Err: err}
	}
}
