// Package tui is the interactive front end: a run form on top, the live log
// below.
//
//	Tab / Shift+Tab   move between fields
//	Enter             start a run with the form values
//	F1                reset the form to defaults
//	F2                stop the run in progress
//	F3                save the log as a PNG transcript
//	Ctrl+C            quit
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/config"
	"github.com/teranos/teleprompter/journal"
)

// DefaultCapturePath is where F3 writes the transcript
const DefaultCapturePath = "teleprompter.png"

// lines used by the title, form, status bar, help and spacing
const chromeHeight = 1 + 4 + 1 + 1 + 2

// AppModel is the top-level bubbletea model
type AppModel struct {
	ctx      context.Context
	director *teleprompter.Director
	journal  *journal.Journal

	form FormModel
	log  LogPanelModel

	entries     <-chan journal.Entry
	unsubscribe func()

	running     bool
	cancelRun   context.CancelFunc // cancels the active run's context
	last        *teleprompter.RunReport
	capturePath string

	width, height int
}

// NewAppModel creates the app. The context bounds every run it starts.
func NewAppModel(ctx context.Context, director *teleprompter.Director, j *journal.Journal, defaults config.Config) AppModel {
	entries, unsubscribe := j.Subscribe(256)

	return AppModel{
		ctx:         ctx,
		director:    director,
		journal:     j,
		form:        NewFormModel(defaults),
		log:         NewLogPanelModel(j),
		entries:     entries,
		unsubscribe: unsubscribe,
		capturePath: DefaultCapturePath,
		width:       80,
		height:      24,
	}
}

// WithCapturePath sets where F3 writes the transcript
func (m AppModel) WithCapturePath(path string) AppModel {
	if path != "" {
		m.capturePath = path
	}
	return m
}

// Init implements tea.Model
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, WaitForLogCmd(m.entries))
}

// Update implements tea.Model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.form.SetWidth(msg.Width)
		m.log.SetSize(msg.Width, max(msg.Height-chromeHeight, 5))
		return m, nil

	case LogEntryMsg:
		m.log.Refresh()
		return m, WaitForLogCmd(m.entries)

	case RunDoneMsg:
		m.endRun()
		m.running = false
		m.last = msg.Report
		return m, nil

	case CaptureDoneMsg:
		if msg.Err != nil {
			m.journal.Logf("WARN", "F3: capture failed: %v", msg.Err)
		} else {
			m.journal.Logf("F3", "Transcript saved to %s", msg.Path)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.endRun()
		m.director.Stop()
		m.unsubscribe()
		return m, tea.Quit

	case tea.KeyTab:
		m.form.Next()
		return m, nil

	case tea.KeyShiftTab:
		m.form.Prev()
		return m, nil

	case tea.KeyEnter:
		if m.running {
			m.journal.Logf("INFO", "A run is already in progress; F2 stops it")
			return m, nil
		}
		runCtx, cancel := context.WithCancel(m.ctx)
		m.running = true
		m.cancelRun = cancel
		return m, RunCmd(runCtx, m.director, m.form.RunConfig())

	case tea.KeyF1:
		m.form.Reset()
		m.journal.Logf("F1", "All fields reset to defaults.")
		return m, nil

	case tea.KeyF2:
		m.journal.Observe(m.stopLine())
		// the latch alone is reset if the run has not reached Execute yet
		if m.cancelRun != nil {
			m.cancelRun()
		}
		m.director.Stop()
		return m, nil

	case tea.KeyF3:
		return m, CaptureCmd(m.journal, m.capturePath)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m *AppModel) endRun() {
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}
}

// stopLine describes when a stop request arrived
func (m AppModel) stopLine() string {
	if !m.running {
		return "F2: Stop requested => Will abort typing if in progress."
	}
	p := m.director.Progress()
	if p.Loop == 0 {
		return "F2 pressed => STOP requested (before we start typing)"
	}
	return fmt.Sprintf("F2 pressed => STOP requested (loop %d/%d)", p.Loop, p.Loops)
}

// Running reports whether the app started a run that has not finished
func (m AppModel) Running() bool {
	return m.running
}

// LastReport returns the report of the most recent finished run
func (m AppModel) LastReport() *teleprompter.RunReport {
	return m.last
}

// Form returns the run form
func (m AppModel) Form() FormModel {
	return m.form
}

// View implements tea.Model
func (m AppModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("teleprompter"))
	b.WriteString("\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("[Enter => Type, Tab => Switch, F1 => Reset, F2 => Stop, F3 => Capture, Ctrl+C => Quit]"))

	return b.String()
}

func (m AppModel) statusView() string {
	var state string
	if m.running {
		p := m.director.Progress()
		if p.Loop == 0 {
			state = RunningStyle.Render("waiting to start")
		} else {
			state = RunningStyle.Render(fmt.Sprintf("typing loop %d/%d", p.Loop, p.Loops))
		}
	} else {
		state = IdleStyle.Render("idle")
	}

	parts := []string{state}
	if m.last != nil {
		outcome := "completed"
		if m.last.Cancelled {
			outcome = fmt.Sprintf("stopped at loop %d", m.last.CancelledAt)
		} else if m.last.Err != nil {
			outcome = "rejected"
		}
		parts = append(parts, fmt.Sprintf("last run %s (%s)", outcome, m.last.Summary))
	}

	return StatusBarStyle.Width(max(m.width, 1)).Render(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  |  ")))
}
