package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/teranos/teleprompter/journal"
)

// LogPanelModel shows the tail of the journal, newest line at the bottom
type LogPanelModel struct {
	journal  *journal.Journal
	viewport viewport.Model
	width    int
	height   int
}

// NewLogPanelModel creates a log panel over j
func NewLogPanelModel(j *journal.Journal) LogPanelModel {
	return LogPanelModel{
		journal:  j,
		viewport: viewport.New(80, 10),
	}
}

// SetSize sets the available dimensions, border included
func (m *LogPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// border takes 2 lines and 2 columns, the title one more line
	m.viewport.Width = max(w-2, 1)
	m.viewport.Height = max(h-3, 1)
	m.Refresh()
}

// Refresh reloads the journal and scrolls to the bottom
func (m *LogPanelModel) Refresh() {
	entries := m.journal.Tail(-1)
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = styleForLine(e.Line).Render(e.String())
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders the log panel
func (m LogPanelModel) View() string {
	content := m.viewport.View()
	if m.journal.Len() == 0 {
		content = "No log lines yet"
	}

	return BorderStyle.
		Width(max(m.width-2, 1)).
		Height(max(m.height-2, 1)).
		Render(TitleStyle.Render("LOG") + "\n" + content)
}
