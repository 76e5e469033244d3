package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// One colour per form field
	ScriptLabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Width(16)
	StartDelayLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Width(16)
	LoopDelayLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Width(16)
	LoopsLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Width(16)
	FocusMarkStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)

	// Log line colours, by tag
	LogSimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	LogInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	LogErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	LogDebugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	RunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	IdleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// styleForLine picks a colour from the line's tag
func styleForLine(line string) lipgloss.Style {
	tag := line
	if i := indexColon(line); i >= 0 {
		tag = line[:i]
	}

	switch tag {
	case "WARN":
		return LogWarnStyle
	case "ERROR":
		return LogErrorStyle
	case "INFO", "HTTP", "TIP":
		return LogInfoStyle
	case "DEBUG", "DRY":
		return LogDebugStyle
	case "F1", "F2", "F3":
		return LogKeyStyle
	default:
		return LogSimStyle
	}
}

func indexColon(s string) int {
	for i := 0; i < len(s) && i < 8; i++ {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
