package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/config"
)

// Field identifies one input of the run form
type Field int

const (
	FieldScript Field = iota
	FieldStartDelay
	FieldLoopDelay
	FieldLoops
	fieldCount
)

// numeric fields are capped so every accepted value parses
const numericCharLimit = 9

var fieldLabels = [fieldCount]string{
	FieldScript:     "Script",
	FieldStartDelay: "Start delay ms",
	FieldLoopDelay:  "Loop delay ms",
	FieldLoops:      "Loops",
}

var fieldStyles = [fieldCount]lipgloss.Style{
	FieldScript:     ScriptLabelStyle,
	FieldStartDelay: StartDelayLabelStyle,
	FieldLoopDelay:  LoopDelayLabelStyle,
	FieldLoops:      LoopsLabelStyle,
}

// FormModel is the four-field run form: script, start delay, loop delay and
// loop count. The numeric fields accept digits only.
type FormModel struct {
	inputs   [fieldCount]textinput.Model
	focus    Field
	defaults config.Config
}

// NewFormModel creates a form filled with the configured defaults, script focused
func NewFormModel(defaults config.Config) FormModel {
	f := FormModel{defaults: defaults}

	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		if Field(i) == FieldScript {
			ti.Placeholder = "hello{enter}{up:500}{message1}"
			ti.CharLimit = 0
		} else {
			ti.CharLimit = numericCharLimit
		}
		f.inputs[i] = ti
	}

	f.Reset()
	return f
}

// Reset restores every field to its default and focuses the script
func (f *FormModel) Reset() {
	f.inputs[FieldScript].SetValue("")
	f.inputs[FieldStartDelay].SetValue(strconv.FormatInt(f.defaults.StartDelayMs, 10))
	f.inputs[FieldLoopDelay].SetValue(strconv.FormatInt(f.defaults.LoopDelayMs, 10))
	f.inputs[FieldLoops].SetValue(strconv.Itoa(f.defaults.Loops))
	f.setFocus(FieldScript)
}

// Focused returns the field with keyboard focus
func (f FormModel) Focused() Field {
	return f.focus
}

// Next moves focus to the following field, wrapping around
func (f *FormModel) Next() {
	f.setFocus((f.focus + 1) % fieldCount)
}

// Prev moves focus to the previous field, wrapping around
func (f *FormModel) Prev() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

func (f *FormModel) setFocus(field Field) {
	for i := range f.inputs {
		if Field(i) == field {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	f.focus = field
}

// Value returns the text of a field
func (f FormModel) Value(field Field) string {
	return f.inputs[field].Value()
}

// SetValue replaces the text of a field
func (f *FormModel) SetValue(field Field, value string) {
	f.inputs[field].SetValue(value)
}

// Update passes key input to the focused field. Non-digit input to a
// numeric field is dropped.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && f.focus != FieldScript && !digitsOnly(key) {
		return f, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// digitsOnly reports whether key is acceptable to a numeric field: editing
// keys pass, text passes only if every rune is a digit
func digitsOnly(key tea.KeyMsg) bool {
	switch key.Type {
	case tea.KeySpace:
		return false
	case tea.KeyRunes:
		for _, r := range key.Runes {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// RunConfig reads the form into a run request. Empty numeric fields count as
// zero and out-of-range values are clamped.
func (f FormModel) RunConfig() teleprompter.RunConfig {
	return teleprompter.NewRunConfig(
		f.Value(FieldScript),
		int(parseDigits(f.Value(FieldLoops))),
		parseDigits(f.Value(FieldStartDelay)),
		parseDigits(f.Value(FieldLoopDelay)),
	).Normalize()
}

func parseDigits(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// View renders the form, one field per line
func (f FormModel) View() string {
	var b strings.Builder
	for i := range f.inputs {
		mark := "  "
		if Field(i) == f.focus {
			mark = FocusMarkStyle.Render("> ")
		}
		b.WriteString(mark)
		b.WriteString(fieldStyles[i].Render(fieldLabels[i]))
		b.WriteString(f.inputs[i].View())
		if i < len(f.inputs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// SetWidth sizes the script field to the available width
func (f *FormModel) SetWidth(w int) {
	// focus mark plus label column
	f.inputs[FieldScript].Width = max(w-2-16-1, 10)
}
