package injectors

import (
	"errors"
	"fmt"
	"sync"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/teranos/teleprompter"
)

// ErrNoProgram is returned by a Tea injector that has nothing to send to
var ErrNoProgram = errors.New("no bubbletea program attached")

// Sender is the part of *tea.Program the Tea injector needs
type Sender interface {
	Send(msg tea.Msg)
}

// Tea drives a bubbletea program by sending it tea.KeyMsg values.
//
// Terminal programs only see whole key presses, so a key message is sent on
// the down edge and the up edge is silent. Shift, Control and Alt are tracked
// as held state and folded into the messages of the keys pressed while they
// are down. A Director releases every key before pressing the next, so the
// folding only shows when the injector is driven directly, as in
//
//	t.PressDown(teleprompter.Key(teleprompter.KeyControl))
//	t.PressDown(teleprompter.RuneKey('c')) // sends ctrl+c
//	t.PressUp(teleprompter.RuneKey('c'))
//	t.PressUp(teleprompter.Key(teleprompter.KeyControl))
//
// Example usage:
//
//	program := tea.NewProgram(model)
//	director := teleprompter.NewDirector(injectors.NewTea(program), table)
type Tea struct {
	mu      sync.Mutex
	program Sender

	shift, ctrl, alt bool
}

// NewTea creates a Tea injector sending to program
func NewTea(program Sender) *Tea {
	return &Tea{program: program}
}

// PressDown implements teleprompter.Injector
func (t *Tea) PressDown(k teleprompter.NamedKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program == nil {
		return ErrNoProgram
	}

	if k.Code.IsModifier() {
		t.setModifier(k.Code, true)
		return nil
	}

	msg, err := t.keyMsg(k)
	if err != nil {
		return err
	}
	t.program.Send(msg)
	return nil
}

// PressUp implements teleprompter.Injector
func (t *Tea) PressUp(k teleprompter.NamedKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program == nil {
		return ErrNoProgram
	}
	if k.Code.IsModifier() {
		t.setModifier(k.Code, false)
	}
	return nil
}

func (t *Tea) setModifier(c teleprompter.KeyCode, down bool) {
	switch c {
	case teleprompter.KeyShift:
		t.shift = down
	case teleprompter.KeyControl:
		t.ctrl = down
	case teleprompter.KeyAlt:
		t.alt = down
	}
}

// arrows maps arrow keys to their plain, shifted and control variants
var arrows = map[teleprompter.KeyCode][3]tea.KeyType{
	teleprompter.KeyUp:    {tea.KeyUp, tea.KeyShiftUp, tea.KeyCtrlUp},
	teleprompter.KeyDown:  {tea.KeyDown, tea.KeyShiftDown, tea.KeyCtrlDown},
	teleprompter.KeyLeft:  {tea.KeyLeft, tea.KeyShiftLeft, tea.KeyCtrlLeft},
	teleprompter.KeyRight: {tea.KeyRight, tea.KeyShiftRight, tea.KeyCtrlRight},
}

func (t *Tea) keyMsg(k teleprompter.NamedKey) (tea.KeyMsg, error) {
	msg := tea.KeyMsg{Alt: t.alt}

	if variants, ok := arrows[k.Code]; ok {
		switch {
		case t.ctrl:
			msg.Type = variants[2]
		case t.shift:
			msg.Type = variants[1]
		default:
			msg.Type = variants[0]
		}
		return msg, nil
	}

	switch k.Code {
	case teleprompter.KeyEnter:
		msg.Type = tea.KeyEnter
	case teleprompter.KeySpace:
		msg.Type = tea.KeySpace
		msg.Runes = []rune{' '}
	case teleprompter.KeyRune:
		r := k.Rune
		lower := unicode.ToLower(r)
		if t.ctrl && lower >= 'a' && lower <= 'z' {
			msg.Type = tea.KeyCtrlA + tea.KeyType(lower-'a')
			return msg, nil
		}
		if t.shift {
			r = unicode.ToUpper(r)
		}
		msg.Type = tea.KeyRunes
		msg.Runes = []rune{r}
	default:
		return msg, fmt.Errorf("no key message for %s", k)
	}

	return msg, nil
}
