//go:build linux && cgo

package injectors

import (
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
	"github.com/teranos/teleprompter"
)

// uinput needs a moment to register a new virtual device before the desktop
// listens to it
const deviceSettle = 2 * time.Second

// keyStroke is a native key code plus whether Shift must be held for it
type keyStroke struct {
	code  int
	shift bool
}

// Native presses real keys through a virtual uinput keyboard. The process
// needs write access to /dev/uinput.
type Native struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding

	// held Shift, so strokes that need it do not press it twice
	shift bool
}

// NewNative creates the virtual keyboard and waits for it to be usable
func NewNative() (*Native, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("native injector: %w", err)
	}
	time.Sleep(deviceSettle)
	return &Native{kb: kb}, nil
}

// PressDown implements teleprompter.Injector
func (n *Native) PressDown(k teleprompter.NamedKey) error {
	return n.edge(k, true)
}

// PressUp implements teleprompter.Injector
func (n *Native) PressUp(k teleprompter.NamedKey) error {
	return n.edge(k, false)
}

func (n *Native) edge(k teleprompter.NamedKey, down bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.kb.Clear()

	if k.Code.IsModifier() {
		switch k.Code {
		case teleprompter.KeyShift:
			n.shift = down
			n.kb.HasSHIFT(true)
		case teleprompter.KeyControl:
			n.kb.HasCTRL(true)
		case teleprompter.KeyAlt:
			n.kb.HasALT(true)
		}
	} else {
		stroke, ok := strokeFor(k)
		if !ok {
			return fmt.Errorf("no native key for %s", k)
		}
		n.kb.SetKeys(stroke.code)
		// a held Shift stays down on its own; only add it for the stroke
		n.kb.HasSHIFT(stroke.shift && !n.shift)
	}

	if down {
		return n.kb.Press()
	}
	return n.kb.Release()
}

func strokeFor(k teleprompter.NamedKey) (keyStroke, bool) {
	switch k.Code {
	case teleprompter.KeyUp:
		return keyStroke{code: keybd_event.VK_UP}, true
	case teleprompter.KeyDown:
		return keyStroke{code: keybd_event.VK_DOWN}, true
	case teleprompter.KeyLeft:
		return keyStroke{code: keybd_event.VK_LEFT}, true
	case teleprompter.KeyRight:
		return keyStroke{code: keybd_event.VK_RIGHT}, true
	case teleprompter.KeyEnter:
		return keyStroke{code: keybd_event.VK_ENTER}, true
	case teleprompter.KeySpace:
		return keyStroke{code: keybd_event.VK_SPACE}, true
	case teleprompter.KeyRune:
		return runeStroke(k.Rune)
	}
	return keyStroke{}, false
}

var letters = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digits = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

// US layout punctuation
var punctuation = map[rune]keyStroke{
	'`': {keybd_event.VK_SP1, false}, '~': {keybd_event.VK_SP1, true},
	'-': {keybd_event.VK_SP2, false}, '_': {keybd_event.VK_SP2, true},
	'=': {keybd_event.VK_SP3, false}, '+': {keybd_event.VK_SP3, true},
	'[': {keybd_event.VK_SP4, false}, '{': {keybd_event.VK_SP4, true},
	']': {keybd_event.VK_SP5, false}, '}': {keybd_event.VK_SP5, true},
	';': {keybd_event.VK_SP6, false}, ':': {keybd_event.VK_SP6, true},
	'\'': {keybd_event.VK_SP7, false}, '"': {keybd_event.VK_SP7, true},
	'\\': {keybd_event.VK_SP8, false}, '|': {keybd_event.VK_SP8, true},
	',': {keybd_event.VK_SP9, false}, '<': {keybd_event.VK_SP9, true},
	'.': {keybd_event.VK_SP10, false}, '>': {keybd_event.VK_SP10, true},
	'/': {keybd_event.VK_SP11, false}, '?': {keybd_event.VK_SP11, true},

	'!': {keybd_event.VK_1, true}, '@': {keybd_event.VK_2, true},
	'#': {keybd_event.VK_3, true}, '$': {keybd_event.VK_4, true},
	'%': {keybd_event.VK_5, true}, '^': {keybd_event.VK_6, true},
	'&': {keybd_event.VK_7, true}, '*': {keybd_event.VK_8, true},
	'(': {keybd_event.VK_9, true}, ')': {keybd_event.VK_0, true},
}

func runeStroke(r rune) (keyStroke, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return keyStroke{code: letters[r-'a']}, true
	case r >= 'A' && r <= 'Z':
		return keyStroke{code: letters[r-'A'], shift: true}, true
	case r >= '0' && r <= '9':
		return keyStroke{code: digits[r-'0']}, true
	}
	s, ok := punctuation[r]
	return s, ok
}
