package teleprompter

import "fmt"

// KeyCode identifies a logical key independent of any native representation.
// Printable characters use KeyRune with the character stored in NamedKey.Rune.
type KeyCode uint8

const (
	// KeyNone represents no key
	KeyNone KeyCode = iota

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	KeyEnter
	KeySpace

	// Modifiers
	KeyShift
	KeyControl
	KeyAlt

	// KeyRune is used for printable characters (letters, digits, punctuation)
	KeyRune
)

// String returns a human-readable name for the key code
func (c KeyCode) String() string {
	switch c {
	case KeyNone:
		return "None"
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	case KeyEnter:
		return "Enter"
	case KeySpace:
		return "Space"
	case KeyShift:
		return "Shift"
	case KeyControl:
		return "Control"
	case KeyAlt:
		return "Alt"
	case KeyRune:
		return "Rune"
	default:
		return fmt.Sprintf("KeyCode(%d)", c)
	}
}

// IsModifier reports whether the code is Shift, Control or Alt
func (c KeyCode) IsModifier() bool {
	return c == KeyShift || c == KeyControl || c == KeyAlt
}

// NamedKey is a stateless key value. Rune is only meaningful for KeyRune.
type NamedKey struct {
	Code KeyCode
	Rune rune
}

// Key returns the NamedKey for a non-rune key code
func Key(c KeyCode) NamedKey {
	return NamedKey{Code: c}
}

// RuneKey returns the NamedKey for a printable character
func RuneKey(r rune) NamedKey {
	return NamedKey{Code: KeyRune, Rune: r}
}

func (k NamedKey) String() string {
	if k.Code == KeyRune {
		return fmt.Sprintf("'%c'", k.Rune)
	}
	return k.Code.String()
}

// keyword is a directive name and the key it stands for
type keyword struct {
	name string
	code KeyCode
}

// keywords lists the directive names in matching priority order.
// The order is part of the scripting language and must not change.
var keywords = []keyword{
	{"up", KeyUp},
	{"down", KeyDown},
	{"left", KeyLeft},
	{"right", KeyRight},
	{"enter", KeyEnter},
	{"shift", KeyShift},
	{"ctrl", KeyControl},
	{"alt", KeyAlt},
	{"space", KeySpace},
}

// keywordCodes is the lookup built once from keywords
var keywordCodes = func() map[string]KeyCode {
	m := make(map[string]KeyCode, len(keywords))
	for _, kw := range keywords {
		m[kw.name] = kw.code
	}
	return m
}()

// longestKeyword bounds how far the scanner looks for a keyword terminator
var longestKeyword = func() int {
	n := 0
	for _, kw := range keywords {
		if len(kw.name) > n {
			n = len(kw.name)
		}
	}
	return n
}()

// LookupKeyword returns the key code for an exact, case-sensitive directive name
func LookupKeyword(name string) (KeyCode, bool) {
	c, ok := keywordCodes[name]
	return c, ok
}

// Keywords returns the directive names in priority order
func Keywords() []string {
	names := make([]string, len(keywords))
	for i, kw := range keywords {
		names[i] = kw.name
	}
	return names
}
