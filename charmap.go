package teleprompter

import "unicode"

// DefaultKeyMapper maps literal script characters to keys.
//
// Newlines and carriage returns become Enter, a space becomes Space and any
// other printable character becomes a rune key. Control characters (tab,
// escape, etc.) and non-printable runes are unmappable.
type DefaultKeyMapper struct{}

// MapRune implements KeyMapper
func (DefaultKeyMapper) MapRune(r rune) (NamedKey, bool) {
	switch r {
	case '\n', '\r':
		return Key(KeyEnter), true
	case ' ':
		return Key(KeySpace), true
	}
	if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
		return NamedKey{}, false
	}
	return RuneKey(r), true
}
