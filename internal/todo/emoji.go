package todo

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StripIconPrefix removes a decorative icon-glyph prefix from a list name.
// To Do lets users prefix list names with an emoji that is rendered as the
// list icon; the glyph is not part of the name users refer to, so it must be
// stripped before comparison and display.
//
// Leading runes that are neither letters nor digits and outside ASCII are
// dropped, along with the whitespace separating them from the name. ASCII
// punctuation and non-ASCII letters (e.g. "Łódź") are preserved.
func StripIconPrefix(name string) string {
	s := name
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r <= unicode.MaxASCII || unicode.IsLetter(r) || unicode.IsDigit(r) {
			break
		}
		s = s[size:]
	}
	if s == name {
		return name
	}
	return strings.TrimLeft(s, " \u00a0")
}
