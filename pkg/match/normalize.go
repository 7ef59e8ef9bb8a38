package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize projects a disease name onto its matching form: NFKC-normalized,
// lower-cased, punctuation replaced with spaces, whitespace collapsed and
// trimmed. The result is used only for matching and is never persisted.
// Normalize is pure and idempotent.
func Normalize(name string) string {
	s := norm.NFKC.String(name)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
