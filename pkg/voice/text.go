package voice

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// normalize composes s to NFC, lowercases it and collapses whitespace runs to
// a single space. NFC leaves compatibility characters such as U+20A8 (₨)
// untouched, so every symbol variant still has to be listed in the tables.
func normalize(s string) string {
	s = norm.NFC.String(s)
	// Casers carry state and must not be shared between goroutines.
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}

// containsTerm reports whether term occurs in text without touching another
// letter. Digits may touch a term, so "$50", "50usd" and "rs.500" all match,
// while "franc" does not match inside "france". Both arguments must already be
// normalized.
func containsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		if letterBounded(text, start, start+len(term)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func letterBounded(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:end])
	if unicode.IsLetter(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(text[start:end])
	if unicode.IsLetter(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(next) {
			return false
		}
	}
	return true
}
