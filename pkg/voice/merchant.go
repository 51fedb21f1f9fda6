package voice

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// merchantPatterns are tried in order; the first capture that survives
// trimming is the merchant.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:at|from)\s+([A-Za-z][A-Za-z\s&']*)`),
	// Payees: a capitalized name after "paid", or after "to" once a payment
	// verb opened the clause. "went to Dubai" names a place, not a payee.
	regexp.MustCompile(`\b(?:(?:paid|sent|transferred|gave)\s+(?:[^.,;!?]*?\s)?to|paid)\s+([A-Z][A-Za-z&']*(?:\s+[A-Z][A-Za-z&']*)*)`),
}

// merchantBreaks end a merchant span: "Carrefour for groceries" is "Carrefour".
var merchantBreaks = wordSet("for", "on", "with", "in", "using", "via", "by", "to", "paying", "spent", "when")

var relativeDayWords = []string{
	"today", "tonight", "yesterday", "morning", "afternoon", "evening", "night",
	"last", "this", "ago", "day", "days", "week", "before",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var fillerWords = []string{"the", "a", "an", "and", "my", "of", "just", "i", "we", "me"}

// merchantStopWords may trail a merchant span and are trimmed from its end.
var merchantStopWords = wordSet(slices.Concat(relativeDayWords, fillerWords, currencyTerms(), categoryTerms())...)

// ExtractMerchant returns the merchant named after "at"/"from" (or a
// capitalized payee after "paid" or "sent ... to"). Trailing stop-words are
// trimmed but the first word is always kept, so "at Carrefour" survives even
// though "carrefour" is a grocery keyword. A lone currency or filler word is not
// a merchant.
func ExtractMerchant(transcript string) (string, bool) {
	for _, pattern := range merchantPatterns {
		for _, m := range pattern.FindAllStringSubmatch(transcript, -1) {
			if merchant, ok := trimMerchant(m[1]); ok {
				return merchant, true
			}
		}
	}
	return "", false
}

func trimMerchant(span string) (string, bool) {
	words := strings.Fields(span)
	for i, w := range words {
		if i > 0 && merchantBreaks[strings.ToLower(w)] {
			words = words[:i]
			break
		}
	}
	for len(words) > 1 && merchantStopWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return "", false
	}
	if len(words) == 1 {
		w := strings.ToLower(words[0])
		if merchantBreaks[w] || isCurrencyTerm(w) || slices.Contains(fillerWords, w) || slices.Contains(relativeDayWords, w) {
			return "", false
		}
	}
	return strings.Join(words, " "), true
}

var currencyTermSet = wordSet(currencyTerms()...)

func isCurrencyTerm(w string) bool {
	return currencyTermSet[w]
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// isWord reports whether s is a single word made only of letters.
func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
