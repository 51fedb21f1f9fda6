package voice

// MatchCurrency finds the currency named in the transcript by symbol, ISO code
// or spoken keyword. The longest matching term wins ("canadian dollars" beats
// "dollars"); equal lengths fall back to the priority list and then to table
// order. The second result is false when nothing matched.
func MatchCurrency(transcript string) (CurrencyCode, bool) {
	text := normalize(transcript)
	if text == "" {
		return "", false
	}

	best := -1
	bestLen := 0
	for i, m := range currencyMatchers {
		n := m.longestMatch(text)
		if n == 0 {
			continue
		}
		if n > bestLen || (n == bestLen && m.rank < currencyMatchers[best].rank) {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return "", false
	}
	return currencyMatchers[best].code, true
}

// DetectCurrency is MatchCurrency with a fallback. An empty or unknown
// fallback is replaced by SystemDefaultCurrency, so the result is never empty.
func DetectCurrency(transcript string, fallback CurrencyCode) CurrencyCode {
	if code, ok := MatchCurrency(transcript); ok {
		return code
	}
	return resolveDefault(fallback)
}

func resolveDefault(code CurrencyCode) CurrencyCode {
	if def, ok := LookupCurrency(string(code)); ok {
		return def.Code
	}
	return SystemDefaultCurrency
}
