package voice

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numeralPattern = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d+)?`)
	// Western (2,000,000.50) or Indian (20,00,000.50) digit grouping.
	groupedPattern = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d{1,2}(?:,\d{2})+,\d{3})(?:\.\d+)?$`)
	scaleSuffix    = regexp.MustCompile(`(?i)^\s*(k|hundreds?|thousands?|lakhs?|lacs?|crores?|millions?|billions?|trillions?)\b`)
)

type numeralTier int

const (
	tierGrouped numeralTier = iota
	tierDecimal
	tierInteger
)

type numeral struct {
	value decimal.Decimal
	tier  numeralTier
	end   int
}

// ExtractAmount finds the monetary amount in a transcript. Numerals always win
// over number words: a grouped numeral ("2,000.50") first, then a decimal
// ("2000.50"), then an integer ("2000"), each taking the first occurrence.
// Only when the transcript has no numeral at all is it handed to
// ParseNumberPhrase. A numeral followed by a scale word or "k" is scaled
// ("5 lakh", "2.5 million", "50k").
func ExtractAmount(transcript string) (decimal.Decimal, bool) {
	if n, ok := bestNumeral(transcript); ok {
		return applyScaleSuffix(n.value, transcript[n.end:]), true
	}
	return ParseNumberPhrase(transcript)
}

func bestNumeral(transcript string) (numeral, bool) {
	var (
		best  numeral
		found bool
	)
	for _, loc := range numeralPattern.FindAllStringIndex(transcript, -1) {
		for _, n := range classifyNumeral(transcript[loc[0]:loc[1]], loc[0]) {
			if !found || n.tier < best.tier {
				best, found = n, true
			}
		}
	}
	return best, found
}

// classifyNumeral sorts a raw match into its tier. A comma-separated match
// that is not valid digit grouping ("5,50") is split into separate numerals.
func classifyNumeral(raw string, offset int) []numeral {
	if strings.Contains(raw, ",") {
		if groupedPattern.MatchString(raw) {
			v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				return nil
			}
			return []numeral{{value: v, tier: tierGrouped, end: offset + len(raw)}}
		}

		var parts []numeral
		pos := offset
		for _, part := range strings.Split(raw, ",") {
			parts = append(parts, classifyNumeral(part, pos)...)
			pos += len(part) + 1
		}
		return parts
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	tier := tierInteger
	if strings.Contains(raw, ".") {
		tier = tierDecimal
	}
	return []numeral{{value: v, tier: tier, end: offset + len(raw)}}
}

// applyScaleSuffix scales a numeral by the scale words after it. "k" is a
// plain thousand; word scales go through ParseNumberPhrase so chains combine
// ("2 hundred thousand", "5 thousand 5 hundred"). The phrase ends at the first
// clause break.
func applyScaleSuffix(value decimal.Decimal, rest string) decimal.Decimal {
	m := scaleSuffix.FindStringSubmatch(rest)
	if m == nil {
		return value
	}
	if strings.EqualFold(m[1], "k") {
		return value.Mul(decimal.NewFromInt(1_000))
	}
	if i := clauseBreak(rest); i >= 0 {
		rest = rest[:i]
	}
	if v, ok := ParseNumberPhrase(value.String() + " " + rest); ok {
		return v
	}
	return value
}

func clauseBreak(s string) int {
	end := strings.IndexAny(s, ",;!?")
	if i := strings.Index(s, ". "); i >= 0 && (end < 0 || i < end) {
		end = i
	}
	return end
}
