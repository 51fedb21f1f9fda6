package voice

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ScaleUnit is a number word that multiplies the value accumulated before it.
type ScaleUnit struct {
	Words      []string
	Multiplier decimal.Decimal
	// Large scales close the current group and add it to the running total.
	// "hundred" only multiplies the current group.
	Large bool
}

var scaleUnits = []ScaleUnit{
	{Words: []string{"hundred", "hundreds"}, Multiplier: decimal.NewFromInt(100)},
	{Words: []string{"thousand", "thousands"}, Multiplier: decimal.NewFromInt(1_000), Large: true},
	{Words: []string{"lakh", "lakhs", "lac", "lacs"}, Multiplier: decimal.NewFromInt(100_000), Large: true},
	{Words: []string{"crore", "crores"}, Multiplier: decimal.NewFromInt(10_000_000), Large: true},
	{Words: []string{"million", "millions"}, Multiplier: decimal.NewFromInt(1_000_000), Large: true},
	{Words: []string{"billion", "billions"}, Multiplier: decimal.NewFromInt(1_000_000_000), Large: true},
	{Words: []string{"trillion", "trillions"}, Multiplier: decimal.New(1, 12), Large: true},
}

var numberWords = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// connectors may sit inside a number phrase without ending it.
var connectors = map[string]bool{"and": true, "a": true, "an": true}

var scaleIndex = indexScales(scaleUnits)

func indexScales(units []ScaleUnit) map[string]ScaleUnit {
	index := make(map[string]ScaleUnit)
	for _, u := range units {
		for _, w := range u.Words {
			index[w] = u
		}
	}
	return index
}

// lookupScale returns the scale unit for a single word.
func lookupScale(word string) (ScaleUnit, bool) {
	u, ok := scaleIndex[strings.ToLower(word)]
	return u, ok
}

var one = decimal.NewFromInt(1)

// ParseNumberPhrase reads the first run of English number words in text and
// returns its value. Surrounding words are ignored, so the whole transcript can
// be passed in. Lakh/crore and million/billion scales may be mixed. A scale word
// with no number before it counts as one of that scale ("thousand" is 1000).
//
// A large scale word directly after another ("thousand million") multiplies the
// total accumulated so far. After "point" the following number words are read
// as decimal digits; a scale word after them scales the fractional group
// ("two point five million" is 2500000) and ends the phrase.
//
// The second result is false when text contains no number words.
func ParseNumberPhrase(text string) (decimal.Decimal, bool) {
	tokens := phraseTokens(text)

	var (
		total     = decimal.Zero
		group     = decimal.Zero
		started   bool
		lastLarge bool
	)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if connectors[tok] {
			continue
		}

		if tok == "point" {
			frac, n := fractionDigits(tokens[i+1:])
			if n == 0 {
				if started {
					break
				}
				continue
			}
			value := group.Add(frac)
			if next := i + 1 + n; next < len(tokens) {
				if u, ok := lookupScale(tokens[next]); ok {
					value = value.Mul(u.Multiplier)
				}
			}
			return total.Add(value), true
		}

		if v, ok := numberWords[tok]; ok {
			group = group.Add(decimal.NewFromInt(v))
			started, lastLarge = true, false
			continue
		}

		if u, ok := lookupScale(tok); ok {
			switch {
			case !u.Large:
				group = atLeastOne(group).Mul(u.Multiplier)
			case lastLarge && group.IsZero():
				total = total.Mul(u.Multiplier)
			default:
				total = total.Add(atLeastOne(group).Mul(u.Multiplier))
				group = decimal.Zero
			}
			started, lastLarge = true, u.Large
			continue
		}

		if v, err := decimal.NewFromString(tok); err == nil {
			group = group.Add(v)
			started, lastLarge = true, false
			continue
		}

		if started {
			break
		}
	}

	if !started {
		return decimal.Zero, false
	}
	return total.Add(group), true
}

func atLeastOne(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return one
	}
	return d
}

// fractionDigits reads number words after "point" as a digit string. "five"
// gives 5, "twenty five" and "fifty" give two digits each. It returns the
// fraction (0.5 for "five") and how many tokens were consumed.
func fractionDigits(tokens []string) (decimal.Decimal, int) {
	var digits strings.Builder
	n := 0
	for n < len(tokens) {
		tok := tokens[n]
		v, ok := numberWords[tok]
		if !ok {
			if isDigits(tok) {
				digits.WriteString(tok)
				n++
				continue
			}
			break
		}
		if v >= 20 && v%10 == 0 && n+1 < len(tokens) {
			if unit, ok := numberWords[tokens[n+1]]; ok && unit > 0 && unit < 10 {
				v += unit
				n++
			}
		}
		digits.WriteString(decimal.NewFromInt(v).String())
		n++
	}
	if digits.Len() == 0 {
		return decimal.Zero, 0
	}
	frac, err := decimal.NewFromString("0." + digits.String())
	if err != nil {
		return decimal.Zero, 0
	}
	return frac, n
}

// phraseTokens lowercases text, splits hyphenated compounds and drops
// punctuation other than the decimal point inside numerals.
func phraseTokens(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.':
			return r
		default:
			return ' '
		}
	}, normalize(text))

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if _, err := decimal.NewFromString(f); err != nil {
			f = strings.Trim(f, ".")
		}
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
