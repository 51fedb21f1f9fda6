package voice

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxDaysAgo bounds "N days ago"; larger counts are ignored.
const maxDaysAgo = 366

var (
	daysAgoPattern  = regexp.MustCompile(`\b((?:[a-z]+\s+)?[a-z0-9]+)\s+days?\s+ago\b`)
	lastWeekday     = regexp.MustCompile(`\blast\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	relativeOffsets = []struct {
		phrase string
		days   int
	}{
		// Longer phrases first: "day before yesterday" contains "yesterday".
		{"day before yesterday", 2},
		{"yesterday", 1},
		{"last night", 1},
		{"last week", 7},
		{"today", 0},
		{"tonight", 0},
		{"this morning", 0},
		{"this afternoon", 0},
		{"this evening", 0},
	}
	weekdays = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
		"saturday": time.Saturday,
	}
)

// ResolveDate maps relative day words in the transcript to a calendar date,
// counted back from now. The result is midnight in now's location. When the
// transcript names no day, it returns today and false.
func ResolveDate(transcript string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	text := normalize(transcript)

	if m := daysAgoPattern.FindStringSubmatch(text); m != nil {
		if n, ok := ParseNumberPhrase(m[1]); ok && n.IsInteger() && n.IsPositive() {
			if n.GreaterThan(decimal.NewFromInt(maxDaysAgo)) {
				return today, false
			}
			return today.AddDate(0, 0, -int(n.IntPart())), true
		}
		if words := strings.Fields(m[1]); words[len(words)-1] == "a" {
			return today.AddDate(0, 0, -1), true
		}
	}

	if m := lastWeekday.FindStringSubmatch(text); m != nil {
		back := int(today.Weekday()-weekdays[m[1]]+7) % 7
		if back == 0 {
			back = 7
		}
		return today.AddDate(0, 0, -back), true
	}

	for _, rel := range relativeOffsets {
		if containsTerm(text, rel.phrase) {
			return today.AddDate(0, 0, -rel.days), true
		}
	}
	return today, false
}
