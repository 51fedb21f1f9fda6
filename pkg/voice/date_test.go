package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDate(t *testing.T) {
	// Wednesday afternoon.
	now := time.Date(2024, time.March, 13, 15, 4, 5, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		transcript string
		want       time.Time
	}{
		{"lunch today", day(13)},
		{"drinks tonight", day(13)},
		{"coffee this morning", day(13)},
		{"at Carrefour yesterday", day(12)},
		{"dinner last night", day(12)},
		{"the day before yesterday", day(11)},
		{"3 days ago", day(10)},
		{"two days ago", day(11)},
		{"lunch a day ago", day(12)},
		{"twenty five days ago", time.Date(2024, time.February, 17, 0, 0, 0, 0, time.UTC)},
		{"366 days ago", time.Date(2023, time.March, 13, 0, 0, 0, 0, time.UTC)},
		{"taxi last friday", day(8)},
		{"last wednesday", day(6)},
		{"last week", day(6)},
	}

	for _, tc := range tests {
		t.Run(tc.transcript, func(t *testing.T) {
			got, ok := ResolveDate(tc.transcript, now)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDate_Default(t *testing.T) {
	loc := time.FixedZone("GST", 4*60*60)
	now := time.Date(2024, time.March, 13, 23, 30, 0, 0, loc)

	got, ok := ResolveDate("I spent 50 on lunch", now)
	assert.False(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 13, 0, 0, 0, 0, loc), got)
}

func TestResolveDate_DaysAgoOutOfRange(t *testing.T) {
	now := time.Date(2024, time.March, 13, 15, 4, 5, 0, time.UTC)
	today := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	for _, transcript := range []string{
		"400 days ago",
		"a trillion days ago",
		"99999999999999999999 days ago",
	} {
		got, ok := ResolveDate(transcript, now)
		assert.False(t, ok, transcript)
		assert.Equal(t, today, got, transcript)
	}
}
