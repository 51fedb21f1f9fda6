package voice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "got %s, want %s", got, want)
}

func TestParseNumberPhrase(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "two thousand", text: "two thousand", want: "2000"},
		{name: "thousand and hundred", text: "two thousand five hundred", want: "2500"},
		{name: "lakh and thousand", text: "five lakh fifty thousand", want: "550000"},
		{name: "crore", text: "one crore", want: "10000000"},
		{name: "crore and lakh", text: "two crore fifty lakh", want: "25000000"},
		{name: "fraction with scale", text: "two point five million", want: "2500000"},
		{name: "fraction", text: "three point two five", want: "3.25"},
		{name: "bare point", text: "point five", want: "0.5"},
		{name: "hundreds tens ones", text: "nine hundred ninety nine", want: "999"},
		{name: "bare thousand", text: "thousand", want: "1000"},
		{name: "bare hundred", text: "hundred", want: "100"},
		{name: "article", text: "a hundred", want: "100"},
		{name: "connector", text: "one hundred and twenty", want: "120"},
		{name: "hyphenated", text: "twenty-five", want: "25"},
		{name: "consecutive large scales", text: "thousand million", want: "1000000000"},
		{name: "hundred thousand", text: "hundred thousand", want: "100000"},
		{name: "numeric token", text: "2 thousand", want: "2000"},
		{name: "noisy transcript", text: "I just spent two thousand dirhams on groceries", want: "2000"},
		{name: "first run only", text: "five dollars for two coffees", want: "5"},
		{name: "mixed case", text: "Ten Lakh", want: "1000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumberPhrase(tc.text)
			require.True(t, ok)
			assertDecimal(t, tc.want, got)
		})
	}
}

func TestParseNumberPhrase_NoNumber(t *testing.T) {
	for _, text := range []string{"", "no numbers here", "and a an", "coffee at the cafe"} {
		_, ok := ParseNumberPhrase(text)
		assert.False(t, ok, text)
	}
}
