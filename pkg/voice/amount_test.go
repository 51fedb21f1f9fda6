package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{name: "western grouping", transcript: "I spent 2,000.50 on groceries", want: "2000.50"},
		{name: "indian grouping", transcript: "paid 1,00,000 rupees for rent", want: "100000"},
		{name: "grouped beats earlier integer", transcript: "spent 40 then 2,500", want: "2500"},
		{name: "decimal beats earlier integer", transcript: "2 coffees for 12.5 dirhams", want: "12.5"},
		{name: "first integer", transcript: "20 dollars and 30 cents", want: "20"},
		{name: "numeral beats words", transcript: "two thousand or maybe 1500", want: "1500"},
		{name: "symbol prefix", transcript: "I spent ₹20 for tea", want: "20"},
		{name: "dotted prefix", transcript: "rs.500 at the pharmacy", want: "500"},
		{name: "k suffix", transcript: "50k on rent", want: "50000"},
		{name: "lakh suffix", transcript: "5 lakh for the car", want: "500000"},
		{name: "decimal with million", transcript: "2.5 million dollars", want: "2500000"},
		{name: "chained scales", transcript: "I spent 2 hundred thousand rupees on rent", want: "200000"},
		{name: "scale then numeral", transcript: "5 thousand 5 hundred dirhams for the sofa", want: "5500"},
		{name: "numeral and words", transcript: "paid 3 lakh fifty thousand for the bike", want: "350000"},
		{name: "scale stops at clause break", transcript: "5 thousand, 2 of them for rent", want: "5000"},
		{name: "unit is not a suffix", transcript: "bought 2 kg of apples", want: "2"},
		{name: "number words", transcript: "I just spent two thousand dirhams on groceries", want: "2000"},
		{name: "lakh words", transcript: "five lakh rupees for the car", want: "500000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractAmount(tc.transcript)
			require.True(t, ok)
			assertDecimal(t, tc.want, got)
		})
	}
}

func TestExtractAmount_NotFound(t *testing.T) {
	_, ok := ExtractAmount("coffee at starbucks")
	assert.False(t, ok)
}
