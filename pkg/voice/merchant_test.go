package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{name: "trailing relative day", transcript: "I paid 150 AED for groceries at Carrefour yesterday", want: "Carrefour"},
		{name: "cut at connector", transcript: "coffee at Starbucks for 20 dirhams", want: "Starbucks"},
		{name: "ampersand", transcript: "bought shoes from Marks & Spencer on sale", want: "Marks & Spencer"},
		{name: "multi-word", transcript: "dinner at Olive Garden last night", want: "Olive Garden"},
		{name: "capitalized payee", transcript: "sent 50 dirhams to Ahmed", want: "Ahmed"},
		{name: "paid to payee", transcript: "paid to Ahmed 50 dirhams", want: "Ahmed"},
		{name: "paid payee", transcript: "I paid Fatima 20 for the cake", want: "Fatima"},
		{name: "payee after a place", transcript: "went to Dubai and paid 50 to Ahmed", want: "Ahmed"},
		{name: "first word kept", transcript: "shopping at Lulu", want: "Lulu"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractMerchant(tc.transcript)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractMerchant_NotFound(t *testing.T) {
	for _, transcript := range []string{
		"I spent 50 on lunch",
		"I spent ₹20 for tea",
		"paid AED 150",
		"went to the gym",
		"I went to Dubai and spent 50",
		"at 7 pm",
		"",
	} {
		_, ok := ExtractMerchant(transcript)
		assert.False(t, ok, transcript)
	}
}
