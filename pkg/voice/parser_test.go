package voice

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 13, 15, 4, 5, 0, time.UTC)

func testParser(opts ...Option) *Parser {
	return New(append([]Option{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func TestParser_EndToEnd(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		fallback   CurrencyCode
		amount     string
		currency   CurrencyCode
		category   Category
		merchant   string
		date       time.Time
		confidence float64
	}{
		{
			name:       "number words and dirhams",
			transcript: "I just spent two thousand dirhams on groceries",
			fallback:   AED,
			amount:     "2000",
			currency:   AED,
			category:   Grocery,
			date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			confidence: 0.9,
		},
		{
			name:       "rupee sign overrides default",
			transcript: "I spent ₹20 for tea",
			fallback:   USD,
			amount:     "20",
			currency:   INR,
			category:   FoodAndDining,
			date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			confidence: 0.9,
		},
		{
			name:       "every field",
			transcript: "I paid 150 AED for groceries at Carrefour yesterday",
			fallback:   USD,
			amount:     "150",
			currency:   AED,
			category:   Grocery,
			merchant:   "Carrefour",
			date:       time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
			confidence: 1,
		},
		{
			name:       "default currency",
			transcript: "I spent 50 for shopping",
			fallback:   INR,
			amount:     "50",
			currency:   INR,
			category:   Shopping,
			date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			confidence: 0.7,
		},
		{
			name:       "lakh without category",
			transcript: "five lakh rupees for the car",
			fallback:   AED,
			amount:     "500000",
			currency:   INR,
			category:   Other,
			date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			confidence: 0.7,
		},
		{
			name:       "won as a verb",
			transcript: "I spent 50 on lunch after we won the match",
			fallback:   INR,
			amount:     "50",
			currency:   INR,
			category:   FoodAndDining,
			date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			confidence: 0.7,
		},
		{
			name:       "place is not a payee",
			transcript: "I went to Dubai and spent 50 dirhams on lunch",
			fallback:   USD,
			amount:     "50",
			currency:   AED,
			category:   FoodAndDining,
			date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			confidence: 0.9,
		},
	}

	p := testParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := p.ParseRequest(Request{Transcript: tc.transcript, DefaultCurrency: tc.fallback})

			require.True(t, got.HasAmount())
			assertDecimal(t, tc.amount, *got.Amount)
			assert.Equal(t, tc.currency, got.Currency)
			assert.Equal(t, tc.category, got.Category)
			assert.Equal(t, tc.merchant, got.Merchant)
			assert.Equal(t, tc.date, got.Date)
			assert.Equal(t, tc.confidence, got.Confidence)
			assert.Equal(t, tc.transcript, got.Transcript)
			assert.Equal(t, SourceTranscript, got.Source)
		})
	}
}

func TestParser_NoAmount(t *testing.T) {
	got := testParser(WithDefaultCurrency(GBP)).Parse("coffee at Starbucks")

	assert.False(t, got.HasAmount())
	assert.Equal(t, GBP, got.Currency)
	assert.False(t, got.CurrencyDetected)
	assert.Equal(t, FoodAndDining, got.Category)
	assert.Equal(t, "Starbucks", got.Merchant)
	assert.Equal(t, 0.3, got.Confidence)
	assert.Equal(t, Confirm, got.Decide(0.1))
}

func TestParser_EmptyTranscript(t *testing.T) {
	got := testParser().Parse("")

	assert.False(t, got.HasAmount())
	assert.Equal(t, SystemDefaultCurrency, got.Currency)
	assert.Equal(t, Other, got.Category)
	assert.Empty(t, got.Merchant)
	assert.Zero(t, got.Confidence)
}

func TestParser_Options(t *testing.T) {
	assert.Equal(t, SystemDefaultCurrency, New().DefaultCurrency())
	assert.Equal(t, EUR, New(WithDefaultCurrency("eur")).DefaultCurrency())
	assert.Equal(t, SystemDefaultCurrency, New(WithDefaultCurrency("nope")).DefaultCurrency())

	// A per-request default beats the parser's.
	got := New(WithDefaultCurrency(EUR)).ParseRequest(Request{Transcript: "50 on lunch", DefaultCurrency: INR})
	assert.Equal(t, INR, got.Currency)

	// So does a per-request clock.
	now := time.Date(2025, time.January, 2, 9, 0, 0, 0, time.UTC)
	got = testParser().ParseRequest(Request{Transcript: "taxi yesterday", Now: now})
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), got.Date)
}

func TestParser_Idempotent(t *testing.T) {
	p := testParser()
	transcript := "I paid 150 AED for groceries at Carrefour yesterday"
	assert.Equal(t, p.Parse(transcript), p.Parse(transcript))
}

func TestParser_Concurrent(t *testing.T) {
	p := testParser()
	transcript := "dinner at Olive Garden for two thousand five hundred rupees"
	want := p.Parse(transcript)

	var wg sync.WaitGroup
	results := make([]ParsedExpense, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Parse(transcript)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestParser_ParseIntent(t *testing.T) {
	amount := decimal.RequireFromString("42.50")

	t.Run("typed fields", func(t *testing.T) {
		got := testParser().ParseIntent(Intent{Amount: &amount, Currency: "usd", Category: "food", Merchant: " Subway "})

		require.True(t, got.HasAmount())
		assertDecimal(t, "42.50", *got.Amount)
		assert.Equal(t, USD, got.Currency)
		assert.True(t, got.CurrencyDetected)
		assert.Equal(t, FoodAndDining, got.Category)
		assert.Equal(t, "Subway", got.Merchant)
		assert.Equal(t, 1.0, got.Confidence)
		assert.Equal(t, SourceIntent, got.Source)
	})

	t.Run("supplied other counts as a category", func(t *testing.T) {
		got := testParser().ParseIntent(Intent{Amount: &amount, Currency: "AED", Category: "Other"})
		assert.Equal(t, Other, got.Category)
		assert.Equal(t, 0.9, got.Confidence)
	})

	t.Run("missing fields come from the transcript", func(t *testing.T) {
		got := testParser().ParseIntent(Intent{Currency: "bogus", Transcript: "20 euros for a movie"})

		require.True(t, got.HasAmount())
		assertDecimal(t, "20", *got.Amount)
		assert.Equal(t, EUR, got.Currency)
		assert.Equal(t, Entertainment, got.Category)
		assert.Equal(t, 0.9, got.Confidence)
	})

	t.Run("transcript only matches Parse", func(t *testing.T) {
		p := testParser()
		transcript := "I spent ₹20 for tea"
		fromIntent := p.ParseIntent(Intent{Transcript: transcript})
		fromText := p.Parse(transcript)
		fromIntent.Source = SourceTranscript
		assert.Equal(t, fromText, fromIntent)
	})
}
