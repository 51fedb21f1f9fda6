// Package voice turns a speech-to-text transcript into a structured expense.
//
// Every stage (amount, currency, category, merchant, date) rescans the full
// transcript on its own, so each one can be used and tested in isolation.
// Nothing in this package performs I/O or mutates shared state: the reference
// tables are built once at init and only read afterwards.
package voice

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source tells how a ParsedExpense was produced.
type Source string

const (
	// SourceTranscript is free text run through every parsing stage.
	SourceTranscript Source = "transcript"
	// SourceIntent is a deep-link call carrying typed parameters.
	SourceIntent Source = "intent"
)

// ParsedExpense is the result of interpreting one voice command.
// Currency and Category are always set; Amount and Merchant may be missing.
type ParsedExpense struct {
	Amount           *decimal.Decimal `json:"amount"`
	Currency         CurrencyCode     `json:"currency"`
	CurrencyDetected bool             `json:"currencyDetected"`
	Category         Category         `json:"category"`
	Merchant         string           `json:"merchant,omitempty"`
	Date             time.Time        `json:"date"`
	Confidence       float64          `json:"confidence"`
	Transcript       string           `json:"transcript"`
	Source           Source           `json:"source"`
}

// HasAmount reports whether an amount was extracted.
func (p ParsedExpense) HasAmount() bool {
	return p.Amount != nil
}

// HasMerchant reports whether a merchant was extracted.
func (p ParsedExpense) HasMerchant() bool {
	return p.Merchant != ""
}

// Decide applies the caller's auto-save threshold. An expense without an
// amount always needs confirmation, whatever its score.
func (p ParsedExpense) Decide(threshold float64) Decision {
	if !p.HasAmount() {
		return Confirm
	}
	return Decide(p.Confidence, threshold)
}

func (p ParsedExpense) signals(categorySupplied bool) Signals {
	return Signals{
		AmountFound:      p.HasAmount(),
		CurrencyDetected: p.CurrencyDetected,
		CategoryMatched:  categorySupplied || p.Category != Other,
		MerchantFound:    p.HasMerchant(),
	}
}
