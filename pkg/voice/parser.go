package voice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parser turns transcripts into expenses. It holds no mutable state and is
// safe for concurrent use.
type Parser struct {
	defaultCurrency CurrencyCode
	now             func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithDefaultCurrency sets the currency used when a transcript names none.
// Unknown codes are replaced by SystemDefaultCurrency.
func WithDefaultCurrency(code CurrencyCode) Option {
	return func(p *Parser) {
		p.defaultCurrency = resolveDefault(code)
	}
}

// WithClock sets the reference clock for relative dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a Parser using SystemDefaultCurrency and the wall clock unless
// overridden.
func New(opts ...Option) *Parser {
	p := &Parser{
		defaultCurrency: SystemDefaultCurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultCurrency returns the parser's fallback currency.
func (p *Parser) DefaultCurrency() CurrencyCode {
	return p.defaultCurrency
}

// Request is a single parse with per-call overrides. Zero fields use the
// parser's configuration.
type Request struct {
	Transcript      string
	DefaultCurrency CurrencyCode
	Now             time.Time
	Intent          *Intent
}

// Intent carries the typed parameters of an assistant deep link. Supplied
// fields are taken as given; the rest are parsed from Transcript.
type Intent struct {
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	Category   string           `json:"category,omitempty"`
	Merchant   string           `json:"merchant,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
}

// Parse runs every stage over transcript.
func (p *Parser) Parse(transcript string) ParsedExpense {
	return p.ParseRequest(Request{Transcript: transcript})
}

// ParseIntent builds an expense from deep-link parameters.
func (p *Parser) ParseIntent(intent Intent) ParsedExpense {
	return p.ParseRequest(Request{Transcript: intent.Transcript, Intent: &intent})
}

// ParseRequest is Parse with per-request default currency and clock.
func (p *Parser) ParseRequest(req Request) ParsedExpense {
	fallback := p.defaultCurrency
	if req.DefaultCurrency != "" {
		fallback = resolveDefault(req.DefaultCurrency)
	}
	now := req.Now
	if now.IsZero() {
		now = p.now()
	}

	transcript := req.Transcript
	if req.Intent != nil && transcript == "" {
		transcript = req.Intent.Transcript
	}

	out := ParsedExpense{
		Transcript: transcript,
		Source:     SourceTranscript,
	}
	categorySupplied := false

	if req.Intent != nil {
		out.Source = SourceIntent
		in := req.Intent
		if in.Amount != nil && !in.Amount.IsNegative() {
			amount := *in.Amount
			out.Amount = &amount
		}
		if def, ok := LookupCurrency(strings.TrimSpace(in.Currency)); ok {
			out.Currency, out.CurrencyDetected = def.Code, true
		}
		if c, ok := ParseCategory(in.Category); ok {
			out.Category, categorySupplied = c, true
		}
		out.Merchant = strings.TrimSpace(in.Merchant)
	}

	if out.Amount == nil {
		if amount, ok := ExtractAmount(transcript); ok {
			out.Amount = &amount
		}
	}
	if out.Currency == "" {
		if code, ok := MatchCurrency(transcript); ok {
			out.Currency, out.CurrencyDetected = code, true
		} else {
			out.Currency = fallback
		}
	}
	if !categorySupplied {
		out.Category = ClassifyCategory(transcript)
	}
	if out.Merchant == "" {
		out.Merchant, _ = ExtractMerchant(transcript)
	}
	out.Date, _ = ResolveDate(transcript, now)
	out.Confidence = Score(out.signals(categorySupplied))
	return out
}
