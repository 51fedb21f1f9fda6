// Package api defines the core interfaces and data structures for voxpense.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

// ErrNoAmount is returned when a transcript yields no amount to record.
var ErrNoAmount = errors.New("no amount in transcript")

// Expense is a parsed voice command ready to be persisted.
type Expense struct {
	ID                uuid.UUID       `json:"id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Category          string          `json:"category"`
	Merchant          string          `json:"merchant,omitempty"`
	Date              time.Time       `json:"date"`
	Confidence        float64         `json:"confidence"`
	NeedsConfirmation bool            `json:"needsConfirmation"`
	Transcript        string          `json:"transcript"`
	// Source is the name of the reader that produced the expense.
	Source string `json:"source"`
	// Ack is the reader's token for this expense (a file path, a request ID),
	// sent back on the ack channel once the expense is written.
	Ack string `json:"-"`
}

// FromParsed converts a parse result into an Expense with a fresh ID.
// NeedsConfirmation is set when the score falls below threshold.
func FromParsed(p voice.ParsedExpense, threshold float64, source string) (*Expense, error) {
	if !p.HasAmount() {
		return nil, ErrNoAmount
	}
	return &Expense{
		ID:                uuid.New(),
		Amount:            *p.Amount,
		Currency:          string(p.Currency),
		Category:          string(p.Category),
		Merchant:          p.Merchant,
		Date:              p.Date,
		Confidence:        p.Confidence,
		NeedsConfirmation: p.Decide(threshold) == voice.Confirm,
		Transcript:        p.Transcript,
		Source:            source,
	}, nil
}

// Outcome labels a FromParsed result for the parse metrics. A nil expense
// means no amount was found.
func Outcome(e *Expense) string {
	switch {
	case e == nil:
		return metrics.OutcomeNoAmount
	case e.NeedsConfirmation:
		return metrics.OutcomeConfirm
	default:
		return metrics.OutcomeAutoSave
	}
}

// Reader reads expenses from a source and sends them to the provided channel.
// Implementations should close the channel when done or on error.
// The ackChan is used to receive acknowledgments of successfully written expenses.
type Reader interface {
	Read(ctx context.Context, out chan<- *Expense, ackChan <-chan string) error
}

// Writer consumes expenses from a channel and writes them to a destination.
// The Ack token of every successfully written expense is sent to the ackChan.
type Writer interface {
	Write(ctx context.Context, in <-chan *Expense, ackChan chan<- string) error
}

// Env carries the shared dependencies handed to every plugin.
type Env struct {
	HTTPClient          *http.Client
	Parser              *voice.Parser
	ConfidenceThreshold float64
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
}

// Threshold returns the configured confidence threshold or the default.
func (e Env) Threshold() float64 {
	if e.ConfidenceThreshold <= 0 || e.ConfidenceThreshold > 1 {
		return voice.DefaultConfidenceThreshold
	}
	return e.ConfidenceThreshold
}

// VoiceParser returns the configured parser, or one with default settings.
func (e Env) VoiceParser() *voice.Parser {
	if e.Parser == nil {
		return voice.New()
	}
	return e.Parser
}

// DateLayout is how tabular writers render Expense.Date.
const DateLayout = "2006-01-02"

// Columns is the header row used by tabular writers.
var Columns = []string{
	"ID", "Date", "Amount", "Currency", "Category", "Merchant",
	"Confidence", "Needs Confirmation", "Source", "Transcript",
}

// Row renders the expense in Columns order.
func (e *Expense) Row() []string {
	return []string{
		e.ID.String(),
		e.Date.Format(DateLayout),
		e.Amount.String(),
		e.Currency,
		e.Category,
		e.Merchant,
		strconv.FormatFloat(e.Confidence, 'f', 2, 64),
		strconv.FormatBool(e.NeedsConfirmation),
		e.Source,
		e.Transcript,
	}
}
