package assistant

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

const requestIDKey = "request_id"

type transcriptRequest struct {
	Transcript      string    `json:"transcript"`
	DefaultCurrency string    `json:"defaultCurrency"`
	RecordedAt      time.Time `json:"recordedAt"`
}

type intentRequest struct {
	voice.Intent
	DefaultCurrency string    `json:"defaultCurrency"`
	RecordedAt      time.Time `json:"recordedAt"`
}

// confirmRequest carries the user's corrections. Every field is optional.
type confirmRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
	Category string           `json:"category"`
	Merchant string           `json:"merchant"`
	Date     string           `json:"date"`
}

type response struct {
	ID       uuid.UUID            `json:"id"`
	Status   Status               `json:"status"`
	Decision string               `json:"decision,omitempty"`
	Parsed   *voice.ParsedExpense `json:"parsed,omitempty"`
	Expense  *api.Expense         `json:"expense,omitempty"`
}

func (r *Reader) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), r.requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	v1 := engine.Group("/v1/voice", r.authenticate())
	v1.POST("/transcripts", r.handleTranscript)
	v1.POST("/intents", r.handleIntent)
	v1.GET("/expenses/:id", r.handleStatus)
	v1.POST("/expenses/:id/confirm", r.handleConfirm)
	v1.DELETE("/expenses/:id", r.handleDiscard)
	return engine
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (r *Reader) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		r.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func (r *Reader) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(r.token)) != 1 {
			abort(c, http.StatusUnauthorized, errors.New("missing or invalid token"))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (r *Reader) handleTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	req.Transcript = strings.TrimSpace(req.Transcript)
	if req.Transcript == "" {
		abort(c, http.StatusBadRequest, errors.New("transcript is required"))
		return
	}

	r.accept(c, r.parser.ParseRequest(voice.Request{
		Transcript:      req.Transcript,
		DefaultCurrency: voice.CurrencyCode(req.DefaultCurrency),
		Now:             req.RecordedAt,
	}))
}

func (r *Reader) handleIntent(c *gin.Context) {
	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	req.Transcript = strings.TrimSpace(req.Transcript)
	if req.Amount == nil && req.Transcript == "" {
		abort(c, http.StatusBadRequest, errors.New("amount or transcript is required"))
		return
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		abort(c, http.StatusBadRequest, errors.New("amount must not be negative"))
		return
	}

	intent := req.Intent
	r.accept(c, r.parser.ParseRequest(voice.Request{
		Transcript:      req.Transcript,
		DefaultCurrency: voice.CurrencyCode(req.DefaultCurrency),
		Now:             req.RecordedAt,
		Intent:          &intent,
	}))
}

// accept submits a confident parse and parks the rest for confirmation.
func (r *Reader) accept(c *gin.Context, parsed voice.ParsedExpense) {
	id := uuid.New()
	decision := parsed.Decide(r.threshold)

	expense, err := api.FromParsed(parsed, r.threshold, Name)
	r.metrics.ObserveParse(Name, api.Outcome(expense), parsed.Confidence)

	if err != nil || decision == voice.Confirm {
		r.store.put(id, parsed, StatusPending)
		r.metrics.SetPending(r.store.purge())
		r.logger.Info("expense awaiting confirmation",
			"id", id,
			"confidence", parsed.Confidence,
			"has_amount", parsed.HasAmount(),
		)
		c.JSON(http.StatusOK, response{ID: id, Status: StatusPending, Decision: decision.String(), Parsed: &parsed})
		return
	}

	expense.ID = id
	expense.Ack = id.String()
	r.store.put(id, parsed, StatusSubmitted)
	if err := r.emit(c.Request.Context(), expense); err != nil {
		r.store.transition(id, StatusSubmitted, StatusPending)
		abort(c, http.StatusServiceUnavailable, fmt.Errorf("submitting expense: %w", err))
		return
	}

	r.logger.Info("expense auto-saved", "id", id, "amount", expense.Amount, "currency", expense.Currency)
	c.JSON(http.StatusAccepted, response{
		ID:       id,
		Status:   StatusSubmitted,
		Decision: decision.String(),
		Parsed:   &parsed,
		Expense:  expense,
	})
}

func (r *Reader) handleStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	e, ok := r.store.get(id)
	if !ok {
		abort(c, http.StatusNotFound, errors.New("expense not found"))
		return
	}
	c.JSON(http.StatusOK, response{ID: id, Status: e.status, Parsed: &e.parsed})
}

func (r *Reader) handleConfirm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abort(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	e, ok := r.store.get(id)
	if !ok {
		abort(c, http.StatusNotFound, errors.New("expense not found"))
		return
	}
	if e.status != StatusPending {
		abort(c, http.StatusConflict, fmt.Errorf("expense already %s", e.status))
		return
	}

	parsed := e.parsed
	if err := applyCorrections(&parsed, req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	// The user vouched for every field.
	parsed.Confidence = 1
	expense, err := api.FromParsed(parsed, r.threshold, Name)
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("amount is required to confirm"))
		return
	}
	expense.ID = id
	expense.Ack = id.String()
	expense.NeedsConfirmation = false

	if !r.store.submit(id, parsed) {
		abort(c, http.StatusConflict, errors.New("expense changed while confirming"))
		return
	}
	if err := r.emit(c.Request.Context(), expense); err != nil {
		r.store.transition(id, StatusSubmitted, StatusPending)
		abort(c, http.StatusServiceUnavailable, fmt.Errorf("submitting expense: %w", err))
		return
	}
	r.metrics.SetPending(r.store.purge())

	r.logger.Info("expense confirmed", "id", id, "amount", expense.Amount, "currency", expense.Currency)
	c.JSON(http.StatusAccepted, response{ID: id, Status: StatusSubmitted, Expense: expense})
}

func (r *Reader) handleDiscard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if !r.store.remove(id) {
		abort(c, http.StatusNotFound, errors.New("no pending expense with that id"))
		return
	}
	r.metrics.SetPending(r.store.purge())
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("invalid expense id"))
		return uuid.Nil, false
	}
	return id, true
}

// applyCorrections overlays the user's corrections on a parse. A corrected
// field counts as detected.
func applyCorrections(p *voice.ParsedExpense, req confirmRequest) error {
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return errors.New("amount must be positive")
		}
		amount := *req.Amount
		p.Amount = &amount
	}
	if req.Currency != "" {
		def, ok := voice.LookupCurrency(req.Currency)
		if !ok {
			return fmt.Errorf("unknown currency %q", req.Currency)
		}
		p.Currency, p.CurrencyDetected = def.Code, true
	}
	if req.Category != "" {
		category, ok := voice.ParseCategory(req.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", req.Category)
		}
		p.Category = category
	}
	if m := strings.TrimSpace(req.Merchant); m != "" {
		p.Merchant = m
	}
	if req.Date != "" {
		date, err := time.ParseInLocation(api.DateLayout, req.Date, p.Date.Location())
		if err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", req.Date)
		}
		p.Date = date
	}
	return nil
}
