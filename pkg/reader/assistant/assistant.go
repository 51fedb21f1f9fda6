// Package assistant implements a Reader that receives voice commands over HTTP
// from Siri Shortcuts, Google App Actions and similar deep-link callers.
//
// High-confidence expenses are emitted straight away. The rest are held for a
// while so the caller can show them to the user and confirm them.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

// Name is the reader name recorded as Expense.Source.
const Name = "assistant"

// Defaults for Config.
const (
	DefaultAddr       = ":8080"
	DefaultPendingTTL = 15 * time.Minute
)

var errNotRunning = errors.New("reader is not running")

// Config holds configuration for the assistant reader.
type Config struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string
	// Token, when set, must be sent as "Authorization: Bearer <token>" on
	// every /v1 request.
	Token string
	// PendingTTL is how long an unconfirmed expense is kept.
	PendingTTL time.Duration
	// Threshold is the auto-save confidence threshold.
	Threshold float64
	Metrics   *metrics.Metrics
	// Gatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Reader serves the voice intake API and emits accepted expenses.
type Reader struct {
	addr      string
	token     string
	threshold float64
	ttl       time.Duration
	parser    *voice.Parser
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	store     *store
	engine    *gin.Engine
	logger    *slog.Logger

	mu       sync.RWMutex
	out      chan<- *api.Expense
	stop     chan struct{}
	listener net.Addr
}

// New creates a new assistant reader.
func New(parser *voice.Parser, cfg Config, logger *slog.Logger) (*Reader, error) {
	logger = logging.OrDefault(logger)
	if parser == nil {
		parser = voice.New()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = DefaultPendingTTL
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := &Reader{
		addr:      cfg.Addr,
		token:     cfg.Token,
		threshold: cfg.Threshold,
		ttl:       cfg.PendingTTL,
		parser:    parser,
		metrics:   cfg.Metrics,
		gatherer:  cfg.Gatherer,
		store:     newStore(cfg.PendingTTL, time.Now),
		logger:    logger,
	}
	r.engine = r.routes()
	return r, nil
}

// Handler returns the HTTP handler serving the API.
func (r *Reader) Handler() http.Handler {
	return r.engine
}

// Addr returns the bound listen address while Read is running.
func (r *Reader) Addr() net.Addr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listener
}

// Read serves HTTP until the context is canceled. Acknowledged expense IDs
// move from submitted to saved.
func (r *Reader) Read(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string) error {
	defer close(out)

	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", r.addr, err)
	}

	r.attach(out)
	r.mu.Lock()
	r.listener = ln.Addr()
	r.mu.Unlock()

	go r.handleAcknowledgments(ctx, ackChan)

	srv := &http.Server{
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	r.logger.Info("assistant reader listening", "addr", ln.Addr().String())

	purge := time.NewTicker(max(r.ttl/4, time.Second))
	defer purge.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("assistant reader stopping", "reason", ctx.Err())
			runErr = ctx.Err()
			break loop
		case err := <-serveErr:
			runErr = fmt.Errorf("serving http: %w", err)
			break loop
		case <-purge.C:
			r.metrics.SetPending(r.store.purge())
		}
	}

	r.detach()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.logger.Warn("http shutdown", "error", err)
	}
	return runErr
}

func (r *Reader) handleAcknowledgments(ctx context.Context, ackChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case token, ok := <-ackChan:
			if !ok {
				r.logger.Info("acknowledgment channel closed")
				return
			}
			id, err := uuid.Parse(token)
			if err != nil {
				r.logger.Warn("ignoring malformed acknowledgment", "token", token)
				continue
			}
			if r.store.transition(id, StatusSubmitted, StatusSaved) {
				r.logger.Debug("expense saved", "id", id)
			}
		}
	}
}

func (r *Reader) attach(out chan<- *api.Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = out
	r.stop = make(chan struct{})
}

// detach stops emitters first so none still holds the read lock, then drops
// the channel. The caller may close out afterwards.
func (r *Reader) detach() {
	r.mu.RLock()
	stop := r.stop
	r.mu.RUnlock()
	if stop != nil {
		close(stop)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = nil
	r.stop = nil
	r.listener = nil
}

// emit hands an expense to the writer, blocking until it is taken, the
// request is abandoned or the reader stops.
func (r *Reader) emit(ctx context.Context, e *api.Expense) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.out == nil {
		return errNotRunning
	}
	select {
	case r.out <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stop:
		return errNotRunning
	}
}
