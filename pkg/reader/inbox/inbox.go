// Package inbox implements a Reader that picks up voice sessions dropped into
// a directory by a phone shortcut or a sync client.
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

// Name is the reader name recorded as Expense.Source.
const Name = "inbox"

// File suffixes marking a processed session.
const (
	DoneSuffix   = ".done"
	FailedSuffix = ".failed"
)

// ErrEmptySession is returned for a session with neither transcript nor intent.
var ErrEmptySession = errors.New("empty session")

// idSpace namespaces expense IDs derived from session files.
var idSpace = uuid.MustParse("6f1c52b4-6a4e-4a8b-9a43-3c1f0e8d2b7a")

// Session is the JSON form of a voice session file.
type Session struct {
	Transcript      string        `json:"transcript"`
	DefaultCurrency string        `json:"defaultCurrency,omitempty"`
	RecordedAt      time.Time     `json:"recordedAt"`
	Intent          *voice.Intent `json:"intent,omitempty"`
}

// Config holds configuration for the inbox reader.
type Config struct {
	// Dir is the directory to watch. It is created if missing.
	Dir string
	// Interval between directory scans. Defaults to 5 seconds.
	Interval time.Duration
	// PendingTimeout is how long an emitted file waits for its
	// acknowledgment before it is offered again. Defaults to 5 minutes.
	PendingTimeout time.Duration
	// Threshold is the auto-save confidence threshold.
	Threshold float64
	Metrics   *metrics.Metrics
}

// Reader turns *.txt transcripts and *.json sessions into expenses. A file is
// renamed to *.done once its expense is written, or to *.failed when it holds
// nothing to record.
type Reader struct {
	dir            string
	interval       time.Duration
	pendingTimeout time.Duration
	threshold      float64
	parser         *voice.Parser
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time

	mu       sync.Mutex
	inFlight map[string]time.Time
}

// New creates a new inbox reader.
func New(parser *voice.Parser, cfg Config, logger *slog.Logger) (*Reader, error) {
	logger = logging.OrDefault(logger)
	if cfg.Dir == "" {
		return nil, errors.New("inbox: directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating inbox directory: %w", err)
	}
	if parser == nil {
		parser = voice.New()
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	pendingTimeout := cfg.PendingTimeout
	if pendingTimeout == 0 {
		pendingTimeout = 5 * time.Minute
	}

	return &Reader{
		dir:            cfg.Dir,
		interval:       interval,
		pendingTimeout: pendingTimeout,
		threshold:      cfg.Threshold,
		parser:         parser,
		metrics:        cfg.Metrics,
		logger:         logger,
		now:            time.Now,
		inFlight:       make(map[string]time.Time),
	}, nil
}

// Read scans the directory until the context is canceled. Files are only
// marked done after receiving acknowledgment via ackChan.
func (r *Reader) Read(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string) error {
	defer close(out)

	go r.handleAcknowledgments(ctx, ackChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.scan(ctx, out)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("inbox reader stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.scan(ctx, out)
		}
	}
}

func (r *Reader) handleAcknowledgments(ctx context.Context, ackChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-ackChan:
			if !ok {
				r.logger.Info("acknowledgment channel closed")
				return
			}
			r.markDone(path)
		}
	}
}

func (r *Reader) scan(ctx context.Context, out chan<- *api.Expense) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Error("failed to list inbox", "dir", r.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isSession(entry.Name()) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		if r.pending(path) {
			continue
		}

		expense, err := r.load(path)
		if err != nil {
			r.logger.Warn("rejecting voice session", "file", entry.Name(), "error", err)
			r.markFailed(path)
			continue
		}

		r.logger.Debug("parsed voice session",
			"file", entry.Name(),
			"amount", expense.Amount,
			"currency", expense.Currency,
			"category", expense.Category,
			"confidence", expense.Confidence,
		)

		r.track(path)
		select {
		case <-ctx.Done():
			return
		case out <- expense:
		}
	}
}

func isSession(name string) bool {
	switch filepath.Ext(name) {
	case ".txt", ".json":
		return true
	default:
		return false
	}
}

// load parses one session file. The expense ID is derived from the file name
// and contents, so a file offered twice upserts the same record.
func (r *Reader) load(path string) (*api.Expense, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	req := voice.Request{Now: info.ModTime()}
	if filepath.Ext(path) == ".json" {
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decoding session: %w", err)
		}
		req.Transcript = strings.TrimSpace(s.Transcript)
		req.DefaultCurrency = voice.CurrencyCode(s.DefaultCurrency)
		req.Intent = s.Intent
		if !s.RecordedAt.IsZero() {
			req.Now = s.RecordedAt
		}
	} else {
		req.Transcript = strings.TrimSpace(string(data))
	}
	if req.Transcript == "" && req.Intent == nil {
		return nil, ErrEmptySession
	}

	parsed := r.parser.ParseRequest(req)
	expense, err := api.FromParsed(parsed, r.threshold, Name)
	r.metrics.ObserveParse(Name, api.Outcome(expense), parsed.Confidence)
	if err != nil {
		return nil, err
	}

	expense.ID = uuid.NewSHA1(idSpace, append([]byte(filepath.Base(path)+"\x00"), data...))
	expense.Ack = path
	return expense, nil
}

// pending reports whether path was emitted recently and is still waiting for
// its acknowledgment.
func (r *Reader) pending(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.inFlight[path]
	if !ok {
		return false
	}
	if r.now().Sub(at) < r.pendingTimeout {
		return true
	}
	r.logger.Warn("re-offering unacknowledged voice session", "file", filepath.Base(path))
	return false
}

func (r *Reader) track(path string) {
	r.mu.Lock()
	r.inFlight[path] = r.now()
	r.mu.Unlock()
}

func (r *Reader) markDone(path string) {
	r.mu.Lock()
	delete(r.inFlight, path)
	r.mu.Unlock()

	if err := os.Rename(path, path+DoneSuffix); err != nil {
		r.logger.Warn("failed to mark voice session done", "file", path, "error", err)
		return
	}
	r.logger.Debug("marked voice session done", "file", filepath.Base(path))
}

func (r *Reader) markFailed(path string) {
	if err := os.Rename(path, path+FailedSuffix); err != nil {
		r.logger.Warn("failed to mark voice session failed", "file", path, "error", err)
	}
}
