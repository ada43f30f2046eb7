// Package shell owns the per-batch error list and launches the geolocation
// pipeline for every selected photo.
package shell

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

// Shell implements ports.ErrorSink.
type Shell struct {
	notifier ports.ErrorsNotifier
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	locator ports.PhotoLocator
	seq     atomic.Uint64
}

// New creates a shell. SetLocator must be called before SelectPhotos.
func New(notifier ports.ErrorsNotifier, logger *slog.Logger) *Shell {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		notifier: notifier,
		logger:   logger.With("component", "shell"),
	}
}

// SetLocator wires the pipeline. The locator reports back into the shell, so
// it is built after the shell.
func (s *Shell) SetLocator(l ports.PhotoLocator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locator = l
}

// AppendError adds rec to the error list and pushes the new panel.
func (s *Shell) AppendError(rec domain.ErrorRecord) {
	s.apply(func(st State) State { return appendError(st, rec) })
}

// ClearErrors empties the error list.
func (s *Shell) ClearErrors() {
	s.apply(clearErrors)
}

// Panel renders the current state.
func (s *Shell) Panel() domain.ErrorPanel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.state)
}

// apply runs a transition and broadcasts the result while holding the lock,
// so clients see panels in transition order.
func (s *Shell) apply(transition func(State) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = transition(s.state)
	s.notifier.NotifyErrors(context.Background(), Render(s.state))
}

// Batch is one photo selection in flight.
type Batch struct {
	ID    string `json:"id"`
	Seq   uint64 `json:"seq"`
	Files int    `json:"files"`

	wg sync.WaitGroup
}

// Wait blocks until every pipeline run of the batch has finished.
func (b *Batch) Wait() {
	b.wg.Wait()
}

// SelectPhotos starts a new batch: the error list is cleared, then one
// pipeline run per file is launched. Runs are neither throttled nor tied to
// ctx cancellation, and runs left over from an earlier batch keep going.
// An empty selection is handled as a single missing file.
func (s *Shell) SelectPhotos(ctx context.Context, files []domain.PhotoFile) *Batch {
	s.mu.Lock()
	loc := s.locator
	s.mu.Unlock()

	s.ClearErrors()

	if len(files) == 0 {
		files = []domain.PhotoFile{nil}
	}
	b := &Batch{ID: uuid.NewString(), Seq: s.seq.Add(1), Files: len(files)}
	telemetry.BatchesStarted.Inc()
	s.logger.Info("Photo batch started", "batch", b.ID, "seq", b.Seq, "files", b.Files)

	runCtx := context.WithoutCancel(ctx)
	for _, f := range files {
		b.wg.Add(1)
		go func(f domain.PhotoFile) {
			defer b.wg.Done()
			loc.Locate(runCtx, f)
		}(f)
	}
	return b
}

type nopNotifier struct{}

func (nopNotifier) NotifyErrors(context.Context, domain.ErrorPanel) {}
