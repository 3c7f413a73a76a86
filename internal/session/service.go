package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/colwise/colwise/internal/infer"
	"github.com/colwise/colwise/internal/parse"
)

// Config carries the session service tunables.
type Config struct {
	MaxFileSize    int64
	PreviewRows    int
	AutoDetect     bool
	MaxConcurrent  int
	MaxWait        time.Duration
	ProcessTimeout time.Duration
	Options        infer.Options
}

// Service manages the set of active upload sessions.
type Service struct {
	cfg      Config
	limiter  *Limiter
	recorder Recorder
	log      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService creates the orchestrator. recorder may be nil when the
// history store is disabled.
func NewService(cfg Config, recorder Recorder, log *slog.Logger) *Service {
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 20
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		limiter:  NewLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		recorder: recorder,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// UploadFile validates and accepts a file, returning the new session
// ID. Validation failures return a *ValidationError and create no
// session state. Parsing (and, when auto-detect is on, analysis) runs
// in the background; poll Progress or Subscribe for updates.
func (s *Service) UploadFile(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ValidationError{Reason: "empty file"}
	}
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return "", &ValidationError{Reason: fmt.Sprintf("file too large: %d bytes exceeds limit of %d", len(data), s.cfg.MaxFileSize)}
	}
	if !parse.Supported(fileName) {
		return "", &ValidationError{Reason: fmt.Sprintf("unsupported file type, accepted: %v", parse.Extensions())}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ProcessTimeout)

	sess := &session{
		id:       uuid.New().String(),
		fileName: fileName,
		size:     int64(len(data)),
		cancel:   cancel,
		done:     make(chan struct{}),
		phase:    PhaseUploading,
	}
	sess.progress = Progress{
		SessionID:  sess.id,
		FileName:   fileName,
		Phase:      PhaseUploading,
		BytesTotal: sess.size,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	go s.run(runCtx, sess, data)

	return sess.id, nil
}

// run parses the upload and optionally chains into analysis. It owns
// the limiter slot for the session's active lifetime.
func (s *Service) run(ctx context.Context, sess *session, data []byte) {
	defer s.limiter.Release()
	defer close(sess.done)
	defer sess.cancel()

	reader := parse.NewReader(bytes.NewReader(data), sess.size)
	ds, err := parse.Read(sess.fileName, reader)
	sess.updateProgress(func(p *Progress) { p.BytesRead = reader.BytesRead() })

	if err != nil {
		s.log.Error("parse failed", "session", sess.id, "file", sess.fileName, "error", err)
		sess.fail(err.Error())
		return
	}

	sess.mu.Lock()
	sess.raw = ds
	sess.mu.Unlock()

	if !s.cfg.AutoDetect {
		sess.setPhase(PhaseReady)
		s.log.Info("upload parsed", "session", sess.id, "rows", len(ds.Rows), "columns", len(ds.Headers))
		return
	}

	if err := s.analyze(ctx, sess); err != nil {
		sess.fail(err.Error())
	}
}

// ProcessFile runs column analysis synchronously for a parsed session.
func (s *Service) ProcessFile(ctx context.Context, id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.RLock()
	parsed := sess.raw != nil
	sess.mu.RUnlock()
	if !parsed {
		return ErrNotReady
	}

	if err := s.analyze(ctx, sess); err != nil {
		sess.fail(err.Error())
		return err
	}
	return nil
}

// analyze walks the columns, checking for cancellation between each.
func (s *Service) analyze(ctx context.Context, sess *session) error {
	sess.setPhase(PhaseProcessing)
	start := time.Now()

	sess.mu.RLock()
	ds := sess.raw
	sess.mu.RUnlock()

	total := len(ds.Headers)
	sess.updateProgress(func(p *Progress) { p.TotalColumns = total })

	columns := make([]infer.ColumnInfo, 0, total)
	for i, name := range ds.Headers {
		if err := ctx.Err(); err != nil {
			return err
		}
		columns = append(columns, infer.AnalyzeColumn(ds.Column(i), name, i, s.cfg.Options))
		sess.updateProgress(func(p *Progress) { p.CurrentColumn = i + 1 })
	}

	sess.mu.Lock()
	sess.columns = columns
	sess.mu.Unlock()
	sess.setPhase(PhaseReady)

	s.log.Info("analysis complete",
		"session", sess.id,
		"file", sess.fileName,
		"rows", len(ds.Rows),
		"columns", total,
		"duration", time.Since(start))

	s.record(sess, len(ds.Rows), columns, time.Since(start))
	return nil
}

// record hands the completed run to the history store, if any.
func (s *Service) record(sess *session, rows int, columns []infer.ColumnInfo, dur time.Duration) {
	if s.recorder == nil {
		return
	}
	types := make([]string, len(columns))
	for i, c := range columns {
		types[i] = string(c.DetectedType)
	}
	run := Run{
		SessionID:   sess.id,
		FileName:    sess.fileName,
		Rows:        rows,
		Columns:     len(columns),
		Types:       types,
		Duration:    dur,
		CompletedAt: time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.Record(ctx, run); err != nil {
		s.log.Warn("history record failed", "session", sess.id, "error", err)
	}
}

// Snapshot returns the session's current external state.
func (s *Service) Snapshot(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(s.cfg.PreviewRows), nil
}

// Progress returns the current progress without blocking.
func (s *Service) Progress(id string) (Progress, error) {
	sess, err := s.get(id)
	if err != nil {
		return Progress{}, err
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.progress, nil
}

// Subscribe returns a channel receiving progress updates. The current
// progress is delivered immediately; the channel is closed when the
// session is removed.
func (s *Service) Subscribe(id string) (<-chan Progress, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 10)
	sess.mu.RLock()
	current := sess.progress
	sess.mu.RUnlock()

	sess.listenerMu.Lock()
	sess.listeners = append(sess.listeners, ch)
	select {
	case ch <- current:
	default:
	}
	sess.listenerMu.Unlock()

	return ch, nil
}

// Cancel stops a session's in-flight work. Completed state is kept.
func (s *Service) Cancel(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	sess.cancel()
	return nil
}

// Remove cancels and discards a session and all derived data.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.cancel()
	sess.closeListeners()
	return nil
}

// Wait blocks until the session's background work finishes. Intended
// for tests and shutdown paths.
func (s *Service) Wait(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	<-sess.done
	return nil
}

// WaitForDrain blocks until all active sessions complete or the
// context is cancelled.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}
