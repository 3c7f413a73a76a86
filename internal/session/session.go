// Package session orchestrates upload sessions: file validation,
// parsing, column analysis, conversion, and CSV export. Each session
// moves through idle → uploading → processing → ready, with error
// reachable from uploading and processing.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/colwise/colwise/internal/infer"
	"github.com/colwise/colwise/internal/parse"
)

// Phase is the lifecycle state of an upload session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseReady      Phase = "ready"
	PhaseError      Phase = "error"
)

// Progress is a point-in-time view of a session's advancement, safe to
// hand to listeners and poll endpoints.
type Progress struct {
	SessionID     string `json:"sessionId"`
	FileName      string `json:"fileName"`
	Phase         Phase  `json:"phase"`
	BytesRead     int64  `json:"bytesRead"`
	BytesTotal    int64  `json:"bytesTotal"`
	CurrentColumn int    `json:"currentColumn"`
	TotalColumns  int    `json:"totalColumns"`
	Error         string `json:"error,omitempty"`
}

// Percent reports upload progress as 0-100, or 0 when the total size
// is unknown.
func (p Progress) Percent() int {
	if p.BytesTotal <= 0 {
		return 0
	}
	pct := int(p.BytesRead * 100 / p.BytesTotal)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Snapshot is the full externally visible state of a session.
type Snapshot struct {
	ID        string             `json:"id"`
	FileName  string             `json:"fileName"`
	Phase     Phase              `json:"phase"`
	Headers   []string           `json:"headers,omitempty"`
	Columns   []infer.ColumnInfo `json:"columns,omitempty"`
	Preview   [][]string         `json:"preview,omitempty"`
	TotalRows int                `json:"totalRows"`
	Error     string             `json:"error,omitempty"`
}

// Run summarizes a completed analysis for the optional history store.
type Run struct {
	SessionID   string
	FileName    string
	Rows        int
	Columns     int
	Types       []string
	Duration    time.Duration
	CompletedAt time.Time
}

// Recorder persists completed runs. Implementations must tolerate
// being called concurrently; failures are logged, never surfaced to
// the session.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

type session struct {
	id       string
	fileName string
	size     int64
	cancel   context.CancelFunc
	done     chan struct{}

	mu        sync.RWMutex
	phase     Phase
	raw       *parse.Dataset
	converted [][]any
	columns   []infer.ColumnInfo
	errMsg    string
	progress  Progress

	listenerMu sync.Mutex
	listeners  []chan Progress
}

func (sess *session) setPhase(p Phase) {
	sess.mu.Lock()
	sess.phase = p
	sess.progress.Phase = p
	sess.mu.Unlock()
	sess.notify()
}

func (sess *session) fail(msg string) {
	sess.mu.Lock()
	sess.phase = PhaseError
	sess.errMsg = msg
	sess.progress.Phase = PhaseError
	sess.progress.Error = msg
	sess.mu.Unlock()
	sess.notify()
}

func (sess *session) updateProgress(fn func(*Progress)) {
	sess.mu.Lock()
	fn(&sess.progress)
	sess.mu.Unlock()
	sess.notify()
}

// notify fans the current progress out to all listeners without
// blocking; slow listeners miss intermediate updates.
func (sess *session) notify() {
	sess.mu.RLock()
	p := sess.progress
	sess.mu.RUnlock()

	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()
	for _, ch := range sess.listeners {
		select {
		case ch <- p:
		default:
		}
	}
}

func (sess *session) closeListeners() {
	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()
	for _, ch := range sess.listeners {
		close(ch)
	}
	sess.listeners = nil
}

// snapshot assembles the external view under the read lock.
func (sess *session) snapshot(previewRows int) Snapshot {
	sess.mu.RLock()
	defer sess.mu.RUnlock()

	snap := Snapshot{
		ID:       sess.id,
		FileName: sess.fileName,
		Phase:    sess.phase,
		Columns:  sess.columns,
		Error:    sess.errMsg,
	}
	if sess.raw != nil {
		snap.Headers = sess.raw.Headers
		snap.TotalRows = len(sess.raw.Rows)
		snap.Preview = sess.previewLocked(previewRows)
	}
	return snap
}

// previewLocked renders the first n rows, preferring converted values
// when a conversion has run. Caller holds at least the read lock.
func (sess *session) previewLocked(n int) [][]string {
	if n > len(sess.raw.Rows) {
		n = len(sess.raw.Rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		if sess.converted != nil {
			row := make([]string, len(sess.converted[i]))
			for j, v := range sess.converted[i] {
				row[j] = parse.FormatValue(v)
			}
			out[i] = row
			continue
		}
		out[i] = sess.raw.Rows[i]
	}
	return out
}
