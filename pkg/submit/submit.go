// Package submit hands validated records to a sink.
package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tally/pkg/debug"
	"github.com/vanderheijden86/tally/pkg/model"
)

// ErrUnavailable is reported when no sink is configured.
var ErrUnavailable = errors.New("no submission sink configured")

// Submitter stores a record somewhere.
type Submitter interface {
	Submit(ctx context.Context, rec model.Record) error
}

// envelope is one line of the JSON-lines sink.
type envelope struct {
	Kind        model.RecordKind `json:"kind"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Record      model.Record     `json:"record"`
}

// JSONLSubmitter appends each record as one JSON object per line.
type JSONLSubmitter struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewJSONLSubmitter writes to w.
func NewJSONLSubmitter(w io.Writer) *JSONLSubmitter {
	return &JSONLSubmitter{w: w, now: time.Now}
}

// OpenFile appends to the file at path, creating it and its directory.
// The caller closes the returned file.
func OpenFile(path string) (*JSONLSubmitter, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output: %w", err)
	}
	return NewJSONLSubmitter(f), f, nil
}

// Submit implements Submitter. Records that fail validation are rejected
// without writing anything.
func (s *JSONLSubmitter) Submit(ctx context.Context, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	line, err := json.Marshal(envelope{Kind: rec.Kind(), SubmittedAt: s.now().UTC(), Record: rec})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rec.Kind(), err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("writing %s: %w", rec.Kind(), err)
	}
	return nil
}

// SubmitResultMsg is returned after a submission completes.
type SubmitResultMsg struct {
	Kind    model.RecordKind
	Success bool
	Err     error
}

// Command validates rec and submits it off the UI goroutine.
func Command(ctx context.Context, s Submitter, rec model.Record) tea.Cmd {
	kind := rec.Kind()
	if s == nil {
		return func() tea.Msg {
			return SubmitResultMsg{Kind: kind, Err: ErrUnavailable}
		}
	}
	return func() tea.Msg {
		if err := rec.Validate(); err != nil {
			return SubmitResultMsg{Kind: kind, Err: err}
		}
		if err := s.Submit(ctx, rec); err != nil {
			debug.Log("submit %s failed: %v", kind, err)
			return SubmitResultMsg{Kind: kind, Err: err}
		}
		return SubmitResultMsg{Kind: kind, Success: true}
	}
}
