// Package session formats dispatch results for callers and records context
// transitions to an append-only NDJSON transcript. The router never reads
// the transcript back; retention is the caller's concern.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/engine"
	"github.com/iambrandonn/converse/internal/ndjson"
)

// Record is one transcript entry: a dispatch outcome and any context
// transition it caused.
type Record struct {
	RecordID    string    `json:"record_id"`
	DispatchID  string    `json:"dispatch_id"`
	Utterance   string    `json:"utterance"`
	Command     string    `json:"command,omitempty"`
	Stage       string    `json:"stage"`
	FailureKind string    `json:"failure_kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	FromContext string    `json:"from_context,omitempty"`
	ToContext   string    `json:"to_context,omitempty"`
	At          time.Time `json:"at"`
}

// FromResult builds a transcript record from a dispatch result and the
// instance the dispatch started at.
func FromResult(res engine.Result, from catalog.Instance) Record {
	rec := Record{
		RecordID:   fmt.Sprintf("rec-%s", uuid.New().String()[:8]),
		DispatchID: res.DispatchID,
		Utterance:  res.Utterance,
		Command:    res.CommandName(),
		Stage:      string(res.Stage),
		At:         time.Now().UTC(),
	}
	if from != nil {
		rec.FromContext = from.TypeName()
	}
	if res.NewContext != nil {
		rec.ToContext = res.NewContext.TypeName()
	}
	if res.Failure != nil {
		rec.FailureKind = string(res.Failure.Kind)
		rec.Message = res.Failure.Message
	}
	return rec
}

// Transitioned reports whether the dispatch moved the current context.
func (r Record) Transitioned() bool {
	return r.ToContext != ""
}

// Recorder appends records to an NDJSON transcript file.
type Recorder struct {
	file    *os.File
	encoder *ndjson.Encoder
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewRecorder creates a transcript recorder, creating the directory as
// needed and appending to an existing file.
func NewRecorder(path string, logger *slog.Logger) (*Recorder, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}

	return &Recorder{
		file:    file,
		encoder: ndjson.NewEncoder(file, logger),
		logger:  logger,
	}, nil
}

// Append writes one record to the transcript.
func (r *Recorder) Append(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.encoder.Encode(rec)
}

// Close closes the transcript file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
