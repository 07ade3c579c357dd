// Package telemetry appends enumeration run events to a JSONL file so large
// runs leave an audit trail of their steps and commits.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds.
const (
	KindEnumBegin  = "enum_begin"
	KindEnumStep   = "enum_step"
	KindEnumCommit = "enum_commit"
	KindEnumFinish = "enum_finish"
	KindEnumMerge  = "enum_merge"
	KindBsetUpdate = "bset_update"
)

// Event is one telemetry record. Session identifies the emitter that wrote
// it, so interleaved runs appending to the same log can be told apart.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Session   string    `json:"session,omitempty"`
	Kind      string    `json:"kind"`
	EnumID    string    `json:"enum,omitempty"`
	Step      *int      `json:"step,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes events to a JSONL file. It is safe for concurrent use. A
// nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file    *os.File
	enc     *json.Encoder
	mu      sync.Mutex
	now     func() time.Time
	session string
}

// NewEmitter opens path for appending, creating it and its directory if
// needed.
func NewEmitter(path string) (*Emitter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create dir for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{file: f, enc: json.NewEncoder(f), now: time.Now, session: uuid.NewString()}, nil
}

// Session returns the id stamped on every event this emitter writes. A nil
// Emitter has no session.
func (e *Emitter) Session() string {
	if e == nil {
		return ""
	}
	return e.session
}

// Emit writes evt, stamping it with the current time if Timestamp is zero
// and with the emitter's session if Session is empty. Calling Emit on a nil
// Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if evt.Session == "" {
		evt.Session = e.session
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a
// no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// StepPtr returns a pointer to i, for Event.Step.
func StepPtr(i int) *int { return &i }
