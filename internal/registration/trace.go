package registration

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// TraceEvent is a structured diagnostic emitted by the driver and the
// ADMM loop. Config.Trace receives these directly (no I/O, so tests can
// assert on them -- spec.md §8 S6's "exposed trace hook"); JSONLTraceWriter
// below adapts the same events to a file for CLI use.
type TraceEvent struct {
	Level     int     `json:"level"`
	Iteration int     `json:"iteration,omitempty"`
	Kind      string  `json:"kind"` // "level_select", "level_start", "iteration", "level_done"
	Sparse    bool    `json:"sparse,omitempty"`
	Ratio     float64 `json:"ratio,omitempty"`
	Nuclear   float64 `json:"nuclear_norm,omitempty"`
	L1        float64 `json:"l1_norm,omitempty"`
	Residual  float64 `json:"residual,omitempty"`
}

func emit(trace func(TraceEvent), ev TraceEvent) {
	if trace != nil {
		trace(ev)
	}
}

// JSONLTraceWriter persists TraceEvents as JSON lines to a file, using
// buffered I/O, adapted from the teacher's internal/store.TraceWriter
// (also a mutex-guarded bufio.Writer over a JSONL file) but carrying
// TraceEvent instead of a checkpoint's cost-history entry.
type JSONLTraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLTraceWriter creates (truncating) the trace file at path.
func NewJSONLTraceWriter(path string) (*JSONLTraceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &JSONLTraceWriter{file: f, writer: bufio.NewWriterSize(f, 64*1024)}, nil
}

// Write serializes ev as one JSON line. Matches the Config.Trace
// func(TraceEvent) signature via (*JSONLTraceWriter).Handle.
func (w *JSONLTraceWriter) Write(ev TraceEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal trace event: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace event: %w", err)
	}
	return w.writer.WriteByte('\n')
}

// Handle adapts Write to the Config.Trace callback signature, swallowing
// errors (a failing debug trace should never abort registration).
func (w *JSONLTraceWriter) Handle(ev TraceEvent) {
	_ = w.Write(ev)
}

// Flush flushes buffered writes to disk.
func (w *JSONLTraceWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Flush()
}

// Close flushes and closes the underlying file.
func (w *JSONLTraceWriter) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
