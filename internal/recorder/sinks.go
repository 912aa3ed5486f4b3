package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantfix/bondregress/internal/records"
)

// LogSink emits calculation records as structured log events. The event
// field carries the classifier so the log shipper can filter exactly these
// lines into the search store.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink writing to the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit writes one structured log line per record.
func (s *LogSink) Emit(ctx context.Context, rec records.CalculationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal calculation record: %w", err)
	}

	s.logger.Info().
		Str("event", rec.Event).
		Str("correlation_id", rec.CorrelationID).
		Str("operation", rec.Operation).
		Bool("success", rec.Success).
		RawJSON("record", payload).
		Msg("calculation recorded")
	return nil
}

// FileSink appends calculation records to a JSONL capture file, the same
// shape the file record source reads back.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the capture file for appending.
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	return &FileSink{file: file}, nil
}

// Emit appends one JSON line per record.
func (s *FileSink) Emit(ctx context.Context, rec records.CalculationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal calculation record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to append calculation record: %w", err)
	}
	return nil
}

// Close closes the underlying capture file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
