// Package recorder wraps the calculation engine so that every invocation,
// success or failure, emits exactly one structured calculation record for
// the capture transport.
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/records"
)

// RecordSink receives emitted calculation records. Implementations ship them
// to the capture transport (structured log stream, JSONL file, queue).
type RecordSink interface {
	Emit(ctx context.Context, rec records.CalculationRecord) error
}

// Clock supplies record timestamps (injectable for testing).
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Recorder invokes the engine and records the call. Recording is
// fire-and-forget: a sink failure is logged and never affects the
// calculation's return value.
type Recorder struct {
	engine *engine.Engine
	sink   RecordSink
	clock  Clock
}

// New creates a recorder around the given engine and sink.
func New(eng *engine.Engine, sink RecordSink) *Recorder {
	return &Recorder{
		engine: eng,
		sink:   sink,
		clock:  realClock{},
	}
}

// SetClock sets the clock implementation (for testing).
func (r *Recorder) SetClock(clock Clock) {
	r.clock = clock
}

// Calculate runs the engine and emits one calculation record tagged with the
// fixed event classifier. The engine's result and error pass through
// unchanged.
func (r *Recorder) Calculate(ctx context.Context, input engine.CalculationInput) (*engine.AnalyticsResult, error) {
	result, calcErr := r.engine.Calculate(input)

	rec := records.CalculationRecord{
		CorrelationID: uuid.NewString(),
		Event:         records.EventClassifier,
		Operation:     "calculate",
		Input:         input,
		Timestamp:     r.clock.Now().UTC(),
	}
	if calcErr != nil {
		rec.Success = false
		rec.Error = calcErr.Error()
	} else {
		rec.Success = true
		rec.Result = result
	}

	if err := r.sink.Emit(ctx, rec); err != nil {
		log.Warn().Err(err).Str("correlation_id", rec.CorrelationID).
			Msg("Failed to emit calculation record")
	}

	return result, calcErr
}
