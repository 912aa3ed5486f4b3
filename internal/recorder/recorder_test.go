package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/records"
)

type captureSink struct {
	emitted []records.CalculationRecord
	fail    bool
}

func (s *captureSink) Emit(ctx context.Context, rec records.CalculationRecord) error {
	if s.fail {
		return errors.New("transport unavailable")
	}
	s.emitted = append(s.emitted, rec)
	return nil
}

func validInput() engine.CalculationInput {
	return engine.CalculationInput{
		Terms:       engine.NewBondTerms("CORP-001", decimal.NewFromInt(5), time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)),
		MarketPrice: decimal.NewFromInt(100),
		Settlement:  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func expiredInput() engine.CalculationInput {
	in := validInput()
	in.Settlement = in.Terms.Maturity
	return in
}

func TestRecorderEmitsOneRecordPerSuccess(t *testing.T) {
	sink := &captureSink{}
	rec := New(engine.New(), sink)

	result, err := rec.Calculate(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, sink.emitted, 1)
	emitted := sink.emitted[0]
	assert.Equal(t, records.EventClassifier, emitted.Event)
	assert.Equal(t, "calculate", emitted.Operation)
	assert.NotEmpty(t, emitted.CorrelationID)
	assert.True(t, emitted.Success)
	assert.Empty(t, emitted.Error)
	require.NotNil(t, emitted.Result)
	assert.Equal(t, result.YieldToMaturity.String(), emitted.Result.YieldToMaturity.String())
}

func TestRecorderEmitsFailureRecordWithoutResult(t *testing.T) {
	sink := &captureSink{}
	rec := New(engine.New(), sink)

	result, err := rec.Calculate(context.Background(), expiredInput())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, engine.IsInvalidInput(err))

	require.Len(t, sink.emitted, 1)
	emitted := sink.emitted[0]
	assert.False(t, emitted.Success)
	assert.Nil(t, emitted.Result)
	assert.Contains(t, emitted.Error, "invalid input")
}

func TestRecorderCorrelationIDsAreDistinct(t *testing.T) {
	sink := &captureSink{}
	rec := New(engine.New(), sink)

	for i := 0; i < 5; i++ {
		_, err := rec.Calculate(context.Background(), validInput())
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for _, emitted := range sink.emitted {
		assert.False(t, seen[emitted.CorrelationID], "correlation id %s repeated", emitted.CorrelationID)
		seen[emitted.CorrelationID] = true
	}
}

func TestSinkFailureDoesNotAffectCalculation(t *testing.T) {
	rec := New(engine.New(), &captureSink{fail: true})

	result, err := rec.Calculate(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestLogSinkCarriesEventClassifier(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	rec := New(engine.New(), sink)

	_, err := rec.Calculate(context.Background(), validInput())
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, records.EventClassifier, line["event"])
	assert.Equal(t, true, line["success"])
	assert.NotNil(t, line["record"])
}

func TestFileSinkRoundTripsThroughFileSource(t *testing.T) {
	path := t.TempDir() + "/capture.jsonl"

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	rec := New(engine.New(), sink)

	_, err = rec.Calculate(context.Background(), validInput())
	require.NoError(t, err)
	_, _ = rec.Calculate(context.Background(), expiredInput())
	require.NoError(t, sink.Close())

	source := records.NewFileSource(path)
	fetched, err := source.FetchRecords(context.Background(), records.EventClassifier)
	require.NoError(t, err)

	require.Len(t, fetched, 2)
	assert.True(t, fetched[0].Success)
	assert.False(t, fetched[1].Success)
}
