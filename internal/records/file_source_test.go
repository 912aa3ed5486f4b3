package records

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfix/bondregress/internal/engine"
)

func sampleRecord(id string, success bool) CalculationRecord {
	return CalculationRecord{
		CorrelationID: id,
		Event:         EventClassifier,
		Operation:     "calculate",
		Input: engine.CalculationInput{
			Terms:       engine.NewBondTerms("BOND-"+id, decimal.NewFromInt(5), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
			MarketPrice: decimal.NewFromInt(100),
			Settlement:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Success:   success,
		Timestamp: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func writeCaptureFile(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.jsonl")

	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func mustMarshal(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestFileSourceFetchesTaggedRecordsInOrder(t *testing.T) {
	other := sampleRecord("x", true)
	other.Event = "unrelated_event"

	path := writeCaptureFile(t, []string{
		mustMarshal(t, sampleRecord("a", true)),
		mustMarshal(t, other),
		mustMarshal(t, sampleRecord("b", false)),
	})

	source := NewFileSource(path)
	recs, err := source.FetchRecords(context.Background(), EventClassifier)
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].CorrelationID)
	assert.Equal(t, "b", recs[1].CorrelationID)
}

func TestFileSourceSkipsMalformedLines(t *testing.T) {
	path := writeCaptureFile(t, []string{
		mustMarshal(t, sampleRecord("a", true)),
		"{not valid json",
		mustMarshal(t, sampleRecord("b", true)),
	})

	source := NewFileSource(path)
	recs, err := source.FetchRecords(context.Background(), EventClassifier)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestFileSourceMissingFile(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "absent.jsonl"))
	_, err := source.FetchRecords(context.Background(), EventClassifier)
	assert.Error(t, err)
}
