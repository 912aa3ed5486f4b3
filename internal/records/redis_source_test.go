package records

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSourceFetchesAndFilters(t *testing.T) {
	client, mock := redismock.NewClientMock()

	other := sampleRecord("x", true)
	other.Event = "unrelated_event"

	cfg := DefaultRedisSourceConfig()
	cfg.Key = "test:records"
	cfg.FetchLimit = 100

	mock.ExpectLRange("test:records", 0, 99).SetVal([]string{
		mustMarshal(t, sampleRecord("a", true)),
		"{broken",
		mustMarshal(t, other),
		mustMarshal(t, sampleRecord("b", true)),
	})

	source := NewRedisSourceWithClient(client, cfg)
	recs, err := source.FetchRecords(context.Background(), EventClassifier)
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].CorrelationID)
	assert.Equal(t, "b", recs[1].CorrelationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSourceSurfacesBackendFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()

	cfg := DefaultRedisSourceConfig()
	cfg.Key = "test:records"
	cfg.FetchLimit = 10

	mock.ExpectLRange("test:records", 0, 9).SetErr(errors.New("connection refused"))

	source := NewRedisSourceWithClient(client, cfg)
	_, err := source.FetchRecords(context.Background(), EventClassifier)
	assert.Error(t, err)
}

func TestRedisSourceBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client, mock := redismock.NewClientMock()

	cfg := DefaultRedisSourceConfig()
	cfg.Key = "test:records"
	cfg.FetchLimit = 10
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000

	for i := 0; i < 3; i++ {
		mock.ExpectLRange("test:records", 0, 9).SetErr(errors.New("connection refused"))
	}

	source := NewRedisSourceWithClient(client, cfg)
	for i := 0; i < 3; i++ {
		_, err := source.FetchRecords(context.Background(), EventClassifier)
		require.Error(t, err)
	}

	// Breaker is open now; the call fails fast without touching the backend.
	_, err := source.FetchRecords(context.Background(), EventClassifier)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
