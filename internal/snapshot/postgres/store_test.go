package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/snapshot"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres")), mock
}

func sampleSnapshot(t *testing.T) snapshot.Snapshot {
	t.Helper()
	settlement := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	tc := dataset.TestCase{
		ID:         "TC-001",
		Provenance: dataset.ProvenanceSynthetic,
		Input: engine.CalculationInput{
			Terms:       engine.NewBondTerms("ANON000001", decimal.NewFromFloat(5), settlement.AddDate(5, 0, 0)),
			MarketPrice: decimal.NewFromInt(100),
			Settlement:  settlement,
		},
	}
	res, err := engine.New().Calculate(tc.Input)
	require.NoError(t, err)
	return snapshot.Build(tc, res)
}

func TestReadReturnsStoredBaseline(t *testing.T) {
	store, mock := newMockStore(t)
	snap := sampleSnapshot(t)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT snapshot FROM baselines WHERE test_case_id = \$1`).
		WithArgs("TC-001").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow(raw))

	got, err := store.Read(context.Background(), "TC-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matches(snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadAbsentReturnsNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT snapshot FROM baselines WHERE test_case_id = \$1`).
		WithArgs("TC-404").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}))

	got, err := store.Read(context.Background(), "TC-404")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadFailureWrapsStoreUnavailable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT snapshot FROM baselines WHERE test_case_id = \$1`).
		WithArgs("TC-001").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Read(context.Background(), "TC-001")
	require.Error(t, err)
	assert.True(t, snapshot.IsStoreUnavailable(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	snap := sampleSnapshot(t)

	mock.ExpectExec(`INSERT INTO baselines`).
		WithArgs("TC-001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Write(context.Background(), "TC-001", snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteFailureWrapsStoreUnavailable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO baselines`).
		WithArgs("TC-001", sqlmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))

	err := store.Write(context.Background(), "TC-001", sampleSnapshot(t))
	require.Error(t, err)
	assert.True(t, snapshot.IsStoreUnavailable(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS baselines`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
