package dataset

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfix/bondregress/internal/engine"
)

func testCase(id, provenance string) TestCase {
	settlement := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	return TestCase{
		ID:          id,
		Description: "Par bond with medium coupon and intermediate maturity profile",
		Input: engine.CalculationInput{
			Terms:       engine.NewBondTerms("BOND-"+id, decimal.NewFromInt(5), settlement.AddDate(7, 0, 0)),
			MarketPrice: decimal.NewFromInt(100),
			Settlement:  settlement,
		},
		Provenance: provenance,
		Tags:       []string{"anonymized", "near-par"},
		CreatedAt:  settlement,
	}
}

func TestDatasetPreservesInsertionOrder(t *testing.T) {
	ds := New()
	for i := 0; i < 10; i++ {
		require.NoError(t, ds.Add(testCase(fmt.Sprintf("TC-%02d", i), ProvenanceSynthetic)))
	}

	cases := ds.Cases()
	require.Len(t, cases, 10)
	for i, tc := range cases {
		assert.Equal(t, fmt.Sprintf("TC-%02d", i), tc.ID)
	}
}

func TestDatasetRejectsDuplicateIDs(t *testing.T) {
	ds := New()
	require.NoError(t, ds.Add(testCase("TC-01", ProvenanceSynthetic)))
	err := ds.Add(testCase("TC-01", ProvenanceProduction))
	assert.Error(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestDatasetRejectsEmptyID(t *testing.T) {
	ds := New()
	assert.Error(t, ds.Add(testCase("", ProvenanceSynthetic)))
}

func TestLoadDirMergesSyntheticThenProduction(t *testing.T) {
	dir := t.TempDir()

	synthetic := []TestCase{testCase("SYN-01", ProvenanceSynthetic), testCase("SYN-02", ProvenanceSynthetic)}
	production := []TestCase{testCase("ANON000001", ProvenanceProduction)}

	require.NoError(t, WriteFile(filepath.Join(dir, SyntheticFile), synthetic))
	require.NoError(t, WriteFile(filepath.Join(dir, ProductionFile), production))

	ds, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	cases := ds.Cases()
	assert.Equal(t, "SYN-01", cases[0].ID)
	assert.Equal(t, "SYN-02", cases[1].ID)
	assert.Equal(t, "ANON000001", cases[2].ID)

	loaded, ok := ds.Get("ANON000001")
	require.True(t, ok)
	assert.Equal(t, ProvenanceProduction, loaded.Provenance)
	assert.True(t, loaded.Input.MarketPrice.Equal(decimal.NewFromInt(100)))
}

func TestLoadDirToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, SyntheticFile), []TestCase{testCase("SYN-01", ProvenanceSynthetic)}))

	ds, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestLoadDirRejectsCrossFileDuplicates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, SyntheticFile), []TestCase{testCase("TC-01", ProvenanceSynthetic)}))
	require.NoError(t, WriteFile(filepath.Join(dir, ProductionFile), []TestCase{testCase("TC-01", ProvenanceProduction)}))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}
