// Package dataset holds the golden dataset: the curated, versioned set of
// test cases the regression harness runs against.
package dataset

import (
	"fmt"
	"time"

	"github.com/quantfix/bondregress/internal/engine"
)

// Provenance values for a test case.
const (
	ProvenanceSynthetic  = "synthetic"  // hand-authored by engineers
	ProvenanceProduction = "production" // curated from captured records
)

// TestCase is one golden-dataset entry. Immutable once written.
type TestCase struct {
	ID          string                  `json:"id"`
	Description string                  `json:"description"`
	Input       engine.CalculationInput `json:"input"`
	Provenance  string                  `json:"provenance"`
	Tags        []string                `json:"tags,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Dataset maps test case ids to cases, with unique ids and insertion order
// preserved for reproducible iteration.
type Dataset struct {
	order []string
	cases map[string]TestCase
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{cases: make(map[string]TestCase)}
}

// Add appends a test case. Duplicate ids are rejected.
func (d *Dataset) Add(tc TestCase) error {
	if tc.ID == "" {
		return fmt.Errorf("test case id must not be empty")
	}
	if _, exists := d.cases[tc.ID]; exists {
		return fmt.Errorf("duplicate test case id: %s", tc.ID)
	}
	d.order = append(d.order, tc.ID)
	d.cases[tc.ID] = tc
	return nil
}

// Get returns the test case for id.
func (d *Dataset) Get(id string) (TestCase, bool) {
	tc, ok := d.cases[id]
	return tc, ok
}

// Cases returns all test cases in insertion order.
func (d *Dataset) Cases() []TestCase {
	out := make([]TestCase, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.cases[id])
	}
	return out
}

// Len returns the number of test cases.
func (d *Dataset) Len() int {
	return len(d.order)
}
