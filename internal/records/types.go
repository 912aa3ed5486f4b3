// Package records defines the captured calculation record and the sources
// that fetch previously captured records back out of the transport.
package records

import (
	"context"
	"time"

	"github.com/quantfix/bondregress/internal/engine"
)

// EventClassifier is the fixed tag stamped on every calculation record.
// The capture transport filters on it to separate calculation records from
// general application logs. Stable across the system's lifetime.
const EventClassifier = "bond_analytics_calculation"

// CalculationRecord is the append-only record of one engine invocation,
// success or failure. It is the unit ingested by the curator.
type CalculationRecord struct {
	CorrelationID string                   `json:"correlation_id"`
	Event         string                   `json:"event"`
	Operation     string                   `json:"operation"`
	Input         engine.CalculationInput  `json:"input"`
	Result        *engine.AnalyticsResult  `json:"result,omitempty"`
	Success       bool                     `json:"success"`
	Error         string                   `json:"error,omitempty"`
	Timestamp     time.Time                `json:"timestamp"`
}

// Source fetches candidate calculation records from an external capture
// store (log/search backend, queue, flat file). The core treats it as a
// black box returning a finite ordered list; the caller bounds the fetch
// with the context deadline.
type Source interface {
	FetchRecords(ctx context.Context, filterTag string) ([]CalculationRecord, error)
}
