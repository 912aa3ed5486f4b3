package snapshot

import (
	"context"
	"errors"
)

// ErrStoreUnavailable marks infrastructure failures of the baseline store.
// A store error is never treated as a mismatch; harness runs abort instead so
// that a broken disk or database cannot masquerade as a calculation change.
var ErrStoreUnavailable = errors.New("baseline store unavailable")

// BaselineStore persists accepted snapshots keyed by test case id.
//
// Read returns (nil, nil) when no baseline exists for the id. Any other
// failure wraps ErrStoreUnavailable.
type BaselineStore interface {
	Read(ctx context.Context, testCaseID string) (*Snapshot, error)
	Write(ctx context.Context, testCaseID string, snap Snapshot) error
}
