package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per baseline under a directory. Writes are
// atomic (temp file then rename) so a crashed accept never leaves a
// half-written baseline behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the baseline directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create baseline dir %s: %v", ErrStoreUnavailable, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(testCaseID string) string {
	return filepath.Join(s.dir, testCaseID+".json")
}

// Read loads the baseline for a test case, returning (nil, nil) when none
// has been accepted yet.
func (s *FileStore) Read(ctx context.Context, testCaseID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(testCaseID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}
	return &snap, nil
}

// Write persists a baseline, replacing any previous one for the same id.
func (s *FileStore) Write(ctx context.Context, testCaseID string, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}

	tmp, err := os.CreateTemp(s.dir, testCaseID+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: stage baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: stage baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: stage baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}
	if err := os.Rename(tmpName, s.path(testCaseID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: commit baseline %s: %v", ErrStoreUnavailable, testCaseID, err)
	}
	return nil
}
