package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// File names inside a golden dataset directory, split by provenance so the
// hand-authored and curated halves can be reviewed independently.
const (
	SyntheticFile  = "synthetic_cases.json"
	ProductionFile = "production_cases.json"
)

// fileFormat is the on-disk shape of one golden dataset file. Indented JSON
// keeps it human-reviewable in version control.
type fileFormat struct {
	Version int        `json:"version"`
	Cases   []TestCase `json:"cases"`
}

const fileVersion = 1

// LoadDir reads the golden dataset from dir: synthetic cases first, then
// production cases. Either file may be absent.
func LoadDir(dir string) (*Dataset, error) {
	ds := New()
	for _, name := range []string{SyntheticFile, ProductionFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := loadInto(ds, path); err != nil {
			return nil, err
		}
	}

	log.Info().Int("cases", ds.Len()).Str("dir", dir).Msg("Loaded golden dataset")
	return ds, nil
}

func loadInto(ds *Dataset, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read dataset file: %w", err)
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}

	for _, tc := range file.Cases {
		if err := ds.Add(tc); err != nil {
			return fmt.Errorf("dataset file %s: %w", path, err)
		}
	}
	return nil
}

// WriteFile persists cases to path atomically (temp file + rename), so a
// crashed curation run never leaves a truncated dataset behind.
func WriteFile(path string, cases []TestCase) error {
	data, err := json.MarshalIndent(fileFormat{Version: fileVersion, Cases: cases}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".dataset-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close dataset file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace dataset file: %w", err)
	}

	log.Info().Int("cases", len(cases)).Str("path", path).Msg("Wrote golden dataset file")
	return nil
}
