package records

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// FileSource reads calculation records from a JSONL capture file, one record
// per line. Malformed lines are skipped with a warning so a partially
// corrupted capture still yields its good records.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from the given JSONL file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchRecords returns the records tagged with filterTag, in file order.
func (s *FileSource) FetchRecords(ctx context.Context, filterTag string) ([]CalculationRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer file.Close()

	var recs []CalculationRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rec CalculationRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			log.Warn().Err(err).Str("file", s.path).Msg("Skipping malformed capture line")
			continue
		}
		if rec.Event != filterTag {
			continue
		}
		recs = append(recs, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan capture file: %w", err)
	}

	log.Info().Int("records", len(recs)).Str("file", s.path).Str("filter", filterTag).
		Msg("Loaded calculation records from capture file")
	return recs, nil
}
