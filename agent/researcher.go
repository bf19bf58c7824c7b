package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
)

// RawSource is an evidence record as read from the evidence file, before
// provenance validation. Pointer fields distinguish "absent" from zero
// values.
type RawSource struct {
	Source     *string  `json:"source"`
	Timestamp  *string  `json:"timestamp"`
	Confidence *float64 `json:"confidence"`
	Notes      string   `json:"notes,omitempty"`
	Hash       string   `json:"hash,omitempty"`
	Origin     string   `json:"origin,omitempty"`
}

// SourceError describes one invalid evidence record. Index is nil when
// the whole list is invalid (empty).
type SourceError struct {
	Index   *int     `json:"index"`
	Missing []string `json:"missing,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// SourceValidation is the Researcher's gate result.
type SourceValidation struct {
	OK     bool          `json:"ok"`
	Errors []SourceError `json:"errors"`
}

// ResearcherOptions configures a Researcher.
type ResearcherOptions struct {
	Logger logging.Logger
}

// Researcher gates evidence on provenance. It must not speculate beyond
// sources and cannot generate final content.
type Researcher struct {
	logger logging.Logger
}

// NewResearcher creates a Researcher.
func NewResearcher(optFns ...func(o *ResearcherOptions)) *Researcher {
	opts := ResearcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Researcher{logger: opts.Logger}
}

// LoadSources reads the evidence file: a JSON list of records. A missing
// file returns os.ErrNotExist so callers can distinguish "not provided"
// from "invalid".
func LoadSources(path string) ([]RawSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sources []RawSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("evidence file %s must contain a list of source records: %w", path, err)
	}
	return sources, nil
}

// ValidateSources checks that every record carries the mandatory
// source/timestamp/confidence triple. An empty list is always invalid.
func (r *Researcher) ValidateSources(sources []RawSource) SourceValidation {
	if len(sources) == 0 {
		r.logger.Warn("Researcher validation failed: empty evidence list")
		return SourceValidation{
			OK:     false,
			Errors: []SourceError{{Index: nil, Reason: "no sources provided"}},
		}
	}

	var errs []SourceError
	for idx, src := range sources {
		var missing []string
		if src.Source == nil || *src.Source == "" {
			missing = append(missing, "source")
		}
		if src.Timestamp == nil || *src.Timestamp == "" {
			missing = append(missing, "timestamp")
		}
		if src.Confidence == nil {
			missing = append(missing, "confidence")
		}
		if len(missing) > 0 {
			i := idx
			errs = append(errs, SourceError{Index: &i, Missing: missing})
		}
	}

	r.logger.Info("Researcher validation complete", "errors", len(errs))
	return SourceValidation{OK: len(errs) == 0, Errors: errs}
}

// ToRecords converts validated raw sources into SourceRecords. Call only
// after ValidateSources reported OK.
func ToRecords(sources []RawSource) []core.SourceRecord {
	records := make([]core.SourceRecord, 0, len(sources))
	for _, src := range sources {
		rec := core.SourceRecord{
			Notes:  src.Notes,
			Hash:   src.Hash,
			Origin: src.Origin,
		}
		if src.Source != nil {
			rec.Source = *src.Source
		}
		if src.Timestamp != nil {
			rec.Timestamp = *src.Timestamp
		}
		if src.Confidence != nil {
			rec.Confidence = *src.Confidence
		}
		records = append(records, rec)
	}
	return records
}

// DistinctSources counts unique source identifiers, used for the
// single-source rule.
func DistinctSources(records []core.SourceRecord) int {
	seen := map[string]struct{}{}
	for _, rec := range records {
		if rec.Source != "" {
			seen[rec.Source] = struct{}{}
		}
	}
	return len(seen)
}

// AppendSource adds one provenance entry to the evidence file, creating
// it when absent. Confidence must be within [0,1].
func AppendSource(path, source string, confidence float64, notes string) error {
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", confidence)
	}

	var sources []RawSource
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &sources); err != nil {
			return fmt.Errorf("evidence file %s is not a source list: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	sources = append(sources, RawSource{
		Source:     &source,
		Timestamp:  &ts,
		Confidence: &confidence,
		Notes:      notes,
	})

	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
