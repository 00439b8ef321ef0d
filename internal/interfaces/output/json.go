package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sawpanic/gridrun/internal/application/scan"
	"github.com/sawpanic/gridrun/internal/config"
	"github.com/sawpanic/gridrun/internal/models"
	"github.com/sawpanic/gridrun/internal/screener"
)

// JSON writes the run with its metadata
type JSON struct {
	Top    int
	Indent bool
}

// Document is the JSON output shape
type Document struct {
	Metadata        Metadata                `json:"metadata"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Rejected        []screener.Rejection    `json:"rejected"`
	Skipped         []screener.SkippedPair  `json:"skipped"`
}

// Metadata describes the run that produced a Document
type Metadata struct {
	RunID         string                 `json:"run_id"`
	Timestamp     time.Time              `json:"timestamp"`
	Source        string                 `json:"source"`
	Parameters    config.ScreeningConfig `json:"parameters"`
	ScreenedPairs int                    `json:"screened_pairs"`
	Evaluated     int                    `json:"evaluated"`
	Passed        int                    `json:"passed"`
	DurationMS    int64                  `json:"duration_ms"`
}

// NewDocument builds the output document for run
func NewDocument(run *scan.Run, top int) Document {
	return Document{
		Metadata: Metadata{
			RunID:         run.ID,
			Timestamp:     run.StartedAt,
			Source:        run.Source,
			Parameters:    run.Parameters,
			ScreenedPairs: run.Records,
			Evaluated:     run.Report.Evaluated,
			Passed:        run.Report.Passed(),
			DurationMS:    run.Duration().Milliseconds(),
		},
		Recommendations: nonNil(run.Top(top)),
		Rejected:        run.Report.Rejected,
		Skipped:         run.Report.Skipped,
	}
}

// Emit implements Emitter
func (j *JSON) Emit(w io.Writer, run *scan.Run) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewDocument(run, j.Top)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func nonNil(recs []models.Recommendation) []models.Recommendation {
	if recs == nil {
		return []models.Recommendation{}
	}
	return recs
}
