package models

import (
	"time"
)

// Outcome is the final state of one item in a processing run
type Outcome string

const (
	OutcomeInserted         Outcome = "inserted"           // Stored with enriched metadata
	OutcomeInsertedFallback Outcome = "inserted_fallback"  // Stored with sentinel metadata after enrichment failure
	OutcomeFilterRejected   Outcome = "filter_rejected"    // Not an activity write-up
	OutcomeDuplicate        Outcome = "duplicate_rejected" // source_url already stored
	OutcomeStorageFailed    Outcome = "storage_failed"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeParseFailed      Outcome = "parse_failed"
	OutcomeInterrupted      Outcome = "interrupted" // Worthy, but the run was cancelled before enrichment
)

// AllOutcomes lists outcomes in report order
var AllOutcomes = []Outcome{
	OutcomeInserted,
	OutcomeInsertedFallback,
	OutcomeFilterRejected,
	OutcomeDuplicate,
	OutcomeStorageFailed,
	OutcomeFetchFailed,
	OutcomeParseFailed,
	OutcomeInterrupted,
}

// RunSummary is reported once at the end of a processing run
type RunSummary struct {
	RunID              string          `json:"run_id"`
	StartedAt          time.Time       `json:"started_at"`
	FinishedAt         time.Time       `json:"finished_at"`
	Scraped            int             `json:"scraped"`
	Worthy             int             `json:"worthy"`
	Inserted           int             `json:"inserted"`
	EnrichmentFailures int             `json:"enrichment_failures"`
	Outcomes           map[Outcome]int `json:"outcomes"`
	EnrichmentErrors   map[string]int  `json:"enrichment_errors,omitempty"` // by failure kind
}

// NewRunSummary creates an empty summary with every outcome present
func NewRunSummary(runID string) *RunSummary {
	outcomes := make(map[Outcome]int, len(AllOutcomes))
	for _, o := range AllOutcomes {
		outcomes[o] = 0
	}
	return &RunSummary{
		RunID:            runID,
		StartedAt:        time.Now().UTC(),
		Outcomes:         outcomes,
		EnrichmentErrors: make(map[string]int),
	}
}

// Duration returns the elapsed run time
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
