package pipeline

import (
	"log"
	"time"
)

// SkippedCell records why one cell was left out of a pass. Skips are normal
// (new cells without history, unobserved cells) and never abort the pass.
type SkippedCell struct {
	CellID string
	Reason string
}

// PassSummary is the outcome record of one processing pass over one image.
type PassSummary struct {
	RunID   string
	ImageID string

	CellsEvaluated      int
	CandidatesTriggered int
	ValidatorFailures   int
	RejectedByScore     int
	AlertsEmitted       int

	Skipped  []SkippedCell
	Duration time.Duration
}

// Log writes the summary in structured key=value form.
func (s *PassSummary) Log() {
	log.Printf("pass complete run_id=%s image_id=%s cells=%d triggered=%d validator_failures=%d rejected=%d alerts=%d skipped=%d duration=%s",
		s.RunID, s.ImageID, s.CellsEvaluated, s.CandidatesTriggered,
		s.ValidatorFailures, s.RejectedByScore, s.AlertsEmitted,
		len(s.Skipped), s.Duration.Round(time.Millisecond))
	for _, sk := range s.Skipped {
		log.Printf("cell skipped run_id=%s cell_id=%s reason=%q", s.RunID, sk.CellID, sk.Reason)
	}
}
