package detection

import (
	"fmt"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
	"github.com/forestwatch/deforestation-backend-go/internal/stats"
)

// ObservationHistory is the source of per-cell observation windows. Satisfied
// by repository.ObservationRepository.
type ObservationHistory interface {
	History(cellID string, limit int) ([]models.Observation, error)
}

// BaselineStore maintains the rolling per-cell history window and computes
// baselines on demand. Entries older than the window are excluded from
// baseline computation; long-term storage keeps them regardless.
type BaselineStore struct {
	source     ObservationHistory
	windowSize int
	minHistory int
}

// NewBaselineStore creates a baseline store over an observation source.
// windowSize bounds the rolling window (N most recent observations);
// minHistory is the minimum history length required to evaluate a cell.
func NewBaselineStore(source ObservationHistory, windowSize, minHistory int) *BaselineStore {
	return &BaselineStore{source: source, windowSize: windowSize, minHistory: minHistory}
}

// History returns the cell's rolling window, oldest first, newest last.
func (s *BaselineStore) History(cellID string) ([]models.Observation, error) {
	history, err := s.source.History(cellID, s.windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for cell %s: %w", cellID, err)
	}
	return history, nil
}

// Baseline holds a cell's expected normal signal statistics per band,
// derived from its own history. Values are linear backscatter.
type Baseline struct {
	VVMean   float64
	VVStd    float64
	VVMedian float64
	VHMean   float64
	VHStd    float64
	VHMedian float64
	Count    int
}

// Compute derives the baseline from a history window, excluding the newest
// observation (the one under test). Returns ErrInsufficientHistory when the
// remaining window is shorter than the configured minimum.
func (s *BaselineStore) Compute(history []models.Observation) (*Baseline, error) {
	if len(history) < 1 {
		return nil, ErrInsufficientHistory
	}

	past := history[:len(history)-1]
	if len(past) < s.minHistory {
		return nil, fmt.Errorf("%w: %d < %d", ErrInsufficientHistory, len(past), s.minHistory)
	}

	vv := make([]float64, len(past))
	vh := make([]float64, len(past))
	for i, o := range past {
		vv[i] = o.VV.Mean
		vh[i] = o.VH.Mean
	}

	return &Baseline{
		VVMean:   stats.Mean(vv),
		VVStd:    stats.StdDev(vv),
		VVMedian: stats.Median(vv),
		VHMean:   stats.Mean(vh),
		VHStd:    stats.StdDev(vh),
		VHMedian: stats.Median(vh),
		Count:    len(past),
	}, nil
}
