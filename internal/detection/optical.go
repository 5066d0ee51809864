package detection

import (
	"fmt"
	"math"
)

// NDVIReading is a pre/post vegetation-index pair for one cell, supplied by
// the optical collaborator when cloud-free imagery covers the detection
// window.
type NDVIReading struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// OpticalScore is the cross-check result. Available distinguishes a real
// score from the absence of optical coverage; callers must never read Score
// when Available is false.
type OpticalScore struct {
	Score     float64
	NDVIDrop  float64
	Available bool
}

// OpticalSource provides NDVI readings per cell. A nil reading with a nil
// error means no cloud-free imagery covers the window.
type OpticalSource interface {
	NDVI(cellID string) (*NDVIReading, error)
}

// CrossCheck scores radar candidates against an independent vegetation-index
// drop.
type CrossCheck struct {
	source OpticalSource
}

// NewCrossCheck creates a cross-check over an optical source. A nil source is
// valid and reports every cell as unavailable.
func NewCrossCheck(source OpticalSource) *CrossCheck {
	return &CrossCheck{source: source}
}

// Evaluate fetches the cell's NDVI pair and scores it. Unavailability is a
// normal outcome, not an error.
func (c *CrossCheck) Evaluate(cellID string) (OpticalScore, error) {
	if c.source == nil {
		return OpticalScore{}, nil
	}
	reading, err := c.source.NDVI(cellID)
	if err != nil {
		return OpticalScore{}, fmt.Errorf("optical lookup for cell %s: %w", cellID, err)
	}
	return ScoreNDVI(reading), nil
}

// ScoreNDVI maps a vegetation-index pair to a corroboration score. A large
// drop strongly corroborates clearing; vegetation that is still green after
// the radar drop argues against it; a modest drop is neutral. A nil or
// non-finite reading is unavailable.
func ScoreNDVI(reading *NDVIReading) OpticalScore {
	if reading == nil ||
		math.IsNaN(reading.Before) || math.IsInf(reading.Before, 0) ||
		math.IsNaN(reading.After) || math.IsInf(reading.After, 0) {
		return OpticalScore{}
	}

	drop := reading.Before - reading.After
	score := 0.5
	switch {
	case drop > 0.15:
		score = 1.0
	case drop > 0.05:
		score = 0.8
	case reading.After > 0.6:
		// Still dense vegetation; the radar drop is likely moisture or
		// speckle.
		score = 0.1
	}

	return OpticalScore{Score: score, NDVIDrop: drop, Available: true}
}
