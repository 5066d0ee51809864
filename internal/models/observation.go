package models

import "time"

// BandStats holds the per-acquisition statistical summary of one radar
// polarization band over a grid cell. Values are linear backscatter, not dB;
// conversion to dB happens only at detection/display time.
type BandStats struct {
	Mean   float64 `json:"mean" db:"mean"`
	Std    float64 `json:"std" db:"std"`
	Median float64 `json:"median" db:"median"`
	Min    float64 `json:"min" db:"min"`
	Max    float64 `json:"max" db:"max"`
}

// MMD returns the max-minus-min difference (signal range) for the band.
func (b BandStats) MMD() float64 {
	return b.Max - b.Min
}

// Observation is one backscatter summary for one grid cell at one
// acquisition date. Observations are immutable once stored and ordered by
// ObservationDate within a cell.
type Observation struct {
	ID int64 `json:"id" db:"id"`

	CellID          string    `json:"cell_id" db:"grid_cell_id"`
	ObservationDate time.Time `json:"observation_date" db:"observation_date"`

	VV BandStats `json:"vv"`
	VH BandStats `json:"vh"`

	PixelCount    int    `json:"pixel_count" db:"pixel_count"`
	SourceImageID string `json:"source_image_id" db:"source_image_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
