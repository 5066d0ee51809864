package models

import "time"

// GridCell is the fixed spatial unit of detection (~1-2 ha). Cells are
// immutable identity records; everything else references them by CellID.
type GridCell struct {
	ID int64 `json:"id" db:"id"`

	CellID    string  `json:"cell_id" db:"cell_id"`
	CenterLat float64 `json:"center_lat" db:"center_lat"`
	CenterLon float64 `json:"center_lon" db:"center_lon"`

	// AreaHectares is the nominal cell area (100m x 100m = 1 ha by default).
	AreaHectares float64 `json:"area_hectares" db:"area_hectares"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
