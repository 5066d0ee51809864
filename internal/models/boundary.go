package models

// Boundary type constants
const (
	BoundaryMunicipality        = "MUNICIPALITY"
	BoundaryConservationUnit    = "CONSERVATION_UNIT"
	BoundaryIndigenousTerritory = "INDIGENOUS_TERRITORY"
)

// LatLon is one polygon vertex in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Boundary is a static reference polygon (municipality, conservation unit or
// indigenous territory). Read-only to the detection core.
type Boundary struct {
	ID           int64    `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	OfficialCode string   `json:"official_code,omitempty" db:"official_code"`
	BoundaryType string   `json:"boundary_type" db:"boundary_type"`
	RiskTier     string   `json:"risk_tier" db:"risk_tier"`
	Polygon      []LatLon `json:"polygon"`
}

// Protected reports whether intersecting this boundary elevates an alert to
// TIER_2.
func (b *Boundary) Protected() bool {
	return b.BoundaryType == BoundaryConservationUnit ||
		b.BoundaryType == BoundaryIndigenousTerritory
}
