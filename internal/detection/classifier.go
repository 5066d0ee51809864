package detection

import (
	"github.com/forestwatch/deforestation-backend-go/internal/models"
	"github.com/forestwatch/deforestation-backend-go/internal/spatial"
)

// Classification is the spatial risk assignment for an accepted candidate.
type Classification struct {
	RiskTier string

	// BoundaryID is set only for TIER_2: the protected boundary the cell
	// intersects.
	BoundaryID *int64

	// MunicipalityID is descriptive location context; it never affects the
	// tier.
	MunicipalityID *int64
}

// Classifier assigns risk tiers by intersecting cell geometry with the static
// boundary set. Boundaries are loaded once per pass and read-only.
type Classifier struct {
	boundaries     []models.Boundary
	cellSideMeters float64
}

// NewClassifier creates a classifier over a boundary set. cellSideMeters is
// the grid cell edge length used to build cell polygons from centroids.
func NewClassifier(boundaries []models.Boundary, cellSideMeters float64) *Classifier {
	return &Classifier{boundaries: boundaries, cellSideMeters: cellSideMeters}
}

// Classify assigns the tier for a cell centered at the given coordinates.
// Intersecting any conservation unit or indigenous territory elevates to
// TIER_2 with the boundary recorded; among several, the largest intersection
// wins, then the lowest boundary id, so the result does not depend on
// boundary list order. Municipality intersections only fill in location.
func (c *Classifier) Classify(centerLat, centerLon float64) Classification {
	cell := spatial.CellSquare(spatial.Point{Lat: centerLat, Lon: centerLon}, c.cellSideMeters)

	result := Classification{RiskTier: models.RiskTier1}

	var bestArea float64
	var bestID int64
	var bestMunicipalityID int64

	for i := range c.boundaries {
		b := &c.boundaries[i]
		poly := boundaryPolygon(b)
		if !spatial.PolygonsIntersect(cell, poly) {
			continue
		}

		if b.Protected() {
			area := spatial.IntersectionAreaEstimate(cell, poly)
			if result.BoundaryID == nil || area > bestArea || (area == bestArea && b.ID < bestID) {
				bestArea = area
				bestID = b.ID
				id := b.ID
				result.BoundaryID = &id
				result.RiskTier = models.RiskTier2
			}
			continue
		}

		if b.BoundaryType == models.BoundaryMunicipality {
			if result.MunicipalityID == nil || b.ID < bestMunicipalityID {
				bestMunicipalityID = b.ID
				id := b.ID
				result.MunicipalityID = &id
			}
		}
	}

	return result
}

func boundaryPolygon(b *models.Boundary) []spatial.Point {
	poly := make([]spatial.Point, len(b.Polygon))
	for i, v := range b.Polygon {
		poly[i] = spatial.Point{Lat: v.Lat, Lon: v.Lon}
	}
	return poly
}
