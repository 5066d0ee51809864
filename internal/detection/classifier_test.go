package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

func squareBoundary(id int64, boundaryType string, minLat, minLon, maxLat, maxLon float64) models.Boundary {
	tier := models.RiskTier1
	if boundaryType != models.BoundaryMunicipality {
		tier = models.RiskTier2
	}
	return models.Boundary{
		ID:           id,
		Name:         boundaryType,
		BoundaryType: boundaryType,
		RiskTier:     tier,
		Polygon: []models.LatLon{
			{Lat: minLat, Lon: minLon},
			{Lat: minLat, Lon: maxLon},
			{Lat: maxLat, Lon: maxLon},
			{Lat: maxLat, Lon: minLon},
		},
	}
}

func TestClassifyOutsideAllBoundaries(t *testing.T) {
	boundaries := []models.Boundary{
		squareBoundary(1, models.BoundaryConservationUnit, 10, 10, 11, 11),
	}
	c := NewClassifier(boundaries, 100)

	result := c.Classify(-3.0, -60.0)
	assert.Equal(t, models.RiskTier1, result.RiskTier)
	assert.Nil(t, result.BoundaryID)
	assert.Nil(t, result.MunicipalityID)
}

func TestClassifyIndigenousTerritoryElevatesToTier2(t *testing.T) {
	boundaries := []models.Boundary{
		squareBoundary(7, models.BoundaryIndigenousTerritory, -3.01, -60.01, -2.99, -59.99),
	}
	c := NewClassifier(boundaries, 100)

	result := c.Classify(-3.0, -60.0)
	assert.Equal(t, models.RiskTier2, result.RiskTier)
	require.NotNil(t, result.BoundaryID)
	assert.Equal(t, int64(7), *result.BoundaryID)
}

func TestClassifyMunicipalityNeverElevates(t *testing.T) {
	boundaries := []models.Boundary{
		squareBoundary(3, models.BoundaryMunicipality, -3.1, -60.1, -2.9, -59.9),
	}
	c := NewClassifier(boundaries, 100)

	result := c.Classify(-3.0, -60.0)
	assert.Equal(t, models.RiskTier1, result.RiskTier)
	assert.Nil(t, result.BoundaryID)
	require.NotNil(t, result.MunicipalityID)
	assert.Equal(t, int64(3), *result.MunicipalityID)
}

func TestClassifyLargestIntersectionWins(t *testing.T) {
	// Boundary 9 covers the whole cell, boundary 2 only its eastern edge.
	full := squareBoundary(9, models.BoundaryConservationUnit, -3.01, -60.01, -2.99, -59.99)
	partial := squareBoundary(2, models.BoundaryIndigenousTerritory, -3.01, -60.0, -2.99, -59.99)

	for _, boundaries := range [][]models.Boundary{{full, partial}, {partial, full}} {
		c := NewClassifier(boundaries, 100)
		result := c.Classify(-3.0, -60.0)

		assert.Equal(t, models.RiskTier2, result.RiskTier)
		require.NotNil(t, result.BoundaryID)
		assert.Equal(t, int64(9), *result.BoundaryID)
	}
}

func TestClassifyTiesBreakOnLowestID(t *testing.T) {
	a := squareBoundary(5, models.BoundaryConservationUnit, -3.01, -60.01, -2.99, -59.99)
	b := squareBoundary(9, models.BoundaryConservationUnit, -3.01, -60.01, -2.99, -59.99)

	for _, boundaries := range [][]models.Boundary{{a, b}, {b, a}} {
		c := NewClassifier(boundaries, 100)
		result := c.Classify(-3.0, -60.0)

		require.NotNil(t, result.BoundaryID)
		assert.Equal(t, int64(5), *result.BoundaryID)
	}
}

func TestClassifyRecordsMunicipalityAlongsideTier2(t *testing.T) {
	boundaries := []models.Boundary{
		squareBoundary(3, models.BoundaryMunicipality, -3.1, -60.1, -2.9, -59.9),
		squareBoundary(7, models.BoundaryConservationUnit, -3.01, -60.01, -2.99, -59.99),
	}
	c := NewClassifier(boundaries, 100)

	result := c.Classify(-3.0, -60.0)
	assert.Equal(t, models.RiskTier2, result.RiskTier)
	require.NotNil(t, result.BoundaryID)
	assert.Equal(t, int64(7), *result.BoundaryID)
	require.NotNil(t, result.MunicipalityID)
	assert.Equal(t, int64(3), *result.MunicipalityID)
}
