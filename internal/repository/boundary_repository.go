package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

// BoundaryRepository handles database operations for protected-area and
// administrative boundaries. Boundaries are static reference data, read-only
// to the detection core.
type BoundaryRepository struct {
	db *sql.DB
}

// NewBoundaryRepository creates a new boundary repository
func NewBoundaryRepository(db *sql.DB) *BoundaryRepository {
	return &BoundaryRepository{db: db}
}

// Insert stores a boundary polygon (used by seed/import tooling)
func (r *BoundaryRepository) Insert(b *models.Boundary) error {
	polygonJSON, err := json.Marshal(b.Polygon)
	if err != nil {
		return fmt.Errorf("failed to marshal boundary polygon: %w", err)
	}

	query := `
		INSERT INTO forest_boundaries (name, official_code, boundary_type, risk_tier, polygon_json)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, b.Name, b.OfficialCode, b.BoundaryType, b.RiskTier, string(polygonJSON))
	if err != nil {
		return fmt.Errorf("failed to insert boundary: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// ListAll retrieves every boundary with its polygon
func (r *BoundaryRepository) ListAll() ([]models.Boundary, error) {
	query := `
		SELECT id, name, COALESCE(official_code, ''), boundary_type, risk_tier, polygon_json
		FROM forest_boundaries
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query boundaries: %w", err)
	}
	defer rows.Close()

	var boundaries []models.Boundary
	for rows.Next() {
		var b models.Boundary
		var polygonJSON string
		if err := rows.Scan(&b.ID, &b.Name, &b.OfficialCode, &b.BoundaryType, &b.RiskTier, &polygonJSON); err != nil {
			return nil, fmt.Errorf("failed to scan boundary: %w", err)
		}
		if err := json.Unmarshal([]byte(polygonJSON), &b.Polygon); err != nil {
			return nil, fmt.Errorf("failed to parse polygon for boundary %d: %w", b.ID, err)
		}
		boundaries = append(boundaries, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate boundaries: %w", err)
	}

	return boundaries, nil
}
