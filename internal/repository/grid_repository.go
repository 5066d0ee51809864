package repository

import (
	"database/sql"
	"fmt"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

// GridRepository handles database operations for grid cells
type GridRepository struct {
	db *sql.DB
}

// NewGridRepository creates a new grid repository
func NewGridRepository(db *sql.DB) *GridRepository {
	return &GridRepository{db: db}
}

// Insert stores a grid cell, ignoring duplicates (cells are immutable
// identity records)
func (r *GridRepository) Insert(cell *models.GridCell) error {
	query := `
		INSERT INTO grid_cells (cell_id, center_lat, center_lon, area_hectares)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (cell_id) DO NOTHING
	`

	_, err := r.db.Exec(query, cell.CellID, cell.CenterLat, cell.CenterLon, cell.AreaHectares)
	if err != nil {
		return fmt.Errorf("failed to insert grid cell: %w", err)
	}
	return nil
}

// GetByCellID retrieves a single grid cell by its cell_id
func (r *GridRepository) GetByCellID(cellID string) (*models.GridCell, error) {
	query := `
		SELECT id, cell_id, center_lat, center_lon, area_hectares, created_at
		FROM grid_cells
		WHERE cell_id = ?
	`

	var c models.GridCell
	err := r.db.QueryRow(query, cellID).Scan(
		&c.ID, &c.CellID, &c.CenterLat, &c.CenterLon, &c.AreaHectares, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grid cell: %w", err)
	}

	return &c, nil
}

// GetByCellIDs retrieves grid cells for a set of cell ids, keyed by cell_id
func (r *GridRepository) GetByCellIDs(cellIDs []string) (map[string]*models.GridCell, error) {
	cells := make(map[string]*models.GridCell, len(cellIDs))
	for _, id := range cellIDs {
		cell, err := r.GetByCellID(id)
		if err != nil {
			return nil, err
		}
		if cell != nil {
			cells[id] = cell
		}
	}
	return cells, nil
}
