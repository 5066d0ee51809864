package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

// AlertRepository handles database operations for alert candidates
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// InsertBatchTx stores a batch of alert candidates inside the caller's
// transaction. The pipeline commits alerts together with the image's
// COMPLETED transition so a failed pass never leaves partial writes.
func (r *AlertRepository) InsertBatchTx(tx *sql.Tx, alerts []*models.AlertCandidate) error {
	query := `
		INSERT INTO alert_candidates (
			grid_cell_id, detection_date, confidence_score, area_hectares,
			risk_tier, status, alt_vv_drop_db, alt_vh_drop_db,
			optical_score, combined_score, ndvi_drop,
			source_image_id, boundary_id, municipality_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare alert insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		status := a.Status
		if status == "" {
			status = models.AlertStatusPending
		}
		result, err := stmt.Exec(
			a.CellID, a.DetectionDate, a.ConfidenceScore, a.AreaHectares,
			a.RiskTier, status, a.VVDropDB, a.VHDropDB,
			a.OpticalScore, a.CombinedScore, a.NDVIDrop,
			a.SourceImageID, a.BoundaryID, a.MunicipalityID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert for cell %s: %w", a.CellID, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		a.ID = id
	}
	return nil
}

// CountByImage returns the number of alert rows emitted for a source image
func (r *AlertRepository) CountByImage(imageID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM alert_candidates WHERE source_image_id = ?", imageID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts for image: %w", err)
	}
	return count, nil
}

// ListByImage retrieves the alert candidates emitted for a source image
func (r *AlertRepository) ListByImage(imageID string) ([]*models.AlertCandidate, error) {
	query := `
		SELECT id, grid_cell_id, detection_date, confidence_score, area_hectares,
			risk_tier, status, alt_vv_drop_db, alt_vh_drop_db,
			optical_score, combined_score, ndvi_drop,
			source_image_id, boundary_id, municipality_id, created_at
		FROM alert_candidates
		WHERE source_image_id = ?
		ORDER BY grid_cell_id
	`

	rows, err := r.db.Query(query, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.AlertCandidate
	for rows.Next() {
		a := &models.AlertCandidate{}
		err := rows.Scan(
			&a.ID, &a.CellID, &a.DetectionDate, &a.ConfidenceScore, &a.AreaHectares,
			&a.RiskTier, &a.Status, &a.VVDropDB, &a.VHDropDB,
			&a.OpticalScore, &a.CombinedScore, &a.NDVIDrop,
			&a.SourceImageID, &a.BoundaryID, &a.MunicipalityID, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// RecentCells returns the distinct grid cell ids with alerts detected on or
// after the given date. Feeds the detector's proximity tightening.
func (r *AlertRepository) RecentCells(since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT grid_cell_id FROM alert_candidates
		WHERE detection_date >= ?
		ORDER BY grid_cell_id
	`

	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent alert cells: %w", err)
	}
	defer rows.Close()

	var cellIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan alert cell id: %w", err)
		}
		cellIDs = append(cellIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert cells: %w", err)
	}

	return cellIDs, nil
}

// UpdateStatus records a reviewer decision on an alert. Transitions out of
// PENDING belong to the external review workflow.
func (r *AlertRepository) UpdateStatus(alertID int64, status string) error {
	_, err := r.db.Exec("UPDATE alert_candidates SET status = ? WHERE id = ?", status, alertID)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	return nil
}
