package repository

import (
	"database/sql"
	"fmt"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

// ObservationRepository handles database operations for backscatter
// time-series observations
type ObservationRepository struct {
	db *sql.DB
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *sql.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

const observationColumns = `
	id, grid_cell_id, observation_date,
	vv_mean, vv_std, vv_median, vv_min, vv_max,
	vh_mean, vh_std, vh_median, vh_min, vh_max,
	pixel_count, source_image_id, created_at
`

func scanObservation(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Observation, error) {
	var o models.Observation
	err := scanner.Scan(
		&o.ID, &o.CellID, &o.ObservationDate,
		&o.VV.Mean, &o.VV.Std, &o.VV.Median, &o.VV.Min, &o.VV.Max,
		&o.VH.Mean, &o.VH.Std, &o.VH.Median, &o.VH.Min, &o.VH.Max,
		&o.PixelCount, &o.SourceImageID, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// InsertBatch stores a batch of observations, skipping duplicates
// (same cell, date and source image)
func (r *ObservationRepository) InsertBatch(observations []models.Observation) error {
	query := `
		INSERT INTO backscatter_timeseries (
			grid_cell_id, observation_date,
			vv_mean, vv_std, vv_median, vv_min, vv_max,
			vh_mean, vh_std, vh_median, vh_min, vh_max,
			pixel_count, source_image_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (grid_cell_id, observation_date, source_image_id) DO NOTHING
	`

	return transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare observation insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range observations {
			_, err := stmt.Exec(
				o.CellID, o.ObservationDate,
				o.VV.Mean, o.VV.Std, o.VV.Median, o.VV.Min, o.VV.Max,
				o.VH.Mean, o.VH.Std, o.VH.Median, o.VH.Min, o.VH.Max,
				o.PixelCount, o.SourceImageID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert observation for cell %s: %w", o.CellID, err)
			}
		}
		return nil
	})
}

// History retrieves the most recent observations for a cell, ordered by
// observation date ascending (newest last). limit bounds the rolling window.
func (r *ObservationRepository) History(cellID string, limit int) ([]models.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM backscatter_timeseries
		WHERE grid_cell_id = ?
		ORDER BY observation_date DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, cellID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observation history: %w", err)
	}
	defer rows.Close()

	var newestFirst []models.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		newestFirst = append(newestFirst, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	// Reverse so callers see the window oldest-first, newest last.
	history := make([]models.Observation, len(newestFirst))
	for i, o := range newestFirst {
		history[len(newestFirst)-1-i] = o
	}
	return history, nil
}

// ListByImage retrieves the observations recorded for one source image,
// one per grid cell
func (r *ObservationRepository) ListByImage(imageID string) ([]models.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM backscatter_timeseries
		WHERE source_image_id = ?
		ORDER BY grid_cell_id
	`

	rows, err := r.db.Query(query, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations for image: %w", err)
	}
	defer rows.Close()

	var observations []models.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return observations, nil
}

func transaction(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
