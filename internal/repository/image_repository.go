package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

// Image lifecycle errors. ErrImageAlreadyProcessed is the idempotent
// short-circuit, not a failure; ErrImageStatusConflict means another run
// holds the image and the caller must abort without side effects.
var (
	ErrImageAlreadyProcessed = errors.New("image already processed")
	ErrImageStatusConflict   = errors.New("image status conflict: held by another run")
	ErrImageNotFound         = errors.New("image not found")
)

// ImageRepository handles the processed-image dedup ledger. The status field
// is the sole serialization point between concurrent pipeline runs, so every
// transition is a compare-and-set on the current status.
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Register records a newly discovered source image as PENDING. Duplicate
// registrations are ignored so catalog polling stays idempotent.
func (r *ImageRepository) Register(img *models.ProcessedImage) error {
	query := `
		INSERT INTO processed_images (image_id, acquisition_date, platform, orbit_direction, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (image_id) DO NOTHING
	`

	status := img.Status
	if status == "" {
		status = models.ImageStatusPending
	}
	_, err := r.db.Exec(query, img.ImageID, img.AcquisitionDate, img.Platform, img.OrbitDirection, status)
	if err != nil {
		return fmt.Errorf("failed to register image: %w", err)
	}
	return nil
}

// Get retrieves the ledger entry for an image id
func (r *ImageRepository) Get(imageID string) (*models.ProcessedImage, error) {
	query := `
		SELECT id, image_id, acquisition_date,
			COALESCE(platform, ''), COALESCE(orbit_direction, ''),
			status, COALESCE(error_message, ''), num_alerts_generated,
			processing_date, created_at
		FROM processed_images
		WHERE image_id = ?
	`

	var img models.ProcessedImage
	err := r.db.QueryRow(query, imageID).Scan(
		&img.ID, &img.ImageID, &img.AcquisitionDate,
		&img.Platform, &img.OrbitDirection,
		&img.Status, &img.ErrorMessage, &img.NumAlertsGenerated,
		&img.ProcessingDate, &img.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}

// TryAcquire transitions a PENDING or FAILED image to PROCESSING. Exactly one
// concurrent caller wins; the others observe ErrImageStatusConflict, and an
// image that already COMPLETED yields ErrImageAlreadyProcessed.
func (r *ImageRepository) TryAcquire(imageID string) error {
	query := `
		UPDATE processed_images
		SET status = ?, error_message = NULL, processing_date = CURRENT_TIMESTAMP
		WHERE image_id = ? AND status IN (?, ?)
	`

	result, err := r.db.Exec(query,
		models.ImageStatusProcessing, imageID,
		models.ImageStatusPending, models.ImageStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to acquire image: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Lost the compare-and-set; report why.
	img, err := r.Get(imageID)
	if err != nil {
		return err
	}
	switch img.Status {
	case models.ImageStatusCompleted:
		return ErrImageAlreadyProcessed
	case models.ImageStatusProcessing:
		return ErrImageStatusConflict
	default:
		return fmt.Errorf("unexpected image status %q for %s", img.Status, imageID)
	}
}

// MarkCompletedTx transitions a PROCESSING image to COMPLETED and records the
// alert count, inside the caller's transaction so alert rows and the terminal
// status commit together.
func (r *ImageRepository) MarkCompletedTx(tx *sql.Tx, imageID string, numAlerts int) error {
	query := `
		UPDATE processed_images
		SET status = ?, num_alerts_generated = ?, error_message = NULL,
			processing_date = CURRENT_TIMESTAMP
		WHERE image_id = ? AND status = ?
	`

	result, err := tx.Exec(query, models.ImageStatusCompleted, numAlerts, imageID, models.ImageStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark image completed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected != 1 {
		return ErrImageStatusConflict
	}
	return nil
}

// MarkFailed transitions a PROCESSING image to FAILED with an error message,
// leaving it eligible for a later retry
func (r *ImageRepository) MarkFailed(imageID string, errorMessage string) error {
	query := `
		UPDATE processed_images
		SET status = ?, error_message = ?
		WHERE image_id = ? AND status = ?
	`

	result, err := r.db.Exec(query, models.ImageStatusFailed, errorMessage, imageID, models.ImageStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark image failed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected != 1 {
		return ErrImageStatusConflict
	}
	return nil
}
