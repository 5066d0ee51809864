package models

import "time"

// Image status constants. A COMPLETED image must never be reprocessed; a
// FAILED image may be retried.
const (
	ImageStatusPending    = "PENDING"
	ImageStatusProcessing = "PROCESSING"
	ImageStatusCompleted  = "COMPLETED"
	ImageStatusFailed     = "FAILED"
)

// ProcessedImage is the dedup ledger entry for one source satellite image.
// The image-level status transition is the sole serialization point of a
// pass and the system's idempotence guarantee.
type ProcessedImage struct {
	ID int64 `json:"id" db:"id"`

	ImageID         string    `json:"image_id" db:"image_id"`
	AcquisitionDate time.Time `json:"acquisition_date" db:"acquisition_date"`

	// Acquisition metadata supplied by the upstream catalog.
	Platform       string `json:"platform,omitempty" db:"platform"`
	OrbitDirection string `json:"orbit_direction,omitempty" db:"orbit_direction"`

	Status             string     `json:"status" db:"status"`
	ErrorMessage       string     `json:"error_message,omitempty" db:"error_message"`
	NumAlertsGenerated int        `json:"num_alerts_generated" db:"num_alerts_generated"`
	ProcessingDate     *time.Time `json:"processing_date,omitempty" db:"processing_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
