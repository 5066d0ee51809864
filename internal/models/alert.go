package models

import "time"

// Risk tier constants
const (
	RiskTier1 = "TIER_1" // standard
	RiskTier2 = "TIER_2" // protected area
)

// Alert status constants. Transitions out of PENDING are owned by the
// external reviewer workflow, not by this core.
const (
	AlertStatusPending       = "PENDING"
	AlertStatusVerified      = "VERIFIED"
	AlertStatusFalsePositive = "FALSE_POSITIVE"
	AlertStatusInvestigating = "INVESTIGATING"
)

// AlertCandidate is the actionable alert record emitted for one accepted
// detection. Created only when the combined confidence clears the decision
// threshold; raw per-band dB drops are retained regardless for audit.
type AlertCandidate struct {
	ID int64 `json:"id" db:"id"`

	CellID        string    `json:"cell_id" db:"grid_cell_id"`
	DetectionDate time.Time `json:"detection_date" db:"detection_date"`

	ConfidenceScore float64 `json:"confidence_score" db:"confidence_score"`
	AreaHectares    float64 `json:"area_hectares" db:"area_hectares"`

	RiskTier string `json:"risk_tier" db:"risk_tier"`
	Status   string `json:"status" db:"status"`

	VVDropDB float64 `json:"vv_drop_db" db:"alt_vv_drop_db"`
	VHDropDB float64 `json:"vh_drop_db" db:"alt_vh_drop_db"`

	// Optical fields are nil when no cloud-free optical imagery covered the
	// detection window; "unavailable" is distinct from a zero score.
	OpticalScore  *float64 `json:"optical_score,omitempty" db:"optical_score"`
	CombinedScore float64  `json:"combined_score" db:"combined_score"`
	NDVIDrop      *float64 `json:"ndvi_drop,omitempty" db:"ndvi_drop"`

	SourceImageID string `json:"source_image_id" db:"source_image_id"`

	// BoundaryID is set when the alert geometry intersects a protected
	// boundary (TIER_2). MunicipalityID is descriptive location only and
	// never elevates the tier.
	BoundaryID     *int64 `json:"boundary_id,omitempty" db:"boundary_id"`
	MunicipalityID *int64 `json:"municipality_id,omitempty" db:"municipality_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
