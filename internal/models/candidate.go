package models

// Candidate is the transient output of the ALT detector for one cell within
// one processing pass. It is never persisted; accepted candidates become
// AlertCandidate records after validation and scoring.
type Candidate struct {
	CellID  string `json:"cell_id"`
	ImageID string `json:"image_id"`

	// Drops are currentDB - baselineDB, so a genuine backscatter drop is
	// negative. Both bands are always computed and reported even when only
	// one triggered.
	VVDropDB float64 `json:"vv_drop_db"`
	VHDropDB float64 `json:"vh_drop_db"`

	VVThresholdDB float64 `json:"vv_threshold_db"`
	VHThresholdDB float64 `json:"vh_threshold_db"`

	VVTriggered bool `json:"vv_triggered"`
	VHTriggered bool `json:"vh_triggered"`
	Triggered   bool `json:"triggered"`

	// PatternConfidence reports the increase-then-sharp-drop signature in
	// the recent history. Observability metadata only; it never changes the
	// trigger decision.
	PatternConfidence float64 `json:"pattern_confidence"`

	ProximityFactor float64 `json:"proximity_factor"`
}
