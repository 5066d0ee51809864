package detection

import (
	"fmt"
	"math"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
	"github.com/forestwatch/deforestation-backend-go/internal/stats"
)

// dbSentinelFloor stands in for the dB value of a non-positive linear mean.
// Radar backscatter this low is effectively no return signal.
const dbSentinelFloor = -40.0

// DetectorConfig holds the adaptive-threshold coefficients. All values are
// configuration, not constants; thresholds are in dB and negative.
type DetectorConfig struct {
	VVBaseThresholdDB float64 `yaml:"vv_base_threshold_db"`
	VHBaseThresholdDB float64 `yaml:"vh_base_threshold_db"`

	// VarianceCoeff loosens the threshold (makes it more negative) per dB of
	// historical standard deviation, so noisy cells need a deeper drop.
	VarianceCoeff float64 `yaml:"variance_coeff"`

	// ProximityMinFactor scales the threshold toward zero next to recent
	// alerts; at distance zero the factor is this value, at
	// ProximityMaxMeters and beyond it is 1.0 (no tightening).
	ProximityMinFactor float64 `yaml:"proximity_min_factor"`
	ProximityMaxMeters float64 `yaml:"proximity_max_meters"`

	// Clamp bounds for the effective threshold, in dB.
	ThresholdFloorDB float64 `yaml:"threshold_floor_db"`
	ThresholdCeilDB  float64 `yaml:"threshold_ceil_db"`
}

// DefaultDetectorConfig returns the nominal operating coefficients.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		VVBaseThresholdDB:  -2.0,
		VHBaseThresholdDB:  -2.3,
		VarianceCoeff:      0.5,
		ProximityMinFactor: 0.7,
		ProximityMaxMeters: 5000.0,
		ThresholdFloorDB:   -6.0,
		ThresholdCeilDB:    -1.0,
	}
}

// Detector implements adaptive linear thresholding over per-cell backscatter
// drops. Stateless; safe for concurrent use across cells.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a detector with the given coefficients.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// CellInput is everything the detector needs to evaluate one cell against the
// newest observation. History is oldest first and includes the newest
// observation as its last element.
type CellInput struct {
	CellID   string
	ImageID  string
	History  []models.Observation
	Baseline *Baseline

	// DistanceToRecentAlertMeters is the haversine distance to the nearest
	// recently alerted cell, or +Inf when none is known.
	DistanceToRecentAlertMeters float64
}

// ToDB converts a linear backscatter value to decibels, flooring non-positive
// inputs at the sentinel instead of evaluating log10 on them.
func ToDB(linear float64) float64 {
	if linear <= 0 || math.IsNaN(linear) {
		return dbSentinelFloor
	}
	return 10 * math.Log10(linear)
}

// ProximityFactor returns the threshold scale for a cell at distance d meters
// from the nearest recent alert. Quadratic ramp from the minimum factor at
// d=0 up to 1.0 at and beyond the configured maximum distance.
func (d *Detector) ProximityFactor(distMeters float64) float64 {
	if math.IsNaN(distMeters) || math.IsInf(distMeters, 1) {
		return 1.0
	}
	if distMeters < 0 {
		distMeters = 0
	}
	ratio := 1.0
	if d.cfg.ProximityMaxMeters > 0 {
		ratio = math.Min(distMeters/d.cfg.ProximityMaxMeters, 1.0)
	}
	return d.cfg.ProximityMinFactor + (1-d.cfg.ProximityMinFactor)*ratio*ratio
}

// EffectiveThreshold derives the per-cell threshold for one band from its
// nominal base, the cell's historical variability in dB, and proximity to
// recent alerts. Higher variability loosens (more negative), proximity
// tightens (scales toward zero); the result is clamped to the configured
// bounds so no cell can become untriggerable or hair-triggered.
func (d *Detector) EffectiveThreshold(baseDB, stdDB, distMeters float64) float64 {
	if math.IsNaN(stdDB) || stdDB < 0 {
		stdDB = 0
	}
	eff := (baseDB - d.cfg.VarianceCoeff*stdDB) * d.ProximityFactor(distMeters)
	if eff < d.cfg.ThresholdFloorDB {
		eff = d.cfg.ThresholdFloorDB
	}
	if eff > d.cfg.ThresholdCeilDB {
		eff = d.cfg.ThresholdCeilDB
	}
	return eff
}

// Evaluate computes per-band drops and trigger decisions for one cell.
// Returns a candidate for every evaluated cell, triggered or not; per-band
// drops and effective thresholds are always filled in.
func (d *Detector) Evaluate(in CellInput) (*models.Candidate, error) {
	if len(in.History) == 0 || in.Baseline == nil {
		return nil, ErrInsufficientHistory
	}

	current := in.History[len(in.History)-1]
	if current.PixelCount == 0 {
		return nil, fmt.Errorf("%w: cell %s image %s", ErrUnobservedCell, in.CellID, current.SourceImageID)
	}

	vvValid := !math.IsNaN(current.VV.Mean)
	vhValid := !math.IsNaN(current.VH.Mean)
	if !vvValid && !vhValid {
		return nil, fmt.Errorf("%w: cell %s has no band means", ErrMalformedObservation, in.CellID)
	}

	vvHistDB, vhHistDB := historyDB(in.History[:len(in.History)-1])

	candidate := &models.Candidate{
		CellID:          in.CellID,
		ImageID:         in.ImageID,
		ProximityFactor: d.ProximityFactor(in.DistanceToRecentAlertMeters),
	}

	candidate.VVThresholdDB = d.EffectiveThreshold(
		d.cfg.VVBaseThresholdDB, stats.StdDev(vvHistDB), in.DistanceToRecentAlertMeters)
	candidate.VHThresholdDB = d.EffectiveThreshold(
		d.cfg.VHBaseThresholdDB, stats.StdDev(vhHistDB), in.DistanceToRecentAlertMeters)

	if vvValid {
		candidate.VVDropDB = ToDB(current.VV.Mean) - ToDB(in.Baseline.VVMean)
		candidate.VVTriggered = candidate.VVDropDB <= candidate.VVThresholdDB
	}
	if vhValid {
		candidate.VHDropDB = ToDB(current.VH.Mean) - ToDB(in.Baseline.VHMean)
		candidate.VHTriggered = candidate.VHDropDB <= candidate.VHThresholdDB
	}
	candidate.Triggered = candidate.VVTriggered || candidate.VHTriggered

	if vvValid {
		candidate.PatternConfidence = patternConfidence(vvHistDB, ToDB(current.VV.Mean))
	}

	return candidate, nil
}

// PersistenceResult reports whether a previously detected drop is still
// present in a follow-up acquisition.
type PersistenceResult struct {
	VVDropDB float64
	VHDropDB float64
	Persists bool
}

// CheckPersistence re-evaluates a follow-up observation against the original
// baseline using the nominal (unadapted) thresholds. A drop that persists
// across revisits is strong evidence against speckle or moisture transients.
func (d *Detector) CheckPersistence(baseline *Baseline, followUp models.Observation) (*PersistenceResult, error) {
	if baseline == nil {
		return nil, ErrInsufficientHistory
	}
	if followUp.PixelCount == 0 {
		return nil, fmt.Errorf("%w: follow-up for cell %s", ErrUnobservedCell, followUp.CellID)
	}

	res := &PersistenceResult{
		VVDropDB: ToDB(followUp.VV.Mean) - ToDB(baseline.VVMean),
		VHDropDB: ToDB(followUp.VH.Mean) - ToDB(baseline.VHMean),
	}
	res.Persists = res.VVDropDB <= d.cfg.VVBaseThresholdDB || res.VHDropDB <= d.cfg.VHBaseThresholdDB
	return res, nil
}

// historyDB converts a history window's band means to dB series.
func historyDB(history []models.Observation) (vv, vh []float64) {
	vv = make([]float64, len(history))
	vh = make([]float64, len(history))
	for i, o := range history {
		vv[i] = ToDB(o.VV.Mean)
		vh[i] = ToDB(o.VH.Mean)
	}
	return vv, vh
}

// patternConfidence scores the increase-then-sharp-drop signature that often
// precedes clearing (machinery and debris raise backscatter before canopy
// removal drops it). Reported as candidate metadata only.
func patternConfidence(histDB []float64, currentDB float64) float64 {
	if len(histDB) < 3 {
		return 0
	}

	tail := histDB
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}

	recentMean := stats.Mean(tail)
	drop := currentDB - recentMean
	if drop >= -1.0 {
		return 0
	}

	conf := math.Min(-drop/4.0, 1.0)
	rise := tail[len(tail)-1] - stats.Mean(tail[:len(tail)-1])
	if rise > 0.5 {
		conf = math.Min(conf+0.25, 1.0)
	}
	return conf
}
