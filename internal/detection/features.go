package detection

import (
	"fmt"
	"math"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

// featuresPerTimestep is the per-observation feature layout: vv mean, vv std,
// vv range, vh mean, vh std, vh range.
const featuresPerTimestep = 6

// NormRange is the fixed training-time value range features are clipped and
// scaled against. It travels with the model weights so inference always
// normalizes the way training did.
type NormRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FeatureVector is the fixed-length input to the neural validator, assembled
// from a cell's observation window.
type FeatureVector struct {
	Values []float64
	Padded bool
}

// FeatureBuilder assembles fixed-length feature vectors from observation
// windows of varying length.
type FeatureBuilder struct {
	windowSize int
}

// NewFeatureBuilder creates a builder for the given window length (the number
// of timesteps the validator was trained on).
func NewFeatureBuilder(windowSize int) *FeatureBuilder {
	return &FeatureBuilder{windowSize: windowSize}
}

// Length returns the vector length the builder produces.
func (b *FeatureBuilder) Length() int {
	return b.windowSize * featuresPerTimestep
}

// Build assembles and normalizes the feature vector for a history window
// (oldest first). Short windows are left-padded by repeating the oldest
// observation's values, so the padding looks like a stable pre-history rather
// than a signal drop to zero; windows longer than the model's expectation
// keep their most recent observations.
func (b *FeatureBuilder) Build(history []models.Observation, norm NormRange) (*FeatureVector, error) {
	if len(history) == 0 {
		return nil, ErrInsufficientHistory
	}
	if norm.Max <= norm.Min {
		return nil, fmt.Errorf("invalid normalization range [%v, %v]", norm.Min, norm.Max)
	}

	window := history
	if len(window) > b.windowSize {
		window = window[len(window)-b.windowSize:]
	}

	vec := &FeatureVector{
		Values: make([]float64, 0, b.Length()),
		Padded: len(window) < b.windowSize,
	}

	for i := len(window); i < b.windowSize; i++ {
		vec.appendObservation(window[0], norm)
	}
	for _, o := range window {
		vec.appendObservation(o, norm)
	}

	return vec, nil
}

func (v *FeatureVector) appendObservation(o models.Observation, norm NormRange) {
	v.Values = append(v.Values,
		normalize(o.VV.Mean, norm),
		normalize(o.VV.Std, norm),
		normalize(o.VV.MMD(), norm),
		normalize(o.VH.Mean, norm),
		normalize(o.VH.Std, norm),
		normalize(o.VH.MMD(), norm),
	)
}

// normalize clips a raw linear value to the training range and scales it to
// [0,1]. Non-finite inputs map to 0 so a bad statistic cannot poison the
// whole vector.
func normalize(value float64, norm NormRange) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	if value < norm.Min {
		value = norm.Min
	}
	if value > norm.Max {
		value = norm.Max
	}
	return (value - norm.Min) / (norm.Max - norm.Min)
}
