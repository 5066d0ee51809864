package detection

// CombinerConfig holds the score blending weights and the acceptance
// threshold.
type CombinerConfig struct {
	RadarWeight       float64 `yaml:"radar_weight"`
	OpticalWeight     float64 `yaml:"optical_weight"`
	DecisionThreshold float64 `yaml:"decision_threshold"`
}

// DefaultCombinerConfig returns the nominal blend: radar-led with optical
// corroboration, accepting at 0.85.
func DefaultCombinerConfig() CombinerConfig {
	return CombinerConfig{
		RadarWeight:       0.6,
		OpticalWeight:     0.4,
		DecisionThreshold: 0.85,
	}
}

// Combiner merges the radar validator confidence with the optical cross-check
// into one decision score.
type Combiner struct {
	cfg CombinerConfig
}

// NewCombiner creates a combiner with the given weights.
func NewCombiner(cfg CombinerConfig) *Combiner {
	return &Combiner{cfg: cfg}
}

// Combine blends the two confidences. When optical is unavailable the weights
// renormalize onto radar alone, so the combined score equals the radar
// confidence exactly rather than being silently dragged down by a zero.
func (c *Combiner) Combine(radarConfidence float64, optical OpticalScore) float64 {
	if !optical.Available {
		return radarConfidence
	}
	total := c.cfg.RadarWeight + c.cfg.OpticalWeight
	if total == 0 {
		return radarConfidence
	}
	return (c.cfg.RadarWeight*radarConfidence + c.cfg.OpticalWeight*optical.Score) / total
}

// Accept reports whether a combined score clears the decision threshold.
func (c *Combiner) Accept(combined float64) bool {
	return combined >= c.cfg.DecisionThreshold
}
