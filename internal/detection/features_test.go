package detection

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

var testNorm = NormRange{Min: 0, Max: 0.5}

func TestBuildFullWindow(t *testing.T) {
	builder := NewFeatureBuilder(4)
	history := makeHistory(0.10, 0.05, 0.06, 0.05, 3)

	vec, err := builder.Build(history, testNorm)
	require.NoError(t, err)

	assert.Len(t, vec.Values, 24)
	assert.False(t, vec.Padded)

	// First timestep: vv mean, vv std, vv range, vh mean, vh std, vh range.
	assert.InDelta(t, 0.10/0.5, vec.Values[0], 1e-9)
	assert.InDelta(t, 0.01/0.5, vec.Values[1], 1e-9)
	assert.InDelta(t, 0.02/0.5, vec.Values[2], 1e-9)
	assert.InDelta(t, 0.05/0.5, vec.Values[3], 1e-9)

	// Last timestep carries the newest observation.
	assert.InDelta(t, 0.06/0.5, vec.Values[18], 1e-9)
}

func TestBuildLeftPadsWithOldestValue(t *testing.T) {
	builder := NewFeatureBuilder(5)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []models.Observation{
		makeObservation(start, 0.20, 0.10, 100),
		makeObservation(start.AddDate(0, 0, 6), 0.06, 0.03, 100),
	}

	vec, err := builder.Build(history, testNorm)
	require.NoError(t, err)

	assert.Len(t, vec.Values, 30)
	assert.True(t, vec.Padded)

	// The three padded timesteps repeat the oldest observation, so padding
	// looks like a stable pre-history rather than a drop to zero.
	for ts := 0; ts < 4; ts++ {
		assert.InDelta(t, 0.20/0.5, vec.Values[ts*6], 1e-9, "timestep %d", ts)
	}
	assert.InDelta(t, 0.06/0.5, vec.Values[24], 1e-9)
}

func TestBuildTruncatesToMostRecent(t *testing.T) {
	builder := NewFeatureBuilder(3)
	history := makeHistory(0.10, 0.05, 0.06, 0.05, 5)

	vec, err := builder.Build(history, testNorm)
	require.NoError(t, err)

	assert.Len(t, vec.Values, 18)
	assert.False(t, vec.Padded)
	// Newest observation still occupies the last timestep.
	assert.InDelta(t, 0.06/0.5, vec.Values[12], 1e-9)
}

func TestBuildEmptyHistory(t *testing.T) {
	builder := NewFeatureBuilder(4)
	_, err := builder.Build(nil, testNorm)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestBuildRejectsInvalidNormRange(t *testing.T) {
	builder := NewFeatureBuilder(4)
	history := makeHistory(0.10, 0.05, 0.06, 0.05, 3)

	_, err := builder.Build(history, NormRange{Min: 0.5, Max: 0.5})
	assert.Error(t, err)
}

func TestNormalizeClipsToRange(t *testing.T) {
	assert.Equal(t, 1.0, normalize(0.7, testNorm))
	assert.Equal(t, 0.0, normalize(-0.1, testNorm))
	assert.InDelta(t, 0.5, normalize(0.25, testNorm), 1e-9)
	assert.Equal(t, 0.0, normalize(math.NaN(), testNorm))
	assert.Equal(t, 0.0, normalize(math.Inf(1), testNorm))
}
