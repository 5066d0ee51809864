package detection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModelJSON = `{
	"version": "test-v1",
	"input_size": 2,
	"norm_range": {"min": 0, "max": 0.5},
	"layers": [
		{"weights": [[1, 0], [0, 1]], "biases": [0, 0]},
		{"weights": [[1, 1]], "biases": [0]}
	]
}`

func TestParseValidator(t *testing.T) {
	v, err := ParseValidator([]byte(testModelJSON))
	require.NoError(t, err)

	assert.Equal(t, "test-v1", v.Version())
	assert.Equal(t, 2, v.InputLength())
	assert.Equal(t, NormRange{Min: 0, Max: 0.5}, v.NormRange())
}

func TestParseValidatorRejectsBadModels(t *testing.T) {
	cases := map[string]string{
		"missing version": `{"input_size": 2, "norm_range": {"min": 0, "max": 1}, "layers": [{"weights": [[1, 1]], "biases": [0]}]}`,
		"no layers":       `{"version": "v", "input_size": 2, "norm_range": {"min": 0, "max": 1}, "layers": []}`,
		"bad norm range":  `{"version": "v", "input_size": 2, "norm_range": {"min": 1, "max": 1}, "layers": [{"weights": [[1, 1]], "biases": [0]}]}`,
		"bias mismatch":   `{"version": "v", "input_size": 2, "norm_range": {"min": 0, "max": 1}, "layers": [{"weights": [[1, 1]], "biases": [0, 0]}]}`,
		"row width":       `{"version": "v", "input_size": 2, "norm_range": {"min": 0, "max": 1}, "layers": [{"weights": [[1, 1, 1]], "biases": [0]}]}`,
		"multi output":    `{"version": "v", "input_size": 2, "norm_range": {"min": 0, "max": 1}, "layers": [{"weights": [[1, 1], [1, 1]], "biases": [0, 0]}]}`,
		"not json":        `{`,
	}

	for name, body := range cases {
		_, err := ParseValidator([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestScoreForwardPass(t *testing.T) {
	v, err := ParseValidator([]byte(testModelJSON))
	require.NoError(t, err)

	// Identity hidden layer, summing output: sigmoid(0.5 + 0.25).
	score, err := v.Score([]float64{0.5, 0.25})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/(1.0+math.Exp(-0.75)), score, 1e-12)
}

func TestScoreAppliesReLU(t *testing.T) {
	// A negative hidden pre-activation must be zeroed, not passed through.
	body := `{
		"version": "v",
		"input_size": 1,
		"norm_range": {"min": 0, "max": 1},
		"layers": [
			{"weights": [[-1]], "biases": [0]},
			{"weights": [[1]], "biases": [0]}
		]
	}`
	v, err := ParseValidator([]byte(body))
	require.NoError(t, err)

	score, err := v.Score([]float64{0.8})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-12)
}

func TestScoreIsDeterministic(t *testing.T) {
	v, err := ParseValidator([]byte(testModelJSON))
	require.NoError(t, err)

	first, err := v.Score([]float64{0.3, 0.7})
	require.NoError(t, err)
	second, err := v.Score([]float64{0.3, 0.7})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreFailsClosed(t *testing.T) {
	v, err := ParseValidator([]byte(testModelJSON))
	require.NoError(t, err)

	_, err = v.Score([]float64{0.5})
	assert.ErrorIs(t, err, ErrValidatorInference)

	_, err = v.Score([]float64{0.5, math.NaN()})
	assert.ErrorIs(t, err, ErrValidatorInference)

	_, err = v.Score([]float64{0.5, math.Inf(1)})
	assert.ErrorIs(t, err, ErrValidatorInference)
}
