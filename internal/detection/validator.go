package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// modelFile is the on-disk layout of versioned validator weights. Layer
// weights are row-major, one row per output unit.
type modelFile struct {
	Version   string      `json:"version"`
	InputSize int         `json:"input_size"`
	NormRange NormRange   `json:"norm_range"`
	Layers    []layerSpec `json:"layers"`
}

type layerSpec struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

// Validator is the feed-forward neural network that scores candidates for
// plausibility of genuine change. Constructed once from a weights file,
// read-only afterwards, safe for concurrent use. Inference failures are
// errors, never a default score.
type Validator struct {
	version   string
	inputSize int
	norm      NormRange
	weights   []*mat.Dense
	biases    []*mat.VecDense
}

// LoadValidator reads versioned model weights from a JSON file.
func LoadValidator(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return ParseValidator(data)
}

// ParseValidator builds a validator from raw model-file bytes.
func ParseValidator(data []byte) (*Validator, error) {
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if mf.Version == "" {
		return nil, fmt.Errorf("model file missing version")
	}
	if mf.InputSize <= 0 {
		return nil, fmt.Errorf("model file has invalid input size %d", mf.InputSize)
	}
	if mf.NormRange.Max <= mf.NormRange.Min {
		return nil, fmt.Errorf("model file has invalid normalization range [%v, %v]",
			mf.NormRange.Min, mf.NormRange.Max)
	}
	if len(mf.Layers) == 0 {
		return nil, fmt.Errorf("model file has no layers")
	}

	v := &Validator{
		version:   mf.Version,
		inputSize: mf.InputSize,
		norm:      mf.NormRange,
	}

	prev := mf.InputSize
	for i, layer := range mf.Layers {
		rows := len(layer.Weights)
		if rows == 0 || len(layer.Biases) != rows {
			return nil, fmt.Errorf("layer %d: %d weight rows vs %d biases", i, rows, len(layer.Biases))
		}
		flat := make([]float64, 0, rows*prev)
		for r, row := range layer.Weights {
			if len(row) != prev {
				return nil, fmt.Errorf("layer %d row %d: expected %d weights, got %d", i, r, prev, len(row))
			}
			flat = append(flat, row...)
		}
		v.weights = append(v.weights, mat.NewDense(rows, prev, flat))
		biases := make([]float64, rows)
		copy(biases, layer.Biases)
		v.biases = append(v.biases, mat.NewVecDense(rows, biases))
		prev = rows
	}
	if prev != 1 {
		return nil, fmt.Errorf("model output layer has %d units, want 1", prev)
	}

	return v, nil
}

// Version returns the model version string, recorded with every score.
func (v *Validator) Version() string { return v.version }

// NormRange returns the feature normalization range the model was trained
// with.
func (v *Validator) NormRange() NormRange { return v.norm }

// InputLength returns the feature vector length the model expects.
func (v *Validator) InputLength() int { return v.inputSize }

// Score runs forward inference on a normalized feature vector and returns the
// change-plausibility in [0,1]. ReLU on hidden layers, sigmoid on the output.
// A wrong-length vector or any non-finite value, in or out, fails closed with
// ErrValidatorInference.
func (v *Validator) Score(features []float64) (float64, error) {
	if len(features) != v.inputSize {
		return 0, fmt.Errorf("%w: got %d features, model expects %d",
			ErrValidatorInference, len(features), v.inputSize)
	}
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: non-finite feature at index %d", ErrValidatorInference, i)
		}
	}

	x := mat.NewVecDense(len(features), nil)
	for i, f := range features {
		x.SetVec(i, f)
	}

	for i := range v.weights {
		rows, _ := v.weights[i].Dims()
		y := mat.NewVecDense(rows, nil)
		y.MulVec(v.weights[i], x)
		y.AddVec(y, v.biases[i])

		last := i == len(v.weights)-1
		for j := 0; j < rows; j++ {
			val := y.AtVec(j)
			if last {
				y.SetVec(j, sigmoid(val))
			} else if val < 0 {
				y.SetVec(j, 0)
			}
		}
		x = y
	}

	score := x.AtVec(0)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: non-finite model output", ErrValidatorInference)
	}
	return score, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
