package classifier

import (
	"errors"
	"math"
)

// StandardScaler standardizes features using z-score normalization learned at
// training time. Each feature dimension is transformed to mean=0, std=1 so no
// single unit (hPa vs metres) dominates the tree splits.
type StandardScaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// FitScaler computes per-feature mean and standard deviation from the
// training matrix.
func FitScaler(features [][]float64) (*StandardScaler, error) {
	if len(features) == 0 {
		return nil, errors.New("no training rows")
	}
	width := len(features[0])
	if width == 0 {
		return nil, errors.New("training rows have no features")
	}

	mean := make([]float64, width)
	for _, row := range features {
		if len(row) != width {
			return nil, errors.New("inconsistent feature dimensions")
		}
		for i, v := range row {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(features))
	}

	stddev := make([]float64, width)
	for _, row := range features {
		for i, v := range row {
			d := v - mean[i]
			stddev[i] += d * d
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(features)))
		// Constant features would divide by zero; pass them through unscaled.
		if stddev[i] < 1e-10 {
			stddev[i] = 1.0
		}
	}

	return &StandardScaler{Mean: mean, Stddev: stddev}, nil
}

// Transform applies the learned standardization to one feature vector.
func (s *StandardScaler) Transform(features []float64) []float64 {
	if len(features) != len(s.Mean) {
		return features
	}
	scaled := make([]float64, len(features))
	for i, v := range features {
		scaled[i] = (v - s.Mean[i]) / s.Stddev[i]
	}
	return scaled
}

// TransformAll scales every row of a matrix.
func (s *StandardScaler) TransformAll(features [][]float64) [][]float64 {
	scaled := make([][]float64, len(features))
	for i, row := range features {
		scaled[i] = s.Transform(row)
	}
	return scaled
}
