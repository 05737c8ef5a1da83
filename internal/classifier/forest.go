package classifier

import (
	"errors"
	"math"
	"math/rand"
)

// ForestParams configures random forest training.
type ForestParams struct {
	Trees    int   `json:"trees"`
	MaxDepth int   `json:"max_depth"`
	MinLeaf  int   `json:"min_leaf"`
	Seed     int64 `json:"seed"`
}

// DefaultForestParams returns the operational configuration: 100 trees with
// bounded depth and a fixed seed so retrains are reproducible.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 100, MaxDepth: 10, MinLeaf: 2, Seed: 42}
}

// Forest is a fitted ensemble of decision trees. Probability estimates are
// the mean of the per-tree leaf probabilities.
type Forest struct {
	Roots  []*treeNode  `json:"roots"`
	Params ForestParams `json:"params"`
}

// FitForest trains an ensemble on scaled feature rows and binary labels.
// Each tree sees a bootstrap resample and considers a sqrt-sized random
// feature subset at every split.
func FitForest(features [][]float64, labels []int, params ForestParams) (*Forest, error) {
	if len(features) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(features) != len(labels) {
		return nil, errors.New("feature and label counts differ")
	}
	if params.Trees <= 0 || params.MaxDepth <= 0 {
		return nil, errors.New("invalid forest params")
	}
	for _, l := range labels {
		if l != 0 && l != 1 {
			return nil, errors.New("labels must be binary")
		}
	}

	width := len(features[0])
	featuresPerSplit := int(math.Ceil(math.Sqrt(float64(width))))
	rng := rand.New(rand.NewSource(params.Seed))

	n := len(features)
	roots := make([]*treeNode, params.Trees)
	for t := range roots {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = rng.Intn(n)
		}
		roots[t] = growTree(features, labels, rows, 0, params.MaxDepth, params.MinLeaf, featuresPerSplit, rng)
	}

	return &Forest{Roots: roots, Params: params}, nil
}

// PredictProba returns the ensemble's probability of the positive (flood)
// class for one scaled feature vector.
func (f *Forest) PredictProba(x []float64) float64 {
	if len(f.Roots) == 0 {
		return 0
	}
	var sum float64
	for _, root := range f.Roots {
		sum += root.predict(x)
	}
	return sum / float64(len(f.Roots))
}
