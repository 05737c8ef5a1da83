package classifier

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableDataset builds a two-cluster binary dataset: positives centered
// high on every feature, negatives centered low, with small jitter.
func separableDataset(n int, seed int64) Dataset {
	rng := rand.New(rand.NewSource(seed))
	var ds Dataset
	for i := 0; i < n; i++ {
		label := i % 2
		base := 1.0
		if label == 1 {
			base = 9.0
		}
		row := make([]float64, 3)
		for j := range row {
			row[j] = base + rng.Float64()
		}
		ds.Features = append(ds.Features, row)
		ds.Labels = append(ds.Labels, label)
	}
	return ds
}

func TestFitForest_SeparatesClusters(t *testing.T) {
	ds := separableDataset(80, 1)
	forest, err := FitForest(ds.Features, ds.Labels, ForestParams{Trees: 25, MaxDepth: 6, MinLeaf: 2, Seed: 42})
	require.NoError(t, err)

	assert.Greater(t, forest.PredictProba([]float64{9.5, 9.5, 9.5}), 0.9)
	assert.Less(t, forest.PredictProba([]float64{1.5, 1.5, 1.5}), 0.1)
}

func TestFitForest_Deterministic(t *testing.T) {
	ds := separableDataset(40, 2)
	params := DefaultForestParams()
	params.Trees = 10

	a, err := FitForest(ds.Features, ds.Labels, params)
	require.NoError(t, err)
	b, err := FitForest(ds.Features, ds.Labels, params)
	require.NoError(t, err)

	x := []float64{5, 5, 5}
	assert.Equal(t, a.PredictProba(x), b.PredictProba(x))
}

func TestFitForest_Errors(t *testing.T) {
	params := DefaultForestParams()

	_, err := FitForest(nil, nil, params)
	assert.Error(t, err)

	_, err = FitForest([][]float64{{1}}, []int{0, 1}, params)
	assert.Error(t, err)

	_, err = FitForest([][]float64{{1}, {2}}, []int{0, 2}, params)
	assert.Error(t, err)

	_, err = FitForest([][]float64{{1}, {2}}, []int{0, 1}, ForestParams{})
	assert.Error(t, err)
}

func TestPredictProba_EmptyForest(t *testing.T) {
	f := &Forest{}
	assert.Zero(t, f.PredictProba([]float64{1}))
}

func TestGrowTree_PureNodeIsLeaf(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	features := [][]float64{{1}, {2}, {3}}
	labels := []int{1, 1, 1}

	node := growTree(features, labels, []int{0, 1, 2}, 0, 10, 1, 1, rng)
	assert.True(t, node.Leaf)
	assert.Equal(t, 1.0, node.Prob)
}

func TestBestSplit_SeparatesPerfectly(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	features := [][]float64{{1}, {2}, {8}, {9}}
	labels := []int{0, 0, 1, 1}

	feature, threshold, found := bestSplit(features, labels, []int{0, 1, 2, 3}, 1, rng)
	require.True(t, found)
	assert.Equal(t, 0, feature)
	assert.Equal(t, 5.0, threshold)
}

func TestBestSplit_NoDistinctValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	features := [][]float64{{4}, {4}, {4}}
	labels := []int{0, 1, 0}

	_, _, found := bestSplit(features, labels, []int{0, 1, 2}, 1, rng)
	assert.False(t, found)
}

func TestWeightedGini(t *testing.T) {
	// Perfect split has zero impurity; even mix has the maximum 0.5.
	assert.Zero(t, weightedGini(2, 2, 0, 2))
	assert.InDelta(t, 0.5, weightedGini(1, 2, 1, 2), 1e-9)
}
