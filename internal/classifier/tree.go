package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a fitted decision tree. Leaves carry the fraction
// of positive training samples that reached them, which is the tree's
// probability estimate.
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Prob      float64   `json:"p"`
}

// predict walks the tree to a leaf probability. Samples with a feature value
// <= threshold go left.
func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}

// growTree fits a CART-style tree on the index set rows, using gini impurity
// and a random subset of features at each split.
func growTree(features [][]float64, labels []int, rows []int, depth, maxDepth, minLeaf, featuresPerSplit int, rng *rand.Rand) *treeNode {
	positives := 0
	for _, r := range rows {
		positives += labels[r]
	}
	prob := float64(positives) / float64(len(rows))

	// Pure node, depth limit, or too small to split further.
	if positives == 0 || positives == len(rows) || depth >= maxDepth || len(rows) < 2*minLeaf {
		return &treeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, found := bestSplit(features, labels, rows, featuresPerSplit, rng)
	if !found {
		return &treeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, r := range rows {
		if features[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) < minLeaf || len(right) < minLeaf {
		return &treeNode{Leaf: true, Prob: prob}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(features, labels, left, depth+1, maxDepth, minLeaf, featuresPerSplit, rng),
		Right:     growTree(features, labels, right, depth+1, maxDepth, minLeaf, featuresPerSplit, rng),
	}
}

// bestSplit scans a random feature subset for the (feature, threshold) pair
// with the lowest weighted gini impurity. Thresholds are midpoints between
// consecutive distinct sorted values.
func bestSplit(features [][]float64, labels []int, rows []int, featuresPerSplit int, rng *rand.Rand) (int, float64, bool) {
	width := len(features[rows[0]])
	candidates := rng.Perm(width)
	if featuresPerSplit < width {
		candidates = candidates[:featuresPerSplit]
	}

	type sample struct {
		value float64
		label int
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	total := len(rows)
	totalPos := 0
	for _, r := range rows {
		totalPos += labels[r]
	}

	samples := make([]sample, total)
	for _, f := range candidates {
		for i, r := range rows {
			samples[i] = sample{value: features[r][f], label: labels[r]}
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].value < samples[j].value })

		leftCount, leftPos := 0, 0
		for i := 0; i < total-1; i++ {
			leftCount++
			leftPos += samples[i].label
			if samples[i].value == samples[i+1].value {
				continue
			}

			g := weightedGini(leftPos, leftCount, totalPos-leftPos, total-leftCount)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = (samples[i].value + samples[i+1].value) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// weightedGini is the size-weighted gini impurity of a binary split.
func weightedGini(leftPos, leftCount, rightPos, rightCount int) float64 {
	gini := func(pos, count int) float64 {
		if count == 0 {
			return 0
		}
		p := float64(pos) / float64(count)
		return 2 * p * (1 - p)
	}
	total := float64(leftCount + rightCount)
	return float64(leftCount)/total*gini(leftPos, leftCount) +
		float64(rightCount)/total*gini(rightPos, rightCount)
}
