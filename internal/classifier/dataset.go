package classifier

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// featureColumns is the fixed training column order, matching
// domain.FeatureVector.Slice.
var featureColumns = []string{
	domain.MetricTemperature,
	domain.MetricHumidity,
	domain.MetricWindSpeed,
	domain.MetricPressure,
	domain.MetricTideHeight,
	domain.MetricWaveHeight,
}

const labelColumn = "flood_occurred"

// Dataset is a labeled training table: fixed-width feature rows and a binary
// flood label per row.
type Dataset struct {
	Features [][]float64
	Labels   []int
}

// LoadCSV reads a labeled flood dataset. The header must contain the six
// feature columns and a flood_occurred label column; matching is
// case-insensitive and column order is free.
func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	if len(rows) < 2 {
		return Dataset{}, fmt.Errorf("dataset %s has no data rows", path)
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	featureIdx := make([]int, len(featureColumns))
	for i, name := range featureColumns {
		idx, ok := colIdx[name]
		if !ok {
			return Dataset{}, fmt.Errorf("dataset missing column %q", name)
		}
		featureIdx[i] = idx
	}
	labelIdx, ok := colIdx[labelColumn]
	if !ok {
		return Dataset{}, fmt.Errorf("dataset missing column %q", labelColumn)
	}

	ds := Dataset{
		Features: make([][]float64, 0, len(rows)-1),
		Labels:   make([]int, 0, len(rows)-1),
	}
	for line, row := range rows[1:] {
		features := make([]float64, len(featureIdx))
		for i, idx := range featureIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				return Dataset{}, fmt.Errorf("dataset row %d column %q: %w", line+2, featureColumns[i], err)
			}
			features[i] = v
		}

		label, err := parseLabel(row[labelIdx])
		if err != nil {
			return Dataset{}, fmt.Errorf("dataset row %d: %w", line+2, err)
		}

		ds.Features = append(ds.Features, features)
		ds.Labels = append(ds.Labels, label)
	}

	return ds, nil
}

func parseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return 1, nil
	case "0", "false", "no":
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid flood label %q", s)
	}
}

// Split shuffles the dataset with the given seed and divides it into train
// and holdout partitions. holdoutFrac is clamped so both sides keep at least
// one row.
func (d Dataset) Split(holdoutFrac float64, seed int64) (train, holdout Dataset) {
	n := len(d.Features)
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	holdoutSize := int(float64(n) * holdoutFrac)
	if holdoutSize < 1 {
		holdoutSize = 1
	}
	if holdoutSize >= n {
		holdoutSize = n - 1
	}

	for i, p := range perm {
		if i < holdoutSize {
			holdout.Features = append(holdout.Features, d.Features[p])
			holdout.Labels = append(holdout.Labels, d.Labels[p])
		} else {
			train.Features = append(train.Features, d.Features[p])
			train.Labels = append(train.Labels, d.Labels[p])
		}
	}
	return train, holdout
}
