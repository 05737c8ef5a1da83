package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flood.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `temperature,humidity,wind_speed,pressure,tide_height,wave_height,flood_occurred
28.5,85,22.0,995.0,3.1,2.4,1
24.0,60,8.0,1015.0,1.2,0.8,0
`)

	ds, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, ds.Features, 2)

	assert.Equal(t, []float64{28.5, 85, 22.0, 995.0, 3.1, 2.4}, ds.Features[0])
	assert.Equal(t, []int{1, 0}, ds.Labels)
}

func TestLoadCSV_ReorderedColumnsAndTextLabels(t *testing.T) {
	path := writeCSV(t, `flood_occurred,Wind_Speed,temperature,humidity,pressure,tide_height,wave_height
true,30,27,90,990,4.0,3.0
false,5,25,50,1013,1.0,0.5
`)

	ds, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []float64{27, 90, 30, 990, 4.0, 3.0}, ds.Features[0])
	assert.Equal(t, []int{1, 0}, ds.Labels)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing feature column", "temperature,flood_occurred\n25,1\n"},
		{"missing label column", "temperature,humidity,wind_speed,pressure,tide_height,wave_height\n25,50,5,1013,1,1\n"},
		{"bad feature value", "temperature,humidity,wind_speed,pressure,tide_height,wave_height,flood_occurred\nnope,50,5,1013,1,1,0\n"},
		{"bad label value", "temperature,humidity,wind_speed,pressure,tide_height,wave_height,flood_occurred\n25,50,5,1013,1,1,maybe\n"},
		{"header only", "temperature,humidity,wind_speed,pressure,tide_height,wave_height,flood_occurred\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeCSV(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})
}

func TestSplit(t *testing.T) {
	ds := separableDataset(10, 3)

	train, holdout := ds.Split(0.2, 42)
	assert.Len(t, holdout.Features, 2)
	assert.Len(t, train.Features, 8)
	assert.Len(t, train.Labels, 8)

	// Deterministic for a fixed seed.
	train2, holdout2 := ds.Split(0.2, 42)
	assert.Equal(t, train.Features, train2.Features)
	assert.Equal(t, holdout.Labels, holdout2.Labels)
}

func TestSplit_ClampsTinyFractions(t *testing.T) {
	ds := separableDataset(4, 4)

	train, holdout := ds.Split(0.0, 1)
	assert.Len(t, holdout.Features, 1)
	assert.Len(t, train.Features, 3)

	train, holdout = ds.Split(1.0, 1)
	assert.Len(t, train.Features, 1)
	assert.Len(t, holdout.Features, 3)
}
