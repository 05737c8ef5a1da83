package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) LoadBlob(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (s *memBlobStore) SaveBlob(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) BlobExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// floodDataset mirrors the live feature layout: floods pair high wind, tide
// and waves with low pressure; calm rows are the opposite.
func floodDataset(n int) Dataset {
	var ds Dataset
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			ds.Features = append(ds.Features, []float64{29, 90, 40 + float64(i%5), 975, 5.0, 4.5})
			ds.Labels = append(ds.Labels, 1)
		} else {
			ds.Features = append(ds.Features, []float64{24, 55, 4 + float64(i%5), 1016, 0.9, 0.4})
			ds.Labels = append(ds.Labels, 0)
		}
	}
	return ds
}

func TestPredictor_UntrainedAssessment(t *testing.T) {
	p := NewPredictor(newMemBlobStore(), "model", testLogger())
	assert.False(t, p.Trained())

	a := p.Assess(domain.FeatureVector{WindSpeed: 50})
	assert.False(t, a.Trained)
	assert.Zero(t, a.Probability)
	assert.Equal(t, domain.BandMinimal, a.Band)
}

func TestPredictor_TrainAndAssess(t *testing.T) {
	store := newMemBlobStore()
	p := NewPredictor(store, "model", testLogger())

	report, err := p.Train(context.Background(), floodDataset(100))
	require.NoError(t, err)
	assert.True(t, p.Trained())
	assert.Equal(t, 100, report.Rows)
	assert.Equal(t, 20, report.HoldoutRows)
	assert.Greater(t, report.Accuracy, 0.9)

	storm := p.Assess(domain.FeatureVector{
		Temperature: 29, Humidity: 90, WindSpeed: 42,
		Pressure: 974, TideHeight: 5.2, WaveHeight: 4.6,
	})
	assert.True(t, storm.Trained)
	assert.Equal(t, domain.BandCritical, storm.Band)
	assert.Greater(t, storm.Confidence, 0.5)

	calm := p.Assess(domain.FeatureVector{
		Temperature: 24, Humidity: 55, WindSpeed: 5,
		Pressure: 1016, TideHeight: 0.9, WaveHeight: 0.4,
	})
	assert.Equal(t, domain.BandMinimal, calm.Band)

	exists, err := store.BlobExists(context.Background(), "model")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPredictor_TrainRejectsTinyDataset(t *testing.T) {
	p := NewPredictor(newMemBlobStore(), "model", testLogger())
	_, err := p.Train(context.Background(), floodDataset(1))
	assert.Error(t, err)
	assert.False(t, p.Trained())
}

func TestPredictor_FailedPersistKeepsPreviousModel(t *testing.T) {
	store := newMemBlobStore()
	p := NewPredictor(store, "model", testLogger())

	_, err := p.Train(context.Background(), floodDataset(60))
	require.NoError(t, err)
	before := p.Assess(domain.FeatureVector{WindSpeed: 42, Pressure: 974, TideHeight: 5.2, WaveHeight: 4.6, Temperature: 29, Humidity: 90})

	store.saveErr = errors.New("disk full")
	_, err = p.Train(context.Background(), floodDataset(80))
	require.Error(t, err)

	// The previous model keeps serving unchanged.
	assert.True(t, p.Trained())
	after := p.Assess(domain.FeatureVector{WindSpeed: 42, Pressure: 974, TideHeight: 5.2, WaveHeight: 4.6, Temperature: 29, Humidity: 90})
	assert.Equal(t, before.Probability, after.Probability)
}

func TestPredictor_LoadPersisted(t *testing.T) {
	store := newMemBlobStore()
	trainer := NewPredictor(store, "model", testLogger())
	_, err := trainer.Train(context.Background(), floodDataset(60))
	require.NoError(t, err)

	// A fresh process restores the same model from the blob store.
	restored := NewPredictor(store, "model", testLogger())
	require.NoError(t, restored.LoadPersisted(context.Background()))
	assert.True(t, restored.Trained())

	f := domain.FeatureVector{WindSpeed: 42, Pressure: 974, TideHeight: 5.2, WaveHeight: 4.6, Temperature: 29, Humidity: 90}
	assert.Equal(t, trainer.Assess(f).Probability, restored.Assess(f).Probability)
}

func TestPredictor_LoadPersisted_Missing(t *testing.T) {
	p := NewPredictor(newMemBlobStore(), "model", testLogger())
	err := p.LoadPersisted(context.Background())
	assert.ErrorIs(t, err, ErrNoModel)
	assert.False(t, p.Trained())
}

func TestPredictor_LoadPersisted_Corrupt(t *testing.T) {
	store := newMemBlobStore()
	require.NoError(t, store.SaveBlob(context.Background(), "model", []byte("{not json")))

	p := NewPredictor(store, "model", testLogger())
	err := p.LoadPersisted(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoModel)
	assert.False(t, p.Trained())
}

func TestPredictor_LoadPersisted_IncompleteEnvelope(t *testing.T) {
	store := newMemBlobStore()
	require.NoError(t, store.SaveBlob(context.Background(), "model", []byte(`{"trained_at":"2026-01-01T00:00:00Z"}`)))

	p := NewPredictor(store, "model", testLogger())
	assert.Error(t, p.LoadPersisted(context.Background()))
	assert.False(t, p.Trained())
}

func TestPredictor_ConcurrentTrainRejected(t *testing.T) {
	p := NewPredictor(newMemBlobStore(), "model", testLogger())
	p.training.Store(true)

	_, err := p.Train(context.Background(), floodDataset(60))
	assert.ErrorIs(t, err, ErrTrainingInProgress)
	assert.True(t, p.Training())
}

func TestPredictor_StartTrainingClaimsSlotSynchronously(t *testing.T) {
	p := NewPredictor(newMemBlobStore(), "model", testLogger())
	p.training.Store(true)

	// The loser of the race must see the conflict from StartTraining itself,
	// not from a log line inside the goroutine.
	err := p.StartTraining(context.Background(), floodDataset(60), nil)
	assert.ErrorIs(t, err, ErrTrainingInProgress)
}

func TestPredictor_StartTrainingReportsAndReleases(t *testing.T) {
	p := NewPredictor(newMemBlobStore(), "model", testLogger())

	done := make(chan TrainReport, 1)
	err := p.StartTraining(context.Background(), floodDataset(100), func(report TrainReport, err error) {
		require.NoError(t, err)
		done <- report
	})
	require.NoError(t, err)

	select {
	case report := <-done:
		assert.Equal(t, 100, report.Rows)
	case <-time.After(30 * time.Second):
		t.Fatal("training did not complete")
	}

	assert.True(t, p.Trained())
	require.Eventually(t, func() bool { return !p.Training() },
		time.Second, 10*time.Millisecond, "training slot must be released")
}
