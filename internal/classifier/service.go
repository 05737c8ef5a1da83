package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// ErrNoModel indicates no persisted model exists under the configured key.
var ErrNoModel = errors.New("no persisted model")

// ErrTrainingInProgress indicates a concurrent training run is already active.
var ErrTrainingInProgress = errors.New("training already in progress")

const holdoutFraction = 0.2

// BlobStore persists opaque model envelopes by key.
type BlobStore interface {
	LoadBlob(ctx context.Context, key string) ([]byte, error)
	SaveBlob(ctx context.Context, key string, data []byte) error
	BlobExists(ctx context.Context, key string) (bool, error)
}

// trainedModel is the persisted envelope: the fitted scaler and forest plus
// training metadata. The envelope is immutable once built; readers hold a
// snapshot pointer and never see a half-trained model.
type trainedModel struct {
	Scaler    *StandardScaler `json:"scaler"`
	Forest    *Forest         `json:"forest"`
	TrainedAt time.Time       `json:"trained_at"`
	Accuracy  float64         `json:"accuracy"`
	Rows      int             `json:"rows"`
}

func (m *trainedModel) assess(features domain.FeatureVector) domain.RiskAssessment {
	scaled := m.Scaler.Transform(features.Slice())
	return domain.NewRiskAssessment(m.Forest.PredictProba(scaled), features)
}

// TrainReport summarizes a completed training run.
type TrainReport struct {
	Rows        int       `json:"rows"`
	HoldoutRows int       `json:"holdout_rows"`
	Accuracy    float64   `json:"accuracy"`
	TrainedAt   time.Time `json:"trained_at"`
}

// Predictor serves flood risk assessments from the currently loaded model and
// coordinates retraining. Assessment reads are lock-free; the active model is
// swapped atomically only after a training run fully succeeds, so a failed
// retrain leaves the previous model serving.
type Predictor struct {
	store    BlobStore
	key      string
	params   ForestParams
	logger   *slog.Logger
	current  atomic.Pointer[trainedModel]
	training atomic.Bool
}

// NewPredictor builds an untrained predictor backed by the given blob store.
func NewPredictor(store BlobStore, key string, logger *slog.Logger) *Predictor {
	return &Predictor{
		store:  store,
		key:    key,
		params: DefaultForestParams(),
		logger: logger,
	}
}

// Trained reports whether a model is currently loaded.
func (p *Predictor) Trained() bool {
	return p.current.Load() != nil
}

// Training reports whether a training run is currently active.
func (p *Predictor) Training() bool {
	return p.training.Load()
}

// Assess scores one feature vector against the active model. Without a loaded
// model it returns an explicit untrained assessment rather than a guess.
func (p *Predictor) Assess(features domain.FeatureVector) domain.RiskAssessment {
	model := p.current.Load()
	if model == nil {
		return domain.UntrainedAssessment(features)
	}
	return model.assess(features)
}

// Train fits a fresh scaler and forest on the dataset, persists the envelope,
// and swaps it in as the active model. At most one run may be active; callers
// racing an in-flight run get ErrTrainingInProgress.
func (p *Predictor) Train(ctx context.Context, ds Dataset) (TrainReport, error) {
	if !p.training.CompareAndSwap(false, true) {
		return TrainReport{}, ErrTrainingInProgress
	}
	defer p.training.Store(false)

	return p.train(ctx, ds)
}

// StartTraining claims the training slot and runs the training in a background
// goroutine, invoking done with the outcome when it finishes. The slot is
// claimed before StartTraining returns, so of two racing callers exactly one
// gets nil and the other gets ErrTrainingInProgress.
func (p *Predictor) StartTraining(ctx context.Context, ds Dataset, done func(TrainReport, error)) error {
	if !p.training.CompareAndSwap(false, true) {
		return ErrTrainingInProgress
	}

	go func() {
		defer p.training.Store(false)
		report, err := p.train(ctx, ds)
		if done != nil {
			done(report, err)
		}
	}()
	return nil
}

// train is the training body. The caller must hold the training slot.
func (p *Predictor) train(ctx context.Context, ds Dataset) (TrainReport, error) {
	if len(ds.Features) < 2 {
		return TrainReport{}, fmt.Errorf("dataset too small: %d rows", len(ds.Features))
	}

	train, holdout := ds.Split(holdoutFraction, p.params.Seed)

	scaler, err := FitScaler(train.Features)
	if err != nil {
		return TrainReport{}, fmt.Errorf("fit scaler: %w", err)
	}
	forest, err := FitForest(scaler.TransformAll(train.Features), train.Labels, p.params)
	if err != nil {
		return TrainReport{}, fmt.Errorf("fit forest: %w", err)
	}

	candidate := &trainedModel{
		Scaler:    scaler,
		Forest:    forest,
		TrainedAt: domain.Clock().Now().UTC(),
		Accuracy:  holdoutAccuracy(scaler, forest, holdout),
		Rows:      len(ds.Features),
	}

	data, err := json.Marshal(candidate)
	if err != nil {
		return TrainReport{}, fmt.Errorf("encode model: %w", err)
	}
	if err := p.store.SaveBlob(ctx, p.key, data); err != nil {
		return TrainReport{}, fmt.Errorf("persist model: %w", err)
	}

	p.current.Store(candidate)
	p.logger.Info("model trained",
		"rows", candidate.Rows,
		"holdout_rows", len(holdout.Features),
		"accuracy", candidate.Accuracy,
	)

	return TrainReport{
		Rows:        candidate.Rows,
		HoldoutRows: len(holdout.Features),
		Accuracy:    candidate.Accuracy,
		TrainedAt:   candidate.TrainedAt,
	}, nil
}

// LoadPersisted restores the model saved under the configured key. A missing
// blob returns ErrNoModel so callers can start cold; a corrupt blob is a hard
// error and must not be silently discarded.
func (p *Predictor) LoadPersisted(ctx context.Context) error {
	exists, err := p.store.BlobExists(ctx, p.key)
	if err != nil {
		return fmt.Errorf("check model blob: %w", err)
	}
	if !exists {
		return ErrNoModel
	}

	data, err := p.store.LoadBlob(ctx, p.key)
	if err != nil {
		return fmt.Errorf("load model blob: %w", err)
	}

	var model trainedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("decode model blob %q: %w", p.key, err)
	}
	if model.Scaler == nil || model.Forest == nil || len(model.Forest.Roots) == 0 {
		return fmt.Errorf("model blob %q is incomplete", p.key)
	}

	p.current.Store(&model)
	p.logger.Info("model loaded", "trained_at", model.TrainedAt, "accuracy", model.Accuracy)
	return nil
}

func holdoutAccuracy(scaler *StandardScaler, forest *Forest, holdout Dataset) float64 {
	if len(holdout.Features) == 0 {
		return 0
	}
	correct := 0
	for i, row := range holdout.Features {
		predicted := 0
		if forest.PredictProba(scaler.Transform(row)) >= 0.5 {
			predicted = 1
		}
		if predicted == holdout.Labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(holdout.Features))
}
