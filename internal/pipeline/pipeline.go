package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
	"github.com/couchcryptid/coastal-threat-engine/internal/observability"
)

// BatchExtractor reads up to batchSize raw readings from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawReading, error)
}

// HistoryStore persists readings and serves the rolling history window.
type HistoryStore interface {
	InsertReading(ctx context.Context, r domain.Reading) error
	Window(ctx context.Context, location string, since time.Time) ([]domain.Reading, error)
}

// Evaluator produces rule detections for a reading against its history.
type Evaluator interface {
	Evaluate(r domain.Reading, history []domain.Reading) []domain.Detection
}

// RiskAssessor scores a feature vector with the flood model.
type RiskAssessor interface {
	Assess(features domain.FeatureVector) domain.RiskAssessment
	Trained() bool
}

// AlertApplier folds one cycle's detections into the alert lifecycle.
type AlertApplier interface {
	Apply(ctx context.Context, location string, detections []domain.Detection, assessment domain.RiskAssessment) []domain.Alert
}

// BatchLoader writes alerts to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, alerts []domain.Alert) error
}

// Pipeline orchestrates the consume-evaluate-publish loop.
type Pipeline struct {
	extractor BatchExtractor
	history   HistoryStore
	evaluator Evaluator
	assessor  RiskAssessor
	alerts    AlertApplier
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	batchSize     int
	historyWindow time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, h HistoryStore, ev Evaluator, ra RiskAssessor, aa AlertApplier, l BatchLoader,
	logger *slog.Logger, metrics *observability.Metrics, batchSize int, historyWindow time.Duration) *Pipeline {
	return &Pipeline{
		extractor:     e,
		history:       h,
		evaluator:     ev,
		assessor:      ra,
		alerts:        aa,
		loader:        l,
		logger:        logger,
		metrics:       metrics,
		batchSize:     batchSize,
		historyWindow: historyWindow,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one reading,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any readings yet")
	}
	return nil
}

// Run executes the batch evaluation loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "history_window", p.historyWindow)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one consume-evaluate-publish cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ReadingsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	p.metrics.ModelTrained.Set(boolToGauge(p.assessor.Trained()))
	*backoff = 200 * time.Millisecond

	published, ok := p.evaluateAndPublish(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if published > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// evaluateAndPublish runs each reading through the detection stages, publishes
// the resulting alerts, and commits offsets. Malformed readings are skipped
// and committed so a poison pill cannot wedge the partition. A storage failure
// aborts the whole batch before anything is committed: consumer-group commits
// are cumulative per partition, so committing a later offset would silently
// drop the failed reading. The aborted batch is redelivered in full; alert
// application is a keyed refresh, so replay converges. Returns the number of
// published alerts and false if the pipeline should stop.
func (p *Pipeline) evaluateAndPublish(ctx context.Context, rawBatch []domain.RawReading, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	outBatch := make([]domain.Alert, 0, len(rawBatch))
	successfulRaws := make([]domain.RawReading, 0, len(rawBatch))

	for _, raw := range rawBatch {
		reading, err := domain.ParseRawReading(raw)
		if err != nil {
			p.logger.Warn("parse failed, skipping reading",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ParseErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}

		alerts, err := p.evaluate(ctx, reading)
		if err != nil {
			p.logger.Error("evaluate failed, aborting batch",
				"error", err,
				"location", reading.Location,
				"offset", raw.Offset,
			)
			p.metrics.EvaluateErrors.Inc()
			return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
		}

		outBatch = append(outBatch, alerts...)
		successfulRaws = append(successfulRaws, raw)
		p.ready.Store(true)
	}

	if len(outBatch) > 0 {
		if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
			p.logger.Error("publish alerts failed", "error", err, "batch_size", len(outBatch))
			return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
		}
		p.metrics.AlertsPublished.Add(float64(len(outBatch)))
	}

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// evaluate runs one reading through the full detection chain: rule engine
// against the prior history window, flood model on the feature vector, then
// the alert lifecycle. The history window is fetched before the reading is
// inserted, so a reading never participates in its own baseline.
func (p *Pipeline) evaluate(ctx context.Context, reading domain.Reading) ([]domain.Alert, error) {
	since := domain.Clock().Now().UTC().Add(-p.historyWindow)
	history, err := p.history.Window(ctx, reading.Location, since)
	if err != nil {
		return nil, err
	}

	detections := p.evaluator.Evaluate(reading, history)
	for _, d := range detections {
		p.metrics.Detections.WithLabelValues(string(d.Kind), d.Severity.String()).Inc()
	}

	assessment := p.assessor.Assess(reading.Features())
	if assessment.Trained {
		p.metrics.FloodProbability.Set(assessment.Probability)
	}

	// Persist before touching the alert lifecycle so a storage failure leaves
	// no alert state behind when the batch is aborted and replayed.
	if err := p.history.InsertReading(ctx, reading); err != nil {
		return nil, err
	}

	return p.alerts.Apply(ctx, reading.Location, detections, assessment), nil
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawReading) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
