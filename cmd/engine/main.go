package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/coastal-threat-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/coastal-threat-engine/internal/adapter/kafka"
	"github.com/couchcryptid/coastal-threat-engine/internal/adapter/sqlite"
	"github.com/couchcryptid/coastal-threat-engine/internal/alert"
	"github.com/couchcryptid/coastal-threat-engine/internal/classifier"
	"github.com/couchcryptid/coastal-threat-engine/internal/config"
	"github.com/couchcryptid/coastal-threat-engine/internal/detect"
	"github.com/couchcryptid/coastal-threat-engine/internal/observability"
	"github.com/couchcryptid/coastal-threat-engine/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	predictor := classifier.NewPredictor(store, cfg.ModelKey, logger)
	switch err := predictor.LoadPersisted(context.Background()); {
	case errors.Is(err, classifier.ErrNoModel):
		logger.Info("no persisted flood model, starting untrained", "model_key", cfg.ModelKey)
	case err != nil:
		logger.Error("failed to load flood model", "error", err)
		os.Exit(1)
	default:
		metrics.ModelTrained.Set(1)
	}

	engine := detect.NewEngine(detect.DefaultThresholds(), logger)
	manager := alert.NewManager(store, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, store, engine, predictor, manager, writer,
		logger, metrics, cfg.BatchSize, cfg.HistoryWindow)

	retrainer := &retrainer{
		predictor:    predictor,
		trainingData: cfg.TrainingData,
		metrics:      metrics,
		logger:       logger,
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, manager, predictor, retrainer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start evaluation pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// retrainer starts a background training run from the configured CSV dataset.
// It implements httpadapter.Retrainer.
type retrainer struct {
	predictor    *classifier.Predictor
	trainingData string
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func (r *retrainer) Retrain(_ context.Context) error {
	if r.trainingData == "" {
		return errors.New("TRAINING_DATA is not configured")
	}

	ds, err := classifier.LoadCSV(r.trainingData)
	if err != nil {
		return err
	}

	// StartTraining claims the single training slot before returning, so a
	// racing second request gets ErrTrainingInProgress here rather than a
	// spurious accept.
	return r.predictor.StartTraining(context.Background(), ds, func(report classifier.TrainReport, err error) {
		if err != nil {
			r.logger.Error("retrain failed", "error", err)
			return
		}
		r.metrics.ModelTrained.Set(1)
		r.logger.Info("retrain complete", "rows", report.Rows, "accuracy", report.Accuracy)
	})
}
