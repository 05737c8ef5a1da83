// Command replay runs a JSON file of readings through the full detection
// chain offline and prints the detections and resulting alerts. Useful for
// checking threshold and trend behavior against captured data without Kafka.
//
// The input file is a JSON array of readings ordered oldest first. Each
// reading is evaluated against the readings before it, matching the live
// pipeline's history semantics.
//
// Usage:
//
//	go run ./cmd/replay -readings data/cyclone_approach.json [-db data.db]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/coastal-threat-engine/internal/adapter/sqlite"
	"github.com/couchcryptid/coastal-threat-engine/internal/alert"
	"github.com/couchcryptid/coastal-threat-engine/internal/classifier"
	"github.com/couchcryptid/coastal-threat-engine/internal/detect"
	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	readingsPath := flag.String("readings", "", "JSON array of readings, oldest first")
	dbPath := flag.String("db", "", "optional engine database with a trained flood model")
	modelKey := flag.String("model-key", "flood-model", "blob key the model is stored under")
	flag.Parse()

	if *readingsPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -readings")
	}

	data, err := os.ReadFile(*readingsPath)
	if err != nil {
		return err
	}
	var readings []domain.Reading
	if err := json.Unmarshal(data, &readings); err != nil {
		return fmt.Errorf("parse readings: %w", err)
	}
	log.Printf("loaded %d readings", len(readings))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine := detect.NewEngine(detect.DefaultThresholds(), logger)
	manager := alert.NewManager(nil, logger)

	assess := assessor(*dbPath, *modelKey, logger)

	ctx := context.Background()
	for i, r := range readings {
		detections := engine.Evaluate(r, readings[:i])
		assessment := assess(r.Features())

		for _, d := range detections {
			fmt.Printf("[%s] %s/%s %s (confidence %.2f)\n",
				r.Timestamp.Format("2006-01-02 15:04"), d.Kind, d.Severity, d.Description, d.Confidence)
		}
		if assessment.Trained {
			fmt.Printf("[%s] flood probability %.2f (%s)\n",
				r.Timestamp.Format("2006-01-02 15:04"), assessment.Probability, assessment.Band)
		}

		manager.Apply(ctx, r.Location, detections, assessment)
	}

	fmt.Println("\n=== Active alerts after replay ===")
	for _, a := range manager.Active() {
		fmt.Printf("%s %s/%s @ %s: %s\n", a.ID, a.Kind, a.Severity, a.Location, a.Description)
	}
	return nil
}

// assessor returns the flood assessment function: the persisted model when a
// database is given, otherwise the untrained fail-closed assessment.
func assessor(dbPath, modelKey string, logger *slog.Logger) func(domain.FeatureVector) domain.RiskAssessment {
	if dbPath == "" {
		return domain.UntrainedAssessment
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		log.Printf("open database: %v; continuing without flood model", err)
		return domain.UntrainedAssessment
	}

	predictor := classifier.NewPredictor(store, modelKey, logger)
	if err := predictor.LoadPersisted(context.Background()); err != nil {
		log.Printf("load flood model: %v; continuing without flood model", err)
		return domain.UntrainedAssessment
	}
	return predictor.Assess
}
