// Command trainmodel fits a flood model from a labeled CSV dataset and
// persists it into the engine's database, so a fresh deployment can start
// with a trained model instead of waiting for an operator retrain.
//
// Usage:
//
//	go run ./cmd/trainmodel -csv data/flood_history.csv -db /var/lib/engine/data.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/coastal-threat-engine/internal/adapter/sqlite"
	"github.com/couchcryptid/coastal-threat-engine/internal/classifier"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "labeled flood dataset CSV")
	dbPath := flag.String("db", "", "engine database path (defaults to $TMPDIR)")
	modelKey := flag.String("model-key", "flood-model", "blob key to store the model under")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}

	ds, err := classifier.LoadCSV(*csvPath)
	if err != nil {
		return err
	}
	log.Printf("loaded %d rows from %s", len(ds.Features), *csvPath)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	predictor := classifier.NewPredictor(store, *modelKey, logger)

	report, err := predictor.Train(context.Background(), ds)
	if err != nil {
		return err
	}

	log.Printf("trained on %d rows, holdout %d rows, accuracy %.3f",
		report.Rows-report.HoldoutRows, report.HoldoutRows, report.Accuracy)
	log.Printf("model stored under key %q", *modelKey)
	return nil
}
