// Package detect implements the multi-stage threat detector: static
// thresholds, statistical anomaly checks, short-horizon trend extrapolation,
// and seasonal/geographic severity adjustment. Every stage is a pure function
// of the current reading and its history window, with no I/O or shared state,
// so evaluation cycles for independent locations can run in parallel freely.
package detect

import (
	"log/slog"
	"math"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// Engine runs the detector stages in order over one reading.
type Engine struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// NewEngine creates a detector with the given severity bands.
func NewEngine(thresholds Thresholds, logger *slog.Logger) *Engine {
	return &Engine{thresholds: thresholds, logger: logger}
}

// Evaluate produces the candidate detections for one reading. Stage order:
// thresholds on the current value, anomalies against the history window,
// trend extrapolation, then seasonal adjustment over the combined result.
// The history slice is read-only and must be ordered oldest first.
func (e *Engine) Evaluate(reading domain.Reading, history []domain.Reading) []domain.Detection {
	detections := e.checkThresholds(reading)
	detections = append(detections, e.detectAnomalies(reading, history)...)
	detections = append(detections, e.extrapolateTrends(reading, history)...)

	season := DetermineSeason(domain.Clock().Now().Month(), reading.Location)
	detections = applySeason(season, detections)

	if len(detections) > 0 {
		e.logger.Debug("detections produced",
			"location", reading.Location,
			"count", len(detections),
			"season", season,
		)
	}
	return detections
}

// newDetection stamps a detection with location, time, and confidence.
func (e *Engine) newDetection(kind domain.DetectionKind, sev domain.Severity, r domain.Reading, description string) domain.Detection {
	return domain.Detection{
		Kind:        kind,
		Severity:    sev,
		Location:    r.Location,
		Description: description,
		Confidence:  confidence(sev, r),
		ProducedAt:  domain.Clock().Now().UTC(),
	}
}

// confidenceMetrics are the fields whose presence measures data completeness.
var confidenceMetrics = []string{
	domain.MetricTemperature,
	domain.MetricWindSpeed,
	domain.MetricPressure,
	domain.MetricTideHeight,
}

var severityFactor = map[domain.Severity]float64{
	domain.SeverityLow:      0.70,
	domain.SeverityMedium:   0.80,
	domain.SeverityHigh:     0.90,
	domain.SeverityCritical: 0.95,
}

// confidence scores a detection from its severity and the reading's data
// completeness: 0.8 base × severity factor × fraction of core metrics
// present, capped at 0.99.
func confidence(sev domain.Severity, r domain.Reading) float64 {
	present := 0
	for _, m := range confidenceMetrics {
		if _, ok := r.Metric(m); ok {
			present++
		}
	}
	completeness := float64(present) / float64(len(confidenceMetrics))
	return math.Min(0.99, 0.8*severityFactor[sev]*completeness)
}
