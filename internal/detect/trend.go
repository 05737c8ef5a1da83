package detect

import (
	"fmt"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

const (
	// trendMinHistory is the minimum window length before trend fitting runs.
	trendMinHistory = 6

	// trendMinPoints is the minimum number of usable values for the metric
	// after readings missing it are filtered out.
	trendMinPoints = 4

	// trendStepsAhead is how far the fitted line is extrapolated.
	trendStepsAhead = 2

	// windSlopeFloor and tideSlopeFloor gate trend detections to genuinely
	// rapid rises, in metric units per reading.
	windSlopeFloor = 2.0
	tideSlopeFloor = 0.3
)

// extrapolateTrends fits a least-squares line over the history window and
// projects two steps ahead, flagging emerging wind and tide threats before
// the static thresholds are crossed. The fit runs over sequence index, not
// wall-clock time; irregular sampling intervals distort the slope and that
// is a known, accepted limitation of the current design.
func (e *Engine) extrapolateTrends(current domain.Reading, history []domain.Reading) []domain.Detection {
	if len(history) < trendMinHistory {
		return nil
	}

	var out []domain.Detection

	if cur, ok := current.Metric(domain.MetricWindSpeed); ok {
		values, indices := domain.MetricValues(history, domain.MetricWindSpeed)
		if slope, fitted := fitSlope(indices, values); fitted && slope > windSlopeFloor {
			predicted := cur + slope*trendStepsAhead
			// Suppress when the threshold stage already fired for this band.
			if threshold := e.thresholds.WindSpeed.High; predicted > threshold && cur <= threshold {
				out = append(out, e.newDetection(domain.KindWindTrend, domain.SeverityMedium, current,
					fmt.Sprintf("Wind speed increasing rapidly. Predicted to reach %.1f m/s soon.", predicted)))
			}
		}
	}

	if cur, ok := current.Metric(domain.MetricTideHeight); ok {
		values, indices := domain.MetricValues(history, domain.MetricTideHeight)
		if slope, fitted := fitSlope(indices, values); fitted && slope > tideSlopeFloor {
			predicted := cur + slope*trendStepsAhead
			if threshold := e.thresholds.TideHeight.Medium; predicted > threshold && cur <= threshold {
				out = append(out, e.newDetection(domain.KindTideTrend, domain.SeverityMedium, current,
					fmt.Sprintf("Tide rising rapidly. Predicted to reach %.2fm soon.", predicted)))
			}
		}
	}

	return out
}

// fitSlope computes the ordinary least-squares slope of values against their
// arrival indices. Returns false with fewer than trendMinPoints usable values
// or when the denominator degenerates to zero.
func fitSlope(indices []int, values []float64) (float64, bool) {
	n := len(values)
	if n < trendMinPoints {
		return 0, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(indices[i])
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (float64(n)*sumXY - sumX*sumY) / denom, true
}
