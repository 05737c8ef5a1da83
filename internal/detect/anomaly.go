package detect

import (
	"fmt"
	"math"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

const (
	// zScoreMinHistory is the minimum number of historical values for the
	// deviation test; below it the stage stays silent.
	zScoreMinHistory = 3

	// rapidChangeMinHistory is the minimum history for the pressure delta
	// test, which reaches back to the third-most-recent value.
	rapidChangeMinHistory = 4

	zScoreSigmas = 2.0

	// rapidPressureDrop is the hPa delta across three readings that signals
	// storm development regardless of the z-score.
	rapidPressureDrop = -15.0
)

// detectAnomalies compares the current reading against its rolling history.
// Two independent checks: a 2-sigma deviation test on temperature, and a
// rapid-drop test on pressure. Insufficient history contributes nothing.
func (e *Engine) detectAnomalies(current domain.Reading, history []domain.Reading) []domain.Detection {
	var out []domain.Detection

	if cur, ok := current.Metric(domain.MetricTemperature); ok && len(history) >= zScoreMinHistory {
		temps, _ := domain.MetricValues(history, domain.MetricTemperature)
		if len(temps) >= zScoreMinHistory {
			mean, std := meanStd(temps)
			if math.Abs(cur-mean) > zScoreSigmas*std {
				out = append(out, e.newDetection(domain.KindTempAnomaly, domain.SeverityMedium, current,
					fmt.Sprintf("Temperature anomaly detected: %.1f°C vs normal %.1f°C", cur, mean)))
			}
		}
	}

	if _, ok := current.Metric(domain.MetricPressure); ok && len(history) >= rapidChangeMinHistory {
		pressures, _ := domain.MetricValues(history, domain.MetricPressure)
		if n := len(pressures); n >= rapidChangeMinHistory {
			change := pressures[n-1] - pressures[n-3]
			if change < rapidPressureDrop {
				out = append(out, e.newDetection(domain.KindPressureDrop, domain.SeverityHigh, current,
					fmt.Sprintf("Rapid pressure drop detected: %.1f hPa. Storm development likely.", change)))
			}
		}
	}

	return out
}

// meanStd returns the mean and population standard deviation of values.
func meanStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= n

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / n)
}
