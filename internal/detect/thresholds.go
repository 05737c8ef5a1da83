package detect

import (
	"fmt"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// Bands holds the four ascending cut points for one metric. For pressure the
// bands are read in the descending direction: lower is worse.
type Bands struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// Thresholds configures the rule engine's severity bands per metric.
type Thresholds struct {
	WindSpeed  Bands
	TideHeight Bands
	WaveHeight Bands
	Pressure   Bands // descending: falling pressure is the dangerous direction
}

// DefaultThresholds returns the operational bands for coastal monitoring:
// wind in m/s, tide and wave heights in metres, pressure in hPa.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindSpeed:  Bands{Low: 15, Medium: 25, High: 35, Critical: 45},
		TideHeight: Bands{Low: 2.5, Medium: 3.5, High: 4.5, Critical: 6.0},
		WaveHeight: Bands{Low: 2.0, Medium: 3.0, High: 4.0, Critical: 5.5},
		Pressure:   Bands{Low: 1000, Medium: 990, High: 980, Critical: 970},
	}
}

// classifyAbove returns the highest band a value has crossed in the ascending
// direction, or false if it sits below the lowest band.
func (b Bands) classifyAbove(v float64) (domain.Severity, bool) {
	switch {
	case v > b.Critical:
		return domain.SeverityCritical, true
	case v > b.High:
		return domain.SeverityHigh, true
	case v > b.Medium:
		return domain.SeverityMedium, true
	case v > b.Low:
		return domain.SeverityLow, true
	default:
		return 0, false
	}
}

// classifyBelow is the descending counterpart used for pressure.
func (b Bands) classifyBelow(v float64) (domain.Severity, bool) {
	switch {
	case v < b.Critical:
		return domain.SeverityCritical, true
	case v < b.High:
		return domain.SeverityHigh, true
	case v < b.Medium:
		return domain.SeverityMedium, true
	case v < b.Low:
		return domain.SeverityLow, true
	default:
		return 0, false
	}
}

// checkThresholds evaluates the current reading against the static bands.
// Absent metrics contribute nothing; each present metric yields at most one
// detection tagged with the highest band crossed.
func (e *Engine) checkThresholds(r domain.Reading) []domain.Detection {
	var out []domain.Detection

	if v, ok := r.Metric(domain.MetricWindSpeed); ok {
		if sev, crossed := e.thresholds.WindSpeed.classifyAbove(v); crossed {
			out = append(out, e.newDetection(domain.KindWind, sev, r, windDescription(sev, v)))
		}
	}
	if v, ok := r.Metric(domain.MetricTideHeight); ok {
		if sev, crossed := e.thresholds.TideHeight.classifyAbove(v); crossed {
			out = append(out, e.newDetection(domain.KindHighTide, sev, r, tideDescription(sev, v)))
		}
	}
	if v, ok := r.Metric(domain.MetricPressure); ok {
		if sev, crossed := e.thresholds.Pressure.classifyBelow(v); crossed {
			out = append(out, e.newDetection(domain.KindStorm, sev, r, pressureDescription(sev, v)))
		}
	}
	if v, ok := r.Metric(domain.MetricWaveHeight); ok {
		if sev, crossed := e.thresholds.WaveHeight.classifyAbove(v); crossed {
			out = append(out, e.newDetection(domain.KindRoughSeas, sev, r, waveDescription(sev, v)))
		}
	}

	return out
}

func windDescription(sev domain.Severity, v float64) string {
	switch sev {
	case domain.SeverityCritical:
		return fmt.Sprintf("Critical wind speed: %.1f m/s. Immediate evacuation recommended.", v)
	case domain.SeverityHigh:
		return fmt.Sprintf("High wind speed: %.1f m/s. Exercise extreme caution.", v)
	case domain.SeverityMedium:
		return fmt.Sprintf("Moderate wind speed: %.1f m/s. Stay alert.", v)
	default:
		return fmt.Sprintf("Elevated wind speed: %.1f m/s.", v)
	}
}

func tideDescription(sev domain.Severity, v float64) string {
	switch sev {
	case domain.SeverityCritical:
		return fmt.Sprintf("Critical tide height: %.1fm. Flooding risk extremely high.", v)
	case domain.SeverityHigh:
		return fmt.Sprintf("High tide: %.1fm. Monitor coastal areas closely.", v)
	case domain.SeverityMedium:
		return fmt.Sprintf("Rising tide: %.1fm. Watch low-lying areas.", v)
	default:
		return fmt.Sprintf("Elevated tide: %.1fm.", v)
	}
}

func pressureDescription(sev domain.Severity, v float64) string {
	switch sev {
	case domain.SeverityCritical:
		return fmt.Sprintf("Critical low pressure: %.1f hPa. Major storm system detected.", v)
	case domain.SeverityHigh:
		return fmt.Sprintf("Low pressure system: %.1f hPa. Storm development likely.", v)
	case domain.SeverityMedium:
		return fmt.Sprintf("Falling pressure: %.1f hPa. Conditions deteriorating.", v)
	default:
		return fmt.Sprintf("Below-normal pressure: %.1f hPa.", v)
	}
}

func waveDescription(sev domain.Severity, v float64) string {
	switch sev {
	case domain.SeverityCritical:
		return fmt.Sprintf("Extreme wave height: %.1fm. All coastal activity unsafe.", v)
	case domain.SeverityHigh:
		return fmt.Sprintf("High waves: %.1fm. Avoid coastal activities.", v)
	default:
		return fmt.Sprintf("Rough sea conditions: %.1fm waves.", v)
	}
}
