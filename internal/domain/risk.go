package domain

import "math"

// Feature vector defaults, applied when an upstream provider omits a value.
// They match the training dataset's typical coastal conditions.
const (
	DefaultTemperature = 25.0
	DefaultHumidity    = 70.0
	DefaultWindSpeed   = 20.0
	DefaultPressure    = 1013.0
	DefaultTideHeight  = 2.0
	DefaultWaveHeight  = 1.5
)

// FeatureCount is the fixed width of the classifier input.
const FeatureCount = 6

// FeatureVector is the fixed-order numeric tuple consumed by the flood risk
// classifier: temperature, humidity, wind speed, pressure, tide height, wave
// height.
type FeatureVector struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Pressure    float64 `json:"pressure"`
	TideHeight  float64 `json:"tide_height"`
	WaveHeight  float64 `json:"wave_height"`
}

// Features builds the classifier input from a reading, filling absent metrics
// with the fixed defaults.
func (r Reading) Features() FeatureVector {
	pick := func(p *float64, def float64) float64 {
		if p == nil {
			return def
		}
		return *p
	}
	return FeatureVector{
		Temperature: pick(r.Temperature, DefaultTemperature),
		Humidity:    pick(r.Humidity, DefaultHumidity),
		WindSpeed:   pick(r.WindSpeed, DefaultWindSpeed),
		Pressure:    pick(r.Pressure, DefaultPressure),
		TideHeight:  pick(r.TideHeight, DefaultTideHeight),
		WaveHeight:  pick(r.WaveHeight, DefaultWaveHeight),
	}
}

// Slice returns the vector in training column order.
func (f FeatureVector) Slice() []float64 {
	return []float64{f.Temperature, f.Humidity, f.WindSpeed, f.Pressure, f.TideHeight, f.WaveHeight}
}

// RiskBand is the ordered bucket derived from a classifier probability.
type RiskBand string

const (
	BandMinimal  RiskBand = "minimal"
	BandLow      RiskBand = "low"
	BandMedium   RiskBand = "medium"
	BandHigh     RiskBand = "high"
	BandCritical RiskBand = "critical"
)

// BandFromProbability maps a flood probability to its risk band using the
// fixed cut points 0.8 / 0.6 / 0.4 / 0.2.
func BandFromProbability(p float64) RiskBand {
	switch {
	case p >= 0.8:
		return BandCritical
	case p >= 0.6:
		return BandHigh
	case p >= 0.4:
		return BandMedium
	case p >= 0.2:
		return BandLow
	default:
		return BandMinimal
	}
}

// Severity maps a risk band to the alert severity used when the assessment is
// folded into the alert lifecycle. Minimal still surfaces as low.
func (b RiskBand) Severity() Severity {
	switch b {
	case BandCritical:
		return SeverityCritical
	case BandHigh:
		return SeverityHigh
	case BandMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RiskAssessment is the classifier output for one feature vector. Trained is
// false when no model is available: probability is then 0.0 and callers must
// not read it as "no risk".
type RiskAssessment struct {
	Probability float64       `json:"probability"`
	Band        RiskBand      `json:"band"`
	Confidence  float64       `json:"confidence"`
	Trained     bool          `json:"trained"`
	Features    FeatureVector `json:"features"`
}

// NewRiskAssessment derives the band and confidence for a probability.
// Confidence is |p-0.5|*2: maximal at the extremes, zero at the decision
// boundary.
func NewRiskAssessment(probability float64, features FeatureVector) RiskAssessment {
	return RiskAssessment{
		Probability: probability,
		Band:        BandFromProbability(probability),
		Confidence:  math.Abs(probability-0.5) * 2,
		Trained:     true,
		Features:    features,
	}
}

// UntrainedAssessment is the fail-closed result returned when no model has
// been trained yet.
func UntrainedAssessment(features FeatureVector) RiskAssessment {
	return RiskAssessment{
		Probability: 0,
		Band:        BandMinimal,
		Trained:     false,
		Features:    features,
	}
}
