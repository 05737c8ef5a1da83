package domain

import (
	"context"
	"time"
)

// Metric names shared between the wire format, the reading store, and the
// detector stages.
const (
	MetricTemperature     = "temperature"
	MetricHumidity        = "humidity"
	MetricWindSpeed       = "wind_speed"
	MetricWindDirection   = "wind_direction"
	MetricPressure        = "pressure"
	MetricTideHeight      = "tide_height"
	MetricWaveHeight      = "wave_height"
	MetricPH              = "ph"
	MetricDissolvedOxygen = "dissolved_oxygen"
)

// RawReading represents an unprocessed message from the source topic.
type RawReading struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Reading is one timestamped set of environmental measurements for a coastal
// location. Metric fields are pointers: nil means the upstream provider did
// not report the value, which every downstream stage must tolerate silently.
// Readings are immutable once parsed.
type Reading struct {
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`

	Temperature     *float64 `json:"temperature,omitempty"`
	Humidity        *float64 `json:"humidity,omitempty"`
	WindSpeed       *float64 `json:"wind_speed,omitempty"`
	WindDirection   *float64 `json:"wind_direction,omitempty"`
	Pressure        *float64 `json:"pressure,omitempty"`
	TideHeight      *float64 `json:"tide_height,omitempty"`
	WaveHeight      *float64 `json:"wave_height,omitempty"`
	PH              *float64 `json:"ph,omitempty"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen,omitempty"`
}

// Metric returns the named measurement and whether it was reported.
func (r Reading) Metric(name string) (float64, bool) {
	var p *float64
	switch name {
	case MetricTemperature:
		p = r.Temperature
	case MetricHumidity:
		p = r.Humidity
	case MetricWindSpeed:
		p = r.WindSpeed
	case MetricWindDirection:
		p = r.WindDirection
	case MetricPressure:
		p = r.Pressure
	case MetricTideHeight:
		p = r.TideHeight
	case MetricWaveHeight:
		p = r.WaveHeight
	case MetricPH:
		p = r.PH
	case MetricDissolvedOxygen:
		p = r.DissolvedOxygen
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// MetricValues extracts one metric from a history window, preserving order.
// The index of each value within the full window is returned alongside it so
// trend fitting can use arrival position even when some readings lack the
// metric.
func MetricValues(history []Reading, name string) (values []float64, indices []int) {
	for i, r := range history {
		if v, ok := r.Metric(name); ok {
			values = append(values, v)
			indices = append(indices, i)
		}
	}
	return values, indices
}

// Float64 returns a pointer to v, for building readings in tests and fixtures.
func Float64(v float64) *float64 { return &v }
