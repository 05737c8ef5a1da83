package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// wireReading is the flat JSON structure published by the collector services.
// Timestamps arrive as RFC 3339 strings; every metric is optional because the
// upstream providers (weather, tide, ocean, pollution) report disjoint field
// sets for the same location.
type wireReading struct {
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`

	Temperature     *float64 `json:"temperature"`
	Humidity        *float64 `json:"humidity"`
	WindSpeed       *float64 `json:"wind_speed"`
	WindDirection   *float64 `json:"wind_direction"`
	Pressure        *float64 `json:"pressure"`
	TideHeight      *float64 `json:"tide_height"`
	WaveHeight      *float64 `json:"wave_height"`
	PH              *float64 `json:"ph"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
}

// ParseRawReading deserializes a RawReading's value into a Reading.
// The message timestamp is used when the payload omits one, so replayed
// messages keep their original ordering.
func ParseRawReading(raw RawReading) (Reading, error) {
	var w wireReading
	if err := json.Unmarshal(raw.Value, &w); err != nil {
		return Reading{}, fmt.Errorf("parse raw reading: %w", err)
	}

	location := strings.TrimSpace(w.Location)
	if location == "" {
		return Reading{}, errors.New("parse raw reading: missing location")
	}

	ts := raw.Timestamp
	if w.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, w.Timestamp)
		if err != nil {
			return Reading{}, fmt.Errorf("parse raw reading timestamp: %w", err)
		}
		ts = parsed.UTC()
	}
	if ts.IsZero() {
		ts = clock.Now().UTC()
	}

	return Reading{
		Location:        location,
		Timestamp:       ts,
		Source:          w.Source,
		Temperature:     w.Temperature,
		Humidity:        w.Humidity,
		WindSpeed:       w.WindSpeed,
		WindDirection:   w.WindDirection,
		Pressure:        w.Pressure,
		TideHeight:      w.TideHeight,
		WaveHeight:      w.WaveHeight,
		PH:              w.PH,
		DissolvedOxygen: w.DissolvedOxygen,
	}, nil
}
