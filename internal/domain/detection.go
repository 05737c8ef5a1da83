package domain

import (
	"fmt"
	"time"
)

// Severity is the ordered threat level shared by detections and alerts.
// The zero value is SeverityLow.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Escalate returns the severity one band higher, saturating at critical.
func (s Severity) Escalate() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}

// ParseSeverity converts a severity label to its enum value.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if name == s {
			return Severity(i), nil
		}
	}
	return SeverityLow, fmt.Errorf("unknown severity %q", s)
}

// MarshalText serializes the severity as its lowercase label.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a lowercase severity label.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DetectionKind discriminates which analysis stage produced a detection and
// what threat it describes. Alert deduplication keys on (kind, location).
type DetectionKind string

const (
	KindWind         DetectionKind = "wind"
	KindHighTide     DetectionKind = "high_tide"
	KindStorm        DetectionKind = "storm"
	KindRoughSeas    DetectionKind = "rough_seas"
	KindTempAnomaly  DetectionKind = "temp_anomaly"
	KindPressureDrop DetectionKind = "pressure_drop"
	KindWindTrend    DetectionKind = "wind_trend"
	KindTideTrend    DetectionKind = "tide_trend"
	KindFloodRisk    DetectionKind = "flood_risk"
)

// WindRelated reports whether seasonal escalation treats this kind as a wind
// threat.
func (k DetectionKind) WindRelated() bool {
	return k == KindWind || k == KindWindTrend
}

// TideRelated reports whether seasonal escalation treats this kind as a tide
// threat.
func (k DetectionKind) TideRelated() bool {
	return k == KindHighTide || k == KindTideTrend
}

// Detection is one ephemeral finding from a single analysis stage. Detections
// are produced fresh on every evaluation cycle and are never persisted
// directly; the alert lifecycle manager folds them into alerts.
type Detection struct {
	Kind        DetectionKind `json:"kind"`
	Severity    Severity      `json:"severity"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	Confidence  float64       `json:"confidence"`
	ProducedAt  time.Time     `json:"produced_at"`
}
