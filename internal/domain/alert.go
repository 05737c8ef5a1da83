package domain

import "time"

// Alert is the durable, deduplicated, user-facing record derived from one or
// more detections. At most one active alert exists per (kind, location) pair;
// repeat detections refresh the existing alert in place. Only the alert
// lifecycle manager creates or mutates alerts; stores persist them verbatim.
type Alert struct {
	ID          string        `json:"id"`
	Kind        DetectionKind `json:"kind"`
	Severity    Severity      `json:"severity"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	IsActive    bool          `json:"is_active"`
	TriggeredBy string        `json:"triggered_by"`
	FirstSeen   time.Time     `json:"first_seen"`
	LastUpdated time.Time     `json:"last_updated"`
}

// AlertKey identifies the deduplication slot an alert occupies.
type AlertKey struct {
	Kind     DetectionKind
	Location string
}

// Key returns the alert's deduplication key.
func (a Alert) Key() AlertKey {
	return AlertKey{Kind: a.Kind, Location: a.Location}
}
