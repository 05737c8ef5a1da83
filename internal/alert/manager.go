// Package alert owns the active-alert set and its lifecycle transitions.
//
// Alerts are keyed by (kind, location). A detection for an absent key creates
// an active alert with a fresh id; a detection for an active key refreshes it
// in place, preserving id and first-seen time. Deactivation is explicit and
// keyed by id, and a later detection of the same key starts over with a new
// alert.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// ErrNotFound indicates no currently active alert matches the given id.
var ErrNotFound = errors.New("alert not found")

const (
	triggeredByRules = "rule_engine"
	triggeredByModel = "flood_model"
)

// Store mirrors alert mutations to durable storage. The store is write-only
// from the manager's perspective; the in-memory set is authoritative.
type Store interface {
	UpsertAlert(ctx context.Context, a domain.Alert) error
}

// Manager serializes all read-modify-write access to the active-alert set.
type Manager struct {
	mu     sync.Mutex
	active map[domain.AlertKey]*domain.Alert
	store  Store
	logger *slog.Logger
}

// NewManager builds an empty manager. store may be nil for in-memory-only use.
func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{
		active: make(map[domain.AlertKey]*domain.Alert),
		store:  store,
		logger: logger,
	}
}

// Apply runs one evaluation cycle's output through the lifecycle. Rule
// detections are applied in order first, then the flood-risk detection derived
// from the assessment; an untrained assessment contributes nothing. Returns
// the touched alerts in application order.
func (m *Manager) Apply(ctx context.Context, location string, detections []domain.Detection, assessment domain.RiskAssessment) []domain.Alert {
	// Clone before appending so the flood detection never lands in the
	// caller's backing array.
	batch := slices.Clone(detections)
	if assessment.Trained {
		batch = append(batch, floodDetection(location, assessment))
	}
	if len(batch) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := domain.Clock().Now().UTC()
	touched := make([]domain.Alert, 0, len(batch))
	for _, d := range batch {
		key := domain.AlertKey{Kind: d.Kind, Location: d.Location}
		a, ok := m.active[key]
		if ok {
			a.Severity = d.Severity
			a.Description = d.Description
			a.LastUpdated = now
		} else {
			a = &domain.Alert{
				ID:          uuid.NewString(),
				Kind:        d.Kind,
				Severity:    d.Severity,
				Location:    d.Location,
				Description: d.Description,
				IsActive:    true,
				TriggeredBy: triggeredBy(d.Kind),
				FirstSeen:   now,
				LastUpdated: now,
			}
			m.active[key] = a
			m.logger.Info("alert raised",
				"id", a.ID,
				"kind", a.Kind,
				"severity", a.Severity.String(),
				"location", a.Location,
			)
		}

		m.mirror(ctx, *a)
		touched = append(touched, *a)
	}

	return touched
}

// Deactivate retires the active alert with the given id. Unknown or already
// inactive ids report ErrNotFound.
func (m *Manager) Deactivate(ctx context.Context, id string) (domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, a := range m.active {
		if a.ID != id {
			continue
		}
		a.IsActive = false
		a.LastUpdated = domain.Clock().Now().UTC()
		delete(m.active, key)

		m.mirror(ctx, *a)
		m.logger.Info("alert deactivated", "id", a.ID, "kind", a.Kind, "location", a.Location)
		return *a, nil
	}

	return domain.Alert{}, fmt.Errorf("deactivate %s: %w", id, ErrNotFound)
}

// Active returns a snapshot of the active set, ordered by first-seen time and
// then id for stable output.
func (m *Manager) Active() []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts := make([]domain.Alert, 0, len(m.active))
	for _, a := range m.active {
		alerts = append(alerts, *a)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].FirstSeen.Equal(alerts[j].FirstSeen) {
			return alerts[i].FirstSeen.Before(alerts[j].FirstSeen)
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts
}

// mirror is best-effort: a storage failure must not lose the in-memory
// transition, only the durable copy of it.
func (m *Manager) mirror(ctx context.Context, a domain.Alert) {
	if m.store == nil {
		return
	}
	if err := m.store.UpsertAlert(ctx, a); err != nil {
		m.logger.Error("persist alert", "id", a.ID, "error", err)
	}
}

func floodDetection(location string, assessment domain.RiskAssessment) domain.Detection {
	return domain.Detection{
		Kind:        domain.KindFloodRisk,
		Severity:    assessment.Band.Severity(),
		Location:    location,
		Description: floodDescription(assessment),
		Confidence:  assessment.Confidence,
		ProducedAt:  domain.Clock().Now().UTC(),
	}
}

func floodDescription(a domain.RiskAssessment) string {
	var label string
	switch a.Band {
	case domain.BandCritical:
		label = "Critical flood risk: high probability of flooding detected"
	case domain.BandHigh:
		label = "High flood risk: significant flood risk detected"
	case domain.BandMedium:
		label = "Medium flood risk: moderate flood risk detected"
	case domain.BandLow:
		label = "Low flood risk detected"
	default:
		label = "Minimal flood risk"
	}
	return fmt.Sprintf("%s (probability %.1f%%)", label, a.Probability*100)
}

func triggeredBy(kind domain.DetectionKind) string {
	if kind == domain.KindFloodRisk {
		return triggeredByModel
	}
	return triggeredByRules
}
