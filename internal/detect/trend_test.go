package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

func windHistory(values ...float64) []domain.Reading {
	history := make([]domain.Reading, len(values))
	for i, v := range values {
		history[i] = domain.Reading{Location: "Veraval", WindSpeed: domain.Float64(v)}
	}
	return history
}

// Scenario from the threat model: a six-point wind history rising 3 m/s per
// step with a current reading of 30 predicts >= 36 m/s, which crosses the
// high band and yields a medium trend detection.
func TestTrend_RisingWindScenario(t *testing.T) {
	winterClock(t)
	e := newTestEngine()

	history := windHistory(15, 18, 21, 24, 27, 30)
	current := domain.Reading{Location: "Veraval", WindSpeed: domain.Float64(30)}

	dets := e.extrapolateTrends(current, history)
	require.Len(t, dets, 1)
	assert.Equal(t, domain.KindWindTrend, dets[0].Kind)
	assert.Equal(t, domain.SeverityMedium, dets[0].Severity)
	assert.Contains(t, dets[0].Description, "36.0 m/s")
}

func TestTrend_SuppressedWhenThresholdAlreadyCrossed(t *testing.T) {
	winterClock(t)
	e := newTestEngine()

	// Current wind is already past the high band; the threshold stage owns
	// this detection, the trend stage must not duplicate it.
	history := windHistory(25, 28, 31, 34, 37, 40)
	current := domain.Reading{Location: "Veraval", WindSpeed: domain.Float64(40)}

	assert.Empty(t, e.extrapolateTrends(current, history))
}

func TestTrend_TideRise(t *testing.T) {
	winterClock(t)
	e := newTestEngine()

	history := []domain.Reading{
		{TideHeight: domain.Float64(1.0)},
		{TideHeight: domain.Float64(1.5)},
		{TideHeight: domain.Float64(2.0)},
		{TideHeight: domain.Float64(2.5)},
		{TideHeight: domain.Float64(3.0)},
		{TideHeight: domain.Float64(3.4)},
	}
	current := domain.Reading{Location: "Kandla", TideHeight: domain.Float64(3.4)}

	dets := e.extrapolateTrends(current, history)
	require.Len(t, dets, 1)
	assert.Equal(t, domain.KindTideTrend, dets[0].Kind)
	assert.Equal(t, domain.SeverityMedium, dets[0].Severity)
}

func TestTrend_Degenerate(t *testing.T) {
	winterClock(t)
	e := newTestEngine()

	t.Run("short window produces nothing", func(t *testing.T) {
		history := windHistory(10, 15, 20, 25, 30)
		current := domain.Reading{Location: "Veraval", WindSpeed: domain.Float64(30)}
		assert.Empty(t, e.extrapolateTrends(current, history))
	})

	t.Run("too few usable points after filtering", func(t *testing.T) {
		history := []domain.Reading{
			{WindSpeed: domain.Float64(10)},
			{TideHeight: domain.Float64(2)},
			{TideHeight: domain.Float64(2)},
			{WindSpeed: domain.Float64(20)},
			{TideHeight: domain.Float64(2)},
			{WindSpeed: domain.Float64(30)},
		}
		current := domain.Reading{Location: "Veraval", WindSpeed: domain.Float64(30)}
		assert.Empty(t, e.extrapolateTrends(current, history))
	})

	t.Run("flat series has no trend", func(t *testing.T) {
		history := windHistory(30, 30, 30, 30, 30, 30)
		current := domain.Reading{Location: "Veraval", WindSpeed: domain.Float64(30)}
		assert.Empty(t, e.extrapolateTrends(current, history))
	})
}

func TestFitSlope(t *testing.T) {
	t.Run("exact linear fit", func(t *testing.T) {
		slope, ok := fitSlope([]int{0, 1, 2, 3}, []float64{1, 3, 5, 7})
		require.True(t, ok)
		assert.InDelta(t, 2.0, slope, 1e-9)
	})

	t.Run("under minimum points", func(t *testing.T) {
		_, ok := fitSlope([]int{0, 1, 2}, []float64{1, 2, 3})
		assert.False(t, ok)
	})

	t.Run("degenerate identical indices", func(t *testing.T) {
		_, ok := fitSlope([]int{2, 2, 2, 2}, []float64{1, 2, 3, 4})
		assert.False(t, ok)
	})
}
