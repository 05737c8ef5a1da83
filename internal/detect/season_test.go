package detect

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

func TestDetermineSeason(t *testing.T) {
	tests := []struct {
		name     string
		month    time.Month
		location string
		want     Season
	}{
		{"india in july", time.July, "Mumbai, India", SeasonMonsoon},
		{"india in december", time.December, "Mumbai, India", SeasonNormal},
		{"florida in september", time.September, "Miami, Florida", SeasonHurricane},
		{"florida in november", time.November, "Tampa, Florida, USA", SeasonHurricane},
		{"florida in january", time.January, "Miami, Florida", SeasonNormal},
		{"japan in may", time.May, "Okinawa, Japan", SeasonTyphoon},
		{"philippines in october", time.October, "Manila, Philippines", SeasonTyphoon},
		{"unmatched location", time.July, "Reykjavik", SeasonNormal},
		{"case insensitive keyword", time.July, "CHENNAI, INDIA", SeasonMonsoon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineSeason(tt.month, tt.location))
		})
	}
}

func TestApplySeason_EscalatesExactlyOneBand(t *testing.T) {
	// Every severity below critical must rise by exactly one band; critical
	// stays put. This holds for all elevated seasons.
	for _, season := range []Season{SeasonMonsoon, SeasonHurricane, SeasonTyphoon} {
		for sev := domain.SeverityLow; sev <= domain.SeverityCritical; sev++ {
			in := []domain.Detection{{Kind: domain.KindWind, Severity: sev}}
			out := applySeason(season, in)
			require.Len(t, out, 1)

			if sev < domain.SeverityCritical {
				assert.Equal(t, sev+1, out[0].Severity, "%s %s", season, sev)
			} else {
				assert.Equal(t, domain.SeverityCritical, out[0].Severity, "%s stays critical", season)
			}
			assert.GreaterOrEqual(t, out[0].Severity, sev, "severity never decreases")
		}
	}
}

func TestApplySeason_OnlyWindAndTideKinds(t *testing.T) {
	in := []domain.Detection{
		{Kind: domain.KindWind, Severity: domain.SeverityMedium},
		{Kind: domain.KindHighTide, Severity: domain.SeverityLow},
		{Kind: domain.KindWindTrend, Severity: domain.SeverityMedium},
		{Kind: domain.KindTideTrend, Severity: domain.SeverityMedium},
		{Kind: domain.KindStorm, Severity: domain.SeverityMedium},
		{Kind: domain.KindTempAnomaly, Severity: domain.SeverityMedium},
	}
	out := applySeason(SeasonHurricane, in)
	require.Len(t, out, len(in))

	assert.Equal(t, domain.SeverityHigh, out[0].Severity)
	assert.Equal(t, domain.SeverityMedium, out[1].Severity)
	assert.Equal(t, domain.SeverityHigh, out[2].Severity)
	assert.Equal(t, domain.SeverityHigh, out[3].Severity)
	assert.Equal(t, domain.SeverityMedium, out[4].Severity, "storm kind untouched")
	assert.Equal(t, domain.SeverityMedium, out[5].Severity, "anomaly kind untouched")
}

func TestApplySeason_NormalSeasonIsIdentity(t *testing.T) {
	in := []domain.Detection{{Kind: domain.KindWind, Severity: domain.SeverityMedium}}
	out := applySeason(SeasonNormal, in)
	assert.Equal(t, in, out)
}

func TestEvaluate_SeasonalEscalationEndToEnd(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	e := newTestEngine()
	r := domain.Reading{Location: "Mumbai, India", WindSpeed: domain.Float64(30)}

	dets := e.Evaluate(r, nil)
	require.Len(t, dets, 1)
	// Medium threshold detection escalated to high by the monsoon season.
	assert.Equal(t, domain.SeverityHigh, dets[0].Severity)
}
