package detect

import (
	"strings"
	"time"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// Season classifies elevated-risk calendar periods for a location.
type Season string

const (
	SeasonMonsoon   Season = "monsoon"
	SeasonHurricane Season = "hurricane"
	SeasonTyphoon   Season = "typhoon"
	SeasonNormal    Season = "normal"
)

// seasonRule intersects a month range with location keywords. Keyword
// matching is a lossy substring heuristic and tolerates false positives.
type seasonRule struct {
	season   Season
	months   map[time.Month]bool
	keywords []string
}

var seasonRules = []seasonRule{
	{
		season:   SeasonMonsoon,
		months:   monthSet(time.June, time.July, time.August, time.September),
		keywords: []string{"india", "bangladesh", "thailand"},
	},
	{
		season:   SeasonHurricane,
		months:   monthSet(time.June, time.July, time.August, time.September, time.October, time.November),
		keywords: []string{"usa", "miami", "florida", "caribbean"},
	},
	{
		season:   SeasonTyphoon,
		months:   monthSet(time.May, time.June, time.July, time.August, time.September, time.October),
		keywords: []string{"japan", "philippines", "china", "taiwan"},
	},
}

func monthSet(months ...time.Month) map[time.Month]bool {
	set := make(map[time.Month]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return set
}

// DetermineSeason maps (month, location) to a season tag. The first rule
// whose month range and keywords both match wins; everything else is normal.
func DetermineSeason(month time.Month, location string) Season {
	loc := strings.ToLower(location)
	for _, rule := range seasonRules {
		if !rule.months[month] {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(loc, kw) {
				return rule.season
			}
		}
	}
	return SeasonNormal
}

// Elevated reports whether the season escalates wind and tide threats.
func (s Season) Elevated() bool {
	return s == SeasonMonsoon || s == SeasonHurricane || s == SeasonTyphoon
}

// applySeason escalates wind- and tide-related detections by exactly one
// severity band during elevated seasons. Critical detections stay critical
// and other detection kinds pass through untouched.
func applySeason(season Season, detections []domain.Detection) []domain.Detection {
	if !season.Elevated() {
		return detections
	}

	adjusted := make([]domain.Detection, len(detections))
	for i, d := range detections {
		if d.Kind.WindRelated() || d.Kind.TideRelated() {
			d.Severity = d.Severity.Escalate()
		}
		adjusted[i] = d
	}
	return adjusted
}
