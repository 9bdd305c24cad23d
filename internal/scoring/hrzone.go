package scoring

import (
	"math"

	"github.com/fitleague/fitleague/internal/models"
)

// HRZoneScorer applies fixed per-minute rates to the time spent in each
// heart-rate zone.
type HRZoneScorer struct {
	rates Rates
}

func (sc *HRZoneScorer) Score(profile *models.HealthProfile, samples []models.HRSample) (Stats, error) {
	if !profile.HasStoredZones() {
		if err := profile.Validate(); err != nil {
			return Stats{}, err
		}
	}

	stats := Stats{}
	stats.AvgHeartRate, stats.MaxHeartRate, stats.MinHeartRate = hrSummary(samples)
	if len(samples) < 2 {
		return stats, nil
	}

	zones := ZonesForProfile(profile)
	minutes := zoneMinutes(zones, samples)
	for i, m := range minutes {
		if m <= 0 {
			continue
		}
		stamina := int(math.Round(m * float64(sc.rates.Stamina[i])))
		strength := int(math.Round(m * float64(sc.rates.Strength[i])))
		stats.StaminaGained += stamina
		stats.StrengthGained += strength
		stats.ZoneBreakdown = append(stats.ZoneBreakdown, models.ZoneMinutes{
			Zone:           ZoneLabel(i),
			Minutes:        m,
			StaminaGained:  stamina,
			StrengthGained: strength,
			HRMin:          zones[i].Low,
			HRMax:          zones[i].High,
		})
	}
	return stats, nil
}
