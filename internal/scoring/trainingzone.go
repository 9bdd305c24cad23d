package scoring

import (
	"math"

	"github.com/fitleague/fitleague/internal/models"
)

// TrainingZoneScorer is the alternative strategy: stamina follows the same
// per-minute rates as HRZoneScorer, but strength weights grow exponentially
// with zone index (2^i per minute), so time in the top zones dominates.
type TrainingZoneScorer struct {
	rates Rates
}

func (sc *TrainingZoneScorer) Score(profile *models.HealthProfile, samples []models.HRSample) (Stats, error) {
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
		strength := int(math.Round(m * math.Pow(2, float64(i))))
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
