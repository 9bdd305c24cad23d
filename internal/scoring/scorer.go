package scoring

import (
	"fmt"

	"github.com/fitleague/fitleague/internal/models"
)

// Scoring strategies selectable at startup.
const (
	MethodHRZone       = "hr_zone"
	MethodTrainingZone = "training_zone"
)

// Rates are the per-minute gains for each of the five zones. They are tuned
// empirically and live in configuration rather than as constants.
type Rates struct {
	Stamina  [5]int
	Strength [5]int
}

// DefaultRates mirrors the production tuning.
var DefaultRates = Rates{
	Stamina:  [5]int{2, 5, 4, 2, 1},
	Strength: [5]int{0, 1, 3, 5, 8},
}

// RatesFrom builds Rates from configured slices, falling back to the
// defaults when a slice does not carry exactly five values.
func RatesFrom(stamina, strength []int) Rates {
	rates := DefaultRates
	if len(stamina) == 5 {
		copy(rates.Stamina[:], stamina)
	}
	if len(strength) == 5 {
		copy(rates.Strength[:], strength)
	}
	return rates
}

// Stats is the scored outcome of one workout's heart-rate series.
type Stats struct {
	StaminaGained  int
	StrengthGained int
	ZoneBreakdown  models.ZoneBreakdown
	AvgHeartRate   int
	MaxHeartRate   int
	MinHeartRate   int
}

// TotalPoints is the workout's score contribution to a live game.
func (s Stats) TotalPoints() int {
	return s.StaminaGained + s.StrengthGained
}

// Scorer turns a filtered heart-rate series into stat gains. Implementations
// are pure: no I/O, deterministic for the same inputs. Samples must already
// have strictly increasing timestamps (see FilterSamples).
type Scorer interface {
	Score(profile *models.HealthProfile, samples []models.HRSample) (Stats, error)
}

// New builds the scorer for the configured method.
func New(method string, rates Rates) (Scorer, error) {
	switch method {
	case MethodHRZone:
		return &HRZoneScorer{rates: rates}, nil
	case MethodTrainingZone:
		return &TrainingZoneScorer{rates: rates}, nil
	}
	return nil, fmt.Errorf("unknown scoring method %q", method)
}

// hrSummary computes the aggregate heart-rate numbers stored alongside a
// workout.
func hrSummary(samples []models.HRSample) (avg, max, min int) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	sum := 0
	max = samples[0].BPM
	min = samples[0].BPM
	for _, s := range samples {
		sum += s.BPM
		if s.BPM > max {
			max = s.BPM
		}
		if s.BPM < min {
			min = s.BPM
		}
	}
	return sum / len(samples), max, min
}

// zoneMinutes walks samples pairwise and attributes each interval to the
// zone of the interval's first reading.
func zoneMinutes(zones Zones, samples []models.HRSample) [5]float64 {
	var minutes [5]float64
	for i := 0; i < len(samples)-1; i++ {
		dt := samples[i+1].Timestamp.Sub(samples[i].Timestamp).Minutes()
		minutes[zones.IndexOf(samples[i].BPM)] += dt
	}
	return minutes
}
