package scoring

import (
	"fmt"

	"github.com/fitleague/fitleague/internal/models"
)

// ZoneRange is one heart-rate zone, inclusive on both ends.
type ZoneRange struct {
	Low  int
	High int
}

// Zones holds the five heart-rate zones covering [0, max_hr] with no
// overlap and no gaps.
type Zones [5]ZoneRange

// ZoneLabel returns the canonical name of a zone index (0-based).
func ZoneLabel(idx int) string {
	return fmt.Sprintf("zone_%d", idx+1)
}

// NewZones derives zones from heart-rate reserve. Zone 1 starts at 0 bpm so
// readings below resting still land somewhere.
func NewZones(restingHR, maxHR int) Zones {
	hrr := float64(maxHR - restingHR)
	low := func(frac float64) int {
		return restingHR + int(hrr*frac)
	}
	return Zones{
		{Low: 0, High: low(0.6) - 1},
		{Low: low(0.6), High: low(0.7) - 1},
		{Low: low(0.7), High: low(0.8) - 1},
		{Low: low(0.8), High: low(0.9) - 1},
		{Low: low(0.9), High: maxHR},
	}
}

// StoredZones rebuilds zones from persisted ceilings. Stored values win over
// recomputation so historic workouts stay comparable if the derivation
// formula ever changes.
func StoredZones(z1, z2, z3, z4, z5 int) Zones {
	return Zones{
		{Low: 0, High: z1},
		{Low: z1 + 1, High: z2},
		{Low: z2 + 1, High: z3},
		{Low: z3 + 1, High: z4},
		{Low: z4 + 1, High: z5},
	}
}

// ZonesForProfile picks stored ceilings when the profile has all five,
// otherwise derives from heart-rate reserve.
func ZonesForProfile(profile *models.HealthProfile) Zones {
	if profile.HasStoredZones() {
		return StoredZones(*profile.Zone1Max, *profile.Zone2Max, *profile.Zone3Max, *profile.Zone4Max, *profile.Zone5Max)
	}
	return NewZones(profile.RestingHR, profile.MaxHR)
}

// IndexOf returns the 0-based zone index for a reading. Readings above the
// top zone's ceiling clamp into zone 5.
func (z Zones) IndexOf(bpm int) int {
	for i, r := range z {
		if bpm >= r.Low && bpm <= r.High {
			return i
		}
	}
	return len(z) - 1
}
