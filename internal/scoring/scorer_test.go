package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitleague/fitleague/internal/models"
)

func testProfile() *models.HealthProfile {
	return &models.HealthProfile{
		Age:       30,
		RestingHR: 60,
		MaxHR:     190,
	}
}

// constantSeries builds n samples spaced 1s apart at a fixed bpm.
func constantSeries(start time.Time, n, bpm int) []models.HRSample {
	samples := make([]models.HRSample, n)
	for i := range samples {
		samples[i] = models.HRSample{Timestamp: start.Add(time.Duration(i) * time.Second), BPM: bpm}
	}
	return samples
}

func TestNewZones_BoundariesCoverRange(t *testing.T) {
	// resting=60, max=190 -> HRR=130
	zones := NewZones(60, 190)

	assert.Equal(t, ZoneRange{Low: 0, High: 137}, zones[0])
	assert.Equal(t, ZoneRange{Low: 138, High: 150}, zones[1])
	assert.Equal(t, ZoneRange{Low: 151, High: 163}, zones[2])
	assert.Equal(t, ZoneRange{Low: 164, High: 176}, zones[3])
	assert.Equal(t, ZoneRange{Low: 177, High: 190}, zones[4])

	// No gaps, no overlap
	for i := 1; i < len(zones); i++ {
		assert.Equal(t, zones[i-1].High+1, zones[i].Low)
	}
}

func TestZones_IndexOf(t *testing.T) {
	zones := NewZones(60, 190)

	assert.Equal(t, 0, zones.IndexOf(0))
	assert.Equal(t, 0, zones.IndexOf(137)) // boundary belongs to the lower zone
	assert.Equal(t, 1, zones.IndexOf(138))
	assert.Equal(t, 4, zones.IndexOf(190))
	assert.Equal(t, 4, zones.IndexOf(220)) // above max clamps into zone 5
}

func TestStoredZones_TakePrecedence(t *testing.T) {
	z1, z2, z3, z4, z5 := 120, 140, 155, 170, 200
	profile := testProfile()
	profile.Zone1Max = &z1
	profile.Zone2Max = &z2
	profile.Zone3Max = &z3
	profile.Zone4Max = &z4
	profile.Zone5Max = &z5

	zones := ZonesForProfile(profile)
	assert.Equal(t, ZoneRange{Low: 0, High: 120}, zones[0])
	assert.Equal(t, ZoneRange{Low: 121, High: 140}, zones[1])
	assert.Equal(t, ZoneRange{Low: 171, High: 200}, zones[4])
}

func TestFilterSamples_SortsAndDropsNonIncreasing(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := []models.HRSample{
		{Timestamp: base.Add(2 * time.Second), BPM: 120},
		{Timestamp: base, BPM: 100},
		{Timestamp: base.Add(2 * time.Second), BPM: 125}, // duplicate ts
		{Timestamp: base.Add(1 * time.Second), BPM: 110},
	}

	filtered := FilterSamples(samples)
	require.Len(t, filtered, 3)
	assert.Equal(t, 100, filtered[0].BPM)
	assert.Equal(t, 110, filtered[1].BPM)
	assert.Equal(t, 120, filtered[2].BPM)
	for i := 1; i < len(filtered); i++ {
		assert.True(t, filtered[i].Timestamp.After(filtered[i-1].Timestamp))
	}
}

func TestFilterSamples_Empty(t *testing.T) {
	assert.Nil(t, FilterSamples(nil))
}

func TestHRZoneScorer_PureZone2Cardio(t *testing.T) {
	scorer, err := New(MethodHRZone, DefaultRates)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := constantSeries(start, 600, 138)

	stats, err := scorer.Score(testProfile(), samples)
	require.NoError(t, err)

	assert.Equal(t, 50, stats.StaminaGained)
	assert.Equal(t, 10, stats.StrengthGained)
	require.Len(t, stats.ZoneBreakdown, 1)
	assert.Equal(t, "zone_2", stats.ZoneBreakdown[0].Zone)
	assert.InDelta(t, 9.98, stats.ZoneBreakdown[0].Minutes, 0.01)
	assert.Equal(t, 138, stats.AvgHeartRate)
	assert.Equal(t, 138, stats.MaxHeartRate)
	assert.Equal(t, 138, stats.MinHeartRate)
}

func TestHRZoneScorer_MinutesMatchSampleSpan(t *testing.T) {
	scorer, err := New(MethodHRZone, DefaultRates)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var samples []models.HRSample
	bpms := []int{100, 140, 155, 170, 185, 140, 120}
	for i, bpm := range bpms {
		// uneven spacing
		samples = append(samples, models.HRSample{
			Timestamp: start.Add(time.Duration(i*i*30) * time.Second),
			BPM:       bpm,
		})
	}

	stats, err := scorer.Score(testProfile(), samples)
	require.NoError(t, err)

	span := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp).Minutes()
	assert.InDelta(t, span, stats.ZoneBreakdown.TotalMinutes(), 0.1)
}

func TestHRZoneScorer_AboveMaxClampsToZone5(t *testing.T) {
	scorer, err := New(MethodHRZone, DefaultRates)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	stats, err := scorer.Score(testProfile(), constantSeries(start, 61, 210))
	require.NoError(t, err)

	require.Len(t, stats.ZoneBreakdown, 1)
	assert.Equal(t, "zone_5", stats.ZoneBreakdown[0].Zone)
	assert.Equal(t, 1, stats.StaminaGained)
	assert.Equal(t, 8, stats.StrengthGained)
}

func TestHRZoneScorer_DegenerateInputs(t *testing.T) {
	scorer, err := New(MethodHRZone, DefaultRates)
	require.NoError(t, err)

	stats, err := scorer.Score(testProfile(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.StaminaGained)
	assert.Zero(t, stats.StrengthGained)
	assert.Empty(t, stats.ZoneBreakdown)

	single := []models.HRSample{{Timestamp: time.Now(), BPM: 150}}
	stats, err = scorer.Score(testProfile(), single)
	require.NoError(t, err)
	assert.Zero(t, stats.StaminaGained)
	assert.Zero(t, stats.StrengthGained)
	assert.Equal(t, 150, stats.AvgHeartRate)
}

func TestHRZoneScorer_InvalidProfile(t *testing.T) {
	scorer, err := New(MethodHRZone, DefaultRates)
	require.NoError(t, err)

	profile := &models.HealthProfile{Age: 30, RestingHR: 60, MaxHR: 50}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	_, err = scorer.Score(profile, constantSeries(start, 10, 120))
	assert.Error(t, err)
}

func TestTrainingZoneScorer_ExponentialStrengthWeights(t *testing.T) {
	scorer, err := New(MethodTrainingZone, DefaultRates)
	require.NoError(t, err)

	// 10 minutes in zone 5 -> strength = 10 * 2^4 = 160
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := constantSeries(start, 601, 185)

	stats, err := scorer.Score(testProfile(), samples)
	require.NoError(t, err)

	assert.Equal(t, 160, stats.StrengthGained)
	assert.Equal(t, 10, stats.StaminaGained)
}

func TestNew_UnknownMethod(t *testing.T) {
	_, err := New("vo2max", DefaultRates)
	assert.Error(t, err)
}
