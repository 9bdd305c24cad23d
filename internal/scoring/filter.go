package scoring

import (
	"sort"

	"github.com/fitleague/fitleague/internal/models"
)

// FilterSamples sorts readings by timestamp and drops any sample whose
// timestamp is not strictly greater than the previous one. Downstream code
// assumes strictly monotonic samples, so this filter is authoritative.
func FilterSamples(samples []models.HRSample) []models.HRSample {
	if len(samples) == 0 {
		return nil
	}
	sorted := make([]models.HRSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	filtered := sorted[:1]
	for _, s := range sorted[1:] {
		if s.Timestamp.After(filtered[len(filtered)-1].Timestamp) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
