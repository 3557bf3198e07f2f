package aggregate

import (
	"math"
	"sort"

	"github.com/claimhands/verdict/internal/core/model"
)

// Combine reduces all organ assessments into the final disability result
// using the residual-capacity rule: percentages are applied in strictly
// descending order, each against the health capacity not yet consumed by the
// higher-ranked ones. Zero-percentage assessments never contribute to the
// total or the breakdown but stay in FullResults for audit.
//
// The function is pure: identical input always yields an identical result,
// regardless of input ordering.
func Combine(results []model.OrganAssessment) model.DisabilityResult {
	valid := make([]model.OrganAssessment, 0, len(results))
	for _, r := range results {
		if r.DisabilityPercentage > 0 {
			valid = append(valid, r)
		}
	}

	// Descending order is mandatory: the reduction is not commutative.
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].DisabilityPercentage > valid[j].DisabilityPercentage
	})

	total := 0.0
	remainingHealth := 100.0
	breakdown := make([]model.BreakdownEntry, 0, len(valid))
	for _, r := range valid {
		p := float64(r.DisabilityPercentage)
		total += p * remainingHealth / 100.0
		remainingHealth = 100.0 - total
		breakdown = append(breakdown, model.BreakdownEntry{
			Organ:   r.BodyPart,
			Percent: p,
			Section: r.SectionUsed,
		})
	}

	full := make([]model.OrganAssessment, len(results))
	copy(full, results)

	return model.DisabilityResult{
		TotalDisability: round2(total),
		Breakdown:       breakdown,
		FullResults:     full,
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
