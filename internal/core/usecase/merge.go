package usecase

import (
	"sort"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/normalize"
)

type mergeCandidate struct {
	result    domain.NormalizedResult
	planIndex int
	position  int
}

// mergeResults flattens successful provider lists into one ranked list.
// Deduplication key is the canonical URL; when two providers return the
// same URL the higher-scoring copy wins. The final order is score
// descending with plan order then in-provider position as tie-breaks.
func mergeResults(plan domain.ExecutionPlan, succeeded []callOutcome, weights map[string]float64, limit int) []domain.NormalizedResult {
	acc := make(map[string]mergeCandidate)
	order := make([]string, 0)

	for _, outcome := range succeeded {
		weight, ok := weights[outcome.provider]
		if !ok {
			weight = 1
		}
		for position, result := range outcome.result.Results {
			key := normalize.CanonicalURL(result.URL)
			if key == "" {
				continue
			}
			candidate := mergeCandidate{
				result:    result,
				planIndex: outcome.planIndex,
				position:  position,
			}
			candidate.result.RelevanceScore = normalize.ClampScore(result.RelevanceScore * weight)

			existing, seen := acc[key]
			if !seen {
				acc[key] = candidate
				order = append(order, key)
				continue
			}
			if candidate.result.RelevanceScore > existing.result.RelevanceScore {
				acc[key] = candidate
			}
		}
	}

	out := make([]mergeCandidate, 0, len(acc))
	for _, key := range order {
		out = append(out, acc[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].result.RelevanceScore != out[j].result.RelevanceScore {
			return out[i].result.RelevanceScore > out[j].result.RelevanceScore
		}
		if out[i].planIndex != out[j].planIndex {
			return out[i].planIndex < out[j].planIndex
		}
		return out[i].position < out[j].position
	})

	results := make([]domain.NormalizedResult, 0, len(out))
	for _, candidate := range out {
		results = append(results, candidate.result)
	}
	return trimResults(results, limit)
}

func trimResults(results []domain.NormalizedResult, limit int) []domain.NormalizedResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
