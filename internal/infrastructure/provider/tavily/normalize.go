package tavily

import (
	"strings"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/normalize"
)

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	Topic         string `json:"topic,omitempty"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results,omitempty"`
}

type searchResponse struct {
	Answer  string         `json:"answer"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Tavily already scores on a 0..1 scale, so the native score is kept
// (clamped); position decay is only the fallback for unscored entries.
func (r searchResponse) normalize() *domain.ProviderResult {
	results := make([]domain.NormalizedResult, 0, len(r.Results))
	total := len(r.Results)
	for i, entry := range r.Results {
		url := strings.TrimSpace(entry.URL)
		if url == "" {
			continue
		}
		score := normalize.ClampScore(entry.Score)
		if score == 0 {
			score = normalize.PositionScore(total, i)
		}
		results = append(results, domain.NormalizedResult{
			Title:          strings.TrimSpace(entry.Title),
			URL:            url,
			Snippet:        normalize.CleanSnippet(entry.Content),
			Domain:         normalize.DomainOf(url),
			SourceProvider: providerName,
			RelevanceScore: score,
			Position:       i,
		})
	}

	return &domain.ProviderResult{
		Results: results,
		Answer:  strings.TrimSpace(r.Answer),
	}
}
