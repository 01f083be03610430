package linkup

import (
	"strings"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/normalize"
)

type searchRequest struct {
	Query      string `json:"q"`
	Depth      string `json:"depth"`
	OutputType string `json:"outputType"`
}

type sourcedAnswerResponse struct {
	Answer  string         `json:"answer"`
	Sources []answerSource `json:"sources"`
}

type answerSource struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

func (r sourcedAnswerResponse) normalize(limit int) *domain.ProviderResult {
	sources := r.Sources
	if limit > 0 && len(sources) > limit {
		sources = sources[:limit]
	}

	results := make([]domain.NormalizedResult, 0, len(sources))
	total := len(sources)
	for i, source := range sources {
		url := strings.TrimSpace(source.URL)
		if url == "" {
			continue
		}
		results = append(results, domain.NormalizedResult{
			Title:          strings.TrimSpace(source.Name),
			URL:            url,
			Snippet:        normalize.CleanSnippet(source.Snippet),
			Domain:         normalize.DomainOf(url),
			SourceProvider: providerName,
			RelevanceScore: normalize.PositionScore(total, i),
			Position:       i,
		})
	}

	return &domain.ProviderResult{
		Results: results,
		Answer:  strings.TrimSpace(r.Answer),
	}
}
