package serper

import (
	"strings"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/normalize"
)

type searchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

type searchResponse struct {
	Organic   []organicResult `json:"organic"`
	News      []organicResult `json:"news"`
	AnswerBox *answerBox      `json:"answerBox,omitempty"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type answerBox struct {
	Answer  string `json:"answer"`
	Snippet string `json:"snippet"`
}

func (r searchResponse) normalize() *domain.ProviderResult {
	entries := r.Organic
	if len(entries) == 0 {
		entries = r.News
	}

	results := make([]domain.NormalizedResult, 0, len(entries))
	total := len(entries)
	for i, entry := range entries {
		url := strings.TrimSpace(entry.Link)
		if url == "" {
			continue
		}
		results = append(results, domain.NormalizedResult{
			Title:          strings.TrimSpace(entry.Title),
			URL:            url,
			Snippet:        normalize.CleanSnippet(entry.Snippet),
			Domain:         normalize.DomainOf(url),
			SourceProvider: providerName,
			RelevanceScore: normalize.PositionScore(total, i),
			Position:       i,
		})
	}

	out := &domain.ProviderResult{Results: results}
	if r.AnswerBox != nil {
		if answer := strings.TrimSpace(r.AnswerBox.Answer); answer != "" {
			out.Answer = answer
		} else if snippet := strings.TrimSpace(r.AnswerBox.Snippet); snippet != "" {
			out.Answer = snippet
		}
	}
	return out
}
