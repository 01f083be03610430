package domain

// NormalizedResult is the common record every adapter maps its raw
// payload into. RelevanceScore is comparable across providers only
// because each adapter produces it on the same 0..1 scale.
type NormalizedResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	Domain         string  `json:"domain"`
	SourceProvider string  `json:"source_provider"`
	RelevanceScore float64 `json:"relevance_score"`
	Position       int     `json:"position"`
}

// ProviderResult is what an adapter hands back after normalization.
// Raw wire shapes never cross the adapter boundary.
type ProviderResult struct {
	Results []NormalizedResult
	Answer  string
}

type ProviderError struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// AggregatedResponse is built once per request and immutable afterwards.
// It is never persisted by this service.
type AggregatedResponse struct {
	Query         SearchQuery        `json:"query"`
	ProvidersUsed []string           `json:"providers_used"`
	Results       []NormalizedResult `json:"results"`
	Answer        string             `json:"answer,omitempty"`
	TimingMs      int64              `json:"timing_ms"`
	Errors        []ProviderError    `json:"errors"`
	Failed        bool               `json:"failed"`
}
