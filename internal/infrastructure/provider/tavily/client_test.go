package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/questera/webintel/internal/core/domain"
)

func testQuery(t *testing.T, intent domain.Intent) domain.SearchQuery {
	t.Helper()
	q, err := domain.NewSearchQuery("battery storage market analysis", intent, domain.UrgencyComprehensive)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return q
}

func TestSearchKeepsNativeScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"answer": "The market is growing.",
			"results": [
				{"title": "Report", "url": "https://example.com/report", "content": "analysis", "score": 0.93},
				{"title": "Out of range", "url": "https://example.com/weird", "content": "x", "score": 1.4},
				{"title": "Unscored", "url": "https://example.com/unscored", "content": "y"}
			]
		}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	result, err := client.Search(context.Background(), testQuery(t, domain.IntentGeneral))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Answer != "The market is growing." {
		t.Fatalf("answer lost: %q", result.Answer)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}
	if result.Results[0].RelevanceScore != 0.93 {
		t.Fatalf("native score not kept: %v", result.Results[0].RelevanceScore)
	}
	if result.Results[1].RelevanceScore != 1.0 {
		t.Fatalf("out-of-range score not clamped: %v", result.Results[1].RelevanceScore)
	}
	// Third entry has no native score, falls back to position decay.
	if got := result.Results[2].RelevanceScore; got != 1.0/3.0 {
		t.Fatalf("expected position fallback 1/3, got %v", got)
	}
}

func TestSearchNewsIntentSetsTopic(t *testing.T) {
	var captured searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	if _, err := client.Search(context.Background(), testQuery(t, domain.IntentNews)); err != nil {
		t.Fatalf("search: %v", err)
	}
	if captured.Topic != "news" {
		t.Fatalf("expected news topic, got %q", captured.Topic)
	}
	if captured.SearchDepth != "advanced" || !captured.IncludeAnswer {
		t.Fatalf("unexpected request shape: %+v", captured)
	}
}

func TestSearchRateLimitedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.Search(context.Background(), testQuery(t, domain.IntentGeneral))
	if !domain.IsKind(err, domain.ErrProviderRateLimited) {
		t.Fatalf("expected rate limited kind, got %v", err)
	}
}
