package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/questera/webintel/internal/core/domain"
)

const sampleResponse = `{
	"organic": [
		{"title": "Go Blog", "link": "https://go.dev/blog", "snippet": "<b>Official</b> Go blog", "position": 1},
		{"title": "Go Docs", "link": "https://go.dev/doc", "snippet": "Documentation", "position": 2},
		{"title": "", "link": "", "snippet": "dropped"},
		{"title": "Go Wiki", "link": "https://go.dev/wiki", "snippet": "Wiki", "position": 3}
	],
	"answerBox": {"answer": "Go is a programming language."}
}`

func testQuery(t *testing.T, text string, intent domain.Intent) domain.SearchQuery {
	t.Helper()
	q, err := domain.NewSearchQuery(text, intent, domain.UrgencyBalanced)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return q
}

func TestSearchNormalizesResponse(t *testing.T) {
	var capturedKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		capturedKey = r.Header.Get("X-API-KEY")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Search(context.Background(), testQuery(t, "golang", domain.IntentGeneral))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if capturedKey != "test-key" {
		t.Fatalf("api key header not sent, got %q", capturedKey)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results after dropping the empty link, got %d", len(result.Results))
	}
	first := result.Results[0]
	if first.RelevanceScore != 1.0 {
		t.Fatalf("expected top score 1.0, got %v", first.RelevanceScore)
	}
	if first.Snippet != "Official Go blog" {
		t.Fatalf("markup not stripped from snippet: %q", first.Snippet)
	}
	if first.Domain != "go.dev" {
		t.Fatalf("unexpected domain %q", first.Domain)
	}
	if first.SourceProvider != "serper" {
		t.Fatalf("unexpected source provider %q", first.SourceProvider)
	}
	if result.Answer != "Go is a programming language." {
		t.Fatalf("answer box lost: %q", result.Answer)
	}
	for i := 1; i < len(result.Results); i++ {
		if result.Results[i].RelevanceScore >= result.Results[i-1].RelevanceScore {
			t.Fatalf("position decay violated at %d", i)
		}
	}
}

func TestSearchNewsIntentUsesNewsEndpoint(t *testing.T) {
	var capturedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		_, _ = w.Write([]byte(`{"news": [{"title": "Release", "link": "https://go.dev/blog/release", "snippet": "new version"}]}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	result, err := client.Search(context.Background(), testQuery(t, "golang release", domain.IntentNews))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if capturedPath != "/news" {
		t.Fatalf("expected /news path, got %s", capturedPath)
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected 1 news result, got %d", len(result.Results))
	}
}

func TestSearchQueryTextCarriesCompanyAndLocation(t *testing.T) {
	var captured searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"organic": []}`))
	}))
	defer server.Close()

	query := testQuery(t, "site reliability engineer", domain.IntentJob)
	query.Company = "Acme"
	query.Location = "Berlin"

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	if _, err := client.Search(context.Background(), query); err != nil {
		t.Fatalf("search: %v", err)
	}
	if captured.Query != "site reliability engineer Acme Berlin" {
		t.Fatalf("unexpected query text %q", captured.Query)
	}
	if captured.Num != domain.DefaultMaxResults {
		t.Fatalf("expected num %d, got %d", domain.DefaultMaxResults, captured.Num)
	}
}

func TestSearchTranslatesStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusUnauthorized, domain.ErrProviderUnauthorized},
		{http.StatusForbidden, domain.ErrProviderUnauthorized},
		{http.StatusTooManyRequests, domain.ErrProviderRateLimited},
		{http.StatusBadGateway, domain.ErrProviderUnavailable},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))

		client := New(Config{APIKey: "k", BaseURL: server.URL})
		_, err := client.Search(context.Background(), testQuery(t, "golang", domain.IntentGeneral))
		server.Close()

		if !domain.IsKind(err, tc.kind) {
			t.Fatalf("status %d: expected kind %v, got %v", tc.status, tc.kind, err)
		}
	}
}

func TestSearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic": [`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.Search(context.Background(), testQuery(t, "golang", domain.IntentGeneral))
	if !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response kind, got %v", err)
	}
}
