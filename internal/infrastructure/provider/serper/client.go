// Package serper adapts the Serper.dev link-ranking search API.
package serper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/infrastructure/provider/httpapi"
	"github.com/questera/webintel/internal/infrastructure/resilience"
)

const providerName = "serper"

type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Executor       *resilience.Executor
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://google.serper.dev"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		executor:   cfg.Executor,
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return client
}

func (c *Client) Capability() domain.ProviderCapability {
	return domain.ProviderCapability{
		Name:         providerName,
		Kind:         domain.KindLinkRanking,
		LatencyClass: domain.LatencyFast,
		Intents: []domain.Intent{
			domain.IntentGeneral,
			domain.IntentJob,
			domain.IntentCompany,
			domain.IntentPerson,
			domain.IntentNews,
		},
	}
}

func (c *Client) Search(ctx context.Context, query domain.SearchQuery) (*domain.ProviderResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, httpapi.Translate("serper search", err)
		}
	}

	path := "/search"
	if query.Intent == domain.IntentNews {
		path = "/news"
	}
	request := searchRequest{
		Query: buildQueryText(query),
		Num:   query.MaxResults,
	}

	var raw searchResponse
	call := func(callCtx context.Context) error {
		return httpapi.PostJSON(callCtx, c.httpClient, c.baseURL+path, map[string]string{
			"X-API-KEY": c.apiKey,
		}, request, &raw, "serper search")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "serper.search", call, httpapi.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, httpapi.Translate("serper search", err)
	}
	return raw.normalize(), nil
}

func buildQueryText(query domain.SearchQuery) string {
	parts := []string{query.Text}
	if company := strings.TrimSpace(query.Company); company != "" && !strings.Contains(strings.ToLower(query.Text), strings.ToLower(company)) {
		parts = append(parts, company)
	}
	if location := strings.TrimSpace(query.Location); location != "" {
		parts = append(parts, location)
	}
	return strings.Join(parts, " ")
}
