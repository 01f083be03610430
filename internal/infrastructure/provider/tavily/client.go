// Package tavily adapts the Tavily research search API: deeper, slower
// results with native relevance scores and an optional answer.
package tavily

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

const providerName = "tavily"

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
		baseURL = "https://api.tavily.com"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
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
		Kind:         domain.KindResearch,
		LatencyClass: domain.LatencySlow,
		Intents: []domain.Intent{
			domain.IntentGeneral,
			domain.IntentCompany,
			domain.IntentNews,
		},
	}
}

func (c *Client) Search(ctx context.Context, query domain.SearchQuery) (*domain.ProviderResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, httpapi.Translate("tavily search", err)
		}
	}

	request := searchRequest{
		Query:         query.Text,
		SearchDepth:   "advanced",
		IncludeAnswer: true,
		MaxResults:    query.MaxResults,
	}
	if query.Intent == domain.IntentNews {
		request.Topic = "news"
	}

	var raw searchResponse
	call := func(callCtx context.Context) error {
		return httpapi.PostJSON(callCtx, c.httpClient, c.baseURL+"/search", map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		}, request, &raw, "tavily search")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "tavily.search", call, httpapi.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, httpapi.Translate("tavily search", err)
	}
	return raw.normalize(), nil
}
