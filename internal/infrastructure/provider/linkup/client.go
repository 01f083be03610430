// Package linkup adapts the Linkup sourced-answer search API: a prose
// answer synthesized by the backend plus its cited sources.
package linkup

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

const providerName = "linkup"

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
		baseURL = "https://api.linkup.so"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
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
		Kind:         domain.KindAnswerSynthesis,
		LatencyClass: domain.LatencyStandard,
		Intents: []domain.Intent{
			domain.IntentGeneral,
			domain.IntentCompany,
			domain.IntentPerson,
			domain.IntentNews,
		},
	}
}

func (c *Client) Search(ctx context.Context, query domain.SearchQuery) (*domain.ProviderResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, httpapi.Translate("linkup search", err)
		}
	}

	request := searchRequest{
		Query:      query.Text,
		Depth:      "standard",
		OutputType: "sourcedAnswer",
	}

	var raw sourcedAnswerResponse
	call := func(callCtx context.Context) error {
		return httpapi.PostJSON(callCtx, c.httpClient, c.baseURL+"/v1/search", map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		}, request, &raw, "linkup search")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "linkup.search", call, httpapi.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, httpapi.Translate("linkup search", err)
	}
	return raw.normalize(query.MaxResults), nil
}
