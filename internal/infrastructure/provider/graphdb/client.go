// Package graphdb adapts the platform relationship graph (Neo4j) as a
// search provider: person/company entities ranked by connection degree.
package graphdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/normalize"
	"github.com/questera/webintel/internal/infrastructure/resilience"
)

const providerName = "graph"

const entitySearchCypher = `
MATCH (entity)
WHERE (entity:Person OR entity:Company)
  AND toLower(entity.name) CONTAINS toLower($term)
OPTIONAL MATCH (entity)-[rel:WORKS_AT|KNOWS|CONNECTED_TO|EMPLOYS]-(related)
WITH entity, count(rel) AS degree
ORDER BY degree DESC, entity.name ASC
LIMIT $limit
RETURN entity.name AS name,
       coalesce(entity.headline, entity.industry, '') AS headline,
       coalesce(entity.profile_url, entity.website, '') AS url,
       degree
`

type Config struct {
	URI            string
	Username       string
	Password       string
	Database       string
	ProfileBaseURL string
	QueryTimeout   time.Duration
	Executor       *resilience.Executor
}

type Client struct {
	driver         neo4j.DriverWithContext
	database       string
	profileBaseURL string
	queryTimeout   time.Duration
	executor       *resilience.Executor
}

func New(cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	profileBaseURL := strings.TrimRight(cfg.ProfileBaseURL, "/")
	if profileBaseURL == "" {
		profileBaseURL = "https://app.questera.io/profiles"
	}
	queryTimeout := cfg.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}

	return &Client{
		driver:         driver,
		database:       database,
		profileBaseURL: profileBaseURL,
		queryTimeout:   queryTimeout,
		executor:       cfg.Executor,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) Capability() domain.ProviderCapability {
	return domain.ProviderCapability{
		Name:         providerName,
		Kind:         domain.KindGraph,
		LatencyClass: domain.LatencyFast,
		Intents: []domain.Intent{
			domain.IntentPerson,
			domain.IntentCompany,
			domain.IntentJob,
			domain.IntentGeneral,
		},
	}
}

func (c *Client) Search(ctx context.Context, query domain.SearchQuery) (*domain.ProviderResult, error) {
	term := entityTerm(query)
	params := map[string]any{
		"term":  term,
		"limit": query.MaxResults,
	}

	var records []entityRecord
	call := func(callCtx context.Context) error {
		queryCtx, cancel := context.WithTimeout(callCtx, c.queryTimeout)
		defer cancel()

		result, err := neo4j.ExecuteQuery(queryCtx, c.driver, entitySearchCypher, params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.database),
			neo4j.ExecuteQueryWithReadersRouting(),
		)
		if err != nil {
			return err
		}
		records = collectRecords(result.Records)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "graph.search", call, classifyGraphError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, translateGraphError(err)
	}
	return c.normalizeRecords(records), nil
}

type entityRecord struct {
	Name     string
	Headline string
	URL      string
	Degree   int64
}

func collectRecords(records []*neo4j.Record) []entityRecord {
	out := make([]entityRecord, 0, len(records))
	for _, record := range records {
		out = append(out, entityRecord{
			Name:     stringValue(record, "name"),
			Headline: stringValue(record, "headline"),
			URL:      stringValue(record, "url"),
			Degree:   intValue(record, "degree"),
		})
	}
	return out
}

func (c *Client) normalizeRecords(records []entityRecord) *domain.ProviderResult {
	results := make([]domain.NormalizedResult, 0, len(records))
	total := len(records)
	for i, record := range records {
		if record.Name == "" {
			continue
		}
		url := record.URL
		if url == "" {
			url = c.profileBaseURL + "/" + profileSlug(record.Name)
		}
		snippet := record.Headline
		if record.Degree > 0 {
			connections := fmt.Sprintf("%d known connections", record.Degree)
			if snippet != "" {
				snippet += ". " + connections
			} else {
				snippet = connections
			}
		}
		results = append(results, domain.NormalizedResult{
			Title:          record.Name,
			URL:            url,
			Snippet:        snippet,
			Domain:         normalize.DomainOf(url),
			SourceProvider: providerName,
			RelevanceScore: normalize.PositionScore(total, i),
			Position:       i,
		})
	}
	return &domain.ProviderResult{Results: results}
}

// entityTerm narrows the graph lookup to the mentioned entity: the
// company hint when present, otherwise the first capitalized word run,
// otherwise the raw text.
func entityTerm(query domain.SearchQuery) string {
	if company := strings.TrimSpace(query.Company); company != "" {
		return company
	}
	if run := firstCapitalizedRun(query.Text); run != "" {
		return run
	}
	return strings.TrimSpace(query.Text)
}

func firstCapitalizedRun(text string) string {
	words := strings.Fields(text)
	run := make([]string, 0, 3)
	for i, word := range words {
		cleaned := strings.Trim(word, ".,!?'\"()")
		if i > 0 && cleaned != "" && cleaned[0] >= 'A' && cleaned[0] <= 'Z' {
			run = append(run, cleaned)
			continue
		}
		if len(run) > 0 {
			break
		}
	}
	return strings.Join(run, " ")
}

func profileSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}

func stringValue(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return ""
	}
	text, _ := value.(string)
	return strings.TrimSpace(text)
}

func intValue(record *neo4j.Record, key string) int64 {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return 0
	}
	number, _ := value.(int64)
	return number
}

func translateGraphError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrProviderTimeout, "graph search", err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && strings.HasPrefix(neoErr.Code, "Neo.ClientError.Security") {
		return domain.WrapError(domain.ErrProviderUnauthorized, "graph search", err)
	}
	return domain.WrapError(domain.ErrProviderUnavailable, "graph search", err)
}

func classifyGraphError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && strings.HasPrefix(neoErr.Code, "Neo.ClientError") {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
