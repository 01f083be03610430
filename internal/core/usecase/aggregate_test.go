package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/questera/webintel/internal/core/domain"
)

func resultList(provider string, scores ...float64) *domain.ProviderResult {
	results := make([]domain.NormalizedResult, 0, len(scores))
	for i, score := range scores {
		results = append(results, domain.NormalizedResult{
			Title:          provider,
			URL:            "https://" + provider + ".example.com/" + string(rune('a'+i)),
			SourceProvider: provider,
			RelevanceScore: score,
			Position:       i,
		})
	}
	return &domain.ProviderResult{Results: results}
}

func TestSearchRejectsInvalidQueryBeforeExecution(t *testing.T) {
	provider := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	reg := buildRegistry(t, provider)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	_, err := engine.Search(context.Background(), domain.SearchQuery{Text: "", MaxResults: 10})
	if !domain.IsKind(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected invalid query, got %v", err)
	}
	if provider.calls.Load() != 0 {
		t.Fatalf("provider was called despite invalid query")
	}
}

func TestSearchPartialFailureReturnsSurvivingResults(t *testing.T) {
	healthy := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	healthy.result = resultList("serper", 1.0, 0.8)
	broken := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	broken.err = domain.WrapError(domain.ErrProviderRateLimited, "linkup call", errors.New("429"))

	reg := buildRegistry(t, healthy, broken)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	response, err := engine.Search(context.Background(), mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("partial failure must not fail the request: %v", err)
	}
	if response.Failed {
		t.Fatalf("response marked failed with one healthy provider")
	}
	if len(response.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(response.Results))
	}
	if len(response.Errors) != 1 || response.Errors[0].Provider != "linkup" {
		t.Fatalf("expected one linkup error, got %+v", response.Errors)
	}
}

func TestSearchTotalFailureSetsFailed(t *testing.T) {
	first := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	first.err = domain.WrapError(domain.ErrProviderUnavailable, "serper call", errors.New("503"))
	second := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	second.err = domain.WrapError(domain.ErrProviderTimeout, "linkup call", context.DeadlineExceeded)

	reg := buildRegistry(t, first, second)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	response, err := engine.Search(context.Background(), mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("total failure is reported in the response, not as an error: %v", err)
	}
	if !response.Failed {
		t.Fatalf("expected failed response")
	}
	if len(response.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(response.Results))
	}
	if len(response.Errors) != 2 {
		t.Fatalf("expected 2 provider errors, got %d", len(response.Errors))
	}
}

func TestSearchMergesAndDeduplicatesAcrossProviders(t *testing.T) {
	shared := "https://shared.example.com/page"
	first := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	first.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "A", URL: "https://a.example.com", SourceProvider: "serper", RelevanceScore: 1.0, Position: 0},
		{Title: "Shared", URL: shared, SourceProvider: "serper", RelevanceScore: 0.66, Position: 1},
		{Title: "B", URL: "https://b.example.com", SourceProvider: "serper", RelevanceScore: 0.33, Position: 2},
	}}
	second := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	second.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "C", URL: "https://c.example.com", SourceProvider: "linkup", RelevanceScore: 1.0, Position: 0},
		{Title: "Shared", URL: shared + "/", SourceProvider: "linkup", RelevanceScore: 0.9, Position: 1},
		{Title: "D", URL: "https://d.example.com", SourceProvider: "linkup", RelevanceScore: 0.5, Position: 2},
	}}

	reg := buildRegistry(t, first, second)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	response, err := engine.Search(context.Background(), mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(response.Results) != 5 {
		t.Fatalf("expected 5 merged results after dedup, got %d", len(response.Results))
	}

	var sharedCopies int
	for _, result := range response.Results {
		if result.Title == "Shared" {
			sharedCopies++
			if result.SourceProvider != "linkup" {
				t.Fatalf("dedup kept the lower-scoring copy from %s", result.SourceProvider)
			}
			if result.RelevanceScore != 0.9 {
				t.Fatalf("expected winning score 0.9, got %v", result.RelevanceScore)
			}
		}
	}
	if sharedCopies != 1 {
		t.Fatalf("expected the shared URL exactly once, got %d copies", sharedCopies)
	}

	for i := 1; i < len(response.Results); i++ {
		if response.Results[i].RelevanceScore > response.Results[i-1].RelevanceScore {
			t.Fatalf("results not sorted by score descending at index %d", i)
		}
	}
}

func TestSearchScoreTieBreaksByPlanOrder(t *testing.T) {
	first := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	first.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "first", URL: "https://a.example.com", SourceProvider: "serper", RelevanceScore: 0.5},
	}}
	second := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	second.delay = 5 * time.Millisecond
	second.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "second", URL: "https://b.example.com", SourceProvider: "linkup", RelevanceScore: 0.5},
	}}

	reg := buildRegistry(t, first, second)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	for i := 0; i < 5; i++ {
		response, err := engine.Search(context.Background(), mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if response.Results[0].Title != "first" || response.Results[1].Title != "second" {
			t.Fatalf("run %d: tie-break did not follow plan order: %s, %s",
				i, response.Results[0].Title, response.Results[1].Title)
		}
	}
}

func TestSearchAnswerFollowsPlanOrder(t *testing.T) {
	first := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	first.delay = 10 * time.Millisecond
	first.result = &domain.ProviderResult{Answer: "from serper"}
	second := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	second.result = &domain.ProviderResult{Answer: "from linkup"}

	reg := buildRegistry(t, first, second)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	response, err := engine.Search(context.Background(), mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// linkup answers first on the wire but serper is earlier in the plan.
	if response.Answer != "from serper" {
		t.Fatalf("expected plan-order answer, got %q", response.Answer)
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	provider := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	provider.result = resultList("serper", 1.0, 0.9, 0.8, 0.7, 0.6)

	reg := buildRegistry(t, provider)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	query := mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyFast)
	query.MaxResults = 3
	response, err := engine.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(response.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(response.Results))
	}
}

func TestSearchBudgetExpiryBecomesTimeoutKind(t *testing.T) {
	slow := fakeWith("tavily", domain.KindResearch, domain.LatencySlow)
	slow.delay = 200 * time.Millisecond

	reg := buildRegistry(t, slow)
	selector := NewStrategySelector(reg, Budgets{Fast: 20 * time.Millisecond, Balanced: 20 * time.Millisecond, Comprehensive: 20 * time.Millisecond})
	engine := NewAggregationEngine(reg, selector, nil, 0.5)

	response, err := engine.Search(context.Background(), mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyFast))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !response.Failed || len(response.Errors) != 1 {
		t.Fatalf("expected a single failed call, got %+v", response)
	}
	if response.Errors[0].Provider != "tavily" {
		t.Fatalf("unexpected provider in error: %s", response.Errors[0].Provider)
	}
}

func TestSearchCancellationStopsCollection(t *testing.T) {
	slow := fakeWith("tavily", domain.KindResearch, domain.LatencySlow)
	slow.delay = time.Second

	reg := buildRegistry(t, slow)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := engine.Search(ctx, mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyComprehensive))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("search did not return promptly after cancellation")
	}
}

func TestSearchProviderRunsExactlyOneAdapter(t *testing.T) {
	first := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	first.result = resultList("serper", 1.0)
	second := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)

	reg := buildRegistry(t, first, second)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	response, err := engine.SearchProvider(context.Background(), "serper", mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("search provider: %v", err)
	}
	if len(response.ProvidersUsed) != 1 || response.ProvidersUsed[0] != "serper" {
		t.Fatalf("expected serper only, got %v", response.ProvidersUsed)
	}
	if second.calls.Load() != 0 {
		t.Fatalf("sibling provider was called")
	}
}

func TestSearchProviderUnknownName(t *testing.T) {
	reg := buildRegistry(t, fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast))
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)

	_, err := engine.SearchProvider(context.Background(), "ghost", mustQuery(t, "golang generics", domain.IntentGeneral, domain.UrgencyBalanced))
	if !domain.IsKind(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected provider not found, got %v", err)
	}
}

func TestHybridWeightingFavorsConfiguredSplit(t *testing.T) {
	vector := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast, domain.IntentPerson)
	vector.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "web", URL: "https://web.example.com", SourceProvider: "serper", RelevanceScore: 1.0},
	}}
	graph := fakeWith("graphdb", domain.KindGraph, domain.LatencyStandard, domain.IntentPerson)
	graph.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "graph", URL: "https://graph.example.com", SourceProvider: "graphdb", RelevanceScore: 1.0},
	}}

	reg := buildRegistry(t, vector, graph)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.7)

	response, err := engine.SearchWithStrategy(context.Background(),
		mustQuery(t, "who knows Jane Doe", domain.IntentPerson, domain.UrgencyComprehensive),
		domain.StrategyHybrid)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(response.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(response.Results))
	}
	if response.Results[0].SourceProvider != "graphdb" {
		t.Fatalf("expected graph result first with weight 0.7, got %s", response.Results[0].SourceProvider)
	}
	if got := response.Results[0].RelevanceScore; got != 0.7 {
		t.Fatalf("expected weighted graph score 0.7, got %v", got)
	}
}
