package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/registry"
)

// ExecutionObserver receives per-provider call outcomes. The metrics
// layer implements it; a nil observer disables recording.
type ExecutionObserver interface {
	ProviderCall(provider, status string, elapsed time.Duration)
}

// AggregationEngine executes a plan under bulkhead isolation: every
// provider call owns its budget and its failure, and no failure aborts
// a sibling call. There are zero automatic retries inside one request.
type AggregationEngine struct {
	registry    *registry.Registry
	selector    *StrategySelector
	observer    ExecutionObserver
	graphWeight float64
}

func NewAggregationEngine(reg *registry.Registry, selector *StrategySelector, observer ExecutionObserver, graphWeight float64) *AggregationEngine {
	if graphWeight <= 0 || graphWeight >= 1 {
		graphWeight = 0.5
	}
	return &AggregationEngine{
		registry:    reg,
		selector:    selector,
		observer:    observer,
		graphWeight: graphWeight,
	}
}

// Search runs the full plan for a query without a pre-classified
// retrieval strategy.
func (e *AggregationEngine) Search(ctx context.Context, query domain.SearchQuery) (*domain.AggregatedResponse, error) {
	return e.SearchWithStrategy(ctx, query, "")
}

// SearchWithStrategy runs the plan the selector builds for the given
// retrieval strategy. InvalidQuery is rejected before any concurrency
// is started.
func (e *AggregationEngine) SearchWithStrategy(ctx context.Context, query domain.SearchQuery, retrieval domain.Strategy) (*domain.AggregatedResponse, error) {
	if query.MaxResults <= 0 {
		query.MaxResults = domain.DefaultMaxResults
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	plan, err := e.selector.Plan(query, retrieval)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, query, plan, retrieval)
}

// SearchProvider executes exactly one named provider, used by the
// per-provider debug endpoint. Budget follows the query urgency.
func (e *AggregationEngine) SearchProvider(ctx context.Context, providerName string, query domain.SearchQuery) (*domain.AggregatedResponse, error) {
	if query.MaxResults <= 0 {
		query.MaxResults = domain.DefaultMaxResults
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	provider, err := e.registry.ByName(providerName)
	if err != nil {
		return nil, err
	}
	capability := provider.Capability()
	plan := domain.ExecutionPlan{
		Calls: []domain.PlannedCall{{
			Provider: capability.Name,
			Kind:     capability.Kind,
			Budget:   e.selector.budgets.normalize().budgetFor(query.Urgency),
		}},
	}
	return e.execute(ctx, query, plan, "")
}

func (b Budgets) budgetFor(urgency domain.Urgency) time.Duration {
	switch urgency {
	case domain.UrgencyFast:
		return b.Fast
	case domain.UrgencyComprehensive:
		return b.Comprehensive
	default:
		return b.Balanced
	}
}

type callOutcome struct {
	planIndex int
	provider  string
	result    *domain.ProviderResult
	err       error
}

func (e *AggregationEngine) execute(ctx context.Context, query domain.SearchQuery, plan domain.ExecutionPlan, retrieval domain.Strategy) (*domain.AggregatedResponse, error) {
	start := time.Now()

	outcomes := make(chan callOutcome, len(plan.Calls))
	if plan.Parallel {
		for i, call := range plan.Calls {
			go e.runCall(ctx, i, call, query, outcomes)
		}
	} else {
		go func() {
			for i, call := range plan.Calls {
				e.runCall(ctx, i, call, query, outcomes)
			}
		}()
	}

	collected := make([]callOutcome, 0, len(plan.Calls))
	for range plan.Calls {
		select {
		case outcome := <-outcomes:
			collected = append(collected, outcome)
		case <-ctx.Done():
			// Late completions are discarded, never merged.
			return nil, ctx.Err()
		}
	}

	response := e.merge(query, plan, retrieval, collected)
	response.TimingMs = time.Since(start).Milliseconds()
	return response, nil
}

// runCall executes one provider under its own budget and reports the
// outcome. The send is gated on the request context so a call that
// ignores cancellation and completes late has its result dropped.
func (e *AggregationEngine) runCall(ctx context.Context, planIndex int, call domain.PlannedCall, query domain.SearchQuery, outcomes chan<- callOutcome) {
	provider, err := e.registry.ByName(call.Provider)
	if err != nil {
		deliver(ctx, outcomes, callOutcome{planIndex: planIndex, provider: call.Provider, err: err})
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, call.Budget)
	defer cancel()

	callStart := time.Now()
	result, err := provider.Search(callCtx, query)
	elapsed := time.Since(callStart)

	if err != nil {
		err = translateCallError(call.Provider, err)
		e.observe(call.Provider, providerErrorStatus(err), elapsed)
		slog.Warn("provider_call_failed",
			"provider", call.Provider,
			"budget_ms", call.Budget.Milliseconds(),
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		deliver(ctx, outcomes, callOutcome{planIndex: planIndex, provider: call.Provider, err: err})
		return
	}

	e.observe(call.Provider, "ok", elapsed)
	deliver(ctx, outcomes, callOutcome{planIndex: planIndex, provider: call.Provider, result: result})
}

func deliver(ctx context.Context, outcomes chan<- callOutcome, outcome callOutcome) {
	select {
	case outcomes <- outcome:
	case <-ctx.Done():
	}
}

func (e *AggregationEngine) observe(provider, status string, elapsed time.Duration) {
	if e.observer != nil {
		e.observer.ProviderCall(provider, status, elapsed)
	}
}

// translateCallError maps budget expiry onto the timeout kind; adapters
// translate everything else before it reaches the engine.
func translateCallError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !isProviderKind(err) {
		return domain.WrapError(domain.ErrProviderTimeout, provider, err)
	}
	if !isProviderKind(err) {
		return domain.WrapError(domain.ErrProviderUnavailable, provider, err)
	}
	return err
}

func isProviderKind(err error) bool {
	for _, kind := range []error{
		domain.ErrProviderTimeout,
		domain.ErrProviderUnauthorized,
		domain.ErrProviderRateLimited,
		domain.ErrProviderUnavailable,
		domain.ErrMalformedResponse,
	} {
		if domain.IsKind(err, kind) {
			return true
		}
	}
	return false
}

func providerErrorStatus(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrProviderTimeout):
		return "timeout"
	case domain.IsKind(err, domain.ErrProviderUnauthorized):
		return "unauthorized"
	case domain.IsKind(err, domain.ErrProviderRateLimited):
		return "rate_limited"
	case domain.IsKind(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "unavailable"
	}
}

func (e *AggregationEngine) merge(query domain.SearchQuery, plan domain.ExecutionPlan, retrieval domain.Strategy, collected []callOutcome) *domain.AggregatedResponse {
	byPlanIndex := make(map[int]callOutcome, len(collected))
	for _, outcome := range collected {
		byPlanIndex[outcome.planIndex] = outcome
	}

	providerErrors := make([]domain.ProviderError, 0, len(plan.Calls))
	succeeded := make([]callOutcome, 0, len(plan.Calls))
	answer := ""

	// Plan order drives both the answer priority and the merge
	// tie-break, regardless of completion order.
	for i := range plan.Calls {
		outcome, ok := byPlanIndex[i]
		if !ok {
			continue
		}
		if outcome.err != nil {
			providerErrors = append(providerErrors, domain.ProviderError{
				Provider: outcome.provider,
				Message:  outcome.err.Error(),
			})
			continue
		}
		succeeded = append(succeeded, outcome)
		if answer == "" && outcome.result.Answer != "" {
			answer = outcome.result.Answer
		}
	}

	weights := e.kindWeights(plan, retrieval)
	merged := mergeResults(plan, succeeded, weights, query.MaxResults)

	return &domain.AggregatedResponse{
		Query:         query,
		ProvidersUsed: plan.ProviderNames(),
		Results:       merged,
		Answer:        answer,
		Errors:        providerErrors,
		Failed:        len(succeeded) == 0,
	}
}

// kindWeights resolves the hybrid merge weighting: graph results carry
// the configured weight, everything else the complement. Outside hybrid
// mode all weights are 1 so scores pass through untouched.
func (e *AggregationEngine) kindWeights(plan domain.ExecutionPlan, retrieval domain.Strategy) map[string]float64 {
	weights := make(map[string]float64, len(plan.Calls))
	for _, call := range plan.Calls {
		weight := 1.0
		if retrieval == domain.StrategyHybrid {
			if call.Kind == domain.KindGraph {
				weight = e.graphWeight
			} else {
				weight = 1 - e.graphWeight
			}
		}
		weights[call.Provider] = weight
	}
	return weights
}
