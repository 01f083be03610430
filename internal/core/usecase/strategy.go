package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/ports"
	"github.com/questera/webintel/internal/core/registry"
)

// Budgets are the per-call time limits by urgency class.
type Budgets struct {
	Fast          time.Duration
	Balanced      time.Duration
	Comprehensive time.Duration
}

func DefaultBudgets() Budgets {
	return Budgets{
		Fast:          3 * time.Second,
		Balanced:      6 * time.Second,
		Comprehensive: 12 * time.Second,
	}
}

func (b Budgets) normalize() Budgets {
	def := DefaultBudgets()
	if b.Fast <= 0 {
		b.Fast = def.Fast
	}
	if b.Balanced <= 0 {
		b.Balanced = def.Balanced
	}
	if b.Comprehensive <= 0 {
		b.Comprehensive = def.Comprehensive
	}
	return b
}

// StrategySelector maps (intent, urgency) onto an execution plan. The
// selection is pure: identical query and registry state always produce
// the same plan, so it is testable without touching any provider.
type StrategySelector struct {
	registry *registry.Registry
	budgets  Budgets
}

func NewStrategySelector(reg *registry.Registry, budgets Budgets) *StrategySelector {
	return &StrategySelector{
		registry: reg,
		budgets:  budgets.normalize(),
	}
}

// Plan builds the provider plan for a validated query. retrieval narrows
// the candidate set when the conversational dispatcher has already
// classified the query; an empty retrieval strategy considers every
// intent-compatible provider.
func (s *StrategySelector) Plan(query domain.SearchQuery, retrieval domain.Strategy) (domain.ExecutionPlan, error) {
	candidates := s.candidates(query.Intent, retrieval)
	if len(candidates) == 0 {
		return domain.ExecutionPlan{}, domain.WrapError(
			domain.ErrProviderNotFound,
			"plan search",
			fmt.Errorf("no registered provider supports intent %q", query.Intent),
		)
	}

	switch query.Urgency {
	case domain.UrgencyFast:
		// Single fastest-class provider, sequential, no fallback.
		best := rankByLatency(candidates)[0]
		return domain.ExecutionPlan{
			Calls:    []domain.PlannedCall{plannedCall(best, s.budgets.Fast)},
			Parallel: false,
		}, nil

	case domain.UrgencyComprehensive:
		calls := make([]domain.PlannedCall, 0, len(candidates))
		for _, provider := range candidates {
			calls = append(calls, plannedCall(provider, s.budgets.Comprehensive))
		}
		return domain.ExecutionPlan{Calls: calls, Parallel: true}, nil

	default: // balanced
		pair := complementaryPair(candidates)
		calls := make([]domain.PlannedCall, 0, len(pair))
		for _, provider := range pair {
			calls = append(calls, plannedCall(provider, s.budgets.Balanced))
		}
		return domain.ExecutionPlan{Calls: calls, Parallel: true}, nil
	}
}

func (s *StrategySelector) candidates(intent domain.Intent, retrieval domain.Strategy) []ports.SearchProvider {
	compatible := s.registry.ByIntent(intent)

	switch retrieval {
	case domain.StrategyVector:
		filtered := filterProviders(compatible, func(kind domain.ProviderKind) bool {
			return kind != domain.KindGraph
		})
		if len(filtered) > 0 {
			return filtered
		}
	case domain.StrategyGraph:
		filtered := filterProviders(compatible, func(kind domain.ProviderKind) bool {
			return kind == domain.KindGraph
		})
		if len(filtered) > 0 {
			return filtered
		}
	}
	return compatible
}

func filterProviders(providers []ports.SearchProvider, keep func(domain.ProviderKind) bool) []ports.SearchProvider {
	out := make([]ports.SearchProvider, 0, len(providers))
	for _, provider := range providers {
		if keep(provider.Capability().Kind) {
			out = append(out, provider)
		}
	}
	return out
}

// rankByLatency orders by latency class ascending; the stable sort keeps
// registry declaration order as the final tie-break.
func rankByLatency(providers []ports.SearchProvider) []ports.SearchProvider {
	ranked := make([]ports.SearchProvider, len(providers))
	copy(ranked, providers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Capability().LatencyClass < ranked[j].Capability().LatencyClass
	})
	return ranked
}

// complementaryPair picks one link-ranking and one answer-synthesizing
// provider for the balanced mode. When a slot has no candidate the pair
// is filled with the next best remaining provider so balanced still runs
// two providers whenever two are registered.
func complementaryPair(candidates []ports.SearchProvider) []ports.SearchProvider {
	ranked := rankByLatency(candidates)

	pair := make([]ports.SearchProvider, 0, 2)
	chosen := make(map[string]struct{}, 2)
	pickKind := func(kind domain.ProviderKind) {
		for _, provider := range ranked {
			capability := provider.Capability()
			if capability.Kind != kind {
				continue
			}
			if _, taken := chosen[capability.Name]; taken {
				continue
			}
			pair = append(pair, provider)
			chosen[capability.Name] = struct{}{}
			return
		}
	}

	pickKind(domain.KindLinkRanking)
	pickKind(domain.KindAnswerSynthesis)

	for _, provider := range ranked {
		if len(pair) >= 2 {
			break
		}
		name := provider.Capability().Name
		if _, taken := chosen[name]; taken {
			continue
		}
		pair = append(pair, provider)
		chosen[name] = struct{}{}
	}
	return pair
}

func plannedCall(provider ports.SearchProvider, budget time.Duration) domain.PlannedCall {
	capability := provider.Capability()
	return domain.PlannedCall{
		Provider: capability.Name,
		Kind:     capability.Kind,
		Budget:   budget,
	}
}
