package ports

import (
	"context"

	"github.com/questera/webintel/internal/core/domain"
)

// SearchService is the inbound contract for unified search and the
// per-provider debug execution.
type SearchService interface {
	Search(ctx context.Context, query domain.SearchQuery) (*domain.AggregatedResponse, error)
	SearchProvider(ctx context.Context, providerName string, query domain.SearchQuery) (*domain.AggregatedResponse, error)
}

// ConversationalSearch is the inbound contract for chat-style callers.
// The returned channel is closed after the terminal fragment; cancelling
// the context stops fragment production.
type ConversationalSearch interface {
	StreamSearch(ctx context.Context, query domain.SearchQuery) (<-chan domain.StreamFragment, error)
	ClassifyStrategy(queryText string) domain.Strategy
}
