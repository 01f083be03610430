package ports

import (
	"context"

	"github.com/questera/webintel/internal/core/domain"
)

// SearchProvider wraps one external search backend. Implementations own
// that backend's request shape, auth, and error translation: every
// failure surfaces as one of the domain provider error kinds, never a
// raw transport error. Providers are stateless across calls and do not
// retry internally; the aggregation engine owns the budget and applies
// it through the context deadline.
type SearchProvider interface {
	Capability() domain.ProviderCapability
	Search(ctx context.Context, query domain.SearchQuery) (*domain.ProviderResult, error)
}

// FragmentPublisher mirrors stream fragments to an out-of-process
// transport for consumers that do not hold the HTTP connection.
type FragmentPublisher interface {
	PublishFragment(ctx context.Context, streamID string, fragment domain.StreamFragment) error
}
