package registry

import (
	"fmt"
	"sync"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/ports"
)

// Registry holds the process-wide provider set. Providers are registered
// during bootstrap in declaration order, the registry is frozen before
// serving, and all reads after the freeze are lock-free by contract.
type Registry struct {
	mu        sync.Mutex
	frozen    bool
	providers []ports.SearchProvider
	byName    map[string]ports.SearchProvider
}

func New() *Registry {
	return &Registry{
		byName: make(map[string]ports.SearchProvider),
	}
}

func (r *Registry) Register(provider ports.SearchProvider) error {
	if provider == nil {
		return fmt.Errorf("registry: provider is nil")
	}
	name := provider.Capability().Name
	if name == "" {
		return fmt.Errorf("registry: provider capability has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("registry: cannot register %q after freeze", name)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("registry: provider %q already registered", name)
	}
	r.providers = append(r.providers, provider)
	r.byName[name] = provider
	return nil
}

// Freeze marks the registry read-only. Further Register calls fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) ByName(name string) (ports.SearchProvider, error) {
	if provider, ok := r.byName[name]; ok {
		return provider, nil
	}
	return nil, domain.WrapError(domain.ErrProviderNotFound, "registry lookup", fmt.Errorf("no provider named %q", name))
}

// All returns providers in declaration order.
func (r *Registry) All() []ports.SearchProvider {
	out := make([]ports.SearchProvider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ByIntent returns intent-compatible providers in declaration order.
func (r *Registry) ByIntent(intent domain.Intent) []ports.SearchProvider {
	out := make([]ports.SearchProvider, 0, len(r.providers))
	for _, provider := range r.providers {
		if provider.Capability().SupportsIntent(intent) {
			out = append(out, provider)
		}
	}
	return out
}

// Capabilities lists registered capability metadata in declaration order.
func (r *Registry) Capabilities() []domain.ProviderCapability {
	out := make([]domain.ProviderCapability, 0, len(r.providers))
	for _, provider := range r.providers {
		out = append(out, provider.Capability())
	}
	return out
}
