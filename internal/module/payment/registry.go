package payment

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/ceylonmart/server/internal/module/payment/provider"
)

// ProviderRegistry manages the registered payment providers. Names are
// case-insensitive: "Stripe" and "stripe" resolve to the same instance.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]provider.Strategy
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]provider.Strategy),
	}
}

// DefaultRegistry builds a registry with all supported gateways
// constructed eagerly from their configs. Providers with incomplete
// configuration still register; their operations degrade at call time.
func DefaultRegistry(bank *provider.BankConfig, paypal *provider.PaypalConfig, stripe *provider.StripeConfig, client *http.Client) *ProviderRegistry {
	r := NewProviderRegistry()
	r.Register(provider.NewBankProvider(bank, client))
	r.Register(provider.NewPaypalProvider(paypal, client))
	r.Register(provider.NewStripeProvider(stripe))
	return r
}

// Register registers a provider under its lowercased name.
func (r *ProviderRegistry) Register(p provider.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(p.Name())] = p
}

// Resolve returns the provider registered under name, ignoring case.
func (r *ProviderRegistry) Resolve(name string) (provider.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Has reports whether a provider is registered under name.
func (r *ProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[strings.ToLower(name)]
	return ok
}

// Names returns all registered provider names, sorted.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
