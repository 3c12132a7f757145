package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrUnknownType is returned when no resolver is registered for a
// purchasable type discriminator.
var ErrUnknownType = errors.New("unknown purchasable type")

// ErrNotFound is returned by resolvers when the referenced entity no longer
// exists. Callers treat it as a dangling reference, not a failure.
var ErrNotFound = errors.New("purchasable not found")

// Purchasable is the resolved view of a polymorphic cart reference. Every
// resolvable entity supplies at least a unit price.
type Purchasable struct {
	Type  string          `json:"type"`
	Key   string          `json:"key"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// Resolver loads one purchasable entity by its key.
type Resolver func(ctx context.Context, key string) (*Purchasable, error)

// Registry maps purchasable type discriminators to resolvers. The host
// application registers its own entity types at bootstrap.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register binds a resolver to a type discriminator. Later registrations
// replace earlier ones.
func (r *Registry) Register(kind string, resolver Resolver) error {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("purchasable type is required")
	}
	if resolver == nil {
		return fmt.Errorf("resolver is required for type %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[kind] = resolver
	return nil
}

// Resolve loads the purchasable referenced by (kind, key).
func (r *Registry) Resolve(ctx context.Context, kind, key string) (*Purchasable, error) {
	r.mu.RLock()
	resolver, ok := r.resolvers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
	return resolver(ctx, key)
}
