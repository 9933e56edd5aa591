package factors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
)

// DefaultCacheTTL bounds how long a resolved factor may be served from
// cache before re-reading the store.
const DefaultCacheTTL = 15 * time.Minute

// Resolver maps a lookup key (category, optional region, optional year) to
// the single best-matching stored factor using the specificity-then-recency
// fallback. It owns its read-through cache and its store handle; construct
// one per component instead of sharing process-wide state.
type Resolver struct {
	store  Store
	cache  *factorCache
	logger *zap.Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithCacheTTL overrides the cache TTL.
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache.stop()
		r.cache = newFactorCache(ttl)
	}
}

// WithLogger attaches a logger for resolution diagnostics.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		cache:  newFactorCache(DefaultCacheTTL),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetFactor resolves the best factor for (category, region, year). Region
// "" requests a global factor; year 0 requests the most recent vintage.
// Returns FactorNotFoundError when no factor exists for the category at
// all.
func (r *Resolver) GetFactor(ctx context.Context, category emissions.Scope3Category, region string, year int) (*emissions.EmissionFactor, error) {
	key := cacheKey(category, region, year)
	if factor := r.cache.get(key); factor != nil {
		return factor, nil
	}

	candidates, err := r.FactorsForCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("querying factors for %s: %w", category, err)
	}

	factor := SelectBest(candidates, region, year)
	if factor == nil {
		return nil, &emissions.FactorNotFoundError{Category: category, Region: region, Year: year}
	}

	r.cache.set(key, factor)
	r.logger.Debug("resolved emission factor",
		zap.String("category", string(category)),
		zap.String("requested_region", region),
		zap.Int("requested_year", year),
		zap.String("factor_region", factor.Region),
		zap.Int("factor_year", factor.Year),
		zap.String("factor_id", factor.ID.String()))
	return factor, nil
}

// FactorsForCategory returns every stored factor for the category in the
// store's ordering contract.
func (r *Resolver) FactorsForCategory(ctx context.Context, category emissions.Scope3Category) ([]*emissions.EmissionFactor, error) {
	return r.store.QueryFactors(ctx, Query{Category: category})
}

// SaveFactor persists a factor through the store and invalidates the
// cache so concurrent resolutions never observe the superseded factor
// after the save commits.
func (r *Resolver) SaveFactor(ctx context.Context, factor *emissions.EmissionFactor) (*emissions.EmissionFactor, error) {
	saved, err := r.store.SaveFactor(ctx, factor)
	if err != nil {
		return nil, err
	}
	r.cache.invalidateAll()
	r.logger.Info("emission factor saved",
		zap.String("category", string(saved.Category)),
		zap.String("region", saved.Region),
		zap.Int("year", saved.Year),
		zap.String("factor_id", saved.ID.String()))
	return saved, nil
}

// Close releases the cache's cleanup goroutine.
func (r *Resolver) Close() {
	r.cache.stop()
}
