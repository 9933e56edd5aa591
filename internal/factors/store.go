package factors

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/factortrace/factortrace/internal/emissions"
)

// Query filters stored factors. A nil Region matches any region; a pointer
// to "" matches only global factors. Year matches exactly; MaxYear is an
// inclusive upper bound. Year and MaxYear are mutually exclusive.
type Query struct {
	Category emissions.Scope3Category
	Region   *string
	Year     *int
	MaxYear  *int
}

// Store is the persistence contract for emission factors. QueryFactors
// returns matches ordered by (region-specificity desc, year desc,
// updated_at desc); the resolver's fallback assumes this ordering.
// Factors are never physically deleted, only superseded.
type Store interface {
	SaveFactor(ctx context.Context, factor *emissions.EmissionFactor) (*emissions.EmissionFactor, error)
	QueryFactors(ctx context.Context, q Query) ([]*emissions.EmissionFactor, error)
}

// MemoryStore is an in-memory Store used for tests and small deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	factors []*emissions.EmissionFactor
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveFactor assigns an id and timestamps, then appends the factor.
// Existing rows for the same lookup key stay; recency ordering supersedes.
func (s *MemoryStore) SaveFactor(ctx context.Context, factor *emissions.EmissionFactor) (*emissions.EmissionFactor, error) {
	if violations := factor.Validate(); len(violations) > 0 {
		return nil, &emissions.ValidationError{Violations: violations}
	}

	stored := *factor
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.mu.Lock()
	s.factors = append(s.factors, &stored)
	s.mu.Unlock()

	return &stored, nil
}

// QueryFactors returns matching factors in the Store ordering contract.
func (s *MemoryStore) QueryFactors(ctx context.Context, q Query) ([]*emissions.EmissionFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*emissions.EmissionFactor
	for _, f := range s.factors {
		if !matchesQuery(f, q) {
			continue
		}
		matches = append(matches, f)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return lessByContract(matches[i], matches[j])
	})
	return matches, nil
}

func matchesQuery(f *emissions.EmissionFactor, q Query) bool {
	if f.Category != q.Category {
		return false
	}
	if q.Region != nil && f.Region != *q.Region {
		return false
	}
	if q.Year != nil && f.Year != *q.Year {
		return false
	}
	if q.MaxYear != nil && f.Year > *q.MaxYear {
		return false
	}
	return true
}

// lessByContract orders region-specific before global, then newer vintage,
// then most recently updated.
func lessByContract(a, b *emissions.EmissionFactor) bool {
	if a.Global() != b.Global() {
		return !a.Global()
	}
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}
