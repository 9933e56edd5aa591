package factors

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factortrace/factortrace/internal/emissions"
)

func saveTestFactor(t *testing.T, r *Resolver, region string, year int, value float64) *emissions.EmissionFactor {
	t.Helper()
	saved, err := r.SaveFactor(context.Background(), &emissions.EmissionFactor{
		Category:  emissions.CategoryWaste,
		Value:     decimal.NewFromFloat(value),
		Unit:      "kgCO2e/kg",
		Source:    emissions.SourceDEFRA,
		SourceRef: "DEFRA waste factors",
		Region:    region,
		Year:      year,
	})
	require.NoError(t, err)
	return saved
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver(NewMemoryStore())
	t.Cleanup(r.Close)
	return r
}

func TestResolverFallbackHierarchy(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	global2020 := saveTestFactor(t, r, "", 2020, 1.0)
	saveTestFactor(t, r, "US", 2022, 2.0)
	us2024 := saveTestFactor(t, r, "US", 2024, 3.0)

	// Exact match on category + region + year.
	got, err := r.GetFactor(ctx, emissions.CategoryWaste, "US", 2024)
	require.NoError(t, err)
	assert.Equal(t, us2024.ID, got.ID)

	// No EU factor at any year: global fallback.
	got, err = r.GetFactor(ctx, emissions.CategoryWaste, "EU", 2024)
	require.NoError(t, err)
	assert.Equal(t, global2020.ID, got.ID)

	// No US factor at or before 2021: global fallback, not the 2022 US one.
	got, err = r.GetFactor(ctx, emissions.CategoryWaste, "US", 2021)
	require.NoError(t, err)
	assert.Equal(t, global2020.ID, got.ID)
}

func TestResolverRegionRecencyLevel(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	saveTestFactor(t, r, "US", 2020, 1.0)
	us2022 := saveTestFactor(t, r, "US", 2022, 2.0)

	// No exact 2023 match: the most recent US factor at or before 2023.
	got, err := r.GetFactor(ctx, emissions.CategoryWaste, "US", 2023)
	require.NoError(t, err)
	assert.Equal(t, us2022.ID, got.ID)
}

func TestResolverLastResortIgnoresRegion(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	us2022 := saveTestFactor(t, r, "US", 2022, 2.0)

	// Requested region and year match nothing at levels 1-3; the only
	// factor for the category wins.
	got, err := r.GetFactor(ctx, emissions.CategoryWaste, "EU", 2020)
	require.NoError(t, err)
	assert.Equal(t, us2022.ID, got.ID)
}

func TestResolverNotFound(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.GetFactor(context.Background(), emissions.CategoryWaste, "US", 2024)
	var notFound *emissions.FactorNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, emissions.CategoryWaste, notFound.Category)
}

func TestResolverDeterminism(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	saveTestFactor(t, r, "", 2020, 1.0)
	saveTestFactor(t, r, "US", 2022, 2.0)

	first, err := r.GetFactor(ctx, emissions.CategoryWaste, "US", 2023)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.GetFactor(ctx, emissions.CategoryWaste, "US", 2023)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestResolverCacheInvalidatedOnSave(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	saveTestFactor(t, r, "US", 2024, 3.0)
	got, err := r.GetFactor(ctx, emissions.CategoryWaste, "US", 2024)
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(decimal.NewFromFloat(3.0)))

	// A superseding save for the same lookup key must be observed
	// immediately, not after the TTL.
	superseding := saveTestFactor(t, r, "US", 2024, 4.0)
	got, err = r.GetFactor(ctx, emissions.CategoryWaste, "US", 2024)
	require.NoError(t, err)
	assert.Equal(t, superseding.ID, got.ID)
	assert.True(t, got.Value.Equal(decimal.NewFromFloat(4.0)))
}

func TestResolverYearZeroMeansMostRecent(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	saveTestFactor(t, r, "US", 2020, 1.0)
	us2024 := saveTestFactor(t, r, "US", 2024, 3.0)

	got, err := r.GetFactor(ctx, emissions.CategoryWaste, "US", 0)
	require.NoError(t, err)
	assert.Equal(t, us2024.ID, got.ID)
}

func TestSaveFactorRejectsInvalid(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.SaveFactor(context.Background(), &emissions.EmissionFactor{
		Category: emissions.CategoryWaste,
		Value:    decimal.Zero,
		Year:     2024,
	})
	var validation *emissions.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.NotEmpty(t, validation.Violations)
}

func TestSelectBestEmpty(t *testing.T) {
	assert.Nil(t, SelectBest(nil, "US", 2024))
}
