package calculation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
)

func soldProductsActivity(ext map[string]any) emissions.ActivityData {
	extensions := map[string]any{
		extUnitsSold:         100.0,
		extProductLifetime:   2.0,
		extEnergyConsumption: 0.01,
		extGeographicDist:    map[string]float64{"US": 0.6, "FR": 0.4},
		extUsageProfile:      map[string]float64{extDailyHours: 10},
	}
	for k, v := range ext {
		extensions[k] = v
	}
	return emissions.ActivityData{
		ID:         uuid.New(),
		Category:   emissions.CategoryUseOfSoldProducts,
		Quantity:   emissions.Quantity{Value: decimal.NewFromInt(100), Unit: "unit"},
		TimePeriod: testPeriod(),
		Extensions: extensions,
	}
}

func saveGridFactor(t *testing.T, f *engineFixture, region string, value float64) {
	t.Helper()
	f.saveFactor(t, &emissions.EmissionFactor{
		Category: emissions.CategoryUseOfSoldProducts,
		Value:    decimal.NewFromFloat(value),
		Unit:     "kgCO2e/kWh",
		Source:   emissions.SourceIPCC,
		Region:   region,
		Year:     2024,
	})
}

func TestUseOfSoldProductsPerRegionGridFactors(t *testing.T) {
	f := newEngineFixture(t)
	saveGridFactor(t, f, "US", 0.4)
	saveGridFactor(t, f, "FR", 0.05)

	activity := soldProductsActivity(nil)
	result, err := f.engine.Calculate(context.Background(), emissions.CategoryUseOfSoldProducts,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	// Per-unit lifetime energy: 0.01 kWh/h x 10 h/day x 365 x 2 years = 73 kWh.
	// US: 100 x 0.6 x 73 x 0.4 = 1752, FR: 100 x 0.4 x 73 x 0.05 = 146.
	assert.InDelta(t, 1898.0, result.Emissions.Value.InexactFloat64(), 1e-6)
	require.Len(t, result.EmissionsBySource, 2)
	assert.InDelta(t, 1752.0, result.EmissionsBySource["US"].Value.InexactFloat64(), 1e-6)
	assert.InDelta(t, 146.0, result.EmissionsBySource["FR"].Value.InexactFloat64(), 1e-6)
	assert.Equal(t, 1, result.ActivityDataCount)
	assert.Len(t, result.EmissionFactorsUsed, 2)
}

func TestUseOfSoldProductsRegionFallsBackToGlobal(t *testing.T) {
	f := newEngineFixture(t)
	// No region-specific factors, one global grid average.
	saveGridFactor(t, f, "", 0.2)

	activity := soldProductsActivity(nil)
	result, err := f.engine.Calculate(context.Background(), emissions.CategoryUseOfSoldProducts,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	// All regional shares resolve to the same global factor:
	// 100 x 73 x 0.2 = 1460 in total.
	assert.InDelta(t, 1460.0, result.Emissions.Value.InexactFloat64(), 1e-6)
	assert.Len(t, result.EmissionFactorsUsed, 1)
}

func TestUseOfSoldProductsAnnualHoursProfile(t *testing.T) {
	f := newEngineFixture(t)
	saveGridFactor(t, f, "", 0.5)

	activity := soldProductsActivity(map[string]any{
		extUnitsSold:         1.0,
		extProductLifetime:   1.0,
		extEnergyConsumption: 1.0,
		extGeographicDist:    map[string]float64{"US": 1.0},
		extUsageProfile:      map[string]float64{extAnnualHours: 100},
	})

	result, err := f.engine.Calculate(context.Background(), emissions.CategoryUseOfSoldProducts,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	// 1 x 1.0 kWh/h x 100 h/year x 1 year x 0.5 = 50
	assert.InDelta(t, 50.0, result.Emissions.Value.InexactFloat64(), 1e-6)
}

func TestUsageHoursPerYearDefault(t *testing.T) {
	activity := soldProductsActivity(nil)
	delete(activity.Extensions, extUsageProfile)
	assert.InDelta(t, 8*365.0, usageHoursPerYear(&activity), 1e-9)
}

func TestUseOfSoldProductsSkipsWhenNoRegionResolves(t *testing.T) {
	f := newEngineFixture(t)
	// Store is empty for this category.
	activity := soldProductsActivity(nil)
	result, err := f.engine.Calculate(context.Background(), emissions.CategoryUseOfSoldProducts,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ActivityDataCount)
	assert.Equal(t, []uuid.UUID{activity.ID}, result.SkippedActivityIDs)
}

func TestUseOfSoldProductsValidation(t *testing.T) {
	calc := NewUseOfSoldProductsCalculator(nil, zap.NewNop())

	tests := []struct {
		name string
		ext  map[string]any
		want string
	}{
		{"distribution must sum to one", map[string]any{
			extGeographicDist: map[string]float64{"US": 0.6, "FR": 0.3},
		}, "must sum to 1.0"},
		{"negative fraction", map[string]any{
			extGeographicDist: map[string]float64{"US": 1.2, "FR": -0.2},
		}, "must not be negative"},
		{"missing distribution", map[string]any{
			extGeographicDist: map[string]float64{},
		}, "geographic_distribution is required"},
		{"non-positive units", map[string]any{
			extUnitsSold: 0.0,
		}, "units_sold must be positive"},
		{"non-positive lifetime", map[string]any{
			extProductLifetime: -1.0,
		}, "product_lifetime must be positive"},
		{"non-positive energy", map[string]any{
			extEnergyConsumption: 0.0,
		}, "energy_consumption must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activity := soldProductsActivity(tt.ext)
			violations := calc.ValidateData([]emissions.ActivityData{activity}, nil)
			require.NotEmpty(t, violations)
			assert.Contains(t, strings.Join(violations, "\n"), tt.want)
		})
	}
}
