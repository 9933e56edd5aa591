package calculation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
	"github.com/factortrace/factortrace/internal/uncertainty"
)

// Extension fields recognized by the use-of-sold-products calculator.
const (
	extUnitsSold         = "units_sold"
	extProductLifetime   = "product_lifetime"
	extEnergyConsumption = "energy_consumption"
	extGeographicDist    = "geographic_distribution"
	extUsageProfile      = "usage_profile"
	extDailyHours        = "daily_hours"
	extAnnualHours       = "annual_hours"
)

// Usage defaults when no profile is reported.
const (
	defaultDailyUsageHours = 8.0
	daysPerYear            = 365.0
)

// distributionTolerance bounds how far a geographic distribution may
// stray from summing to 1.0.
const distributionTolerance = 0.01

// UseOfSoldProductsCalculator implements Scope 3 category 11. Lifetime
// use-phase energy of sold units is spread over the reported geographic
// distribution and converted with each region's grid factor, resolved
// through the standard fallback.
type UseOfSoldProductsCalculator struct {
	baseCalculator
}

// NewUseOfSoldProductsCalculator creates the category 11 strategy.
func NewUseOfSoldProductsCalculator(propagator *uncertainty.Propagator, logger *zap.Logger) *UseOfSoldProductsCalculator {
	return &UseOfSoldProductsCalculator{baseCalculator{
		category:   emissions.CategoryUseOfSoldProducts,
		propagator: propagator,
		logger:     logger,
	}}
}

// ValidateData checks general invariants plus the category's required
// extension fields, including that the geographic distribution sums to
// 1.0 within tolerance.
func (c *UseOfSoldProductsCalculator) ValidateData(activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor) []string {
	violations := c.validateCommon(activity, factorSet)
	for i := range activity {
		a := &activity[i]

		if units, ok := a.ExtFloat(extUnitsSold); !ok || units <= 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s must be positive", a.ID, extUnitsSold))
		}
		if lifetime, ok := a.ExtFloat(extProductLifetime); !ok || lifetime <= 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s must be positive", a.ID, extProductLifetime))
		}
		if energy, ok := a.ExtFloat(extEnergyConsumption); !ok || energy <= 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s must be positive", a.ID, extEnergyConsumption))
		}

		dist, ok := a.ExtFloatMap(extGeographicDist)
		if !ok || len(dist) == 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s is required", a.ID, extGeographicDist))
			continue
		}
		var sum float64
		for region, fraction := range dist {
			if fraction < 0 {
				violations = append(violations, fmt.Sprintf("activity %s: %s fraction for %s must not be negative", a.ID, extGeographicDist, region))
			}
			sum += fraction
		}
		if math.Abs(sum-1.0) > distributionTolerance {
			violations = append(violations, fmt.Sprintf("activity %s: %s must sum to 1.0 (got %.4f)", a.ID, extGeographicDist, sum))
		}
	}
	return violations
}

// Calculate spreads lifetime energy over the geographic distribution and
// applies per-region grid factors, keyed per source by region.
func (c *UseOfSoldProductsCalculator) Calculate(ctx context.Context, activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor, params emissions.CalculationParameters) (*emissions.CategoryCalculationResult, error) {
	acc := newAccumulator(c.category)

	for i := range activity {
		a := &activity[i]

		units, _ := a.ExtFloat(extUnitsSold)
		lifetime, _ := a.ExtFloat(extProductLifetime)
		energy, _ := a.ExtFloat(extEnergyConsumption)
		dist, _ := a.ExtFloatMap(extGeographicDist)

		lifetimeEnergy := energy * usageHoursPerYear(a) * lifetime

		// Deterministic iteration order over regions.
		regions := make([]string, 0, len(dist))
		for region := range dist {
			regions = append(regions, region)
		}
		sort.Strings(regions)

		contributed := false
		for _, region := range regions {
			fraction := dist[region]
			if fraction == 0 {
				continue
			}

			gridFactor := c.resolveFactor(a, factorSet, region)
			if gridFactor == nil {
				continue
			}

			regionEnergy := units * fraction * lifetimeEnergy
			result, err := c.emissionsFor(decimal.NewFromFloat(regionEnergy), a.Uncertainty, gridFactor, params)
			if err != nil {
				return nil, fmt.Errorf("activity %s, region %s: %w", a.ID, region, err)
			}
			acc.addContribution(gridFactor, region, result)
			contributed = true
		}

		if !contributed {
			acc.skip(a)
			continue
		}
		acc.recordActivity(a)
	}

	return acc.result(params), nil
}

// usageHoursPerYear derives annual usage hours from the usage profile:
// daily_hours x 365, or annual_hours, or the 8h/day default.
func usageHoursPerYear(a *emissions.ActivityData) float64 {
	profile, ok := a.ExtFloatMap(extUsageProfile)
	if ok {
		if daily, ok := profile[extDailyHours]; ok && daily > 0 {
			return daily * daysPerYear
		}
		if annual, ok := profile[extAnnualHours]; ok && annual > 0 {
			return annual
		}
	}
	return defaultDailyUsageHours * daysPerYear
}
