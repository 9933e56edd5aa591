package calculation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
	"github.com/factortrace/factortrace/internal/uncertainty"
)

// genericSpec configures the activity-based calculator for categories
// whose conversion is a plain quantity-times-factor product: which
// extension fields a record must carry, and which one labels the
// per-source breakdown. An empty source key falls back to the record's
// data source.
type genericSpec struct {
	required  []string
	sourceKey string
}

// genericSpecs covers every Scope 3 category without a dedicated
// strategy.
var genericSpecs = map[emissions.Scope3Category]genericSpec{
	emissions.CategoryCapitalGoods: {
		required:  []string{"asset_type", "supplier_country"},
		sourceKey: "asset_type",
	},
	emissions.CategoryFuelAndEnergy: {
		required:  []string{"fuel_type"},
		sourceKey: "fuel_type",
	},
	emissions.CategoryUpstreamTransport: {
		required:  []string{"transport_mode"},
		sourceKey: "transport_mode",
	},
	emissions.CategoryWaste: {
		required:  []string{"disposal_method", "waste_type"},
		sourceKey: "waste_type",
	},
	emissions.CategoryEmployeeCommuting: {
		required:  []string{"commute_mode"},
		sourceKey: "commute_mode",
	},
	emissions.CategoryUpstreamLeasing: {
		required:  []string{"asset_type"},
		sourceKey: "asset_type",
	},
	emissions.CategoryDownstreamTransport: {
		required:  []string{"transport_mode"},
		sourceKey: "transport_mode",
	},
	emissions.CategoryProcessing: {
		required:  []string{"process_type"},
		sourceKey: "process_type",
	},
	emissions.CategoryEndOfLife: {
		required:  []string{"treatment_method"},
		sourceKey: "treatment_method",
	},
	emissions.CategoryDownstreamLeasing: {
		required:  []string{"asset_type"},
		sourceKey: "asset_type",
	},
	emissions.CategoryFranchises: {
		required:  []string{"franchise_type"},
		sourceKey: "franchise_type",
	},
	emissions.CategoryInvestments: {
		required:  []string{"investment_type"},
		sourceKey: "investment_type",
	},
}

// GenericCalculator is the activity-based strategy shared by the
// categories without bespoke multipliers: validate the category's
// required extension fields, resolve a factor per record, multiply.
type GenericCalculator struct {
	baseCalculator
	spec genericSpec
}

// NewGenericCalculator creates the strategy for one of the generically
// handled categories.
func NewGenericCalculator(category emissions.Scope3Category, propagator *uncertainty.Propagator, logger *zap.Logger) (*GenericCalculator, error) {
	spec, ok := genericSpecs[category]
	if !ok {
		return nil, fmt.Errorf("category %s has no generic calculation spec", category)
	}
	return &GenericCalculator{
		baseCalculator: baseCalculator{
			category:   category,
			propagator: propagator,
			logger:     logger,
		},
		spec: spec,
	}, nil
}

// ValidateData checks general invariants plus the category's required
// extension fields.
func (c *GenericCalculator) ValidateData(activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor) []string {
	violations := c.validateCommon(activity, factorSet)
	for i := range activity {
		a := &activity[i]
		for _, field := range c.spec.required {
			if _, ok := a.ExtString(field); !ok {
				violations = append(violations, fmt.Sprintf("activity %s: %s is required", a.ID, field))
			}
		}
	}
	return violations
}

// Calculate multiplies each record's quantity by its best-matching
// factor.
func (c *GenericCalculator) Calculate(ctx context.Context, activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor, params emissions.CalculationParameters) (*emissions.CategoryCalculationResult, error) {
	acc := newAccumulator(c.category)

	for i := range activity {
		a := &activity[i]

		factor := c.resolveFactor(a, factorSet, a.Location)
		if factor == nil {
			acc.skip(a)
			continue
		}

		result, err := c.emissionsFor(a.Quantity.Value, a.Uncertainty, factor, params)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}

		source, ok := a.ExtString(c.spec.sourceKey)
		if !ok || source == "" {
			source = a.DataSource
		}
		acc.add(a, factor, source, result)
	}

	return acc.result(params), nil
}
