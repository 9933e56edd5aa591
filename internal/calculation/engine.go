package calculation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
	"github.com/factortrace/factortrace/internal/factors"
	"github.com/factortrace/factortrace/internal/uncertainty"
)

// Engine dispatches calculation runs to per-category strategies. The
// factor resolver and uncertainty propagator are injected; the engine
// owns no process-wide state, so independent engines (and tests) are
// fully isolated.
type Engine struct {
	resolver    *factors.Resolver
	propagator  *uncertainty.Propagator
	calculators map[emissions.Scope3Category]Calculator
	logger      *zap.Logger
}

// NewEngine creates an engine with every built-in category strategy
// registered.
func NewEngine(resolver *factors.Resolver, propagator *uncertainty.Propagator, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		resolver:    resolver,
		propagator:  propagator,
		calculators: make(map[emissions.Scope3Category]Calculator),
		logger:      logger,
	}

	e.register(NewPurchasedGoodsCalculator(propagator, logger))
	e.register(NewBusinessTravelCalculator(propagator, logger))
	e.register(NewUseOfSoldProductsCalculator(propagator, logger))
	for category := range genericSpecs {
		calc, err := NewGenericCalculator(category, propagator, logger)
		if err != nil {
			return nil, err
		}
		e.register(calc)
	}

	return e, nil
}

func (e *Engine) register(calc Calculator) {
	e.calculators[calc.Category()] = calc
}

// SupportedCategories lists every category with a registered strategy.
func (e *Engine) SupportedCategories() []emissions.Scope3Category {
	categories := make([]emissions.Scope3Category, 0, len(e.calculators))
	for _, category := range emissions.AllCategories {
		if _, ok := e.calculators[category]; ok {
			categories = append(categories, category)
		}
	}
	return categories
}

// Calculate runs one category. Validation failures abort with a
// ValidationError carrying the full violation list; records with no
// resolvable factor are skipped and surfaced on the result.
func (e *Engine) Calculate(ctx context.Context, category emissions.Scope3Category, activity []emissions.ActivityData, params emissions.CalculationParameters) (*emissions.CategoryCalculationResult, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}

	calc, ok := e.calculators[category]
	if !ok {
		return nil, fmt.Errorf("no calculator registered for category %s", category)
	}

	factorSet, err := e.resolver.FactorsForCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("loading factors for %s: %w", category, err)
	}

	if violations := calc.ValidateData(activity, factorSet); len(violations) > 0 {
		return nil, &emissions.ValidationError{Violations: violations}
	}

	result, err := calc.Calculate(ctx, activity, factorSet, params)
	if err != nil {
		return nil, err
	}

	e.logger.Info("category calculation complete",
		zap.String("category", string(category)),
		zap.Int("activity_records", result.ActivityDataCount),
		zap.Int("skipped_records", len(result.SkippedActivityIDs)),
		zap.String("emissions", result.Emissions.Value.String()))
	return result, nil
}

// InventoryResult is the output of a full multi-category run.
type InventoryResult struct {
	Categories []*emissions.CategoryCalculationResult `json:"categories"`
	Portfolio  *emissions.PortfolioUncertainty        `json:"portfolio,omitempty"`
}

// CalculateInventory groups activity data by category, runs every
// category present, and, when uncertainty is requested, re-samples all
// category results together into a portfolio analysis.
func (e *Engine) CalculateInventory(ctx context.Context, activity []emissions.ActivityData, params emissions.CalculationParameters) (*InventoryResult, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}

	grouped := make(map[emissions.Scope3Category][]emissions.ActivityData)
	for _, a := range activity {
		grouped[a.Category] = append(grouped[a.Category], a)
	}

	inventory := &InventoryResult{}
	for _, category := range emissions.AllCategories {
		records, ok := grouped[category]
		if !ok {
			continue
		}
		result, err := e.Calculate(ctx, category, records, params)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		inventory.Categories = append(inventory.Categories, result)
	}

	if params.IncludeUncertainty && len(inventory.Categories) > 0 {
		results := make([]emissions.CategoryCalculationResult, len(inventory.Categories))
		for i, r := range inventory.Categories {
			results[i] = *r
		}
		portfolio, err := e.propagator.AnalyzePortfolio(results, params.Iterations)
		if err != nil {
			return nil, fmt.Errorf("portfolio analysis: %w", err)
		}
		inventory.Portfolio = portfolio
	}

	return inventory, nil
}
