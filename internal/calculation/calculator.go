package calculation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
	"github.com/factortrace/factortrace/internal/factors"
	"github.com/factortrace/factortrace/internal/uncertainty"
)

// defaultSamplingDistribution is used when a calculator delegates a
// multiplication to the uncertainty engine. Emission factors are
// multiplicative and strictly positive, which the lognormal matches.
const defaultSamplingDistribution = uncertainty.DistLognormal

// Metadata keys under which a factor declares per-unit co-emissions of
// non-CO2 gases, folded into CO2e using the run's GWP version.
const (
	metaCH4PerUnit = "ch4_kg_per_unit"
	metaN2OPerUnit = "n2o_kg_per_unit"
)

// Calculator is the capability every category strategy implements.
// ValidateData runs before Calculate and returns the full list of
// violations; Calculate must not be invoked on data that failed
// validation. Records whose factor cannot be resolved are skipped and
// reported, never silently dropped.
type Calculator interface {
	Category() emissions.Scope3Category
	ValidateData(activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor) []string
	Calculate(ctx context.Context, activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor, params emissions.CalculationParameters) (*emissions.CategoryCalculationResult, error)
}

// baseCalculator carries the shared collaborators and behavior of every
// category strategy.
type baseCalculator struct {
	category   emissions.Scope3Category
	propagator *uncertainty.Propagator
	logger     *zap.Logger
}

func (b *baseCalculator) Category() emissions.Scope3Category {
	return b.category
}

// validateCommon checks the general invariants shared by every category:
// record-level validity, category consistency, and factor validity.
func (b *baseCalculator) validateCommon(activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor) []string {
	var violations []string
	for i := range activity {
		a := &activity[i]
		violations = append(violations, a.Validate()...)
		if a.Category.Valid() && a.Category != b.category {
			violations = append(violations, fmt.Sprintf(
				"activity %s: category %s does not match calculator category %s",
				a.ID, a.Category, b.category))
		}
	}
	for _, f := range factorSet {
		violations = append(violations, f.Validate()...)
	}
	return violations
}

// resolveFactor picks the best factor for one activity record, or nil
// when the category has no usable factor. The caller records the skip.
func (b *baseCalculator) resolveFactor(a *emissions.ActivityData, factorSet []*emissions.EmissionFactor, region string) *emissions.EmissionFactor {
	factor := factors.SelectBest(factorSet, region, a.TimePeriod.Year())
	if factor == nil {
		b.logger.Warn("no emission factor for activity record, skipping",
			zap.String("category", string(b.category)),
			zap.String("activity_id", a.ID.String()),
			zap.String("region", region),
			zap.Int("year", a.TimePeriod.Year()))
	}
	return factor
}

// effectiveFactorValue folds metadata-declared CH4/N2O co-emissions into
// the factor's CO2e value for the selected GWP version.
func effectiveFactorValue(f *emissions.EmissionFactor, version emissions.GWPVersion) (decimal.Decimal, error) {
	masses := make(map[emissions.Gas]float64)
	if raw, ok := f.Metadata[metaCH4PerUnit]; ok {
		mass, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return decimal.Zero, fmt.Errorf("factor %s: bad %s: %w", f.ID, metaCH4PerUnit, err)
		}
		masses[emissions.GasCH4] = mass
	}
	if raw, ok := f.Metadata[metaN2OPerUnit]; ok {
		mass, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return decimal.Zero, fmt.Errorf("factor %s: bad %s: %w", f.ID, metaN2OPerUnit, err)
		}
		masses[emissions.GasN2O] = mass
	}
	if len(masses) == 0 {
		return f.Value, nil
	}

	extra, err := emissions.CO2Equivalent(masses, version)
	if err != nil {
		return decimal.Zero, fmt.Errorf("factor %s: %w", f.ID, err)
	}
	return f.Value.Add(decimal.NewFromFloat(extra)), nil
}

// emissionsFor multiplies a scaled activity value by a factor. When the
// run requests uncertainty and the factor carries a range, the product is
// delegated to the uncertainty engine; otherwise it is an exact decimal
// product.
func (b *baseCalculator) emissionsFor(activityValue decimal.Decimal, activityUnc *emissions.UncertaintyRange, factor *emissions.EmissionFactor, params emissions.CalculationParameters) (emissions.EmissionResult, error) {
	factorValue, err := effectiveFactorValue(factor, params.GWPVersion)
	if err != nil {
		return emissions.EmissionResult{}, err
	}

	if !params.IncludeUncertainty || factor.Uncertainty == nil {
		return emissions.EmissionResult{Value: activityValue.Mul(factorValue)}, nil
	}

	var actRange emissions.UncertaintyRange
	if activityUnc != nil {
		actRange = *activityUnc
	}
	result, err := b.propagator.Propagate(uncertainty.PropagateInput{
		ActivityValue:       activityValue.InexactFloat64(),
		ActivityUncertainty: actRange,
		FactorValue:         factorValue.InexactFloat64(),
		FactorUncertainty:   *factor.Uncertainty,
		Distribution:        defaultSamplingDistribution,
		Iterations:          params.Iterations,
		ConfidenceLevel:     params.ConfidenceLevel,
	})
	if err != nil {
		return emissions.EmissionResult{}, err
	}
	return *result, nil
}

// accumulator collects per-record contributions into the immutable
// category result, including the audit-trail id lists.
type accumulator struct {
	category    emissions.Scope3Category
	total       emissions.EmissionResult
	bySource    map[string]emissions.EmissionResult
	factorIDs   []uuid.UUID
	factorSeen  map[uuid.UUID]bool
	activityIDs []uuid.UUID
	skipped     []uuid.UUID
	qualitySum  float64
}

func newAccumulator(category emissions.Scope3Category) *accumulator {
	return &accumulator{
		category:   category,
		bySource:   make(map[string]emissions.EmissionResult),
		factorSeen: make(map[uuid.UUID]bool),
	}
}

// add records a single-factor contribution for one activity record.
func (acc *accumulator) add(a *emissions.ActivityData, factor *emissions.EmissionFactor, source string, result emissions.EmissionResult) {
	acc.addContribution(factor, source, result)
	acc.recordActivity(a)
}

// addContribution accumulates one (factor, source) share of the total.
// Calculators whose records span several factors, such as per-region grid
// factors, call it once per share and recordActivity once per record.
func (acc *accumulator) addContribution(factor *emissions.EmissionFactor, source string, result emissions.EmissionResult) {
	acc.total = acc.total.Add(result)
	acc.bySource[source] = acc.bySource[source].Add(result)
	if !acc.factorSeen[factor.ID] {
		acc.factorSeen[factor.ID] = true
		acc.factorIDs = append(acc.factorIDs, factor.ID)
	}
}

func (acc *accumulator) recordActivity(a *emissions.ActivityData) {
	acc.activityIDs = append(acc.activityIDs, a.ID)
	acc.qualitySum += a.QualityScore()
}

func (acc *accumulator) skip(a *emissions.ActivityData) {
	acc.skipped = append(acc.skipped, a.ID)
}

func (acc *accumulator) result(params emissions.CalculationParameters) *emissions.CategoryCalculationResult {
	quality := emissions.DefaultQualityScore
	if n := len(acc.activityIDs); n > 0 {
		quality = acc.qualitySum / float64(n)
	}
	return &emissions.CategoryCalculationResult{
		Category:            acc.category,
		ReportingPeriod:     params.ReportingPeriod,
		Methodology:         params.Methodology,
		Emissions:           acc.total,
		ActivityDataCount:   len(acc.activityIDs),
		DataQualityScore:    quality,
		EmissionsBySource:   acc.bySource,
		EmissionFactorsUsed: acc.factorIDs,
		ActivityDataUsed:    acc.activityIDs,
		SkippedActivityIDs:  acc.skipped,
		CalculatedAt:        time.Now(),
	}
}
