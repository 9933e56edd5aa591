package emissions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmissionResult is the output of any calculation. When uncertainty was
// requested the bounds bracket the central value.
type EmissionResult struct {
	Value            decimal.Decimal  `json:"value"`
	UncertaintyLower *decimal.Decimal `json:"uncertainty_lower,omitempty"`
	UncertaintyUpper *decimal.Decimal `json:"uncertainty_upper,omitempty"`
}

// Deterministic reports whether the result carries no uncertainty bounds.
func (r EmissionResult) Deterministic() bool {
	return r.UncertaintyLower == nil || r.UncertaintyUpper == nil
}

// Add accumulates another result into r. Bounds are summed when both
// sides carry them; a deterministic contribution widens nothing.
func (r EmissionResult) Add(other EmissionResult) EmissionResult {
	sum := EmissionResult{Value: r.Value.Add(other.Value)}

	lower := r.boundOrValue(r.UncertaintyLower).Add(other.boundOrValue(other.UncertaintyLower))
	upper := r.boundOrValue(r.UncertaintyUpper).Add(other.boundOrValue(other.UncertaintyUpper))
	if !r.Deterministic() || !other.Deterministic() {
		sum.UncertaintyLower = &lower
		sum.UncertaintyUpper = &upper
	}
	return sum
}

func (r EmissionResult) boundOrValue(bound *decimal.Decimal) decimal.Decimal {
	if bound == nil {
		return r.Value
	}
	return *bound
}

// CategoryCalculationResult is the immutable aggregate output for one
// category in one calculation run. The id lists form the audit trail;
// skipped records are surfaced explicitly rather than only logged.
type CategoryCalculationResult struct {
	Category            Scope3Category            `json:"category"`
	ReportingPeriod     string                    `json:"reporting_period"`
	Methodology         Methodology               `json:"methodology"`
	Emissions           EmissionResult            `json:"emissions"`
	ActivityDataCount   int                       `json:"activity_data_count"`
	DataQualityScore    float64                   `json:"data_quality_score"`
	EmissionsBySource   map[string]EmissionResult `json:"emissions_by_source"`
	EmissionFactorsUsed []uuid.UUID               `json:"emission_factors_used"`
	ActivityDataUsed    []uuid.UUID               `json:"activity_data_used"`
	SkippedActivityIDs  []uuid.UUID               `json:"skipped_activity_ids,omitempty"`
	CalculatedAt        time.Time                 `json:"calculated_at"`
}

// PortfolioUncertainty summarizes the Monte Carlo aggregation of all
// category results in a calculation run.
type PortfolioUncertainty struct {
	Mean                   float64         `json:"mean"`
	Median                 float64         `json:"median"`
	StdDev                 float64         `json:"std_dev"`
	CoefficientOfVariation float64         `json:"coefficient_of_variation"`
	Percentiles            map[int]float64 `json:"percentiles"`
	ConfidenceInterval95   [2]float64      `json:"confidence_interval_95"`
	DistributionsUsed      []string        `json:"distributions_used"`
	Iterations             int             `json:"iterations"`
}
