package emissions

import "fmt"

// Methodology selects how activity data is converted into emissions.
type Methodology string

const (
	MethodologyActivityBased Methodology = "activity_based"
	MethodologySpendBased    Methodology = "spend_based"
	MethodologyHybrid        Methodology = "hybrid"
)

// Defaults for a calculation run.
const (
	DefaultIterations      = 10000
	DefaultConfidenceLevel = 0.95
	DefaultGWPVersion      = GWPAR6

	// MinIterations is the floor below which percentile estimates
	// become unstable.
	MinIterations = 100
)

// CalculationParameters configures a calculation run.
type CalculationParameters struct {
	Methodology        Methodology `json:"methodology"`
	IncludeUncertainty bool        `json:"include_uncertainty"`
	Iterations         int         `json:"iterations"`
	ConfidenceLevel    float64     `json:"confidence_level"`
	GWPVersion         GWPVersion  `json:"gwp_version"`
	ReportingPeriod    string      `json:"reporting_period"`
}

// DefaultParameters returns a deterministic activity-based run with the
// standard Monte Carlo settings.
func DefaultParameters() CalculationParameters {
	return CalculationParameters{
		Methodology:     MethodologyActivityBased,
		Iterations:      DefaultIterations,
		ConfidenceLevel: DefaultConfidenceLevel,
		GWPVersion:      DefaultGWPVersion,
	}
}

// Normalize fills unset fields with defaults and validates the rest.
func (p *CalculationParameters) Normalize() error {
	if p.Methodology == "" {
		p.Methodology = MethodologyActivityBased
	}
	switch p.Methodology {
	case MethodologyActivityBased, MethodologySpendBased, MethodologyHybrid:
	default:
		return fmt.Errorf("unknown methodology: %q", p.Methodology)
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultIterations
	}
	if p.ConfidenceLevel == 0 {
		p.ConfidenceLevel = DefaultConfidenceLevel
	}
	if p.ConfidenceLevel <= 0 || p.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence level must be in (0,1), got %.4f", p.ConfidenceLevel)
	}
	if p.GWPVersion == "" {
		p.GWPVersion = DefaultGWPVersion
	}
	if !p.GWPVersion.Valid() {
		return fmt.Errorf("unsupported GWP version: %q", p.GWPVersion)
	}
	return nil
}
