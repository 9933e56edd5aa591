package emissions

import "fmt"

// Pedigree scores run from 1 (best) to 5 (worst) per dimension.
const (
	PedigreeBest  = 1
	PedigreeWorst = 5
)

// DefaultQualityScore is used when a record carries no quality indicator.
// The worst score is assumed so missing metadata biases conservatively.
const DefaultQualityScore = 5.0

// PedigreeScore rates a data point across the five pedigree-matrix
// dimensions used for Tier data-quality assessment.
type PedigreeScore struct {
	Reliability              int `json:"reliability"`
	Completeness             int `json:"completeness"`
	TemporalCorrelation      int `json:"temporal_correlation"`
	GeographicalCorrelation  int `json:"geographical_correlation"`
	TechnologicalCorrelation int `json:"technological_correlation"`
}

// Overall returns the arithmetic mean of the five dimensions.
func (p PedigreeScore) Overall() float64 {
	sum := p.Reliability + p.Completeness + p.TemporalCorrelation +
		p.GeographicalCorrelation + p.TechnologicalCorrelation
	return float64(sum) / 5.0
}

// Validate checks that every dimension is within 1..5.
func (p PedigreeScore) Validate() error {
	dims := map[string]int{
		"reliability":               p.Reliability,
		"completeness":              p.Completeness,
		"temporal_correlation":      p.TemporalCorrelation,
		"geographical_correlation":  p.GeographicalCorrelation,
		"technological_correlation": p.TechnologicalCorrelation,
	}
	for name, score := range dims {
		if score < PedigreeBest || score > PedigreeWorst {
			return fmt.Errorf("pedigree dimension %s must be between %d and %d, got %d",
				name, PedigreeBest, PedigreeWorst, score)
		}
	}
	return nil
}
