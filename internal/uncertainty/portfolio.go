package uncertainty

import (
	"sort"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
)

// Distribution-selection thresholds for portfolio aggregation. The choice
// is driven by uncertainty magnitude: small relative uncertainty is well
// approximated by a normal, larger by a lognormal, and uncertainty at or
// beyond the central value falls back to a uniform over the stated range
// as the least-informative choice.
const (
	lognormalThresholdPct = 30.0
	uniformThresholdPct   = 100.0
)

var portfolioPercentiles = []int{5, 10, 25, 50, 75, 90, 95}

// AnalyzePortfolio re-samples all category results together: each trial
// sums one sampled value per category, categories without an uncertainty
// range contribute their point estimate every trial, and negative
// per-trial contributions are clamped to zero before summing.
func (p *Propagator) AnalyzePortfolio(results []emissions.CategoryCalculationResult, iterations int) (*emissions.PortfolioUncertainty, error) {
	if iterations == 0 {
		iterations = emissions.DefaultIterations
	}
	if iterations < emissions.MinIterations {
		return nil, &emissions.InsufficientSampleSizeError{
			Iterations: iterations,
			Minimum:    emissions.MinIterations,
		}
	}

	distributionsUsed := make(map[string]bool)
	contributions := make([][]float64, 0, len(results))

	for _, result := range results {
		samples, dist, err := p.categorySamples(result, iterations)
		if err != nil {
			return nil, err
		}
		distributionsUsed[dist] = true
		contributions = append(contributions, samples)
	}

	totals := make([]float64, iterations)
	for trial := range totals {
		var sum float64
		for _, samples := range contributions {
			contribution := samples[trial]
			if contribution < 0 {
				contribution = 0
			}
			sum += contribution
		}
		totals[trial] = sum
	}

	return p.summarize(totals, distributionsUsed, iterations)
}

// categorySamples produces the per-trial contribution vector for one
// category result and names the distribution used.
func (p *Propagator) categorySamples(result emissions.CategoryCalculationResult, iterations int) ([]float64, string, error) {
	value := result.Emissions.Value.InexactFloat64()

	if result.Emissions.Deterministic() || value <= 0 {
		samples := make([]float64, iterations)
		for i := range samples {
			samples[i] = value
		}
		return samples, "deterministic", nil
	}

	lower := result.Emissions.UncertaintyLower.InexactFloat64()
	upper := result.Emissions.UncertaintyUpper.InexactFloat64()
	halfWidthPct := (upper - lower) / 2.0 / value * 100.0
	rng := emissions.UncertaintyRange{LowerPct: halfWidthPct, UpperPct: halfWidthPct}

	var (
		dist     Distribution
		quantile func(float64) float64
		err      error
	)
	switch {
	case halfWidthPct < lognormalThresholdPct:
		dist = DistNormal
		quantile, err = quantileFunc(dist, "category "+string(result.Category), value, rng)
	case halfWidthPct < uniformThresholdPct:
		dist = DistLognormal
		quantile, err = quantileFunc(dist, "category "+string(result.Category), value, rng)
	default:
		// Uniform over the category's stated range rather than a
		// cv-derived one.
		dist = DistUniform
		quantile = uniformRangeQuantile(lower, upper)
	}
	if err != nil {
		return nil, "", err
	}

	axis := p.sampler.LatinHypercube(iterations)
	samples := make([]float64, iterations)
	for i := range samples {
		samples[i] = quantile(axis[i])
	}
	return samples, string(dist), nil
}

func uniformRangeQuantile(lower, upper float64) func(float64) float64 {
	if lower >= upper {
		return func(float64) float64 { return lower }
	}
	width := upper - lower
	return func(u float64) float64 {
		return lower + u*width
	}
}

func (p *Propagator) summarize(totals []float64, distributions map[string]bool, iterations int) (*emissions.PortfolioUncertainty, error) {
	mean, err := stats.Mean(totals)
	if err != nil {
		return nil, &emissions.InvalidInputError{Quantity: "portfolio mean", Value: 0}
	}
	median, err := stats.Median(totals)
	if err != nil {
		return nil, &emissions.InvalidInputError{Quantity: "portfolio median", Value: 50}
	}
	stdDev, err := stats.StandardDeviation(totals)
	if err != nil {
		return nil, &emissions.InvalidInputError{Quantity: "portfolio std dev", Value: 0}
	}

	cv := 0.0
	if mean > 0 {
		cv = stdDev / mean
	}

	percentiles := make(map[int]float64, len(portfolioPercentiles))
	for _, pct := range portfolioPercentiles {
		v, err := stats.Percentile(totals, float64(pct))
		if err != nil {
			return nil, &emissions.InvalidInputError{Quantity: "portfolio percentile", Value: float64(pct)}
		}
		percentiles[pct] = v
	}

	ciLower, err := stats.Percentile(totals, 2.5)
	if err != nil {
		return nil, &emissions.InvalidInputError{Quantity: "portfolio CI lower", Value: 2.5}
	}
	ciUpper, err := stats.Percentile(totals, 97.5)
	if err != nil {
		return nil, &emissions.InvalidInputError{Quantity: "portfolio CI upper", Value: 97.5}
	}

	used := make([]string, 0, len(distributions))
	for dist := range distributions {
		used = append(used, dist)
	}
	sort.Strings(used)

	p.logger.Debug("portfolio uncertainty analyzed",
		zap.Int("iterations", iterations),
		zap.Float64("mean", mean),
		zap.Float64("median", median),
		zap.Strings("distributions", used))

	return &emissions.PortfolioUncertainty{
		Mean:                   mean,
		Median:                 median,
		StdDev:                 stdDev,
		CoefficientOfVariation: cv,
		Percentiles:            percentiles,
		ConfidenceInterval95:   [2]float64{ciLower, ciUpper},
		DistributionsUsed:      used,
		Iterations:             iterations,
	}, nil
}
