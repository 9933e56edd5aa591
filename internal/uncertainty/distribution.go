package uncertainty

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/factortrace/factortrace/internal/emissions"
)

// Distribution names a sampling distribution for uncertainty propagation.
type Distribution string

const (
	DistNormal     Distribution = "normal"
	DistLognormal  Distribution = "lognormal"
	DistTriangular Distribution = "triangular"
	DistUniform    Distribution = "uniform"
)

// Valid reports whether d is a supported distribution.
func (d Distribution) Valid() bool {
	switch d {
	case DistNormal, DistLognormal, DistTriangular, DistUniform:
		return true
	}
	return false
}

// quantileFunc builds the inverse CDF for distribution d, parameterized so
// the mean equals the quantity's central value and the coefficient of
// variation equals the symmetric-equivalent half width of rng divided by
// 100. A zero-width range degenerates to a constant.
func quantileFunc(d Distribution, name string, mean float64, rng emissions.UncertaintyRange) (func(float64) float64, error) {
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, &emissions.InvalidInputError{Quantity: name, Value: mean}
	}

	cv := rng.HalfWidthPct() / 100.0
	if cv < 0 {
		return nil, &emissions.InvalidInputError{Quantity: name + " uncertainty", Value: cv}
	}
	if cv == 0 {
		return func(float64) float64 { return mean }, nil
	}

	switch d {
	case DistNormal:
		dist := distuv.Normal{Mu: mean, Sigma: mean * cv}
		return dist.Quantile, nil

	case DistLognormal:
		// Solve the underlying normal's mu/sigma from the target mean
		// and variance (mean*cv)^2.
		variance := (mean * cv) * (mean * cv)
		mu := math.Log(mean * mean / math.Sqrt(variance+mean*mean))
		sigma := math.Sqrt(math.Log(1 + variance/(mean*mean)))
		if math.IsNaN(mu) || math.IsNaN(sigma) || sigma <= 0 {
			return nil, &emissions.InvalidInputError{Quantity: name + " lognormal fit", Value: mean}
		}
		dist := distuv.LogNormal{Mu: mu, Sigma: sigma}
		return dist.Quantile, nil

	case DistTriangular:
		lower := mean * (1 - rng.LowerPct/100.0)
		upper := mean * (1 + rng.UpperPct/100.0)
		if lower >= upper {
			return nil, &emissions.InvalidInputError{Quantity: name + " triangular bounds", Value: lower}
		}
		mode := (lower + upper) / 2.0
		dist := distuv.NewTriangle(lower, upper, mode, nil)
		return dist.Quantile, nil

	case DistUniform:
		lower := mean * (1 - rng.LowerPct/100.0)
		upper := mean * (1 + rng.UpperPct/100.0)
		if lower >= upper {
			return nil, &emissions.InvalidInputError{Quantity: name + " uniform bounds", Value: lower}
		}
		dist := distuv.Uniform{Min: lower, Max: upper}
		return dist.Quantile, nil

	default:
		return nil, &emissions.UnsupportedDistributionError{Distribution: string(d)}
	}
}
