package factors

import (
	"sort"

	"github.com/factortrace/factortrace/internal/emissions"
)

// SelectBest picks the best-matching factor from candidates for the given
// region and year using the specificity-then-recency fallback:
//
//  1. exact match on region and year
//  2. same region, vintage at or before the requested year, most recent
//  3. global, vintage at or before the requested year, most recent
//  4. any factor for the category, most recent vintage
//
// A year of 0 means "most recent available" and skips the exact level.
// Ties at equal specificity and year break on updated_at (last write
// wins). Returns nil when candidates is empty. The selection is a pure
// function of its inputs, so repeated calls are deterministic.
func SelectBest(candidates []*emissions.EmissionFactor, region string, year int) *emissions.EmissionFactor {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]*emissions.EmissionFactor, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return lessByContract(ordered[i], ordered[j])
	})

	if region != "" && year > 0 {
		for _, f := range ordered {
			if f.Region == region && f.Year == year {
				return f
			}
		}
	}

	if region != "" {
		if f := mostRecent(ordered, region, year); f != nil {
			return f
		}
	}

	if f := mostRecent(ordered, "", year); f != nil {
		return f
	}

	// Last resort: any region, most recent vintage.
	best := ordered[0]
	for _, f := range ordered[1:] {
		if f.Year > best.Year {
			best = f
		}
	}
	return best
}

// mostRecent returns the newest factor for region with Year <= maxYear.
// maxYear of 0 disables the bound. Relies on ordered being sorted by the
// store contract, so the first hit is the winner.
func mostRecent(ordered []*emissions.EmissionFactor, region string, maxYear int) *emissions.EmissionFactor {
	for _, f := range ordered {
		if f.Region != region {
			continue
		}
		if maxYear > 0 && f.Year > maxYear {
			continue
		}
		return f
	}
	return nil
}
