package emissions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinFactorYear is the oldest factor vintage the engine accepts.
const MinFactorYear = 1990

// FactorSource enumerates the provenance of an emission factor.
type FactorSource string

const (
	SourceEPA      FactorSource = "EPA"
	SourceDEFRA    FactorSource = "DEFRA"
	SourceIPCC     FactorSource = "IPCC"
	SourceExiobase FactorSource = "EXIOBASE"
	SourceCustom   FactorSource = "CUSTOM"
)

// UncertaintyRange expresses relative uncertainty as a pair of percentages
// around a central value (lower, upper).
type UncertaintyRange struct {
	LowerPct float64 `json:"lower_pct"`
	UpperPct float64 `json:"upper_pct"`
}

// HalfWidthPct returns the symmetric-equivalent half width of the range.
func (u UncertaintyRange) HalfWidthPct() float64 {
	return (u.LowerPct + u.UpperPct) / 2.0
}

// Validate checks both bounds are non-negative magnitudes and the range
// is not degenerate. A symmetric range carries equal bounds.
func (u UncertaintyRange) Validate() error {
	if u.LowerPct < 0 || u.UpperPct < 0 {
		return fmt.Errorf("uncertainty percentages must not be negative, got (%.4f, %.4f)",
			u.LowerPct, u.UpperPct)
	}
	if u.LowerPct == 0 && u.UpperPct == 0 {
		return fmt.Errorf("uncertainty range must have a positive width")
	}
	return nil
}

// EmissionFactor is a documented conversion ratio from an activity quantity
// to an emissions mass. A region of "" means the factor is global. Factors
// are never mutated once referenced by a result; updates supersede via a
// newer row matching the same lookup key.
type EmissionFactor struct {
	ID          uuid.UUID         `json:"id"`
	Category    Scope3Category    `json:"category"`
	Value       decimal.Decimal   `json:"value"`
	Unit        string            `json:"unit"`
	Source      FactorSource      `json:"source"`
	SourceRef   string            `json:"source_ref"`
	Region      string            `json:"region,omitempty"`
	Year        int               `json:"year"`
	Uncertainty *UncertaintyRange `json:"uncertainty,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Quality     *PedigreeScore    `json:"quality,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Global reports whether the factor applies regardless of region.
func (f *EmissionFactor) Global() bool {
	return f.Region == ""
}

// Validate returns every invariant violation found on the factor.
func (f *EmissionFactor) Validate() []string {
	var violations []string

	if !f.Category.Valid() {
		violations = append(violations, fmt.Sprintf("unknown category: %q", f.Category))
	}
	if !f.Value.IsPositive() {
		violations = append(violations, fmt.Sprintf("factor value must be positive, got %s", f.Value))
	}
	if f.Unit == "" {
		violations = append(violations, "factor unit is required")
	}
	if f.Year < MinFactorYear {
		violations = append(violations, fmt.Sprintf("factor year %d predates %d", f.Year, MinFactorYear))
	}
	if f.Year > time.Now().Year() {
		violations = append(violations, fmt.Sprintf("factor year %d is in the future", f.Year))
	}
	if f.Uncertainty != nil {
		if err := f.Uncertainty.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	if f.Quality != nil {
		if err := f.Quality.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}

	return violations
}
