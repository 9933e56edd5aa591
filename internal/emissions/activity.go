package emissions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quantity is a measured amount with its unit.
type Quantity struct {
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit"`
}

// ActivityData is a single reported business activity subject to emissions
// accounting. Category-specific fields (transport distance, cabin class,
// units sold, geographic distribution, ...) live in Extensions.
type ActivityData struct {
	ID          uuid.UUID         `json:"id"`
	Category    Scope3Category    `json:"category"`
	Quantity    Quantity          `json:"quantity"`
	Location    string            `json:"location,omitempty"`
	TimePeriod  time.Time         `json:"time_period"`
	DataSource  string            `json:"data_source,omitempty"`
	Quality     *PedigreeScore    `json:"quality,omitempty"`
	Uncertainty *UncertaintyRange `json:"uncertainty,omitempty"`
	Extensions  map[string]any    `json:"extensions,omitempty"`
}

// Validate returns every general invariant violation on the record.
// Category-specific extension checks belong to the calculators.
func (a *ActivityData) Validate() []string {
	var violations []string

	if !a.Category.Valid() {
		violations = append(violations, fmt.Sprintf("activity %s: unknown category %q", a.ID, a.Category))
	}
	if !a.Quantity.Value.IsPositive() {
		violations = append(violations, fmt.Sprintf("activity %s: quantity must be positive, got %s", a.ID, a.Quantity.Value))
	}
	if a.Quantity.Unit == "" {
		violations = append(violations, fmt.Sprintf("activity %s: quantity unit is required", a.ID))
	}
	if a.TimePeriod.After(time.Now()) {
		violations = append(violations, fmt.Sprintf("activity %s: time period is in the future", a.ID))
	}
	if a.Quality != nil {
		if err := a.Quality.Validate(); err != nil {
			violations = append(violations, fmt.Sprintf("activity %s: %v", a.ID, err))
		}
	}
	if a.Uncertainty != nil {
		if err := a.Uncertainty.Validate(); err != nil {
			violations = append(violations, fmt.Sprintf("activity %s: %v", a.ID, err))
		}
	}

	return violations
}

// QualityScore returns the pedigree overall for the record, defaulting to
// the worst score when no indicator is present.
func (a *ActivityData) QualityScore() float64 {
	if a.Quality == nil {
		return DefaultQualityScore
	}
	return a.Quality.Overall()
}

// ExtString reads a string extension field.
func (a *ActivityData) ExtString(key string) (string, bool) {
	v, ok := a.Extensions[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ExtFloat reads a numeric extension field. JSON decoding produces
// float64; int is accepted for values constructed in code.
func (a *ActivityData) ExtFloat(key string) (float64, bool) {
	v, ok := a.Extensions[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ExtFloatMap reads a map-valued extension field such as a geographic
// distribution.
func (a *ActivityData) ExtFloatMap(key string) (map[string]float64, bool) {
	v, ok := a.Extensions[key]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]float64:
		return m, true
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, raw := range m {
			f, ok := raw.(float64)
			if !ok {
				return nil, false
			}
			out[k] = f
		}
		return out, true
	default:
		return nil, false
	}
}
