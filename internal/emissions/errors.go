package emissions

import (
	"fmt"
	"strings"
)

// ValidationError reports every invariant violation found before a
// calculation begins, not just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d violation(s): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// FactorNotFoundError indicates no emission factor exists for a category
// under any fallback level.
type FactorNotFoundError struct {
	Category Scope3Category
	Region   string
	Year     int
}

func (e *FactorNotFoundError) Error() string {
	msg := fmt.Sprintf("no emission factor found for category %s", e.Category)
	if e.Region != "" {
		msg += fmt.Sprintf(", region %s", e.Region)
	}
	if e.Year > 0 {
		msg += fmt.Sprintf(", year %d", e.Year)
	}
	return msg
}

// UnsupportedDistributionError indicates an unknown sampling distribution.
type UnsupportedDistributionError struct {
	Distribution string
}

func (e *UnsupportedDistributionError) Error() string {
	return fmt.Sprintf("unsupported distribution: %q", e.Distribution)
}

// InvalidInputError indicates a quantity the uncertainty engine cannot
// sample from, such as a non-positive lognormal mean.
type InvalidInputError struct {
	Quantity string
	Value    float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %s: %v", e.Quantity, e.Value)
}

// InsufficientSampleSizeError indicates an iteration count below the floor
// at which percentile estimates are stable.
type InsufficientSampleSizeError struct {
	Iterations int
	Minimum    int
}

func (e *InsufficientSampleSizeError) Error() string {
	return fmt.Sprintf("iteration count %d is below the minimum of %d", e.Iterations, e.Minimum)
}
