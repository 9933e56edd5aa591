package calculation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
	"github.com/factortrace/factortrace/internal/uncertainty"
)

// Extension fields recognized by the business-travel calculator.
const (
	extOrigin       = "origin"
	extDestination  = "destination"
	extMode         = "mode"
	extDistance     = "distance"
	extTravelers    = "travelers"
	extCabinClass   = "cabin_class"
	extHotelNights  = "hotel_nights"
	extHotelCountry = "hotel_country"
)

// Travel modes.
const (
	modeAir  = "air"
	modeRail = "rail"
	modeBus  = "bus"
	modeCar  = "car"
	modeTaxi = "taxi"
)

// radiativeForcingIndex accounts for non-CO2 warming effects of aviation
// at altitude.
const radiativeForcingIndex = 1.9

// Detour factors correct great-circle distances for routing and holding
// patterns, bucketed by flight length.
const (
	domesticDetourKm  = 500.0
	shortHaulDetourKm = 3700.0

	domesticDetourFactor  = 1.09
	shortHaulDetourFactor = 1.10
	longHaulDetourFactor  = 1.10
)

// cabinMultipliers scale per-km aviation factors by cabin space occupied.
var cabinMultipliers = map[string]float64{
	"economy":         1.0,
	"premium_economy": 1.5,
	"business":        2.0,
	"first":           2.5,
}

// groundOccupancy holds average occupants per vehicle for ground modes
// whose factors are per vehicle-km.
var groundOccupancy = map[string]float64{
	modeCar:  1.5,
	modeTaxi: 1.2,
	modeBus:  12.7,
	modeRail: 1.0, // rail factors are per passenger-km
}

// hotelFactors is kgCO2e per room-night by country, with a default
// bucket for unlisted countries.
var hotelFactors = map[string]float64{
	"US": 16.1,
	"GB": 10.4,
	"FR": 6.1,
	"DE": 9.5,
	"CN": 24.1,
	"IN": 31.1,
	"JP": 17.2,
}

const defaultHotelFactor = 15.0

// BusinessTravelCalculator implements Scope 3 category 6. Air travel
// applies cabin-class, radiative-forcing, and detour corrections; ground
// travel divides per-vehicle factors by average occupancy; hotel nights
// add a country-specific accommodation term.
type BusinessTravelCalculator struct {
	baseCalculator
}

// NewBusinessTravelCalculator creates the category 6 strategy.
func NewBusinessTravelCalculator(propagator *uncertainty.Propagator, logger *zap.Logger) *BusinessTravelCalculator {
	return &BusinessTravelCalculator{baseCalculator{
		category:   emissions.CategoryBusinessTravel,
		propagator: propagator,
		logger:     logger,
	}}
}

// ValidateData checks general invariants plus the category's required
// extension fields and the cabin-class vocabulary.
func (c *BusinessTravelCalculator) ValidateData(activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor) []string {
	violations := c.validateCommon(activity, factorSet)
	for i := range activity {
		a := &activity[i]

		if _, ok := a.ExtString(extOrigin); !ok {
			violations = append(violations, fmt.Sprintf("activity %s: %s is required", a.ID, extOrigin))
		}
		if _, ok := a.ExtString(extDestination); !ok {
			violations = append(violations, fmt.Sprintf("activity %s: %s is required", a.ID, extDestination))
		}

		mode, ok := a.ExtString(extMode)
		if !ok {
			violations = append(violations, fmt.Sprintf("activity %s: %s is required", a.ID, extMode))
		} else if mode != modeAir {
			if _, known := groundOccupancy[mode]; !known {
				violations = append(violations, fmt.Sprintf("activity %s: unknown travel mode %q", a.ID, mode))
			}
		}

		if distance, ok := a.ExtFloat(extDistance); !ok || distance <= 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s must be positive", a.ID, extDistance))
		}
		if travelers, ok := a.ExtFloat(extTravelers); !ok || travelers <= 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s must be positive", a.ID, extTravelers))
		}

		if mode == modeAir {
			if cabin, ok := a.ExtString(extCabinClass); ok {
				if _, known := cabinMultipliers[cabin]; !known {
					violations = append(violations, fmt.Sprintf("activity %s: cabin class %q not recognized", a.ID, cabin))
				}
			}
		}

		if nights, ok := a.ExtFloat(extHotelNights); ok && nights < 0 {
			violations = append(violations, fmt.Sprintf("activity %s: %s must not be negative", a.ID, extHotelNights))
		}
	}
	return violations
}

// Calculate converts each trip into emissions using the mode-specific
// corrections, keyed per source as "origin-destination-mode".
func (c *BusinessTravelCalculator) Calculate(ctx context.Context, activity []emissions.ActivityData, factorSet []*emissions.EmissionFactor, params emissions.CalculationParameters) (*emissions.CategoryCalculationResult, error) {
	acc := newAccumulator(c.category)

	for i := range activity {
		a := &activity[i]

		factor := c.resolveFactor(a, factorSet, a.Location)
		if factor == nil {
			acc.skip(a)
			continue
		}

		distance, _ := a.ExtFloat(extDistance)
		travelers, _ := a.ExtFloat(extTravelers)
		mode, _ := a.ExtString(extMode)

		passengerKm := distance * travelers
		var scaled float64
		if mode == modeAir {
			cabin := 1.0
			if class, ok := a.ExtString(extCabinClass); ok {
				cabin = cabinMultipliers[class]
			}
			scaled = passengerKm * cabin * radiativeForcingIndex * detourFactor(distance)
		} else {
			occupancy := groundOccupancy[mode]
			scaled = passengerKm / occupancy
		}

		result, err := c.emissionsFor(decimal.NewFromFloat(scaled), a.Uncertainty, factor, params)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}

		if nights, ok := a.ExtFloat(extHotelNights); ok && nights > 0 {
			result = result.Add(hotelEmissions(a, nights))
		}

		origin, _ := a.ExtString(extOrigin)
		destination, _ := a.ExtString(extDestination)
		source := fmt.Sprintf("%s-%s-%s", origin, destination, mode)
		acc.add(a, factor, source, result)
	}

	return acc.result(params), nil
}

func detourFactor(distanceKm float64) float64 {
	switch {
	case distanceKm < domesticDetourKm:
		return domesticDetourFactor
	case distanceKm < shortHaulDetourKm:
		return shortHaulDetourFactor
	default:
		return longHaulDetourFactor
	}
}

func hotelEmissions(a *emissions.ActivityData, nights float64) emissions.EmissionResult {
	country, ok := a.ExtString(extHotelCountry)
	if !ok {
		country, _ = a.ExtString(extDestination)
	}
	perNight, known := hotelFactors[country]
	if !known {
		perNight = defaultHotelFactor
	}
	return emissions.EmissionResult{Value: decimal.NewFromFloat(nights * perNight)}
}
