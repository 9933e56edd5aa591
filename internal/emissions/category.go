package emissions

import "fmt"

// Scope3Category identifies one of the 15 GHG Protocol Scope 3 categories.
type Scope3Category string

const (
	CategoryPurchasedGoods      Scope3Category = "purchased_goods_and_services"
	CategoryCapitalGoods        Scope3Category = "capital_goods"
	CategoryFuelAndEnergy       Scope3Category = "fuel_and_energy_related"
	CategoryUpstreamTransport   Scope3Category = "upstream_transportation"
	CategoryWaste               Scope3Category = "waste_generated_in_operations"
	CategoryBusinessTravel      Scope3Category = "business_travel"
	CategoryEmployeeCommuting   Scope3Category = "employee_commuting"
	CategoryUpstreamLeasing     Scope3Category = "upstream_leased_assets"
	CategoryDownstreamTransport Scope3Category = "downstream_transportation"
	CategoryProcessing          Scope3Category = "processing_of_sold_products"
	CategoryUseOfSoldProducts   Scope3Category = "use_of_sold_products"
	CategoryEndOfLife           Scope3Category = "end_of_life_treatment"
	CategoryDownstreamLeasing   Scope3Category = "downstream_leased_assets"
	CategoryFranchises          Scope3Category = "franchises"
	CategoryInvestments         Scope3Category = "investments"
)

// AllCategories lists every Scope 3 category in GHG Protocol order.
var AllCategories = []Scope3Category{
	CategoryPurchasedGoods,
	CategoryCapitalGoods,
	CategoryFuelAndEnergy,
	CategoryUpstreamTransport,
	CategoryWaste,
	CategoryBusinessTravel,
	CategoryEmployeeCommuting,
	CategoryUpstreamLeasing,
	CategoryDownstreamTransport,
	CategoryProcessing,
	CategoryUseOfSoldProducts,
	CategoryEndOfLife,
	CategoryDownstreamLeasing,
	CategoryFranchises,
	CategoryInvestments,
}

// Valid reports whether c is a known Scope 3 category.
func (c Scope3Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Scope3Category) String() string {
	return string(c)
}

// ParseCategory converts a string into a Scope3Category.
func ParseCategory(s string) (Scope3Category, error) {
	c := Scope3Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown scope 3 category: %q", s)
	}
	return c, nil
}
