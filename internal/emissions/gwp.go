package emissions

import "fmt"

// GWPVersion selects the IPCC assessment report whose global warming
// potentials are applied when converting gas masses to CO2 equivalents.
type GWPVersion string

const (
	GWPAR4 GWPVersion = "AR4"
	GWPAR5 GWPVersion = "AR5"
	GWPAR6 GWPVersion = "AR6"
)

// Gas identifies a greenhouse gas tracked by the engine.
type Gas string

const (
	GasCO2 Gas = "CO2"
	GasCH4 Gas = "CH4"
	GasN2O Gas = "N2O"
	GasSF6 Gas = "SF6"
)

// gwpTables holds 100-year GWP values per IPCC assessment report.
var gwpTables = map[GWPVersion]map[Gas]float64{
	GWPAR4: {GasCO2: 1, GasCH4: 25, GasN2O: 298, GasSF6: 22800},
	GWPAR5: {GasCO2: 1, GasCH4: 28, GasN2O: 265, GasSF6: 23500},
	GWPAR6: {GasCO2: 1, GasCH4: 27.9, GasN2O: 273, GasSF6: 25200},
}

// Valid reports whether v is a supported GWP version.
func (v GWPVersion) Valid() bool {
	_, ok := gwpTables[v]
	return ok
}

// GWP returns the warming potential of gas under version v.
func GWP(v GWPVersion, gas Gas) (float64, error) {
	table, ok := gwpTables[v]
	if !ok {
		return 0, fmt.Errorf("unsupported GWP version: %q", v)
	}
	factor, ok := table[gas]
	if !ok {
		return 0, fmt.Errorf("no GWP factor for gas %q in %s", gas, v)
	}
	return factor, nil
}

// CO2Equivalent converts a set of gas masses (kg) into a single kgCO2e
// figure by applying the GWP table for the selected version.
func CO2Equivalent(masses map[Gas]float64, v GWPVersion) (float64, error) {
	var total float64
	for gas, mass := range masses {
		factor, err := GWP(v, gas)
		if err != nil {
			return 0, err
		}
		total += mass * factor
	}
	return total, nil
}
