package emissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGWPTables(t *testing.T) {
	tests := []struct {
		version GWPVersion
		gas     Gas
		want    float64
	}{
		{GWPAR6, GasCO2, 1},
		{GWPAR6, GasCH4, 27.9},
		{GWPAR6, GasN2O, 273},
		{GWPAR5, GasCH4, 28},
		{GWPAR4, GasN2O, 298},
	}

	for _, tt := range tests {
		got, err := GWP(tt.version, tt.gas)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.version, tt.gas)
	}
}

func TestGWPUnsupportedVersion(t *testing.T) {
	_, err := GWP(GWPVersion("AR9"), GasCO2)
	assert.Error(t, err)
}

func TestCO2Equivalent(t *testing.T) {
	masses := map[Gas]float64{
		GasCO2: 100,
		GasCH4: 2,
		GasN2O: 0.5,
	}

	got, err := CO2Equivalent(masses, GWPAR6)
	require.NoError(t, err)
	assert.InDelta(t, 100+2*27.9+0.5*273, got, 1e-9)
}

func TestCO2EquivalentUnknownGas(t *testing.T) {
	_, err := CO2Equivalent(map[Gas]float64{Gas("HFC-000"): 1}, GWPAR6)
	assert.Error(t, err)
}
