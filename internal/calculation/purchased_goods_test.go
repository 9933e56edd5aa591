package calculation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/factortrace/factortrace/internal/emissions"
)

func TestPurchasedGoodsTransportLoading(t *testing.T) {
	f := newEngineFixture(t)
	f.saveFactor(t, &emissions.EmissionFactor{
		Category: emissions.CategoryPurchasedGoods,
		Value:    decimal.NewFromFloat(2.5),
		Unit:     "kgCO2e/kg",
		Source:   emissions.SourceEPA,
		Year:     2024,
	})

	activity := purchasedGoodsActivity(1000, map[string]any{
		extSupplierCountry:   "CN",
		extTransportDistance: 5000.0,
	})

	result, err := f.engine.Calculate(context.Background(), emissions.CategoryPurchasedGoods,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	// 1000 x (1 + 5000 x 0.08) x 2.5 = 1,002,500
	assert.True(t, result.Emissions.Value.Equal(decimal.NewFromInt(1002500)),
		"got %s", result.Emissions.Value)
}

func TestPurchasedGoodsUnknownCountryUsesDefaultMultiplier(t *testing.T) {
	f := newEngineFixture(t)
	f.saveFactor(t, &emissions.EmissionFactor{
		Category: emissions.CategoryPurchasedGoods,
		Value:    decimal.NewFromFloat(2.5),
		Unit:     "kgCO2e/kg",
		Source:   emissions.SourceEPA,
		Year:     2024,
	})

	activity := purchasedGoodsActivity(1000, map[string]any{
		extSupplierCountry:   "ZA",
		extTransportDistance: 100.0,
	})

	result, err := f.engine.Calculate(context.Background(), emissions.CategoryPurchasedGoods,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	// 1000 x (1 + 100 x 0.06) x 2.5 = 17,500
	assert.True(t, result.Emissions.Value.Equal(decimal.NewFromInt(17500)),
		"got %s", result.Emissions.Value)
}

func TestPurchasedGoodsNoDistanceNoLoading(t *testing.T) {
	f := newEngineFixture(t)
	f.saveFactor(t, &emissions.EmissionFactor{
		Category: emissions.CategoryPurchasedGoods,
		Value:    decimal.NewFromFloat(2.5),
		Unit:     "kgCO2e/kg",
		Source:   emissions.SourceEPA,
		Year:     2024,
	})

	activity := purchasedGoodsActivity(1000, nil)
	result, err := f.engine.Calculate(context.Background(), emissions.CategoryPurchasedGoods,
		[]emissions.ActivityData{activity}, emissions.DefaultParameters())
	require.NoError(t, err)

	assert.True(t, result.Emissions.Value.Equal(decimal.NewFromInt(2500)))
}

func TestPurchasedGoodsNegativeDistanceRejected(t *testing.T) {
	calc := NewPurchasedGoodsCalculator(nil, zap.NewNop())
	activity := purchasedGoodsActivity(1000, map[string]any{
		extTransportDistance: -10.0,
	})

	violations := calc.ValidateData([]emissions.ActivityData{activity}, nil)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], extTransportDistance)
}

func TestPurchasedGoodsSourceBreakdownByDescription(t *testing.T) {
	f := newEngineFixture(t)
	f.saveFactor(t, &emissions.EmissionFactor{
		Category: emissions.CategoryPurchasedGoods,
		Value:    decimal.NewFromFloat(1),
		Unit:     "kgCO2e/kg",
		Source:   emissions.SourceEPA,
		Year:     2024,
	})

	steel := purchasedGoodsActivity(100, map[string]any{extProductDescription: "steel"})
	cement := purchasedGoodsActivity(200, map[string]any{extProductDescription: "cement"})

	result, err := f.engine.Calculate(context.Background(), emissions.CategoryPurchasedGoods,
		[]emissions.ActivityData{steel, cement}, emissions.DefaultParameters())
	require.NoError(t, err)

	require.Len(t, result.EmissionsBySource, 2)
	assert.True(t, result.EmissionsBySource["steel"].Value.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.EmissionsBySource["cement"].Value.Equal(decimal.NewFromInt(200)))
}
