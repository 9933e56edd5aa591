package factors

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/factortrace/factortrace/internal/emissions"
)

func cachedFactor() *emissions.EmissionFactor {
	return &emissions.EmissionFactor{
		ID:       uuid.New(),
		Category: emissions.CategoryWaste,
		Value:    decimal.NewFromFloat(1.5),
		Unit:     "kgCO2e/kg",
		Year:     2024,
	}
}

func TestCacheHitAndMiss(t *testing.T) {
	c := newFactorCache(time.Minute)
	defer c.stop()

	key := cacheKey(emissions.CategoryWaste, "US", 2024)
	assert.Nil(t, c.get(key))

	factor := cachedFactor()
	c.set(key, factor)
	got := c.get(key)
	assert.NotNil(t, got)
	assert.Equal(t, factor.ID, got.ID)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newFactorCache(10 * time.Millisecond)
	defer c.stop()

	key := cacheKey(emissions.CategoryWaste, "US", 2024)
	c.set(key, cachedFactor())
	assert.NotNil(t, c.get(key))

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.get(key))
}

func TestCacheGenerationInvalidation(t *testing.T) {
	c := newFactorCache(time.Minute)
	defer c.stop()

	key := cacheKey(emissions.CategoryWaste, "US", 2024)
	c.set(key, cachedFactor())
	assert.NotNil(t, c.get(key))

	c.invalidateAll()
	assert.Nil(t, c.get(key), "entries from an older generation must not be served")

	// New generation entries are served again.
	c.set(key, cachedFactor())
	assert.NotNil(t, c.get(key))
}

func TestCacheRemoveExpired(t *testing.T) {
	c := newFactorCache(5 * time.Millisecond)
	defer c.stop()

	c.set(cacheKey(emissions.CategoryWaste, "US", 2024), cachedFactor())
	c.set(cacheKey(emissions.CategoryWaste, "EU", 2024), cachedFactor())
	assert.Equal(t, 2, c.size())

	time.Sleep(10 * time.Millisecond)
	c.removeExpired()
	assert.Equal(t, 0, c.size())
}
