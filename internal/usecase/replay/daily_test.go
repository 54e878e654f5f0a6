package replay

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-tracker/internal/domain"
)

func TestEndOfDay_Market(t *testing.T) {
	days := domain.DaysBetween(domain.Day(2025, 1, 1), domain.Day(2025, 1, 4))
	txs := []*domain.Transaction{
		sell(2, "4", "130"),
		buy(0, "10", "100", "0"),
	}

	positions, err := EndOfDay(domain.AssetTypeMarket, txs, days, time.UTC)

	require.NoError(t, err)
	require.Len(t, positions, 4)
	assert.True(t, positions[0].Quantity.Equal(d("10")))
	assert.True(t, positions[1].Quantity.Equal(d("10")))
	assert.True(t, positions[2].Quantity.Equal(d("6")))
	assert.True(t, positions[3].AvgCost.Equal(d("100")))
}

func TestEndOfDay_BeforeFirstTransaction(t *testing.T) {
	days := domain.DaysBetween(domain.Day(2024, 12, 30), domain.Day(2024, 12, 31))

	positions, err := EndOfDay(domain.AssetTypeMarket, []*domain.Transaction{buy(0, "1", "10", "0")}, days, time.UTC)

	require.NoError(t, err)
	assert.True(t, positions[0].Quantity.IsZero())
	assert.True(t, positions[1].Quantity.IsZero())
}

func TestEndOfDay_ReferenceZoneDecidesTheDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	days := domain.DaysBetween(domain.Day(2025, 1, 1), domain.Day(2025, 1, 2))
	// 2025-01-01 20:00 UTC is already 2025-01-02 in Tokyo
	late := buy(0, "1", "10", "0")
	late.Timestamp = time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)

	utc, err := EndOfDay(domain.AssetTypeMarket, []*domain.Transaction{late}, days, time.UTC)
	require.NoError(t, err)
	jst, err := EndOfDay(domain.AssetTypeMarket, []*domain.Transaction{late}, days, tokyo)
	require.NoError(t, err)

	assert.True(t, utc[0].Quantity.Equal(d("1")))
	assert.True(t, jst[0].Quantity.IsZero())
	assert.True(t, jst[1].Quantity.Equal(d("1")))
}

func TestEndOfDay_ManualSteps(t *testing.T) {
	days := domain.DaysBetween(domain.Day(2025, 1, 1), domain.Day(2025, 1, 5))
	txs := []*domain.Transaction{
		buy(0, "1000", "1", "0"),
		manualValue(1, "1100"),
		manualValue(3, "900"),
	}

	positions, err := EndOfDay(domain.AssetTypeManual, txs, days, time.UTC)

	require.NoError(t, err)
	values := make([]string, len(positions))
	for i, pos := range positions {
		values[i] = pos.Value(decimal.NullDecimal{}).CurrentValue.String()
	}
	assert.Equal(t, []string{"0", "1100", "1100", "900", "900"}, values)
	assert.True(t, positions[4].Invested.Equal(d("1000")))
}

func TestEndOfDay_RejectsInvalidHistory(t *testing.T) {
	days := domain.DaysBetween(domain.Day(2025, 1, 1), domain.Day(2025, 1, 3))

	_, err := EndOfDay(domain.AssetTypeMarket, []*domain.Transaction{sell(1, "1", "10")}, days, time.UTC)

	assert.ErrorIs(t, err, domain.ErrInvalidTransaction)
}
