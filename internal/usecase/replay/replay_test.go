package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-tracker/internal/domain"
)

var base = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func buy(day int, qty, price, fees string) *domain.Transaction {
	return &domain.Transaction{
		ID:        domain.NewTransactionID(),
		Type:      domain.TransactionTypeBuy,
		Timestamp: base.AddDate(0, 0, day),
		Quantity:  nd(qty),
		Price:     nd(price),
		Fees:      d(fees),
	}
}

func sell(day int, qty, price string) *domain.Transaction {
	return &domain.Transaction{
		ID:        domain.NewTransactionID(),
		Type:      domain.TransactionTypeSell,
		Timestamp: base.AddDate(0, 0, day),
		Quantity:  nd(qty),
		Price:     nd(price),
	}
}

func manualValue(day int, value string) *domain.Transaction {
	return &domain.Transaction{
		ID:          domain.NewTransactionID(),
		Type:        domain.TransactionTypeManualValueUpdate,
		Timestamp:   base.AddDate(0, 0, day),
		ManualValue: nd(value),
	}
}

func TestFoldMarket_BuyBuySell(t *testing.T) {
	state, err := FoldMarket([]*domain.Transaction{
		buy(0, "10", "100", "5"),
		buy(1, "5", "120", "2"),
		sell(2, "3", "130"),
	})

	require.NoError(t, err)
	assert.True(t, state.Quantity.Equal(d("12")))
	assert.Equal(t, "107.1333", state.AvgCost.Round(4).String())
}

func TestFoldMarket_BuyOnlyAverageIsTotalCostOverQuantity(t *testing.T) {
	txs := []*domain.Transaction{
		buy(0, "3", "10", "1"),
		buy(1, "7", "20", "0.5"),
		buy(2, "10", "15", "0"),
	}

	state, err := FoldMarket(txs)

	require.NoError(t, err)
	// (30 + 1) + (140 + 0.5) + 150 = 321.5 over 20 shares
	assert.True(t, state.Quantity.Equal(d("20")))
	assert.True(t, state.AvgCost.Equal(d("16.075")))
}

func TestFoldMarket_NegativePriceBasisAdjustment(t *testing.T) {
	state, err := FoldMarket([]*domain.Transaction{
		buy(0, "0.5", "-1000", "0"),
		buy(1, "0.5", "500", "0"),
	})

	require.NoError(t, err)
	assert.True(t, state.Quantity.Equal(d("1")))
	assert.True(t, state.AvgCost.Equal(d("-250")))
}

func TestFoldMarket_SellToZeroResetsAverage(t *testing.T) {
	state, err := FoldMarket([]*domain.Transaction{
		buy(0, "1", "3", "0"),
		buy(1, "2", "7", "0.1"),
		sell(2, "2.9999999999", "10"), // within tolerance of the 3 held
	})

	require.NoError(t, err)
	assert.True(t, state.Quantity.IsZero())
	assert.True(t, state.AvgCost.IsZero())
}

func TestStepMarket_Rejections(t *testing.T) {
	held := MarketState{Quantity: d("5"), AvgCost: d("10")}

	tests := []struct {
		name   string
		tx     *domain.Transaction
		errMsg string
	}{
		{
			name:   "oversell beyond tolerance",
			tx:     sell(0, "5.00000001", "10"),
			errMsg: "Cannot sell more than currently held quantity",
		},
		{
			name:   "zero quantity buy",
			tx:     buy(0, "0", "10", "0"),
			errMsg: "BUY quantity must be positive",
		},
		{
			name:   "negative quantity sell",
			tx:     sell(0, "-1", "10"),
			errMsg: "SELL quantity must be positive",
		},
		{
			name:   "zero price sell",
			tx:     sell(0, "1", "0"),
			errMsg: "SELL price must be positive",
		},
		{
			name:   "manual value on market asset",
			tx:     manualValue(0, "100"),
			errMsg: "do not support MANUAL_VALUE_UPDATE",
		},
		{
			name:   "negative fees",
			tx:     buy(0, "1", "10", "-1"),
			errMsg: "fees cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := StepMarket(held, tt.tx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransaction))
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, held, next)
		})
	}
}

func TestStepMarket_SellExactlyHeldSucceeds(t *testing.T) {
	next, err := StepMarket(MarketState{Quantity: d("5"), AvgCost: d("10")}, sell(0, "5.0000000005", "11"))

	require.NoError(t, err)
	assert.True(t, next.Quantity.IsZero())
	assert.True(t, next.AvgCost.IsZero())
}

func TestFoldMarket_SortsBeforeReplay(t *testing.T) {
	// the SELL is passed first but happens after the BUY
	state, err := FoldMarket([]*domain.Transaction{
		sell(1, "4", "12"),
		buy(0, "10", "10", "0"),
	})

	require.NoError(t, err)
	assert.True(t, state.Quantity.Equal(d("6")))
}

func TestFoldMarket_TimestampTieUsesIdentity(t *testing.T) {
	first := buy(0, "1", "10", "0")
	second := sell(0, "1", "10")
	first.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	second.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	_, err := FoldMarket([]*domain.Transaction{second, first})
	assert.NoError(t, err)

	// swapping identities puts the SELL first
	first.ID, second.ID = second.ID, first.ID
	_, err = FoldMarket([]*domain.Transaction{second, first})
	assert.Error(t, err)
}

func TestFoldManual_SellReducesInvestedAtAverageCost(t *testing.T) {
	state, err := FoldManual([]*domain.Transaction{
		buy(0, "100000", "1", "0"),
		manualValue(1, "100000"),
		sell(2, "20000", "20000"),
		manualValue(3, "80000"),
	})

	require.NoError(t, err)
	assert.True(t, state.CurrentValue().Equal(d("80000")))
	assert.True(t, state.Invested.Equal(d("80000")))
	pnl := state.UnrealizedPnL()
	require.True(t, pnl.Valid)
	assert.True(t, pnl.Decimal.IsZero())
}

func TestFoldManual_NoInvestmentReportsNoPnL(t *testing.T) {
	state, err := FoldManual([]*domain.Transaction{manualValue(0, "5000")})

	require.NoError(t, err)
	assert.True(t, state.CurrentValue().Equal(d("5000")))
	assert.False(t, state.UnrealizedPnL().Valid)
	assert.Equal(t, base, state.LatestValueAt)
}

func TestFoldManual_NoValueYet(t *testing.T) {
	state, err := FoldManual([]*domain.Transaction{buy(0, "6500", "1", "0")})

	require.NoError(t, err)
	assert.True(t, state.CurrentValue().IsZero())
	assert.True(t, state.UnrealizedPnL().Decimal.Equal(d("-6500")))
}

func TestFoldManual_InvestedOverrideResetsSyntheticHolding(t *testing.T) {
	override := manualValue(1, "12000")
	override.InvestedOverride = nd("9000")

	state, err := FoldManual([]*domain.Transaction{
		buy(0, "10", "500", "0"),
		override,
	})
	require.NoError(t, err)
	assert.True(t, state.Invested.Equal(d("9000")))
	assert.True(t, state.Held.Equal(d("9000")))
	assert.True(t, state.AvgCost.Equal(d("1")))

	// the reset holding is what a later SELL draws from
	next, err := StepManual(state, sell(2, "3000", "0"))
	require.NoError(t, err)
	assert.True(t, next.Invested.Equal(d("6000")))
}

func TestStepManual_Rejections(t *testing.T) {
	held := ManualState{Invested: d("100"), Held: d("100"), AvgCost: d("1")}
	negOverride := manualValue(0, "10")
	negOverride.InvestedOverride = nd("-1")

	tests := []struct {
		name   string
		tx     *domain.Transaction
		errMsg string
	}{
		{name: "oversell", tx: sell(0, "101", "1"), errMsg: "Cannot sell more"},
		{name: "negative buy price", tx: buy(0, "1", "-1", "0"), errMsg: "cannot be negative"},
		{name: "negative value", tx: manualValue(0, "-5"), errMsg: "Manual value cannot be negative"},
		{name: "negative override", tx: negOverride, errMsg: "Invested override cannot be negative"},
		{name: "zero quantity sell", tx: sell(0, "0", "1"), errMsg: "SELL quantity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StepManual(held, tt.tx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransaction))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestStepManual_SellAllClearsBasis(t *testing.T) {
	next, err := StepManual(ManualState{Invested: d("100"), Held: d("100"), AvgCost: d("1")}, sell(0, "100", "0"))

	require.NoError(t, err)
	assert.True(t, next.Invested.IsZero())
	assert.True(t, next.Held.IsZero())
	assert.False(t, next.UnrealizedPnL().Valid)
}

func TestReplay_DispatchAndValue(t *testing.T) {
	market, err := Replay(domain.AssetTypeMarket, []*domain.Transaction{buy(0, "10", "100", "5")})
	require.NoError(t, err)

	priced := market.Value(nd("120"))
	assert.True(t, priced.CurrentValue.Equal(d("1200")))
	assert.True(t, priced.UnrealizedPnL.Decimal.Equal(d("195")))

	unpriced := market.Value(decimal.NullDecimal{})
	assert.True(t, unpriced.CurrentValue.IsZero())
	assert.False(t, unpriced.UnrealizedPnL.Valid)

	manual, err := Replay(domain.AssetTypeManual, []*domain.Transaction{
		manualValue(0, "7000"),
		buy(0, "6500", "1", "0"),
	})
	require.NoError(t, err)
	valued := manual.Value(nd("1"))
	assert.True(t, valued.CurrentValue.Equal(d("7000")))
	assert.True(t, valued.UnrealizedPnL.Decimal.Equal(d("500")))
}

func TestValidate_IsDeterministic(t *testing.T) {
	history := []*domain.Transaction{
		buy(0, "1", "10", "0"),
		sell(1, "2", "10"),
	}

	first := Validate(domain.AssetTypeMarket, history)
	second := Validate(domain.AssetTypeMarket, history)

	assert.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())
	assert.NoError(t, Validate(domain.AssetTypeManual, history[:1]))
}
