package allocator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumPercentages(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, share := range shares {
		total = total.Add(share.Percentage)
	}
	return total
}

func TestCalculatePercentages_MarketAndManualGroups(t *testing.T) {
	// stonks = 300 (market), real estate = 700 (manual)
	shares := CalculatePercentages([]Slice{
		{Key: "stonks", Label: "stonks", Value: decimal.NewFromInt(300)},
		{Key: "real estate", Label: "real estate", Value: decimal.NewFromInt(700)},
	})

	require.Len(t, shares, 2)
	assert.True(t, shares[0].Percentage.Equal(decimal.NewFromInt(30)), "stonks should be 30 percent")
	assert.True(t, shares[1].Percentage.Equal(decimal.NewFromInt(70)), "real estate should be 70 percent")
	assert.True(t, sumPercentages(shares).Equal(decimal.NewFromInt(100)))
}

func TestCalculatePercentages_RepeatingFractionsSumToHundred(t *testing.T) {
	shares := CalculatePercentages([]Slice{
		{Key: "a", Value: decimal.NewFromInt(1)},
		{Key: "b", Value: decimal.NewFromInt(1)},
		{Key: "c", Value: decimal.NewFromInt(1)},
	})

	// Verify total equals 100 exactly; the leftover cent goes to the first of the tied largest slices
	assert.True(t, sumPercentages(shares).Equal(decimal.NewFromInt(100)), "got %s", sumPercentages(shares))
	assert.Equal(t, []string{"33.34", "33.33", "33.33"}, []string{
		shares[0].Percentage.String(), shares[1].Percentage.String(), shares[2].Percentage.String(),
	})
}

func TestCalculatePercentages_RoundsToTwoPlaces(t *testing.T) {
	shares := CalculatePercentages([]Slice{
		{Key: "a", Value: decimal.NewFromInt(100)},
		{Key: "b", Value: decimal.NewFromInt(200)},
		{Key: "c", Value: decimal.NewFromInt(300)},
	})

	require.Len(t, shares, 3)
	assert.Equal(t, "16.67", shares[0].Percentage.String())
	assert.Equal(t, "33.33", shares[1].Percentage.String())
	assert.Equal(t, "50", shares[2].Percentage.String())
	assert.True(t, sumPercentages(shares).Equal(decimal.NewFromInt(100)))
}

func TestCalculatePercentages_ZeroTotal(t *testing.T) {
	shares := CalculatePercentages([]Slice{
		{Key: "a", Value: decimal.Zero},
		{Key: "b", Value: decimal.Zero},
	})

	require.Len(t, shares, 2)
	for _, share := range shares {
		assert.True(t, share.Percentage.IsZero())
	}
}

func TestCalculatePercentages_Empty(t *testing.T) {
	assert.Empty(t, CalculatePercentages(nil))
}

func TestCalculatePercentages_PreservesInput(t *testing.T) {
	slices := []Slice{
		{Key: "x", Label: "X", Value: decimal.RequireFromString("12.5")},
		{Key: "y", Label: "Y", Value: decimal.RequireFromString("37.5")},
	}

	shares := CalculatePercentages(slices)

	assert.Equal(t, "X", shares[0].Label)
	assert.True(t, shares[0].Value.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, shares[0].Percentage.Equal(decimal.NewFromInt(25)))
	assert.True(t, shares[1].Percentage.Equal(decimal.NewFromInt(75)))
}

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []decimal.Decimal
		want    []string
	}{
		{
			name:    "whole number weights",
			weights: []decimal.Decimal{decimal.NewFromInt(20), decimal.NewFromInt(80)},
			want:    []string{"0.2", "0.8"},
		},
		{
			name:    "already normalized",
			weights: []decimal.Decimal{decimal.RequireFromString("0.5"), decimal.RequireFromString("0.5")},
			want:    []string{"0.5", "0.5"},
		},
		{
			name:    "zero weight member keeps zero",
			weights: []decimal.Decimal{decimal.NewFromInt(3), decimal.Zero},
			want:    []string{"1", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWeights(tt.weights)
			require.Len(t, got, len(tt.want))
			for i, want := range tt.want {
				assert.True(t, got[i].Equal(decimal.RequireFromString(want)), "weight %d: got %s want %s", i, got[i], want)
			}
		})
	}
}

func TestNormalizeWeights_NonPositiveTotal(t *testing.T) {
	assert.Nil(t, NormalizeWeights([]decimal.Decimal{decimal.Zero, decimal.Zero}))
	assert.Nil(t, NormalizeWeights(nil))
}

func TestNormalizeWeights_ThirdsSumToOne(t *testing.T) {
	got := NormalizeWeights([]decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(1)})

	total := decimal.Zero
	for _, w := range got {
		total = total.Add(w)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(1)))
}

func TestSortByValue(t *testing.T) {
	sorted := SortByValue([]Share{
		{Label: "b", Value: decimal.NewFromInt(5)},
		{Label: "a", Value: decimal.NewFromInt(5)},
		{Label: "c", Value: decimal.NewFromInt(9)},
	})

	assert.Equal(t, []string{"c", "a", "b"}, []string{sorted[0].Label, sorted[1].Label, sorted[2].Label})
}
