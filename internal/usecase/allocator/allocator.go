package allocator

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentagePlaces is the precision percentages are reported with
const PercentagePlaces = 2

// Slice is one labelled value entering an allocation breakdown
type Slice struct {
	Key   string
	Label string
	Value decimal.Decimal
}

// Share is a slice with its percentage of the total
type Share struct {
	Key        string
	Label      string
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

// CalculatePercentages computes each slice's share of the summed value
// Logic:
//  1. Sum all slice values
//  2. If the total is <= 0, every percentage is 0
//  3. Otherwise percentage = value / total * 100, rounded to PercentagePlaces
//  4. Assign the rounding leftover to the largest slice
//
// Safety: Ensures percentages sum to exactly 100 (no fraction lost) when the total is positive
func CalculatePercentages(slices []Slice) []Share {
	shares := make([]Share, len(slices))
	total := decimal.Zero
	for i, slice := range slices {
		shares[i] = Share{Key: slice.Key, Label: slice.Label, Value: slice.Value, Percentage: decimal.Zero}
		total = total.Add(slice.Value)
	}

	if total.LessThanOrEqual(decimal.Zero) {
		return shares
	}

	allocated := decimal.Zero
	largest := 0
	for i := range shares {
		shares[i].Percentage = shares[i].Value.Mul(hundred).Div(total).Round(PercentagePlaces)
		allocated = allocated.Add(shares[i].Percentage)
		if shares[i].Value.GreaterThan(shares[largest].Value) {
			largest = i
		}
	}

	// Step 4: Division is rounded, push the leftover into the largest slice
	shares[largest].Percentage = shares[largest].Percentage.Add(hundred.Sub(allocated))

	return shares
}

// NormalizeWeights scales weights so they sum to 1.
// Returns nil when the weights do not sum to a positive number.
func NormalizeWeights(weights []decimal.Decimal) []decimal.Decimal {
	total := decimal.Zero
	for _, weight := range weights {
		total = total.Add(weight)
	}
	if !total.IsPositive() {
		return nil
	}

	normalized := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	largest := 0
	for i, weight := range weights {
		normalized[i] = weight.Div(total)
		allocated = allocated.Add(normalized[i])
		if weight.GreaterThan(weights[largest]) {
			largest = i
		}
	}
	normalized[largest] = normalized[largest].Add(decimal.NewFromInt(1).Sub(allocated))

	return normalized
}

// SortByValue orders shares by value descending, then label, for chart legends
func SortByValue(shares []Share) []Share {
	sorted := make([]Share, len(shares))
	copy(sorted, shares)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Value.Equal(sorted[j].Value) {
			return sorted[i].Value.GreaterThan(sorted[j].Value)
		}
		return sorted[i].Label < sorted[j].Label
	})
	return sorted
}
