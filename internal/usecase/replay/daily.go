package replay

import (
	"time"

	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// EndOfDay returns the position held at the end of each day.
// days must be ascending calendar days (see domain.Day); a transaction belongs to the day its
// timestamp falls on in loc.
func EndOfDay(assetType domain.AssetType, txs []*domain.Transaction, days []time.Time, loc *time.Location) ([]Position, error) {
	sorted := domain.SortTransactions(txs)
	positions := make([]Position, len(days))

	switch assetType {
	case domain.AssetTypeMarket:
		state := MarketState{}
		next := 0
		for i, day := range days {
			for ; next < len(sorted) && !domain.DayOf(sorted[next].Timestamp, loc).After(day); next++ {
				stepped, err := StepMarket(state, sorted[next])
				if err != nil {
					return nil, err
				}
				state = stepped
			}
			positions[i] = MarketPosition(state)
		}
	case domain.AssetTypeManual:
		state := ManualState{}
		next := 0
		for i, day := range days {
			for ; next < len(sorted) && !domain.DayOf(sorted[next].Timestamp, loc).After(day); next++ {
				stepped, err := StepManual(state, sorted[next])
				if err != nil {
					return nil, err
				}
				state = stepped
			}
			positions[i] = ManualPosition(state)
		}
	default:
		return nil, domain.InvalidInputf("unsupported asset type: %s", assetType)
	}

	return positions, nil
}
