package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteCacheEntry is the last known price of one symbol and when it was fetched
type QuoteCacheEntry struct {
	Symbol    string
	Price     decimal.Decimal
	FetchedAt time.Time
}

// Quote is the pricing gateway's answer for one symbol
// Stale is set when the price comes from an expired cache row because the live fetch failed.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	FetchedAt time.Time
	Stale     bool
	Warning   string
}

// HistoricalPoint is one daily close; Date is a canonical calendar day (see Day)
type HistoricalPoint struct {
	Date  time.Time
	Close decimal.Decimal
}
