package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// QuoteStatus is the polling answer for one symbol; an unavailable price is reported stale
type QuoteStatus struct {
	Symbol  string
	Price   decimal.NullDecimal
	AsOf    time.Time
	Stale   bool
	Warning string
}

// PollQuotes resolves the requested symbols that belong to active MARKET assets of the portfolio.
// Other symbols are silently dropped.
func (s *DashboardService) PollQuotes(ctx context.Context, portfolioID uuid.UUID, requested []string) ([]QuoteStatus, error) {
	assets, err := s.AssetRepo.List(ctx, portfolioID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	allowed := make(map[string]bool, len(assets))
	for _, asset := range assets {
		if asset.AssetType == domain.AssetTypeMarket {
			allowed[asset.Symbol] = true
		}
	}

	wanted := make(map[string]bool)
	for _, raw := range requested {
		symbol := domain.NormalizeSymbol(raw)
		if symbol != "" && allowed[symbol] {
			wanted[symbol] = true
		}
	}
	symbols := make([]string, 0, len(wanted))
	for symbol := range wanted {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	statuses := make([]QuoteStatus, 0, len(symbols))
	for _, symbol := range symbols {
		quote := s.Pricer.GetQuote(ctx, symbol)
		if quote == nil {
			statuses = append(statuses, QuoteStatus{Symbol: symbol, Stale: true})
			continue
		}
		statuses = append(statuses, QuoteStatus{
			Symbol:  symbol,
			Price:   decimal.NewNullDecimal(quote.Price),
			AsOf:    quote.FetchedAt,
			Stale:   quote.Stale,
			Warning: quote.Warning,
		})
	}
	return statuses, nil
}

// SplitSymbols splits a comma-separated symbol list
func SplitSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if symbol := domain.NormalizeSymbol(part); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}
