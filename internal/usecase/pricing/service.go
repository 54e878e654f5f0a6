package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/sirupsen/logrus"
)

// PricingService resolves symbols to prices through a time-boxed cache in front of the quote source
type PricingService struct {
	CacheRepo domain.QuoteCacheRepository
	Source    domain.QuoteSource
	TTL       time.Duration
	Aliases   map[string]string // asset symbol -> provider symbol
	Now       func() time.Time
}

// NewPricingService creates a new PricingService instance
func NewPricingService(
	cacheRepo domain.QuoteCacheRepository,
	source domain.QuoteSource,
	ttl time.Duration,
	aliases map[string]string,
) *PricingService {
	return &PricingService{
		CacheRepo: cacheRepo,
		Source:    source,
		TTL:       ttl,
		Aliases:   aliases,
		Now:       time.Now,
	}
}

// ProviderSymbol maps an asset symbol to the symbol the quote source knows it by
func (s *PricingService) ProviderSymbol(symbol string) string {
	clean := domain.NormalizeSymbol(symbol)
	if alias, ok := s.Aliases[clean]; ok {
		return alias
	}
	return clean
}

// GetQuote returns the price of symbol, or nil when no price is available.
// Logic:
//   - Cache entry younger than TTL: return it, not stale
//   - Otherwise fetch from the source; on success upsert the cache and return the fresh price
//   - Source failure: return the cached entry marked stale with a warning, or nil without one
//   - Cache write failure: same fallback as a source failure; the write error is only logged
//
// GetQuote never returns an error: pricing problems surface as staleness, never as failures.
func (s *PricingService) GetQuote(ctx context.Context, symbol string) *domain.Quote {
	clean := domain.NormalizeSymbol(symbol)
	log := logging.FromContext(ctx).WithField("symbol", clean)
	now := s.Now().UTC()

	cached, err := s.CacheRepo.Get(ctx, clean)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.WithError(err).Warn("quote cache read failed")
		}
		cached = nil
	}

	if cached != nil && now.Sub(cached.FetchedAt) <= s.TTL {
		return &domain.Quote{Symbol: clean, Price: cached.Price, FetchedAt: cached.FetchedAt.UTC()}
	}

	price, fetchedAt, err := s.Source.LatestQuote(ctx, s.ProviderSymbol(clean))
	if err != nil {
		log.WithError(err).Warn("quote source failed")
		return staleOrUnavailable(clean, cached, fmt.Sprintf("Using cached quote due to provider issue: %v", err))
	}
	if fetchedAt.IsZero() {
		fetchedAt = now
	}

	fresh := &domain.QuoteCacheEntry{Symbol: clean, Price: price, FetchedAt: fetchedAt.UTC()}
	if err := s.CacheRepo.Upsert(ctx, fresh); err != nil {
		log.WithFields(logrus.Fields{"price": price.String()}).WithError(err).Warn("quote cache write failed")
		return staleOrUnavailable(clean, cached, fmt.Sprintf("Using cached quote due to cache write issue: %v", err))
	}

	return &domain.Quote{Symbol: clean, Price: fresh.Price, FetchedAt: fresh.FetchedAt}
}

func staleOrUnavailable(symbol string, cached *domain.QuoteCacheEntry, warning string) *domain.Quote {
	if cached == nil {
		return nil
	}
	return &domain.Quote{
		Symbol:    symbol,
		Price:     cached.Price,
		FetchedAt: cached.FetchedAt.UTC(),
		Stale:     true,
		Warning:   warning,
	}
}

// GetHistoricalDaily returns daily closes in [start, end] ordered by date.
// Lookups are best-effort: any source failure yields an empty result.
func (s *PricingService) GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) []domain.HistoricalPoint {
	clean := domain.NormalizeSymbol(symbol)
	points, err := s.Source.HistoricalDaily(ctx, s.ProviderSymbol(clean), start, end)
	if err != nil {
		logging.FromContext(ctx).WithField("symbol", clean).WithError(err).Warn("historical quotes unavailable")
		return nil
	}

	byDay := make(map[time.Time]domain.HistoricalPoint, len(points))
	for _, point := range points {
		day := domain.Day(point.Date.Date())
		if day.Before(domain.Day(start.Date())) || day.After(domain.Day(end.Date())) {
			continue
		}
		byDay[day] = domain.HistoricalPoint{Date: day, Close: point.Close}
	}

	ordered := make([]domain.HistoricalPoint, 0, len(byDay))
	for _, point := range byDay {
		ordered = append(ordered, point)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })
	return ordered
}
