package timeseries

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/replay"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultHistoryLookback is how far before a range closes are fetched so the first days can be forward-filled
	DefaultHistoryLookback = 7
	// DefaultAssetHistoryDays is the window of the per-asset close chart
	DefaultAssetHistoryDays = 120
)

// HistoryProvider serves best-effort daily closes; failures yield no points
type HistoryProvider interface {
	GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) []domain.HistoricalPoint
}

// TimeSeriesService handles chart series reconstruction
type TimeSeriesService struct {
	AssetRepo        domain.AssetRepository
	TransactionRepo  domain.TransactionRepository
	BasketRepo       domain.BasketRepository
	History          HistoryProvider
	Location         *time.Location
	HistoryLookback  int
	AssetHistoryDays int
	Now              func() time.Time
}

// NewTimeSeriesService creates a new TimeSeriesService instance
func NewTimeSeriesService(
	assetRepo domain.AssetRepository,
	transactionRepo domain.TransactionRepository,
	basketRepo domain.BasketRepository,
	history HistoryProvider,
	loc *time.Location,
) *TimeSeriesService {
	if loc == nil {
		loc = time.UTC
	}
	return &TimeSeriesService{
		AssetRepo:        assetRepo,
		TransactionRepo:  transactionRepo,
		BasketRepo:       basketRepo,
		History:          history,
		Location:         loc,
		HistoryLookback:  DefaultHistoryLookback,
		AssetHistoryDays: DefaultAssetHistoryDays,
		Now:              time.Now,
	}
}

// Today is the current calendar day in the reference zone
func (s *TimeSeriesService) Today() time.Time {
	return domain.DayOf(s.Now(), s.Location)
}

// assetDaily is the daily valuation of one asset over a range
type assetDaily struct {
	asset      *domain.Asset
	valuations []replay.Valuation
	// unpriced is set for a MARKET asset that is held in the range but has no close at all
	unpriced bool
}

// PortfolioSeries computes the daily total value of a portfolio
// Logic:
//   - MARKET: end-of-day quantity times the forward-filled close (0 before the first known close)
//   - MANUAL: the latest value update as of that day
//   - a range where every total is <= 0 is reported unavailable
func (s *TimeSeriesService) PortfolioSeries(ctx context.Context, portfolioID uuid.UUID, rng Range) (Series, error) {
	dailies, err := s.portfolioDailies(ctx, portfolioID, rng)
	if err != nil {
		return Series{}, err
	}

	days := rng.Days()
	totals := make([]decimal.Decimal, len(days))
	for i := range totals {
		totals[i] = decimal.Zero
	}
	var missing []string
	for _, daily := range dailies {
		if daily.unpriced {
			missing = append(missing, daily.asset.Symbol)
		}
		for i, valuation := range daily.valuations {
			totals[i] = totals[i].Add(valuation.CurrentValue)
		}
	}
	sort.Strings(missing)

	series := Series{MissingSymbols: missing}
	positive := false
	for i, day := range days {
		if totals[i].IsPositive() {
			positive = true
		}
		series.Points = append(series.Points, Point{Date: day, Value: totals[i]})
	}
	if !positive {
		series.Points = nil
		series.ErrorMessage = "No portfolio value in the selected range."
		if len(missing) > 0 {
			series.ErrorMessage = missingMessage(missing)
		}
	}

	return series, nil
}

// OverlayPnL computes one daily P&L line per standalone asset plus one merged line per basket.
// Basket members only appear through their basket. A day without a reported P&L counts as 0.
func (s *TimeSeriesService) OverlayPnL(ctx context.Context, portfolioID uuid.UUID, rng Range) (Overlay, error) {
	dailies, err := s.portfolioDailies(ctx, portfolioID, rng)
	if err != nil {
		return Overlay{}, err
	}
	baskets, err := s.BasketRepo.List(ctx, portfolioID)
	if err != nil {
		return Overlay{}, fmt.Errorf("failed to list baskets: %w", err)
	}

	days := rng.Days()
	byAsset := make(map[uuid.UUID]assetDaily, len(dailies))
	members := make(map[uuid.UUID]bool)
	for _, b := range baskets {
		for _, link := range b.Links {
			members[link.AssetID] = true
		}
	}

	overlay := Overlay{}
	for _, daily := range dailies {
		byAsset[daily.asset.ID] = daily
		if daily.unpriced {
			overlay.MissingSymbols = append(overlay.MissingSymbols, daily.asset.Symbol)
		}
		if members[daily.asset.ID] {
			continue
		}
		if points, ok := pnlPoints(days, daily); ok {
			overlay.Series = append(overlay.Series, LabeledSeries{Key: daily.asset.ID.String(), Label: daily.asset.Symbol, Points: points})
		}
	}

	for _, b := range baskets {
		merged := make([]Point, len(days))
		reported := false
		for i, day := range days {
			merged[i] = Point{Date: day, Value: decimal.Zero}
		}
		for _, link := range b.Links {
			daily, ok := byAsset[link.AssetID]
			if !ok {
				continue
			}
			points, ok := pnlPoints(days, daily)
			if !ok {
				continue
			}
			reported = true
			for i := range merged {
				merged[i].Value = merged[i].Value.Add(points[i].Value)
			}
		}
		if reported {
			overlay.Series = append(overlay.Series, LabeledSeries{Key: b.RowSymbol(), Label: b.Name, Points: merged})
		}
	}

	sort.SliceStable(overlay.Series, func(i, j int) bool {
		return strings.ToLower(overlay.Series[i].Label) < strings.ToLower(overlay.Series[j].Label)
	})
	sort.Strings(overlay.MissingSymbols)
	if len(overlay.Series) == 0 {
		overlay.ErrorMessage = "No P&L data in the selected range."
	}

	return overlay, nil
}

// pnlPoints converts daily valuations into P&L points; ok is false when no day reports a P&L
func pnlPoints(days []time.Time, daily assetDaily) ([]Point, bool) {
	points := make([]Point, len(days))
	reported := false
	for i, day := range days {
		value := decimal.Zero
		if pnl := daily.valuations[i].UnrealizedPnL; pnl.Valid {
			value = pnl.Decimal
			reported = true
		}
		points[i] = Point{Date: day, Value: value}
	}
	return points, reported
}

// portfolioDailies values every active asset of the portfolio over the range.
// An asset whose history no longer replays is logged and skipped.
func (s *TimeSeriesService) portfolioDailies(ctx context.Context, portfolioID uuid.UUID, rng Range) ([]assetDaily, error) {
	assets, err := s.AssetRepo.List(ctx, portfolioID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	txs, err := s.TransactionRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	txsByAsset := make(map[uuid.UUID][]*domain.Transaction)
	for _, tx := range txs {
		txsByAsset[tx.AssetID] = append(txsByAsset[tx.AssetID], tx)
	}

	days := rng.Days()
	dailies := make([]assetDaily, 0, len(assets))
	for _, asset := range assets {
		daily, err := s.valueAsset(ctx, asset, txsByAsset[asset.ID], days)
		if err != nil {
			logging.FromContext(ctx).WithFields(logrus.Fields{
				"asset_id": asset.ID,
				"symbol":   asset.Symbol,
			}).WithError(err).Warn("skipping asset in series reconstruction")
			continue
		}
		dailies = append(dailies, daily)
	}
	return dailies, nil
}

func (s *TimeSeriesService) valueAsset(ctx context.Context, asset *domain.Asset, txs []*domain.Transaction, days []time.Time) (assetDaily, error) {
	positions, err := replay.EndOfDay(asset.AssetType, txs, days, s.Location)
	if err != nil {
		return assetDaily{}, err
	}

	daily := assetDaily{asset: asset, valuations: make([]replay.Valuation, len(days))}
	if asset.AssetType == domain.AssetTypeManual {
		for i, pos := range positions {
			daily.valuations[i] = pos.Value(decimal.NullDecimal{})
		}
		return daily, nil
	}

	held := false
	for _, pos := range positions {
		if pos.Quantity.GreaterThan(replay.Epsilon) {
			held = true
			break
		}
	}
	if !held {
		for i := range daily.valuations {
			daily.valuations[i] = replay.Valuation{CurrentValue: decimal.Zero}
		}
		return daily, nil
	}

	// Fetch a little before the range so the first days are filled from the last earlier close
	start := days[0].AddDate(0, 0, -s.HistoryLookback)
	points := s.History.GetHistoricalDaily(ctx, asset.Symbol, start, days[len(days)-1])
	if len(points) == 0 {
		daily.unpriced = true
	}
	closes := ForwardFill(points, days)
	for i, pos := range positions {
		daily.valuations[i] = pos.Value(closes[i])
	}
	return daily, nil
}

// BasketIndex computes a basket's composite index over the range.
// Only days every member has a close for are used; each member is rebased to 100 on the first such
// day and the rebased closes are combined with the member weights.
func (s *TimeSeriesService) BasketIndex(ctx context.Context, basketID uuid.UUID, rng Range) (Series, error) {
	b, err := s.BasketRepo.GetByID(ctx, basketID)
	if err != nil {
		return Series{}, fmt.Errorf("failed to get basket: %w", err)
	}

	// 1. Live members and their held quantities
	type member struct {
		asset  *domain.Asset
		closes map[time.Time]decimal.Decimal
	}
	var links []domain.BasketLink
	var live []member
	held := make(map[uuid.UUID]decimal.Decimal)
	for _, link := range b.Links {
		asset, err := s.AssetRepo.GetByID(ctx, link.AssetID)
		if err != nil {
			return Series{}, fmt.Errorf("failed to get basket member: %w", err)
		}
		if asset.IsArchived || asset.AssetType != domain.AssetTypeMarket {
			continue
		}
		txs, err := s.TransactionRepo.ListByAsset(ctx, asset.ID)
		if err != nil {
			return Series{}, fmt.Errorf("failed to list transactions: %w", err)
		}
		pos, err := replay.Replay(asset.AssetType, txs)
		if err != nil {
			return Series{}, fmt.Errorf("failed to replay asset %s: %w", asset.Symbol, err)
		}
		held[asset.ID] = pos.Quantity
		links = append(links, link)
		live = append(live, member{asset: asset})
	}
	if len(live) == 0 {
		return Series{ErrorMessage: "Basket has no active members."}, nil
	}
	weights, _ := basket.MemberWeights(links, held)

	// 2. Histories; a member without any data fails the whole series
	var missing []string
	for i := range live {
		points := s.History.GetHistoricalDaily(ctx, live[i].asset.Symbol, rng.Start, rng.End)
		live[i].closes = make(map[time.Time]decimal.Decimal, len(points))
		for _, point := range points {
			live[i].closes[domain.Day(point.Date.Date())] = point.Close
		}
		if len(points) == 0 {
			missing = append(missing, live[i].asset.Symbol)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Series{MissingSymbols: missing, ErrorMessage: missingMessage(missing)}, nil
	}

	// 3. Strict intersection of member dates
	var common []time.Time
	for day := range live[0].closes {
		inAll := true
		for _, m := range live[1:] {
			if _, ok := m.closes[day]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, day)
		}
	}
	if len(common) == 0 {
		return Series{ErrorMessage: "Basket members have no common trading days in the selected range."}, nil
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	// 4. Rebase and combine
	var unusable []string
	for _, m := range live {
		if !m.closes[common[0]].IsPositive() {
			unusable = append(unusable, m.asset.Symbol)
		}
	}
	if len(unusable) > 0 {
		sort.Strings(unusable)
		return Series{MissingSymbols: unusable, ErrorMessage: missingMessage(unusable)}, nil
	}

	hundred := decimal.NewFromInt(100)
	series := Series{Points: make([]Point, 0, len(common))}
	for _, day := range common {
		value := decimal.Zero
		for i, m := range live {
			rebased := m.closes[day].Div(m.closes[common[0]]).Mul(hundred)
			value = value.Add(weights[i].Mul(rebased))
		}
		series.Points = append(series.Points, Point{Date: day, Value: value})
	}
	return series, nil
}

// AssetHistory returns the daily closes of a MARKET asset over the last AssetHistoryDays days
func (s *TimeSeriesService) AssetHistory(ctx context.Context, assetID uuid.UUID) (Series, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return Series{}, fmt.Errorf("failed to get asset: %w", err)
	}
	if asset.AssetType != domain.AssetTypeMarket {
		return Series{ErrorMessage: "Price history is only available for market assets."}, nil
	}

	rng := LastDays(s.Today(), s.AssetHistoryDays)
	points := s.History.GetHistoricalDaily(ctx, asset.Symbol, rng.Start, rng.End)
	if len(points) == 0 {
		missing := []string{asset.Symbol}
		return Series{MissingSymbols: missing, ErrorMessage: missingMessage(missing)}, nil
	}

	series := Series{Points: make([]Point, 0, len(points))}
	for _, point := range points {
		series.Points = append(series.Points, Point{Date: point.Date, Value: point.Close})
	}
	return series, nil
}
