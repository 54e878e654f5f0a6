// Package view renders usecase results as plain maps shared by the HTTP (JSON) and gRPC (structpb)
// transports. Every value is a string, bool, number, nil, []any or map[string]any.
package view

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/usecase/allocator"
	"github.com/simaogato/portfolio-tracker/internal/usecase/dashboard"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
	"github.com/simaogato/portfolio-tracker/internal/usecase/timeseries"
)

// Decimal renders a number as its exact decimal string
func Decimal(d decimal.Decimal) any {
	return d.String()
}

// NullDecimal renders an optional number; absent is nil
func NullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// Time renders an instant as RFC 3339; the zero time is nil
func Time(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func list[T any](items []T, render func(T) map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, render(item))
	}
	return out
}

func stringList(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func Group(g *domain.Group) map[string]any {
	return map[string]any{
		"id":           g.ID.String(),
		"portfolio_id": g.PortfolioID.String(),
		"name":         g.Name,
	}
}

func Groups(groups []*domain.Group) []any { return list(groups, Group) }

func Asset(a *domain.Asset) map[string]any {
	return map[string]any{
		"id":           a.ID.String(),
		"portfolio_id": a.PortfolioID.String(),
		"group_id":     a.GroupID.String(),
		"symbol":       a.Symbol,
		"name":         a.Name,
		"asset_type":   string(a.AssetType),
		"is_archived":  a.IsArchived,
		"created_at":   Time(a.CreatedAt),
	}
}

func Assets(assets []*domain.Asset) []any { return list(assets, Asset) }

func Transaction(t *domain.Transaction) map[string]any {
	return map[string]any{
		"id":                t.ID.String(),
		"asset_id":          t.AssetID.String(),
		"type":              string(t.Type),
		"timestamp":         Time(t.Timestamp),
		"quantity":          NullDecimal(t.Quantity),
		"price":             NullDecimal(t.Price),
		"fees":              Decimal(t.Fees),
		"manual_value":      NullDecimal(t.ManualValue),
		"invested_override": NullDecimal(t.InvestedOverride),
		"note":              t.Note,
	}
}

func Transactions(txs []*domain.Transaction) []any { return list(txs, Transaction) }

func Basket(b *domain.Basket) map[string]any {
	members := make([]any, 0, len(b.Links))
	for _, link := range b.Links {
		members = append(members, map[string]any{
			"asset_id": link.AssetID.String(),
			"weight":   NullDecimal(link.Weight),
			"position": link.Position,
		})
	}
	return map[string]any{
		"id":           b.ID.String(),
		"portfolio_id": b.PortfolioID.String(),
		"name":         b.Name,
		"symbol":       b.RowSymbol(),
		"created_at":   Time(b.CreatedAt),
		"members":      members,
	}
}

func Baskets(baskets []*domain.Basket) []any { return list(baskets, Basket) }

// Row renders one position row
func Row(r position.Row) map[string]any {
	return map[string]any{
		"kind":           string(r.Kind),
		"id":             r.ID.String(),
		"symbol":         r.Symbol,
		"name":           r.Name,
		"group":          r.GroupName,
		"asset_type":     string(r.AssetType),
		"quantity":       NullDecimal(r.Quantity),
		"avg_cost":       NullDecimal(r.AvgCost),
		"invested":       Decimal(r.Invested),
		"current_price":  NullDecimal(r.CurrentPrice),
		"current_value":  Decimal(r.CurrentValue),
		"unrealized_pnl": NullDecimal(r.UnrealizedPnL),
		"as_of":          Time(r.AsOf),
		"quote_stale":    r.QuoteStale,
		"warning":        r.Warning,
	}
}

func Rows(rows []position.Row) []any { return list(rows, Row) }

// AssetDetail renders an asset with its row and its full history
func AssetDetail(d *position.AssetDetail) map[string]any {
	out := map[string]any{
		"asset":        Asset(d.Asset),
		"position":     Row(d.Row),
		"transactions": Transactions(d.Transactions),
	}
	if d.Group != nil {
		out["group"] = Group(d.Group)
	}
	return out
}

func share(s allocator.Share) map[string]any {
	return map[string]any{
		"key":        s.Key,
		"label":      s.Label,
		"value":      Decimal(s.Value),
		"percentage": Decimal(s.Percentage),
	}
}

// Snapshot renders the dashboard of a portfolio
func Snapshot(s *dashboard.Snapshot) map[string]any {
	groupTotals := make([]any, 0, len(s.GroupTotals))
	for _, total := range s.GroupTotals {
		groupTotals = append(groupTotals, map[string]any{
			"group":          total.GroupName,
			"value":          Decimal(total.Value),
			"unrealized_pnl": Decimal(total.UnrealizedPnL),
		})
	}

	compositions := make([]any, 0, len(s.Compositions))
	for _, composition := range s.Compositions {
		members := make([]any, 0, len(composition.Members))
		for _, member := range composition.Members {
			members = append(members, map[string]any{
				"asset_id": member.AssetID.String(),
				"symbol":   member.Symbol,
				"weight":   Decimal(member.Weight),
				"value":    Decimal(member.Value),
			})
		}
		compositions = append(compositions, map[string]any{
			"basket_id":     composition.BasketID.String(),
			"weight_source": string(composition.Source),
			"members":       members,
		})
	}

	memberIDs := make([]any, 0, len(s.BasketMemberAssetIDs))
	for _, id := range s.BasketMemberAssetIDs {
		memberIDs = append(memberIDs, id.String())
	}

	return map[string]any{
		"portfolio_id": s.PortfolioID.String(),
		"positions":    Rows(s.Positions),
		"group_totals": groupTotals,
		"canonical_total": map[string]any{
			"value":          Decimal(s.CanonicalTotalValue),
			"unrealized_pnl": Decimal(s.CanonicalTotalPnL),
		},
		"derived_positions": Rows(s.DerivedPositions),
		"compositions":      compositions,
		"derived_total": map[string]any{
			"value":          Decimal(s.DerivedTotalValue),
			"unrealized_pnl": Decimal(s.DerivedTotalPnL),
		},
		"allocation_by_group":     list(s.GroupAllocation, share),
		"allocation_by_asset":     list(s.AssetAllocation, share),
		"basket_member_asset_ids": memberIDs,
	}
}

// QuoteStatuses renders polled quotes
func QuoteStatuses(statuses []dashboard.QuoteStatus) []any {
	return list(statuses, func(q dashboard.QuoteStatus) map[string]any {
		return map[string]any{
			"symbol":  q.Symbol,
			"price":   NullDecimal(q.Price),
			"as_of":   Time(q.AsOf),
			"stale":   q.Stale,
			"warning": q.Warning,
		}
	})
}

func points(points []timeseries.Point) []any {
	return list(points, func(p timeseries.Point) map[string]any {
		return map[string]any{
			"date":  p.Date.Format(domain.DateLayout),
			"value": Decimal(p.Value),
		}
	})
}

// Series renders a chart series; an unavailable series carries its reason in "error"
func Series(s timeseries.Series) map[string]any {
	return map[string]any{
		"available":       s.Available(),
		"points":          points(s.Points),
		"missing_symbols": stringList(s.MissingSymbols),
		"error":           s.ErrorMessage,
	}
}

// Overlay renders the multi-line P&L chart
func Overlay(o timeseries.Overlay) map[string]any {
	series := list(o.Series, func(s timeseries.LabeledSeries) map[string]any {
		return map[string]any{
			"key":    s.Key,
			"label":  s.Label,
			"points": points(s.Points),
		}
	})
	return map[string]any{
		"available":       len(o.Series) > 0,
		"series":          series,
		"missing_symbols": stringList(o.MissingSymbols),
		"error":           o.ErrorMessage,
	}
}
