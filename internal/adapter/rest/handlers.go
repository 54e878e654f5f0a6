package rest

import (
	"context"
	"net/http"

	"github.com/simaogato/portfolio-tracker/internal/adapter/view"
	"github.com/simaogato/portfolio-tracker/internal/usecase/dashboard"
	"github.com/simaogato/portfolio-tracker/internal/usecase/timeseries"
)

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	portfolioID, err := pathID(r, "portfolioID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	snapshot, err := h.DashboardService.GetSnapshot(ctx, portfolioID)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, view.Snapshot(snapshot), http.StatusOK)
}

// PollQuotes answers ?symbols=AAPL,MSFT with the current quote status of each held symbol
func (h *Handler) PollQuotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	portfolioID, err := pathID(r, "portfolioID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	symbols := dashboard.SplitSymbols(r.URL.Query().Get("symbols"))
	quotes, err := h.DashboardService.PollQuotes(ctx, portfolioID, symbols)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, map[string]any{"quotes": view.QuoteStatuses(quotes)}, http.StatusOK)
}

func (h *Handler) GetPortfolioSeries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	portfolioID, err := pathID(r, "portfolioID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	rng, err := h.chartRange(r)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	series, err := h.TimeSeriesService.PortfolioSeries(ctx, portfolioID, rng)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, view.Series(series), http.StatusOK)
}

func (h *Handler) GetPnLOverlay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	portfolioID, err := pathID(r, "portfolioID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	rng, err := h.chartRange(r)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	overlay, err := h.TimeSeriesService.OverlayPnL(ctx, portfolioID, rng)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, view.Overlay(overlay), http.StatusOK)
}

func (h *Handler) GetBasketSeries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	basketID, err := pathID(r, "basketID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	rng, err := h.chartRange(r)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	series, err := h.TimeSeriesService.BasketIndex(ctx, basketID, rng)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, view.Series(series), http.StatusOK)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	assetID, err := pathID(r, "assetID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	detail, err := h.PositionService.GetAssetDetail(ctx, assetID)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, view.AssetDetail(detail), http.StatusOK)
}

func (h *Handler) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	assetID, err := pathID(r, "assetID")
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}

	series, err := h.TimeSeriesService.AssetHistory(ctx, assetID)
	if err != nil {
		HandleErrors(ctx, w, err)
		return
	}
	respond(w, view.Series(series), http.StatusOK)
}

// chartRange reads ?start=&end= (ISO days); both are optional
func (h *Handler) chartRange(r *http.Request) (timeseries.Range, error) {
	query := r.URL.Query()
	return timeseries.ParseRange(query.Get("start"), query.Get("end"), h.TimeSeriesService.Today(), h.ChartDefaultDays)
}
