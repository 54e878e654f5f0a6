// Package rest exposes the read side of the portfolio (dashboard, quotes and charts) over JSON.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/simaogato/portfolio-tracker/internal/usecase/dashboard"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
	"github.com/simaogato/portfolio-tracker/internal/usecase/timeseries"
	"github.com/sirupsen/logrus"
)

// RequestTimeout bounds every handler, including the quote and history fetches it triggers
const RequestTimeout = 30 * time.Second

type Server struct {
	Router  *chi.Mux
	Handler *Handler
	// Token guards /api when set
	Token  string
	Logger logrus.FieldLogger
}

func NewServer(handler *Handler, token string, logger logrus.FieldLogger) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		Token:   token,
		Logger:  logger,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(requestLogger(s.Logger))

	s.Router.Get("/alive", Healthcheck)

	s.Router.Route("/api", func(r chi.Router) {
		r.Use(requireToken(s.Token))

		r.Route("/portfolios/{portfolioID}", func(r chi.Router) {
			r.Get("/snapshot", s.Handler.GetSnapshot)
			r.Get("/quotes", s.Handler.PollQuotes)
			r.Get("/series", s.Handler.GetPortfolioSeries)
			r.Get("/pnl", s.Handler.GetPnLOverlay)
		})
		r.Get("/baskets/{basketID}/series", s.Handler.GetBasketSeries)
		r.Route("/assets/{assetID}", func(r chi.Router) {
			r.Get("/", s.Handler.GetAsset)
			r.Get("/history", s.Handler.GetAssetHistory)
		})
	})
}

func NewHTTPServer(port string, server *Server) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: RequestTimeout + 5*time.Second,
		Handler:      server,
	}
}

// Handler serves the JSON endpoints
type Handler struct {
	DashboardService  *dashboard.DashboardService
	PositionService   *position.PositionService
	TimeSeriesService *timeseries.TimeSeriesService
	// ChartDefaultDays is the window used when a chart request names no start
	ChartDefaultDays int
}

func NewHandler(
	dashboardService *dashboard.DashboardService,
	positionService *position.PositionService,
	timeSeriesService *timeseries.TimeSeriesService,
	chartDefaultDays int,
) *Handler {
	return &Handler{
		DashboardService:  dashboardService,
		PositionService:   positionService,
		TimeSeriesService: timeSeriesService,
		ChartDefaultDays:  chartDefaultDays,
	}
}
