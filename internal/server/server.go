// Package server wires the HTTP API: middleware stack, route tree,
// and the session boundary between public and authenticated endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/clients/marketdata"
	"github.com/stackfolio/stackfolio/internal/config"
	"github.com/stackfolio/stackfolio/internal/database"
	"github.com/stackfolio/stackfolio/internal/domain"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
	authhandlers "github.com/stackfolio/stackfolio/internal/modules/auth/handlers"
	"github.com/stackfolio/stackfolio/internal/modules/classifications"
	classificationhandlers "github.com/stackfolio/stackfolio/internal/modules/classifications/handlers"
	"github.com/stackfolio/stackfolio/internal/modules/dividends"
	dividendhandlers "github.com/stackfolio/stackfolio/internal/modules/dividends/handlers"
	"github.com/stackfolio/stackfolio/internal/modules/funding"
	fundinghandlers "github.com/stackfolio/stackfolio/internal/modules/funding/handlers"
	"github.com/stackfolio/stackfolio/internal/modules/news"
	newshandlers "github.com/stackfolio/stackfolio/internal/modules/news/handlers"
	"github.com/stackfolio/stackfolio/internal/modules/positions"
	positionhandlers "github.com/stackfolio/stackfolio/internal/modules/positions/handlers"
	"github.com/stackfolio/stackfolio/internal/modules/trades"
	tradehandlers "github.com/stackfolio/stackfolio/internal/modules/trades/handlers"
)

// Config carries everything the server needs. Services are constructed
// in main and injected here; the server owns only HTTP concerns.
type Config struct {
	Log             zerolog.Logger
	AppDB           *database.DB
	CacheDB         *database.DB
	Config          *config.Config
	Auth            *auth.Service
	Funding         *funding.Service
	Dividends       *dividends.Service
	Positions       *positions.Service
	Classifications *classifications.Repository
	Trades          *trades.Service
	News            *news.Repository
	FX              domain.FXRateProvider
	MarketData      *marketdata.Client
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	appDB          *database.DB
	cacheDB        *database.DB
	cfg            *config.Config
	auth           *auth.Service
	funding        *funding.Service
	dividends      *dividends.Service
	positions      *positions.Service
	classifs       *classifications.Repository
	trades         *trades.Service
	news           *news.Repository
	fx             domain.FXRateProvider
	marketData     *marketdata.Client
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		appDB:      cfg.AppDB,
		cacheDB:    cfg.CacheDB,
		cfg:        cfg.Config,
		auth:       cfg.Auth,
		funding:    cfg.Funding,
		dividends:  cfg.Dividends,
		positions:  cfg.Positions,
		classifs:   cfg.Classifications,
		trades:     cfg.Trades,
		news:       cfg.News,
		fx:         cfg.FX,
		marketData: cfg.MarketData,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.AppDB, cfg.CacheDB)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	authHandler := authhandlers.NewHandler(s.auth, s.log)

	s.router.Route("/api", func(r chi.Router) {
		// Public: registration, login and the passkey login ceremony
		// need no session.
		authHandler.RegisterRoutes(r)

		// Everything else requires a resolved session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(s.auth))

			authHandler.RegisterSessionRoutes(r)

			fundinghandlers.NewHandler(s.funding, s.log).RegisterRoutes(r)
			dividendhandlers.NewHandler(s.dividends, s.log).RegisterRoutes(r)
			positionhandlers.NewHandler(s.positions, s.log).RegisterRoutes(r)
			classificationhandlers.NewHandler(s.classifs, s.log).RegisterRoutes(r)
			tradehandlers.NewHandler(s.trades, s.log).RegisterRoutes(r)

			if s.cfg.Features.News {
				newshandlers.NewHandler(s.news, s.log).RegisterRoutes(r)
			}

			r.Get("/market/rate", s.handleSpotRate)
			r.Get("/market/quote", s.handleQuote)
			r.Get("/market/dividends", s.handleDividendData)

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
