// Stackfolio API server.
//
// Startup sequence:
//  1. Load configuration from environment (.env supported)
//  2. Initialize structured logging
//  3. Open and migrate the app and cache databases
//  4. Wire repositories, services and external clients
//  5. Register maintenance jobs (session purge, cache eviction, WAL checkpoints)
//  6. Start the HTTP server and wait for SIGINT/SIGTERM
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/stackfolio/stackfolio/internal/clientdata"
	"github.com/stackfolio/stackfolio/internal/clients/fx"
	"github.com/stackfolio/stackfolio/internal/clients/marketdata"
	"github.com/stackfolio/stackfolio/internal/config"
	"github.com/stackfolio/stackfolio/internal/database"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
	"github.com/stackfolio/stackfolio/internal/modules/classifications"
	"github.com/stackfolio/stackfolio/internal/modules/dividends"
	"github.com/stackfolio/stackfolio/internal/modules/funding"
	"github.com/stackfolio/stackfolio/internal/modules/news"
	"github.com/stackfolio/stackfolio/internal/modules/positions"
	"github.com/stackfolio/stackfolio/internal/modules/trades"
	"github.com/stackfolio/stackfolio/internal/scheduler"
	"github.com/stackfolio/stackfolio/internal/server"
	"github.com/stackfolio/stackfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Stackfolio")

	// app.db holds all user data; cache.db holds ephemeral client data
	// and can be deleted without losing anything.
	appDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "app.db"),
		Profile: database.ProfileStandard,
		Name:    "app",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open app database")
	}
	defer appDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := appDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate app database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())

	// Passkeys are optional; with the feature off the auth service
	// rejects passkey ceremonies and everything else works as before.
	var webAuthn *webauthn.WebAuthn
	if cfg.Features.Passkeys {
		webAuthn, err = webauthn.New(&webauthn.Config{
			RPDisplayName: cfg.RPDisplayName,
			RPID:          cfg.RPID,
			RPOrigins:     []string{cfg.RPOrigin},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure WebAuthn")
		}
	}

	authService := auth.NewService(
		auth.NewRepository(appDB.Conn(), log),
		cacheRepo,
		webAuthn,
		cfg.Features.OTP,
		cfg.SessionTTL,
		log,
	)

	fundingService := funding.NewService(funding.NewRepository(appDB.Conn(), log), log)
	dividendService := dividends.NewService(dividends.NewRepository(appDB.Conn(), log), log)
	positionService := positions.NewService(positions.NewRepository(appDB.Conn(), log), log)
	classificationRepo := classifications.NewRepository(appDB.Conn(), log)
	tradeService := trades.NewService(trades.NewRepository(appDB.Conn(), log), log)
	newsRepo := news.NewRepository(appDB.Conn(), log)

	fxClient := fx.NewClient(cfg.FXBaseURL, cacheRepo, log)
	marketDataClient := marketdata.NewClient(cfg.MarketDataBaseURL, cacheRepo, log)

	sched := scheduler.New(log)
	registerJob := func(schedule string, job scheduler.Job) {
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}
	registerJob("@hourly", scheduler.NewSessionPurgeJob(authService))
	registerJob("@hourly", scheduler.NewCacheCleanupJob(clientdata.NewCleanupJob(cacheRepo, log)))
	registerJob("@daily", scheduler.NewWALCheckpointJob(appDB, cacheDB))
	sched.Start()

	srv := server.New(server.Config{
		Log:             log,
		AppDB:           appDB,
		CacheDB:         cacheDB,
		Config:          cfg,
		Auth:            authService,
		Funding:         fundingService,
		Dividends:       dividendService,
		Positions:       positionService,
		Classifications: classificationRepo,
		Trades:          tradeService,
		News:            newsRepo,
		FX:              fxClient,
		MarketData:      marketDataClient,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
