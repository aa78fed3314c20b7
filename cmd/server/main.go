// Command server runs the marketplace HTTP API: REST endpoints for users,
// items, orders, and groups, plus the WebSocket event channel for realtime
// chat and offer notifications.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/afrimart/marketplace-backend/docs"
	"github.com/afrimart/marketplace-backend/internal/config"
	httpapi "github.com/afrimart/marketplace-backend/internal/http"
	"github.com/afrimart/marketplace-backend/internal/observability"
	"github.com/afrimart/marketplace-backend/internal/realtime"
	"github.com/afrimart/marketplace-backend/internal/repo"
	"github.com/afrimart/marketplace-backend/internal/search"
	"github.com/afrimart/marketplace-backend/internal/services"
	"github.com/afrimart/marketplace-backend/internal/storage"
	"github.com/afrimart/marketplace-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title           Marketplace API
// @version         1.0
// @description     Marketplace backend: accounts, listings, orders with embedded chat, groups, and direct messages. Realtime notifications ride a WebSocket channel at /ws.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	service := sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "marketplace-backend")
	logger := log.With().Str("service", service).Logger()

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			logger.Warn().Err(err).Msg("gorm tracing plugin failed, continuing without query spans")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	if cfg.JWTSecret == "" {
		// Tokens signed with an ephemeral secret die with the process.
		cfg.JWTSecret = ephemeralSecret()
		logger.Warn().Msg("JWT_SECRET not set, issued tokens will not survive a restart")
	}

	uploads, err := storage.NewUploadStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload store init failed")
	}

	idx := search.NewMemoryIndex()
	if err := services.NewItemService(db, idx, nil).RebuildIndex(ctx); err != nil {
		logger.Fatal().Err(err).Msg("search index rebuild failed")
	}

	hub := realtime.NewHub(logger)

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:      db,
		Index:   idx,
		Hub:     hub,
		Uploads: uploads,
		Log:     logger,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown failed")
	}
	logger.Info().Msg("bye")
}

// ephemeralSecret returns a random hex string suitable as an HS256 key.
func ephemeralSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
