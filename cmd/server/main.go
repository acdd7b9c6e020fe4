// Command server runs the credit-metered AI content API.
//
// Startup order: load environment, configure logging, initialize tracing,
// open and migrate the database, construct the provider clients (Gemini,
// Hugging Face, S3, Razorpay, Redis), wire the HTTP router, and serve until
// SIGINT/SIGTERM triggers a graceful shutdown.
package main

import (
	"context"
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

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/cache"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/config"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/gateway"
	httpapi "github.com/mdeepaktiwari/canvas-ai-backend/internal/http"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/observability"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/payments"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/services"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/storage"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/sysutil"
)

const version = "1.0.0"

// unconfiguredAssets stands in for the S3 uploader when its credentials are
// absent, so the rest of the API keeps working.
type unconfiguredAssets struct{}

func (unconfiguredAssets) Upload(context.Context, []byte, string) (string, error) {
	return "", errors.New("asset storage is not configured")
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Database
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}

	// Surface missing provider credentials early; the affected endpoints
	// return errors at request time rather than blocking startup.
	for _, key := range cfg.MissingProviderKeys() {
		log.Warn().Str("key", key).Msg("provider credential not configured")
	}

	// Image result cache: Redis when configured, in-process otherwise.
	var imageCache cache.Store
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer rc.Close()
		imageCache = rc
		log.Info().Msg("image cache: redis")
	} else {
		imageCache = cache.NewMemory()
		log.Info().Msg("image cache: in-memory")
	}

	// Provider clients
	textGen, err := gateway.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini client failed")
	}
	defer textGen.Close()

	imageGen := gateway.NewHFImageClient(cfg.HuggingFace.APIKey, cfg.HuggingFace.BaseURL, cfg.HuggingFace.Model, cfg.HuggingFace.Timeout)

	var assets services.AssetStore
	if uploader, err := storage.NewUploader(cfg.S3); err != nil {
		log.Warn().Err(err).Msg("asset uploads disabled")
		assets = unconfiguredAssets{}
	} else {
		assets = uploader
	}

	razorpay := payments.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL, cfg.Razorpay.Timeout)

	// HTTP
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, httpapi.Dependencies{
		Text:    textGen,
		Images:  imageGen,
		Assets:  assets,
		Gateway: razorpay,
		Cache:   imageCache,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
