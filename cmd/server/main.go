package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/store-recommender/config"
	_ "github.com/kosarica/store-recommender/docs"
	"github.com/kosarica/store-recommender/internal/catalog"
	"github.com/kosarica/store-recommender/internal/grpcserver"
	"github.com/kosarica/store-recommender/internal/handlers"
	"github.com/kosarica/store-recommender/internal/middleware"
	"github.com/kosarica/store-recommender/internal/recommender"
	"github.com/kosarica/store-recommender/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Str("storage", cfg.Storage.Type).Msg("Starting store recommender")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(cfg.Telemetry))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	backend, err := catalog.Open(ctx, cfg.CatalogOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open catalog")
	}
	defer backend.Close()

	logger.Info().Msg("Catalog connected")

	engine, err := recommender.NewEngine(backend, &cfg.Recommender)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid recommender configuration")
	}
	handlers.Init(engine, backend)

	router := newRouter(ctx, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv = grpcserver.New(backend, grpcserver.Options{CheckInterval: cfg.GRPC.CheckInterval})
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to listen for gRPC")
		}
		go grpcSrv.Watch(ctx)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error().Err(err).Msg("gRPC server stopped")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

func newRouter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.With().Str("component", "http").Logger()))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.Burst,
			IdleTimeout:       cfg.RateLimit.IdleTimeout,
		})
		go limiter.Run(ctx)
		router.Use(middleware.RateLimitMiddleware(limiter))
	}

	var writeGuards []gin.HandlerFunc
	if cfg.Server.APIKey != "" {
		writeGuards = append(writeGuards, middleware.InternalAuthMiddleware(cfg.Server.APIKey))
	} else {
		logger.Warn().Msg("server.api_key not set, write routes are open")
	}
	if cfg.RateLimit.Enabled {
		writeGuards = append(writeGuards, middleware.ServiceRateLimitMiddleware(cfg.RateLimit.WritesPerSecond, cfg.RateLimit.WriteBurst))
	}

	handlers.RegisterRoutes(router, writeGuards...)
	return router
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "store-recommender").Logger()
	// Package loggers derive from the global one
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return &logger
}
