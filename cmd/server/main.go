package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	httpAdapter "github.com/rwestland/store-stock/internal/adapter/http"
	redisAdapter "github.com/rwestland/store-stock/internal/adapter/redis"
	"github.com/rwestland/store-stock/internal/adapter/repository"
	"github.com/rwestland/store-stock/internal/config"
	"github.com/rwestland/store-stock/internal/usecase"
	"github.com/rwestland/store-stock/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("service", cfg.ServiceName),
		slog.Int("http_port", cfg.HTTPPort),
		slog.Duration("reservation_ttl", cfg.ReservationTTL),
		slog.Duration("prune_interval", cfg.PruneInterval),
	)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("database connection established")

	var idempotencyStore usecase.IdempotencyStore
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to parse Redis URL, idempotency disabled", slog.String("error", err.Error()))
		} else {
			redisClient = redis.NewClient(redisOpts)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warn("failed to connect to Redis, idempotency disabled", slog.String("error", err.Error()))
				redisClient.Close()
				redisClient = nil
			} else {
				logger.Info("Redis connection established")
				idempotencyStore = redisAdapter.NewIdempotencyStore(redisClient, "stock:idempotency:")
			}
		}
	} else {
		logger.Warn("Redis URL not configured, idempotency disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if idempotencyStore == nil {
		idempotencyStore = redisAdapter.NewNoopIdempotencyStore()
		logger.Warn("using no-op idempotency store")
	}

	stockRepo := repository.NewPostgresStockRepository(pool)
	reservationRepo := repository.NewPostgresReservationRepository(pool)

	stockUC := usecase.NewStockUseCase(stockRepo, logger.With("component", "stock"))
	reservationUC := usecase.NewReservationUseCase(
		stockRepo,
		reservationRepo,
		idempotencyStore,
		logger.With("component", "reservations"),
		cfg.ReservationTTL,
		cfg.IdempotencyKeyTTL,
	)

	handler := httpAdapter.NewHandler(stockUC, reservationUC, logger.With("component", "http"))

	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.HandleFunc("GET /readyz", handleReadyz(pool, redisClient, logger))

	serverCfg := httpAdapter.DefaultConfig(cfg.HTTPPort)
	server := httpAdapter.NewServer(
		httpAdapter.LoggingMiddleware(logger)(h2c.NewHandler(mux, &http2.Server{})),
		serverCfg,
		logger,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	workerCtx, workerCancel := context.WithCancel(ctx)
	pruner := worker.NewReservationPruner(
		reservationUC,
		logger.With("component", "reservation-pruner"),
		cfg.PruneInterval,
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pruner.Start(workerCtx)
	}()

	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		workerCancel()
		wg.Wait()
		return err
	}

	logger.Info("initiating graceful shutdown")

	workerCancel()
	wg.Wait()
	logger.Info("reservation pruner stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	} else {
		logger.Info("server stopped")
	}

	return nil
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// handleReadyz checks database (required) and Redis (optional, degraded mode allowed).
func handleReadyz(pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "not_ready",
				"reason": "database connection failed",
			})
			return
		}

		redisStatus := "not_configured"
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				redisStatus = "degraded"
				logger.Warn("Redis health check failed", slog.String("error", err.Error()))
			} else {
				redisStatus = "healthy"
			}
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"redis":  redisStatus,
		})
	}
}
