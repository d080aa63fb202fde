// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/cache"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/config"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/database"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/handler"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/repository/memory"
	"github.com/Shivanand-hulikatti/workshop-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped with error")
	}
	log.Info().Msg("server stopped")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Storage ────────────────────────────────────────────────────────
	var store service.Store
	switch cfg.Store {
	case config.StoreMemory:
		mem := memory.New()
		seedDemo(mem)
		store = mem
		log.Warn().Msg("using in-memory store with a demo event, data is lost on exit")
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connected to PostgreSQL")

		if err := database.InitSchema(ctx, pool); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		store = repository.NewStore(pool)
	default:
		return fmt.Errorf("unknown STORE %q", cfg.Store)
	}

	// ── 2. Optional availability cache ────────────────────────────────────
	opts := []service.Option{service.WithLogger(log.With().Str("component", "engine").Logger())}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, availability cache disabled")
		} else {
			opts = append(opts, service.WithCache(cache.NewAvailabilityCache(rdb, cfg.CacheTTL)))
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("availability cache enabled")
		}
	}

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	engine := service.NewEngine(store, opts...)
	router := handler.NewRouter(handler.New(engine, log), log)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// seedDemo adds one published event four weeks out. Events normally come
// from the organiser side.
func seedDemo(s *memory.Store) {
	now := time.Now().UTC()
	s.AddEvent(model.Event{
		ID:        "demo",
		Title:     "Sourdough basics",
		Date:      now.AddDate(0, 0, 28).Truncate(24 * time.Hour),
		Status:    model.EventPublished,
		CreatedAt: now,
		UpdatedAt: now,
	},
		model.TicketTier{Tier: model.TierFull, Quantity: 12, Price: decimal.NewFromInt(45)},
		model.TicketTier{Tier: model.TierConcession, Quantity: 4, Price: decimal.NewFromInt(30)},
	)
}
