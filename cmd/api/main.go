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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chessbench/chess-arena-api/internal/adapters/memory"
	pgstore "github.com/chessbench/chess-arena-api/internal/adapters/postgres"
	redisstore "github.com/chessbench/chess-arena-api/internal/adapters/redis"
	"github.com/chessbench/chess-arena-api/internal/config"
	"github.com/chessbench/chess-arena-api/internal/logging"
	"github.com/chessbench/chess-arena-api/internal/ports"
	transporthttp "github.com/chessbench/chess-arena-api/internal/transport/http"
	"github.com/chessbench/chess-arena-api/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var rl ports.RateLimiter = memory.AlwaysAllow{}
	if cfg.RateLimitRPS > 0 {
		rl = memory.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst)
		log.Info().Float64("rps", cfg.RateLimitRPS).Int("burst", cfg.RateLimitBurst).Msg("rate limiting enabled")
	}

	h := transporthttp.NewHandlers(
		usecase.NewCreator(store, rl, log),
		usecase.NewGameGetter(store, rl),
		usecase.NewMoveSubmitter(store, rl, log),
		usecase.NewLister(store, rl),
		usecase.NewPositionEvaluator(rl),
		log,
	)
	e := transporthttp.New(h, transporthttp.Options{
		AllowOrigins: cfg.AllowOrigins,
		APISecret:    cfg.APISecret,
		Logger:       log,
	})
	if cfg.APISecret == "" {
		log.Warn().Msg("CHESS_API_SECRET is empty; game creation is open")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store()).Msg("starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore picks postgres, then redis, then memory.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.GameStore, func(), error) {
	switch cfg.Store() {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		log.Info().Msg("connected to database")
		return pgstore.New(pool), pool.Close, nil

	case "redis":
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rdb, err := redisstore.Connect(pingCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("connected to redis")
		return redisstore.New(rdb), func() { _ = rdb.Close() }, nil

	default:
		log.Warn().Msg("no DATABASE_URL or REDIS_URL; games are kept in memory")
		return memory.New(), func() {}, nil
	}
}
