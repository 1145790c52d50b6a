package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/chessbench/chess-arena-api/internal/config"
	"github.com/chessbench/chess-arena-api/internal/db"
	"github.com/chessbench/chess-arena-api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.New("info", "json", os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	conn, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer conn.Close()

	ctx := context.Background()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping db")
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("goose set dialect")
	}

	if err := goose.RunContext(ctx, cmd, conn, db.MigrationsDir, os.Args[min(2, len(os.Args)):]...); err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("goose")
	}
	log.Info().Str("command", cmd).Msg("migrations done")
}
