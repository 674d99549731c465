package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mattbraddock/crossword-challenge/internal/bank"
	"github.com/mattbraddock/crossword-challenge/internal/httpserver"
	"github.com/mattbraddock/crossword-challenge/internal/progression"
	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/scoring"
	"github.com/mattbraddock/crossword-challenge/internal/session"
	"github.com/mattbraddock/crossword-challenge/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/crossword.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := bank.Seed(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed question bank")
	}

	table := progression.DefaultTable()
	src := bank.NewSQL(db)
	gen, err := puzzle.NewGenerator(puzzle.DefaultGenConfig(), src, table.BaseDifficulty,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatal().Err(err).Msg("bad generator config")
	}

	st := store.NewSQLite(db)
	deps := session.Deps{
		Generator: gen,
		Source:    src,
		Rules:     scoring.DefaultRules(),
		Table:     table,
		Store:     st,
	}

	srv := httpserver.New(st, db, deps)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting crossword-challenge server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
