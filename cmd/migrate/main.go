package main

import (
	"flag"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	migrationsDir := flag.String("dir", "migrations", "Directory holding the *.up.sql and *.down.sql files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if *rollback {
		name, err := database.Rollback(db, *migrationsDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to roll back migration")
		}
		logging.Info().Str("migration", name).Msg("rolled back migration")
		return
	}

	if err := database.RunMigrations(db, *migrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to apply migrations")
	}
	logging.Info().Msg("all migrations applied")
}
