package main

import (
	"context"
	"flag"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/importer"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/repository"
)

func main() {
	model := flag.String("model", "", "What to import: ingredients or tags")
	file := flag.String("file", "", "Path to a .csv, .yaml or .yml file")
	flag.Parse()

	if *file == "" || (*model != "ingredients" && *model != "tags") {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	format, err := importer.FormatFromPath(*file)
	if err != nil {
		logging.Fatal().Err(err).Msg("cannot import file")
	}
	f, err := os.Open(*file)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open file")
	}
	defer f.Close()

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	var res importer.Result
	switch *model {
	case "ingredients":
		rows, err := importer.ParseIngredients(f, format)
		if err != nil {
			logging.Fatal().Err(err).Msg("invalid ingredient file")
		}
		res, err = importer.ImportIngredients(ctx, repository.NewIngredientRepository(db), rows)
		if err != nil {
			logging.Fatal().Err(err).Msg("import failed")
		}
	case "tags":
		rows, err := importer.ParseTags(f, format)
		if err != nil {
			logging.Fatal().Err(err).Msg("invalid tag file")
		}
		res, err = importer.ImportTags(ctx, repository.NewTagRepository(db), rows)
		if err != nil {
			logging.Fatal().Err(err).Msg("import failed")
		}
	}

	logging.Info().
		Str("model", *model).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("file successfully imported")
}
