package main

import (
	"context"
	"errors"
	"flag"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Test users for local development. The admin account gets staff rights.
var testUsers = []struct {
	firstName string
	lastName  string
	email     string
	username  string
	staff     bool
}{
	{"John", "Doe", "john.doe@example.com", "johndoe", false},
	{"Jane", "Smith", "jane.smith@example.com", "janesmith", false},
	{"Bob", "Wilson", "bob.wilson@example.com", "bobwilson", false},
	{"Admin", "User", "admin@example.com", "admin", true},
}

func main() {
	password := flag.String("password", "testpassword123", "Password set on every created user")
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
	if err := database.RunMigrations(db, "migrations"); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL)

	for _, u := range testUsers {
		if _, err := users.GetByEmail(ctx, u.email); err == nil {
			logging.Info().Str("email", u.email).Msg("user already exists, skipping")
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			logging.Fatal().Err(err).Msg("failed to look up user")
		}

		user, err := auth.Register(ctx, &types.RegisterRequest{
			Email:     u.email,
			Username:  u.username,
			FirstName: u.firstName,
			LastName:  u.lastName,
			Password:  *password,
		})
		if err != nil {
			logging.Fatal().Err(err).Str("email", u.email).Msg("failed to create user")
		}

		if u.staff {
			if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_staff", true).Error; err != nil {
				logging.Fatal().Err(err).Msg("failed to grant staff rights")
			}
		}
		logging.Info().Str("email", u.email).Bool("staff", u.staff).Msg("created user")
	}

	logging.Info().Msg("test users ready")
}
