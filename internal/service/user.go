package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserService struct {
	users repository.UserRepository
	views viewBuilder
}

func NewUserService(stores Stores) *UserService {
	return &UserService{
		users: stores.Users,
		views: viewBuilder{stores: stores},
	}
}

// GetUser returns the user as seen by viewer; a nil viewer is anonymous
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	views, err := s.views.users(ctx, []models.User{*user}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *UserService) ListUsers(ctx context.Context, page types.Pagination, viewer *uuid.UUID) (*types.UserListResponse, error) {
	users, count, err := s.users.List(ctx, pageOf(page))
	if err != nil {
		return nil, err
	}

	views, err := s.views.users(ctx, users, viewer)
	if err != nil {
		return nil, err
	}
	return &types.UserListResponse{Count: count, Results: views}, nil
}

// SetPassword replaces the password after checking the current one
func (s *UserService) SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return validationError("current_password", "incorrect password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Str("user_id", userID.String()).Msg("password changed")
	return nil
}
