package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	alreadySubscribedMessage = "you are already subscribed to this author"
	notSubscribedMessage     = "you are not subscribed to this author"
)

type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	views   viewBuilder
}

func NewFollowService(stores Stores) *FollowService {
	return &FollowService{
		users:   stores.Users,
		follows: stores.Follows,
		views:   viewBuilder{stores: stores},
	}
}

// Follow subscribes userID to authorID and returns the author with up to recipesLimit recipes.
// A non-positive recipesLimit includes every recipe.
func (s *FollowService) Follow(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (sub *types.SubscriptionResponse, err error) {
	defer func() { metrics.RecordToggle("follow", "add", err) }()

	if userID == authorID {
		return nil, &SelfReferenceError{}
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.follows.Exists(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &AlreadyExistsError{Message: alreadySubscribedMessage}
	}

	if err := s.follows.Add(ctx, userID, authorID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &AlreadyExistsError{Message: alreadySubscribedMessage}
		}
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("user_id", userID.String()).
		Str("author_id", authorID.String()).
		Msg("follow added")

	views, err := s.views.subscriptions(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uuid.UUID) (err error) {
	defer func() { metrics.RecordToggle("follow", "remove", err) }()

	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.follows.Remove(ctx, userID, authorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Message: notSubscribedMessage}
		}
		return err
	}
	return nil
}

// Subscriptions lists the authors userID follows, each with a recipe preview
func (s *FollowService) Subscriptions(ctx context.Context, userID uuid.UUID, query *types.SubscriptionQuery) (*types.SubscriptionListResponse, error) {
	authors, count, err := s.follows.ListAuthors(ctx, userID, pageOf(query.Pagination))
	if err != nil {
		return nil, err
	}

	views, err := s.views.subscriptions(ctx, authors, query.RecipesLimit)
	if err != nil {
		return nil, err
	}
	return &types.SubscriptionListResponse{Count: count, Results: views}, nil
}
