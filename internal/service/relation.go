package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeToggleService adds and removes one kind of (user, recipe) relation
type RecipeToggleService struct {
	relation      string
	repo          repository.RelationRepository
	recipes       repository.RecipeRepository
	existsMessage string
	missingMsg    string
}

// NewFavoriteService toggles recipes in a user's favorites
func NewFavoriteService(stores Stores) *RecipeToggleService {
	return &RecipeToggleService{
		relation:      "favorite",
		repo:          stores.Favorites,
		recipes:       stores.Recipes,
		existsMessage: "recipe is already in favorites",
		missingMsg:    "recipe is not in favorites",
	}
}

// NewShoppingCartService toggles recipes in a user's shopping cart
func NewShoppingCartService(stores Stores) *RecipeToggleService {
	return &RecipeToggleService{
		relation:      "shopping_cart",
		repo:          stores.Cart,
		recipes:       stores.Recipes,
		existsMessage: "recipe is already in the shopping cart",
		missingMsg:    "recipe is not in the shopping cart",
	}
}

// Add links the recipe to the user and returns the condensed recipe.
// The existence check is a shortcut; the store's unique constraint decides races.
func (s *RecipeToggleService) Add(ctx context.Context, userID, recipeID uuid.UUID) (mini *types.MiniRecipe, err error) {
	defer func() { metrics.RecordToggle(s.relation, "add", err) }()

	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &AlreadyExistsError{Message: s.existsMessage}
	}

	if err := s.repo.Add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &AlreadyExistsError{Message: s.existsMessage}
		}
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("relation", s.relation).
		Str("user_id", userID.String()).
		Str("recipe_id", recipeID.String()).
		Msg("relation added")

	view := miniRecipe(*recipe)
	return &view, nil
}

// Remove unlinks the recipe from the user
func (s *RecipeToggleService) Remove(ctx context.Context, userID, recipeID uuid.UUID) (err error) {
	defer func() { metrics.RecordToggle(s.relation, "remove", err) }()

	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.Remove(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Message: s.missingMsg}
		}
		return err
	}
	return nil
}
