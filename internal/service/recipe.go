package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

const maxRecipeNameLength = 50

// RecipeService handles recipe operations
type RecipeService struct {
	stores Stores
	views  viewBuilder
	images ImageStore
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(stores Stores, images ImageStore) *RecipeService {
	return &RecipeService{
		stores: stores,
		views:  viewBuilder{stores: stores},
		images: images,
	}
}

// CreateRecipe validates the input and stores the recipe with its tags and ingredients atomically
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	tagIDs, ingredients, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	image, err := s.resolveImage(ctx, req.Image, "")
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(req.Name),
		Image:       image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	if err := s.stores.Recipes.Create(ctx, recipe, tagIDs, ingredients); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("recipe_id", recipe.ID.String()).
		Str("author_id", authorID.String()).
		Msg("recipe created")

	return s.view(ctx, recipe, &authorID)
}

// UpdateRecipe replaces the recipe fields and its whole tag and ingredient sets.
// Only the author or a staff user may edit.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, editorID uuid.UUID, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	recipe, err := s.authorize(ctx, recipeID, editorID, "change")
	if err != nil {
		return nil, err
	}

	tagIDs, ingredients, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	image, err := s.resolveImage(ctx, req.Image, recipe.Image)
	if err != nil {
		return nil, err
	}

	recipe.Name = strings.TrimSpace(req.Name)
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	recipe.Image = image

	if err := s.stores.Recipes.Update(ctx, recipe, tagIDs, ingredients); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("recipe_id", recipe.ID.String()).
		Str("editor_id", editorID.String()).
		Msg("recipe updated")

	return s.view(ctx, recipe, &editorID)
}

// DeleteRecipe removes the recipe and everything referencing it
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, editorID uuid.UUID) error {
	if _, err := s.authorize(ctx, recipeID, editorID, "delete"); err != nil {
		return err
	}

	if err := s.stores.Recipes.Delete(ctx, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("recipe_id", recipeID.String()).
		Str("editor_id", editorID.String()).
		Msg("recipe deleted")
	return nil
}

// GetRecipe returns the recipe as seen by viewer; a nil viewer is anonymous
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.RecipeResponse, error) {
	recipe, err := s.stores.Recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.view(ctx, recipe, viewer)
}

// ListRecipes returns one page of recipes, newest first.
// The favorited and cart filters only apply to a known viewer.
func (s *RecipeService) ListRecipes(ctx context.Context, query *types.RecipeQuery, viewer *uuid.UUID) (*types.RecipeListResponse, error) {
	filter := repository.RecipeFilter{
		TagSlugs: query.Tags,
		Page:     pageOf(query.Pagination),
	}
	if query.Author != "" {
		authorID, err := uuid.Parse(query.Author)
		if err != nil {
			return nil, validationError("author", "must be a valid user id")
		}
		filter.AuthorID = &authorID
	}
	if viewer != nil {
		if query.IsFavorited {
			filter.FavoritedBy = viewer
		}
		if query.IsInShoppingCart {
			filter.InCartOf = viewer
		}
	}

	recipes, count, err := s.stores.Recipes.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views, err := s.views.recipes(ctx, recipes, viewer)
	if err != nil {
		return nil, err
	}
	return &types.RecipeListResponse{Count: count, Results: views}, nil
}

func (s *RecipeService) view(ctx context.Context, recipe *models.Recipe, viewer *uuid.UUID) (*types.RecipeResponse, error) {
	views, err := s.views.recipes(ctx, []models.Recipe{*recipe}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// authorize loads the recipe and checks that editorID is its author or a staff user
func (s *RecipeService) authorize(ctx context.Context, recipeID, editorID uuid.UUID, action string) (*models.Recipe, error) {
	recipe, err := s.stores.Recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID == editorID {
		return recipe, nil
	}

	editor, err := s.stores.Users.GetByID(ctx, editorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if editor == nil || !editor.IsStaff {
		return nil, &PermissionError{Message: fmt.Sprintf("you do not have permission to %s this recipe", action)}
	}
	return recipe, nil
}

// validate applies the recipe rules in a fixed order and returns the first violation.
// Shape rules come first, then tag and ingredient existence.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeWriteRequest) ([]uint, []repository.IngredientAmount, error) {
	tagIDs, ingredients, err := validateRecipeInput(req)
	if err != nil {
		return nil, nil, err
	}

	count, err := s.stores.Tags.CountByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if count != int64(len(tagIDs)) {
		return nil, nil, validationError("tags", "one or more tags do not exist")
	}

	ids := make([]uint, len(ingredients))
	for i, item := range ingredients {
		ids[i] = item.IngredientID
	}
	count, err = s.stores.Ingredients.CountByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	if count != int64(len(ids)) {
		return nil, nil, validationError("ingredients", "one or more ingredients do not exist")
	}

	return tagIDs, ingredients, nil
}

// validateRecipeInput checks the request shape without touching the store.
// Within the ingredient list a duplicate id is reported before a bad amount.
func validateRecipeInput(req *types.RecipeWriteRequest) ([]uint, []repository.IngredientAmount, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, nil, validationError("name", "this field may not be blank")
	case utf8.RuneCountInString(name) > maxRecipeNameLength:
		return nil, nil, validationError("name", fmt.Sprintf("ensure this field has no more than %d characters", maxRecipeNameLength))
	case strings.TrimSpace(req.Text) == "":
		return nil, nil, validationError("text", "this field may not be blank")
	case req.CookingTime < 1:
		return nil, nil, validationError("cooking_time", "cooking time must be at least 1 minute")
	case len(req.Tags) == 0:
		return nil, nil, validationError("tags", "at least one tag is required")
	}

	seenTags := make(map[uint]bool, len(req.Tags))
	for _, id := range req.Tags {
		if seenTags[id] {
			return nil, nil, validationError("tags", "tags must be unique")
		}
		seenTags[id] = true
	}

	if len(req.Ingredients) == 0 {
		return nil, nil, validationError("ingredients", "at least one ingredient is required")
	}

	seenIngredients := make(map[uint]bool, len(req.Ingredients))
	ingredients := make([]repository.IngredientAmount, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		if seenIngredients[item.ID] {
			return nil, nil, validationError("ingredients", "ingredients must be unique")
		}
		seenIngredients[item.ID] = true
		if item.Amount < 1 {
			return nil, nil, validationError("ingredients", "amount must be at least 1")
		}
		ingredients = append(ingredients, repository.IngredientAmount{IngredientID: item.ID, Amount: item.Amount})
	}

	return append([]uint(nil), req.Tags...), ingredients, nil
}

// resolveImage turns the image field into a stored URL.
// A data URI is uploaded, an http(s) URL is kept, and an empty value keeps current.
func (s *RecipeService) resolveImage(ctx context.Context, raw, current string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" && current != "":
		return current, nil
	case raw == "":
		return "", validationError("image", "an image is required")
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw, nil
	}

	data, contentType, err := decodeDataURI(raw)
	if err != nil {
		return "", validationError("image", err.Error())
	}
	url, err := s.images.Save(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return url, nil
}
