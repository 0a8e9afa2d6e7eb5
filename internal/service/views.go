package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	defaultPageLimit = 6
	maxPageLimit     = 100
)

// Stores groups the repositories the services read from
type Stores struct {
	Users       repository.UserRepository
	Tags        repository.TagRepository
	Ingredients repository.IngredientRepository
	Recipes     repository.RecipeRepository
	Favorites   repository.RelationRepository
	Cart        repository.RelationRepository
	Follows     repository.FollowRepository
}

// NewStores wires the gorm repositories over db
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Users:       repository.NewUserRepository(db),
		Tags:        repository.NewTagRepository(db),
		Ingredients: repository.NewIngredientRepository(db),
		Recipes:     repository.NewRecipeRepository(db),
		Favorites:   repository.NewFavoriteRepository(db),
		Cart:        repository.NewShoppingCartRepository(db),
		Follows:     repository.NewFollowRepository(db),
	}
}

// viewBuilder assembles response views for an explicit viewer, one query per association kind
type viewBuilder struct {
	stores Stores
}

func (b viewBuilder) users(ctx context.Context, users []models.User, viewer *uuid.UUID) ([]types.UserResponse, error) {
	subscribed := map[uuid.UUID]bool{}
	if viewer != nil && len(users) > 0 {
		ids := make([]uuid.UUID, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var err error
		if subscribed, err = b.stores.Follows.SetFor(ctx, *viewer, ids); err != nil {
			return nil, err
		}
	}

	out := make([]types.UserResponse, len(users))
	for i, u := range users {
		out[i] = userView(u, subscribed[u.ID])
	}
	return out, nil
}

func (b viewBuilder) recipes(ctx context.Context, recipes []models.Recipe, viewer *uuid.UUID) ([]types.RecipeResponse, error) {
	out := make([]types.RecipeResponse, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	recipeIDs := make([]uuid.UUID, len(recipes))
	var authorIDs []uuid.UUID
	seenAuthor := map[uuid.UUID]bool{}
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		if !seenAuthor[r.AuthorID] {
			seenAuthor[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authorsByID, err := b.stores.Users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	authorList := make([]models.User, 0, len(authorIDs))
	for _, id := range authorIDs {
		authorList = append(authorList, authorsByID[id])
	}
	authorViews, err := b.users(ctx, authorList, viewer)
	if err != nil {
		return nil, err
	}
	authors := make(map[uuid.UUID]types.UserResponse, len(authorViews))
	for i, id := range authorIDs {
		authors[id] = authorViews[i]
	}

	tags, err := b.stores.Tags.ListForRecipes(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}
	ingredients, err := b.stores.Ingredients.ListForRecipes(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}

	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	if viewer != nil {
		if favorited, err = b.stores.Favorites.SetFor(ctx, *viewer, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = b.stores.Cart.SetFor(ctx, *viewer, recipeIDs); err != nil {
			return nil, err
		}
	}

	for _, r := range recipes {
		view := types.RecipeResponse{
			MiniRecipe:       miniRecipe(r),
			Author:           authors[r.AuthorID],
			Tags:             tags[r.ID],
			Ingredients:      make([]types.RecipeIngredient, 0, len(ingredients[r.ID])),
			Text:             r.Text,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
		}
		if view.Tags == nil {
			view.Tags = []models.Tag{}
		}
		for _, line := range ingredients[r.ID] {
			view.Ingredients = append(view.Ingredients, types.RecipeIngredient{
				ID:              line.IngredientID,
				Name:            line.Name,
				MeasurementUnit: line.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		out = append(out, view)
	}
	return out, nil
}

// subscriptions builds the author views seen by a follower, each with a preview of recipesLimit recipes
func (b viewBuilder) subscriptions(ctx context.Context, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	out := make([]types.SubscriptionResponse, 0, len(authors))
	if len(authors) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	counts, err := b.stores.Recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	recipes, err := b.stores.Recipes.ListByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	for _, a := range authors {
		minis := make([]types.MiniRecipe, 0, len(recipes[a.ID]))
		for _, r := range recipes[a.ID] {
			minis = append(minis, miniRecipe(r))
		}
		out = append(out, types.SubscriptionResponse{
			UserResponse: userView(a, true),
			Recipes:      minis,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}

func userView(u models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func miniRecipe(r models.Recipe) types.MiniRecipe {
	return types.MiniRecipe{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// pageOf turns page/limit parameters into a bounded repository page
func pageOf(p types.Pagination) repository.Page {
	limit := p.Limit
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return repository.Page{Limit: limit, Offset: (page - 1) * limit}
}
