package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func tagIDs(resp *types.RecipeResponse) []uint {
	var ids []uint
	for _, tag := range resp.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

func ingredientAmounts(resp *types.RecipeResponse) map[uint]int {
	out := map[uint]int{}
	for _, line := range resp.Ingredients {
		out[line.ID] = line.Amount
	}
	return out
}

func TestCreateRecipeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.writeRequest("omelette", []uint{f.dinner.ID, f.lunch.ID}, amount(f.eggs.ID, 3), amount(f.flour.ID, 20))
	created, err := f.recipes.CreateRecipe(ctx, f.author.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "omelette", created.Name)
	assert.Equal(t, f.author.ID, created.Author.ID)

	got, err := f.recipes.GetRecipe(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{f.lunch.ID, f.dinner.ID}, tagIDs(got))
	assert.Equal(t, map[uint]int{f.eggs.ID: 3, f.flour.ID: 20}, ingredientAmounts(got))
	assert.Equal(t, "https://example.com/omelette.png", got.Image)
	assert.False(t, got.IsFavorited)
	assert.False(t, got.IsInShoppingCart)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown tag", func(t *testing.T) {
		_, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.writeRequest("a", []uint{999}, amount(f.eggs.ID, 1)))
		var vErr *service.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "tags", vErr.Field)
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		_, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.writeRequest("a", []uint{f.lunch.ID}, amount(999, 1)))
		var vErr *service.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "ingredients", vErr.Field)
	})

	t.Run("missing image", func(t *testing.T) {
		req := f.writeRequest("a", []uint{f.lunch.ID}, amount(f.eggs.ID, 1))
		req.Image = ""
		_, err := f.recipes.CreateRecipe(ctx, f.author.ID, req)
		var vErr *service.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "image", vErr.Field)
	})

	t.Run("bad image", func(t *testing.T) {
		req := f.writeRequest("a", []uint{f.lunch.ID}, amount(f.eggs.ID, 1))
		req.Image = "ftp://example.com/a.png"
		_, err := f.recipes.CreateRecipe(ctx, f.author.ID, req)
		var vErr *service.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "image", vErr.Field)
	})

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count, "failed creates leave nothing behind")
}

func TestCreateRecipeStoresDataURIImage(t *testing.T) {
	f := newFixture(t)

	req := f.writeRequest("toast", []uint{f.lunch.ID}, amount(f.flour.ID, 50))
	req.Image = pngDataURI

	created, err := f.recipes.CreateRecipe(context.Background(), f.author.ID, req)
	require.NoError(t, err)
	assert.Contains(t, created.Image, "https://cdn.example.com/recipes/")
	assert.Contains(t, created.Image, "image/png")
	assert.Len(t, f.images.saved, 1)
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.recipes.CreateRecipe(ctx, f.author.ID,
		f.writeRequest("stew", []uint{f.lunch.ID}, amount(f.eggs.ID, 2), amount(f.flour.ID, 100)))
	require.NoError(t, err)

	update := f.writeRequest("better stew", []uint{f.dinner.ID}, amount(f.flour.ID, 150), amount(f.eggsInG.ID, 60))
	update.Image = ""
	updated, err := f.recipes.UpdateRecipe(ctx, created.ID, f.author.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "better stew", updated.Name)
	assert.Equal(t, created.Image, updated.Image, "an empty image keeps the current one")

	got, err := f.recipes.GetRecipe(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.dinner.ID}, tagIDs(got))
	assert.Equal(t, map[uint]int{f.flour.ID: 150, f.eggsInG.ID: 60}, ingredientAmounts(got))
}

func TestUpdateRecipeFailureKeepsOldSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.recipes.CreateRecipe(ctx, f.author.ID,
		f.writeRequest("stew", []uint{f.lunch.ID}, amount(f.eggs.ID, 2)))
	require.NoError(t, err)

	_, err = f.recipes.UpdateRecipe(ctx, created.ID, f.author.ID,
		f.writeRequest("stew", []uint{f.dinner.ID}, amount(999, 1)))
	require.Error(t, err)

	got, err := f.recipes.GetRecipe(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.lunch.ID}, tagIDs(got))
	assert.Equal(t, map[uint]int{f.eggs.ID: 2}, ingredientAmounts(got))
}

func TestUpdateRecipePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.recipes.CreateRecipe(ctx, f.author.ID,
		f.writeRequest("stew", []uint{f.lunch.ID}, amount(f.eggs.ID, 2)))
	require.NoError(t, err)
	req := f.writeRequest("hijacked", []uint{f.lunch.ID}, amount(f.eggs.ID, 2))

	_, err = f.recipes.UpdateRecipe(ctx, created.ID, f.reader.ID, req)
	var permErr *service.PermissionError
	assert.ErrorAs(t, err, &permErr)

	err = f.recipes.DeleteRecipe(ctx, created.ID, f.reader.ID)
	assert.ErrorAs(t, err, &permErr)

	_, err = f.recipes.UpdateRecipe(ctx, uuid.New(), f.author.ID, req)
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, f.db.Model(f.reader).Update("is_staff", true).Error)
	updated, err := f.recipes.UpdateRecipe(ctx, created.ID, f.reader.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "hijacked", updated.Name)
	assert.Equal(t, f.author.ID, updated.Author.ID, "staff edits keep the author")

	require.NoError(t, f.recipes.DeleteRecipe(ctx, created.ID, f.reader.ID))
	_, err = f.recipes.GetRecipe(ctx, created.ID, nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListRecipesForViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soup, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.writeRequest("soup", []uint{f.lunch.ID}, amount(f.eggs.ID, 1)))
	require.NoError(t, err)
	_, err = f.recipes.CreateRecipe(ctx, f.author.ID, f.writeRequest("roast", []uint{f.dinner.ID}, amount(f.flour.ID, 1)))
	require.NoError(t, err)

	_, err = service.NewFavoriteService(f.stores).Add(ctx, f.reader.ID, soup.ID)
	require.NoError(t, err)
	_, err = service.NewFollowService(f.stores).Follow(ctx, f.reader.ID, f.author.ID, 0)
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		list, err := f.recipes.ListRecipes(ctx, &types.RecipeQuery{IsFavorited: true}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Count, "favorite filter is ignored for anonymous viewers")
		for _, r := range list.Results {
			assert.False(t, r.IsFavorited)
			assert.False(t, r.Author.IsSubscribed)
		}
	})

	t.Run("reader", func(t *testing.T) {
		list, err := f.recipes.ListRecipes(ctx, &types.RecipeQuery{}, &f.reader.ID)
		require.NoError(t, err)
		require.Len(t, list.Results, 2)
		for _, r := range list.Results {
			assert.Equal(t, r.ID == soup.ID, r.IsFavorited)
			assert.True(t, r.Author.IsSubscribed)
		}

		favorites, err := f.recipes.ListRecipes(ctx, &types.RecipeQuery{IsFavorited: true}, &f.reader.ID)
		require.NoError(t, err)
		require.Len(t, favorites.Results, 1)
		assert.Equal(t, soup.ID, favorites.Results[0].ID)
	})

	t.Run("filters", func(t *testing.T) {
		list, err := f.recipes.ListRecipes(ctx, &types.RecipeQuery{Tags: []string{"dinner"}}, nil)
		require.NoError(t, err)
		require.Len(t, list.Results, 1)
		assert.Equal(t, "roast", list.Results[0].Name)

		list, err = f.recipes.ListRecipes(ctx, &types.RecipeQuery{Author: f.reader.ID.String()}, nil)
		require.NoError(t, err)
		assert.Zero(t, list.Count)
		assert.Empty(t, list.Results)

		list, err = f.recipes.ListRecipes(ctx, &types.RecipeQuery{Pagination: types.Pagination{Page: 2, Limit: 1}}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Count)
		assert.Len(t, list.Results, 1)
	})
}
