package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type recipeFixture struct {
	db        *gorm.DB
	repo      RecipeRepository
	author    *models.User
	lunch     *models.Tag
	dinner    *models.Tag
	breakfast *models.Tag
	eggs      *models.Ingredient
	flour     *models.Ingredient
	milk      *models.Ingredient
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := testhelpers.SetupSQLite(t)
	return &recipeFixture{
		db:        db,
		repo:      NewRecipeRepository(db),
		author:    testhelpers.CreateUser(t, db, "author"),
		lunch:     testhelpers.CreateTag(t, db, "lunch"),
		dinner:    testhelpers.CreateTag(t, db, "dinner"),
		breakfast: testhelpers.CreateTag(t, db, "breakfast"),
		eggs:      testhelpers.CreateIngredient(t, db, "eggs", "pcs"),
		flour:     testhelpers.CreateIngredient(t, db, "flour", "g"),
		milk:      testhelpers.CreateIngredient(t, db, "milk", "ml"),
	}
}

func (f *recipeFixture) tagIDs(t *testing.T, recipeID uuid.UUID) []uint {
	var ids []uint
	require.NoError(t, f.db.Model(&models.RecipeTag{}).Where("recipe_id = ?", recipeID).Pluck("tag_id", &ids).Error)
	return ids
}

func (f *recipeFixture) amounts(t *testing.T, recipeID uuid.UUID) map[uint]int {
	var rows []models.RecipeIngredient
	require.NoError(t, f.db.Where("recipe_id = ?", recipeID).Find(&rows).Error)
	out := make(map[uint]int, len(rows))
	for _, row := range rows {
		out[row.IngredientID] = row.Amount
	}
	return out
}

func (f *recipeFixture) newRecipe(name string) *models.Recipe {
	return &models.Recipe{
		AuthorID:    f.author.ID,
		Name:        name,
		Image:       "https://example.com/" + name + ".png",
		Text:        "Mix and bake",
		CookingTime: 30,
	}
}

func TestRecipeRepositoryCreate(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe := f.newRecipe("pancakes")
	err := f.repo.Create(ctx, recipe,
		[]uint{f.breakfast.ID, f.lunch.ID},
		[]IngredientAmount{{IngredientID: f.eggs.ID, Amount: 2}, {IngredientID: f.flour.ID, Amount: 200}},
	)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, recipe.ID)

	assert.ElementsMatch(t, []uint{f.breakfast.ID, f.lunch.ID}, f.tagIDs(t, recipe.ID))
	assert.Equal(t, map[uint]int{f.eggs.ID: 2, f.flour.ID: 200}, f.amounts(t, recipe.ID))

	got, err := f.repo.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "pancakes", got.Name)
	assert.Equal(t, f.author.ID, got.AuthorID)
}

func TestRecipeRepositoryCreateRollsBack(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe := f.newRecipe("broken")
	recipe.CookingTime = 0

	err := f.repo.Create(ctx, recipe, []uint{f.lunch.ID}, []IngredientAmount{{IngredientID: f.eggs.ID, Amount: 1}})
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&models.RecipeTag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeRepositoryUpdateReplacesAssociations(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe := f.newRecipe("omelette")
	require.NoError(t, f.repo.Create(ctx, recipe,
		[]uint{f.breakfast.ID, f.lunch.ID},
		[]IngredientAmount{{IngredientID: f.eggs.ID, Amount: 2}, {IngredientID: f.milk.ID, Amount: 50}},
	))

	var kept models.RecipeTag
	require.NoError(t, f.db.Where("recipe_id = ? AND tag_id = ?", recipe.ID, f.breakfast.ID).First(&kept).Error)

	recipe.Name = "big omelette"
	recipe.CookingTime = 15
	err := f.repo.Update(ctx, recipe,
		[]uint{f.breakfast.ID, f.dinner.ID},
		[]IngredientAmount{{IngredientID: f.eggs.ID, Amount: 4}, {IngredientID: f.flour.ID, Amount: 10}},
	)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint{f.breakfast.ID, f.dinner.ID}, f.tagIDs(t, recipe.ID))
	assert.Equal(t, map[uint]int{f.eggs.ID: 4, f.flour.ID: 10}, f.amounts(t, recipe.ID))

	var still models.RecipeTag
	require.NoError(t, f.db.Where("recipe_id = ? AND tag_id = ?", recipe.ID, f.breakfast.ID).First(&still).Error)
	assert.Equal(t, kept.ID, still.ID, "unchanged association rows are kept")

	got, err := f.repo.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "big omelette", got.Name)
	assert.Equal(t, 15, got.CookingTime)
}

func TestRecipeRepositoryUpdateMissing(t *testing.T) {
	f := newRecipeFixture(t)

	recipe := f.newRecipe("ghost")
	recipe.ID = uuid.New()
	err := f.repo.Update(context.Background(), recipe, []uint{f.lunch.ID}, []IngredientAmount{{IngredientID: f.eggs.ID, Amount: 1}})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.RecipeTag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeRepositoryDeleteCascades(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, f.db, "reader")
	recipe := testhelpers.CreateRecipe(t, f.db, f.author.ID, "stew", []uint{f.dinner.ID}, map[uint]int{f.eggs.ID: 1})
	other := testhelpers.CreateRecipe(t, f.db, f.author.ID, "bread", []uint{f.dinner.ID}, map[uint]int{f.flour.ID: 500})

	require.NoError(t, NewFavoriteRepository(f.db).Add(ctx, reader.ID, recipe.ID))
	require.NoError(t, NewShoppingCartRepository(f.db).Add(ctx, reader.ID, recipe.ID))
	require.NoError(t, NewShoppingCartRepository(f.db).Add(ctx, reader.ID, other.ID))

	require.NoError(t, f.repo.Delete(ctx, recipe.ID))

	_, err := f.repo.GetByID(ctx, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, model := range []interface{}{&models.RecipeTag{}, &models.RecipeIngredient{}, &models.FavoriteRecipe{}, &models.ShoppingCartItem{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	assert.Len(t, f.tagIDs(t, other.ID), 1)
	inCart, err := NewShoppingCartRepository(f.db).Exists(ctx, reader.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, inCart)

	assert.ErrorIs(t, f.repo.Delete(ctx, recipe.ID), ErrNotFound)
}

func TestRecipeRepositoryList(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	other := testhelpers.CreateUser(t, f.db, "other")
	first := testhelpers.CreateRecipe(t, f.db, f.author.ID, "first", []uint{f.lunch.ID}, nil)
	second := testhelpers.CreateRecipe(t, f.db, f.author.ID, "second", []uint{f.dinner.ID}, nil)
	third := testhelpers.CreateRecipe(t, f.db, other.ID, "third", []uint{f.breakfast.ID, f.dinner.ID}, nil)

	base := time.Now().Add(-time.Hour)
	for i, r := range []*models.Recipe{first, second, third} {
		require.NoError(t, f.db.Model(r).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	names := func(recipes []models.Recipe) []string {
		var out []string
		for _, r := range recipes {
			out = append(out, r.Name)
		}
		return out
	}

	t.Run("newest first", func(t *testing.T) {
		recipes, count, err := f.repo.List(ctx, RecipeFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.Equal(t, []string{"third", "second", "first"}, names(recipes))
	})

	t.Run("page", func(t *testing.T) {
		recipes, count, err := f.repo.List(ctx, RecipeFilter{Page: Page{Limit: 1, Offset: 1}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.Equal(t, []string{"second"}, names(recipes))
	})

	t.Run("author", func(t *testing.T) {
		recipes, count, err := f.repo.List(ctx, RecipeFilter{AuthorID: &f.author.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.Equal(t, []string{"second", "first"}, names(recipes))
	})

	t.Run("tags are ORed", func(t *testing.T) {
		recipes, count, err := f.repo.List(ctx, RecipeFilter{TagSlugs: []string{"dinner", "breakfast"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.Equal(t, []string{"third", "second"}, names(recipes))
	})

	t.Run("favorited and in cart", func(t *testing.T) {
		require.NoError(t, NewFavoriteRepository(f.db).Add(ctx, other.ID, first.ID))
		require.NoError(t, NewShoppingCartRepository(f.db).Add(ctx, other.ID, second.ID))

		recipes, _, err := f.repo.List(ctx, RecipeFilter{FavoritedBy: &other.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, names(recipes))

		recipes, _, err = f.repo.List(ctx, RecipeFilter{InCartOf: &other.ID, TagSlugs: []string{"dinner"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"second"}, names(recipes))
	})
}

func TestRecipeRepositoryByAuthors(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	other := testhelpers.CreateUser(t, f.db, "other")
	lonely := testhelpers.CreateUser(t, f.db, "lonely")
	for _, name := range []string{"a", "b", "c"} {
		testhelpers.CreateRecipe(t, f.db, f.author.ID, name, nil, nil)
	}
	testhelpers.CreateRecipe(t, f.db, other.ID, "d", nil, nil)

	ids := []uuid.UUID{f.author.ID, other.ID, lonely.ID}

	counts, err := f.repo.CountByAuthors(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[f.author.ID])
	assert.Equal(t, int64(1), counts[other.ID])
	assert.Zero(t, counts[lonely.ID])

	limited, err := f.repo.ListByAuthors(ctx, ids, 2)
	require.NoError(t, err)
	assert.Len(t, limited[f.author.ID], 2)
	assert.Len(t, limited[other.ID], 1)
	assert.Empty(t, limited[lonely.ID])

	all, err := f.repo.ListByAuthors(ctx, ids, 0)
	require.NoError(t, err)
	assert.Len(t, all[f.author.ID], 3)
}

func TestRecipeRepositoryShoppingRows(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	buyer := testhelpers.CreateUser(t, f.db, "buyer")
	cart := NewShoppingCartRepository(f.db)

	rows, err := f.repo.ShoppingRows(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	a := testhelpers.CreateRecipe(t, f.db, f.author.ID, "a", nil, map[uint]int{f.eggs.ID: 2, f.milk.ID: 100})
	b := testhelpers.CreateRecipe(t, f.db, f.author.ID, "b", nil, map[uint]int{f.eggs.ID: 3})
	testhelpers.CreateRecipe(t, f.db, f.author.ID, "not in cart", nil, map[uint]int{f.flour.ID: 1})
	require.NoError(t, cart.Add(ctx, buyer.ID, a.ID))
	require.NoError(t, cart.Add(ctx, buyer.ID, b.ID))

	rows, err = f.repo.ShoppingRows(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "eggs", rows[0].Name)
	assert.Equal(t, "eggs", rows[1].Name)
	assert.Equal(t, ShoppingRow{Name: "milk", MeasurementUnit: "ml", Amount: 100}, rows[2])
	assert.ElementsMatch(t, []int{2, 3}, []int{rows[0].Amount, rows[1].Amount})
}
