package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestRelationRepository(t *testing.T) {
	for name, newRepo := range map[string]func(*gorm.DB) RelationRepository{
		"favorites":     NewFavoriteRepository,
		"shopping cart": NewShoppingCartRepository,
	} {
		t.Run(name, func(t *testing.T) {
			db := testhelpers.SetupSQLite(t)
			repo := newRepo(db)
			ctx := context.Background()

			user := testhelpers.CreateUser(t, db, "user")
			author := testhelpers.CreateUser(t, db, "author")
			recipe := testhelpers.CreateRecipe(t, db, author.ID, "soup", nil, nil)
			other := testhelpers.CreateRecipe(t, db, author.ID, "salad", nil, nil)

			require.NoError(t, repo.Add(ctx, user.ID, recipe.ID))
			assert.ErrorIs(t, repo.Add(ctx, user.ID, recipe.ID), ErrDuplicate)

			exists, err := repo.Exists(ctx, user.ID, recipe.ID)
			require.NoError(t, err)
			assert.True(t, exists)

			set, err := repo.SetFor(ctx, user.ID, []uuid.UUID{recipe.ID, other.ID})
			require.NoError(t, err)
			assert.True(t, set[recipe.ID])
			assert.False(t, set[other.ID])

			require.NoError(t, repo.Remove(ctx, user.ID, recipe.ID))
			assert.ErrorIs(t, repo.Remove(ctx, user.ID, recipe.ID), ErrNotFound)
			assert.ErrorIs(t, repo.Remove(ctx, user.ID, other.ID), ErrNotFound)
		})
	}
}

func TestFavoriteRepositoryConcurrentAdd(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	assertSingleWinner(t, db)
}

// assertSingleWinner races duplicate favorite inserts and checks the store keeps one row
func assertSingleWinner(t *testing.T, db *gorm.DB) {
	t.Helper()

	repo := NewFavoriteRepository(db)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "racer")
	recipe := testhelpers.CreateRecipe(t, db, user.ID, "contested", nil, nil)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Add(ctx, user.ID, recipe.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicate)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&models.FavoriteRecipe{}).Where("user_id = ? AND recipe_id = ?", user.ID, recipe.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFollowRepository(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, db, "reader")
	chef := testhelpers.CreateUser(t, db, "chef")
	baker := testhelpers.CreateUser(t, db, "baker")

	require.NoError(t, repo.Add(ctx, reader.ID, chef.ID))
	require.NoError(t, repo.Add(ctx, reader.ID, baker.ID))
	assert.ErrorIs(t, repo.Add(ctx, reader.ID, chef.ID), ErrDuplicate)

	t.Run("self follow is rejected by the store", func(t *testing.T) {
		err := repo.Add(ctx, reader.ID, reader.ID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicate)
	})

	t.Run("set", func(t *testing.T) {
		set, err := repo.SetFor(ctx, reader.ID, []uuid.UUID{chef.ID, reader.ID})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]bool{chef.ID: true}, set)

		set, err = repo.SetFor(ctx, chef.ID, []uuid.UUID{reader.ID})
		require.NoError(t, err)
		assert.Empty(t, set)
	})

	t.Run("list authors", func(t *testing.T) {
		authors, count, err := repo.ListAuthors(ctx, reader.ID, Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		require.Len(t, authors, 2)
		assert.Equal(t, chef.ID, authors[0].ID)
		assert.Equal(t, "chef", authors[0].Username)
		assert.Equal(t, baker.ID, authors[1].ID)

		authors, _, err = repo.ListAuthors(ctx, reader.ID, Page{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, authors, 1)
		assert.Equal(t, baker.ID, authors[0].ID)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, reader.ID, chef.ID))
		assert.ErrorIs(t, repo.Remove(ctx, reader.ID, chef.ID), ErrNotFound)

		exists, err := repo.Exists(ctx, reader.ID, chef.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
