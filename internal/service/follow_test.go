package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestFollowSelfAlwaysFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	follows := service.NewFollowService(f.stores)

	_, err := follows.Follow(ctx, f.reader.ID, f.reader.ID, 0)
	var selfErr *service.SelfReferenceError
	assert.ErrorAs(t, err, &selfErr)

	_, err = follows.Follow(ctx, f.reader.ID, f.author.ID, 0)
	require.NoError(t, err)

	_, err = follows.Follow(ctx, f.reader.ID, f.reader.ID, 0)
	assert.ErrorAs(t, err, &selfErr)

	_, err = follows.Follow(ctx, uuid.New(), uuid.Nil, 0)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	follows := service.NewFollowService(f.stores)

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.writeRequest(name, []uint{f.lunch.ID}, amount(f.eggs.ID, 1)))
		require.NoError(t, err)
	}

	sub, err := follows.Follow(ctx, f.reader.ID, f.author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, f.author.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, int64(3), sub.RecipesCount)
	assert.Len(t, sub.Recipes, 2)

	_, err = follows.Follow(ctx, f.reader.ID, f.author.ID, 2)
	var exists *service.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)

	require.NoError(t, follows.Unfollow(ctx, f.reader.ID, f.author.ID))

	err = follows.Unfollow(ctx, f.reader.ID, f.author.ID)
	var missing *service.NotFoundError
	assert.ErrorAs(t, err, &missing)

	assert.ErrorIs(t, follows.Unfollow(ctx, f.reader.ID, uuid.New()), service.ErrNotFound)
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	follows := service.NewFollowService(f.stores)
	baker := testhelpers.CreateUser(t, f.db, "baker")

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.writeRequest(name, []uint{f.lunch.ID}, amount(f.eggs.ID, 1)))
		require.NoError(t, err)
	}

	_, err := follows.Follow(ctx, f.reader.ID, f.author.ID, 0)
	require.NoError(t, err)
	_, err = follows.Follow(ctx, f.reader.ID, baker.ID, 0)
	require.NoError(t, err)

	t.Run("without recipes limit", func(t *testing.T) {
		list, err := follows.Subscriptions(ctx, f.reader.ID, &types.SubscriptionQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Count)
		require.Len(t, list.Results, 2)
		assert.Equal(t, f.author.ID, list.Results[0].ID)
		assert.Len(t, list.Results[0].Recipes, 3)
		assert.Equal(t, int64(3), list.Results[0].RecipesCount)
		assert.Empty(t, list.Results[1].Recipes)
		assert.NotNil(t, list.Results[1].Recipes)
	})

	t.Run("with recipes limit", func(t *testing.T) {
		list, err := follows.Subscriptions(ctx, f.reader.ID, &types.SubscriptionQuery{RecipesLimit: 1})
		require.NoError(t, err)
		require.Len(t, list.Results, 2)
		assert.Len(t, list.Results[0].Recipes, 1)
		assert.Equal(t, int64(3), list.Results[0].RecipesCount)
	})

	t.Run("paginated", func(t *testing.T) {
		list, err := follows.Subscriptions(ctx, f.reader.ID, &types.SubscriptionQuery{Pagination: types.Pagination{Page: 2, Limit: 1}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Count)
		require.Len(t, list.Results, 1)
		assert.Equal(t, baker.ID, list.Results[0].ID)
	})
}
