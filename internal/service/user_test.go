package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestUserServiceViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := service.NewUserService(f.stores)

	_, err := service.NewFollowService(f.stores).Follow(ctx, f.reader.ID, f.author.ID, 0)
	require.NoError(t, err)

	got, err := users.GetUser(ctx, f.author.ID, &f.reader.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSubscribed)

	got, err = users.GetUser(ctx, f.author.ID, nil)
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)

	_, err = users.GetUser(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, service.ErrNotFound)

	list, err := users.ListUsers(ctx, types.Pagination{}, &f.reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Count)
	for _, u := range list.Results {
		assert.Equal(t, u.ID == f.author.ID, u.IsSubscribed)
	}
}

func TestSetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authSvc := service.NewAuthService(f.stores.Users, "secret", time.Hour)
	users := service.NewUserService(f.stores)

	user, err := authSvc.Register(ctx, registerRequest("changer"))
	require.NoError(t, err)

	err = users.SetPassword(ctx, user.ID, "wrong", "new-password-1")
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "current_password", vErr.Field)

	require.NoError(t, users.SetPassword(ctx, user.ID, "correct-horse", "new-password-1"))

	_, err = authSvc.Login(ctx, user.Email, "correct-horse")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = authSvc.Login(ctx, user.Email, "new-password-1")
	assert.NoError(t, err)
}
