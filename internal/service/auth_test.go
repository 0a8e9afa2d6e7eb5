package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func setupAuthTest(t *testing.T) *service.AuthService {
	db := testhelpers.SetupSQLite(t)
	return service.NewAuthService(repository.NewUserRepository(db), "test-secret", time.Hour)
}

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "correct-horse",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	authSvc := setupAuthTest(t)
	ctx := context.Background()

	user, err := authSvc.Register(ctx, registerRequest("cook"))
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	token, err := authSvc.Login(ctx, "COOK@example.com", "correct-horse")
	require.NoError(t, err)

	claims, err := authSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "cook", claims.Username)
	assert.False(t, claims.IsStaff)
}

func TestRegisterDuplicate(t *testing.T) {
	authSvc := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerRequest("cook"))
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, registerRequest("cook"))
	var exists *service.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	authSvc := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerRequest("cook"))
	require.NoError(t, err)

	_, err = authSvc.Login(ctx, "cook@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	authSvc := setupAuthTest(t)
	user, err := authSvc.Register(context.Background(), registerRequest("cook"))
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := authSvc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := service.NewAuthService(nil, "another-secret", time.Hour)
		token, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := &types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
			UserID:           user.ID,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}
