package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
}

// IUserService defines the interface for user read operations and password changes
type IUserService interface {
	GetUser(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.UserResponse, error)
	ListUsers(ctx context.Context, page types.Pagination, viewer *uuid.UUID) (*types.UserListResponse, error)
	SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeWriteRequest) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, recipeID, editorID uuid.UUID, req *types.RecipeWriteRequest) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, recipeID, editorID uuid.UUID) error
	GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.RecipeResponse, error)
	ListRecipes(ctx context.Context, query *types.RecipeQuery, viewer *uuid.UUID) (*types.RecipeListResponse, error)
}

// IShoppingListService builds the aggregated shopping list of a user's cart
type IShoppingListService interface {
	BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error)
}

// IRecipeToggleService adds and removes a (user, recipe) relation such as a favorite
type IRecipeToggleService interface {
	Add(ctx context.Context, userID, recipeID uuid.UUID) (*types.MiniRecipe, error)
	Remove(ctx context.Context, userID, recipeID uuid.UUID) error
}

// IFollowService defines the interface for subscriptions between users
type IFollowService interface {
	Follow(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*types.SubscriptionResponse, error)
	Unfollow(ctx context.Context, userID, authorID uuid.UUID) error
	Subscriptions(ctx context.Context, userID uuid.UUID, query *types.SubscriptionQuery) (*types.SubscriptionListResponse, error)
}

// ICatalogService exposes the read-only tag and ingredient reference data
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// ImageStore persists uploaded recipe images and returns their public URL
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
}
