package types

import (
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
)

// MiniRecipe is the condensed recipe view used by favorites, the cart and subscriptions
type MiniRecipe struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type RecipeIngredient struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full read view of a recipe for one viewer
type RecipeResponse struct {
	MiniRecipe
	Author           UserResponse       `json:"author"`
	Tags             []models.Tag       `json:"tags"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	Text             string             `json:"text"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
}

type RecipeListResponse struct {
	Count   int64            `json:"count"`
	Results []RecipeResponse `json:"results"`
}
