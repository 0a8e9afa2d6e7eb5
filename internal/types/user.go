package types

import "github.com/google/uuid"

// UserResponse is the public view of a user
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type UserListResponse struct {
	Count   int64          `json:"count"`
	Results []UserResponse `json:"results"`
}

// SubscriptionResponse is a followed author with a preview of their recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []MiniRecipe `json:"recipes"`
	RecipesCount int64        `json:"recipes_count"`
}

type SubscriptionListResponse struct {
	Count   int64                  `json:"count"`
	Results []SubscriptionResponse `json:"results"`
}
