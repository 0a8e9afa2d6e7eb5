package types

// RegisterRequest represents the request body for creating a user
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=50,username"`
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// RecipeWriteRequest is the body of recipe create and update calls.
// Field rules are checked by the recipe service so errors come back in a fixed order.
type RecipeWriteRequest struct {
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
	Tags        []uint                    `json:"tags"`
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	// Image is a base64 data URI or an http(s) URL
	Image string `json:"image"`
}

type IngredientAmountRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// Pagination carries the page and limit query parameters
type Pagination struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// RecipeQuery is the recipe listing filter
type RecipeQuery struct {
	Pagination
	Author           string   `form:"author" binding:"omitempty,uuid"`
	Tags             []string `form:"tags"`
	IsFavorited      bool     `form:"is_favorited"`
	IsInShoppingCart bool     `form:"is_in_shopping_cart"`
}

// SubscriptionQuery is the subscriptions listing filter
type SubscriptionQuery struct {
	Pagination
	RecipesLimit int `form:"recipes_limit" binding:"omitempty,min=0"`
}
