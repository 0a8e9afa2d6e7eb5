package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipeService   service.IRecipeService
	favoriteService service.IRecipeToggleService
	cartService     service.IRecipeToggleService
	shoppingService service.IShoppingListService
}

func NewRecipeHandler(
	recipeService service.IRecipeService,
	favoriteService service.IRecipeToggleService,
	cartService service.IRecipeToggleService,
	shoppingService service.IShoppingListService,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		favoriteService: favoriteService,
		cartService:     cartService,
		shoppingService: shoppingService,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, guards Guards) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", chain(guards.Optional, h.ListRecipes)...)
		recipes.POST("", chain(guards.Required, guards.CreateLimit, h.CreateRecipe)...)
		recipes.GET("/download_shopping_cart", chain(guards.Required, h.DownloadShoppingCart)...)
		recipes.GET("/:id", chain(guards.Optional, h.GetRecipe)...)
		recipes.PUT("/:id", chain(guards.Required, guards.ModifyLimit, h.UpdateRecipe)...)
		recipes.PATCH("/:id", chain(guards.Required, guards.ModifyLimit, h.UpdateRecipe)...)
		recipes.DELETE("/:id", chain(guards.Required, h.DeleteRecipe)...)
		recipes.POST("/:id/favorite", chain(guards.Required, h.toggleAdd(h.favoriteService))...)
		recipes.DELETE("/:id/favorite", chain(guards.Required, h.toggleRemove(h.favoriteService))...)
		recipes.POST("/:id/shopping_cart", chain(guards.Required, h.toggleAdd(h.cartService))...)
		recipes.DELETE("/:id/shopping_cart", chain(guards.Required, h.toggleRemove(h.cartService))...)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var query types.RecipeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), &query, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.UserID(c)
	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe serves both PUT and PATCH; either way the body is a full recipe
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.UserID(c)
	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) toggleAdd(toggle service.IRecipeToggleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := recipeID(c)
		if !ok {
			return
		}

		userID, _ := middleware.UserID(c)
		mini, err := toggle.Add(c.Request.Context(), userID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, mini)
	}
}

func (h *RecipeHandler) toggleRemove(toggle service.IRecipeToggleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := recipeID(c)
		if !ok {
			return
		}

		userID, _ := middleware.UserID(c)
		if err := toggle.Remove(c.Request.Context(), userID, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart exports the aggregated cart as a plain-text attachment
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	items, err := h.shoppingService.BuildShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ShoppingListFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", service.RenderShoppingList(items))
}

func recipeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return uuid.Nil, false
	}
	return id, true
}
