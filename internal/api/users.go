package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	userService   service.IUserService
	followService service.IFollowService
}

func NewUserHandler(userService service.IUserService, followService service.IFollowService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, guards Guards) {
	users := router.Group("/users")
	{
		users.GET("", chain(guards.Optional, h.ListUsers)...)
		users.GET("/me", chain(guards.Required, h.Me)...)
		users.POST("/set_password", chain(guards.Required, h.SetPassword)...)
		users.GET("/subscriptions", chain(guards.Required, h.Subscriptions)...)
		users.GET("/:id", chain(guards.Optional, h.GetUser)...)
		users.POST("/:id/subscribe", chain(guards.Required, h.Subscribe)...)
		users.DELETE("/:id/subscribe", chain(guards.Required, h.Unsubscribe)...)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var page types.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBindError(c, err)
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), page, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.userService.GetUser(c.Request.Context(), userID, &userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.userService.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscribe follows the author and answers with the author's recipe preview.
// recipes_limit caps the preview; a missing or zero value shows every recipe.
func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}

	limit := 0
	if raw := c.Query("recipes_limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "must be a non-negative integer", Field: "recipes_limit"})
			return
		}
	}

	userID, _ := middleware.UserID(c)
	sub, err := h.followService.Follow(c.Request.Context(), userID, authorID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.followService.Unfollow(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	var query types.SubscriptionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.UserID(c)
	subs, err := h.followService.Subscriptions(c.Request.Context(), userID, &query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}
