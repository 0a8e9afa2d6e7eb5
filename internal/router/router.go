package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the services and infrastructure the routes are built from
type Dependencies struct {
	DB    *gorm.DB
	Redis *redis.Client

	Auth      service.IAuthService
	Users     service.IUserService
	Follows   service.IFollowService
	Recipes   service.IRecipeService
	Favorites service.IRecipeToggleService
	Cart      service.IRecipeToggleService
	Shopping  service.IShoppingListService
	Catalog   service.ICatalogService

	// CreateLimiter and ModifyLimiter may be nil to disable rate limiting
	CreateLimiter middleware.Limiter
	ModifyLimiter middleware.Limiter

	CORSOrigins []string
	// MediaDir is served under /media when images are stored on disk
	MediaDir string
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.Metrics(),
		middleware.CORS(deps.CORSOrigins),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "not found"})
	})

	health := api.NewHealthHandler(deps.DB, deps.Redis)
	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.MediaDir != "" {
		router.Static("/media", deps.MediaDir)
	}

	guards := api.Guards{
		Required: middleware.RequireAuth(deps.Auth),
		Optional: middleware.OptionalAuth(deps.Auth),
	}
	if deps.CreateLimiter != nil {
		guards.CreateLimit = middleware.RateLimit(deps.CreateLimiter, "recipe_creation", middleware.ByUser)
	}
	if deps.ModifyLimiter != nil {
		guards.ModifyLimit = middleware.RateLimit(deps.ModifyLimiter, "recipe_modification", middleware.ByUserAndRecipe)
	}

	v1 := router.Group("/api")
	api.NewAuthHandler(deps.Auth).RegisterRoutes(v1, guards)
	api.NewUserHandler(deps.Users, deps.Follows).RegisterRoutes(v1, guards)
	api.NewRecipeHandler(deps.Recipes, deps.Favorites, deps.Cart, deps.Shopping).RegisterRoutes(v1, guards)
	api.NewCatalogHandler(deps.Catalog).RegisterRoutes(v1, guards)

	return router
}
