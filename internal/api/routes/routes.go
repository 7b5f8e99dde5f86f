package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/princeprakhar/foodiespace-backend/internal/api/handlers"
	"github.com/princeprakhar/foodiespace-backend/internal/api/middleware"
	"github.com/princeprakhar/foodiespace-backend/internal/config"
	"github.com/princeprakhar/foodiespace-backend/internal/identity"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
	"github.com/princeprakhar/foodiespace-backend/internal/services"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
	"github.com/ulule/limiter/v3"
)

// Dependencies carries everything the HTTP layer needs. Notifier and Photos may be nil.
type Dependencies struct {
	Config       *config.Config
	Identity     identity.Provider
	Users        repositories.UserRepository
	Reviews      repositories.ReviewRepository
	Notifier     services.Notifier
	Photos       services.PhotoStore
	LimiterStore limiter.Store
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Request bodies must match their schema exactly.
	binding.EnableDecoderDisallowUnknownFields = true

	// Middleware
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(deps.Config))
	if deps.LimiterStore != nil {
		router.Use(middleware.RateLimitMiddleware(deps.Config, deps.LimiterStore))
	}

	// Initialize services
	userService := services.NewUserService(deps.Users, deps.Reviews, deps.Identity)
	reviewService := services.NewReviewService(deps.Reviews, deps.Users, deps.Notifier, deps.Photos)
	adminService := services.NewAdminService(deps.Users, deps.Reviews)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	adminHandler := handlers.NewAdminHandler(adminService)

	auth := middleware.AuthMiddleware(deps.Identity)
	adminOnly := middleware.AdminOnly(deps.Users)

	// Health check
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	}
	router.GET("/", health)
	router.GET("/health", health)

	users := router.Group("/users")
	{
		users.POST("", userHandler.Register)
		users.GET("", auth, adminOnly, userHandler.ListUsers)
		users.GET("/favorites", auth, userHandler.GetFavorites)
		users.PATCH("/profile", auth, userHandler.UpdateProfile)
		users.GET("/:email", auth, userHandler.GetUser)
		users.PATCH("/:email/role", auth, adminOnly, userHandler.UpdateRole)
		users.DELETE("/:id", auth, adminOnly, userHandler.DeleteUser)
	}

	// Fixed segments are registered before /:id; gin prefers static matches either way.
	reviews := router.Group("/reviews")
	{
		reviews.GET("", reviewHandler.GetApprovedReviews)
		reviews.POST("", auth, reviewHandler.CreateReview)
		reviews.GET("/my-reviews", auth, reviewHandler.GetMyReviews)
		reviews.GET("/search", reviewHandler.SearchReviews)
		reviews.GET("/pending", auth, adminOnly, reviewHandler.GetPendingReviews)
		reviews.GET("/all", auth, adminOnly, reviewHandler.GetAllReviews)

		reviews.GET("/:id", reviewHandler.GetReview)
		reviews.PUT("/:id", auth, reviewHandler.UpdateReview)
		reviews.DELETE("/:id", auth, reviewHandler.DeleteReview)
		reviews.PATCH("/:id/status", auth, adminOnly, reviewHandler.UpdateStatus)
		reviews.PATCH("/:id/favorite", auth, reviewHandler.ToggleFavorite)
		reviews.POST("/:id/photo", auth, reviewHandler.UploadPhoto)
	}

	admin := router.Group("/admin", auth, adminOnly)
	{
		admin.GET("/stats", adminHandler.GetDashboard)
		admin.POST("/favorites/reconcile", adminHandler.ReconcileFavorites)
	}

	logger.Info("Routes initialized successfully")
}
