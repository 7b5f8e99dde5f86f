package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/foodiespace-backend/internal/api/middleware"
	"github.com/princeprakhar/foodiespace-backend/internal/api/routes"
	"github.com/princeprakhar/foodiespace-backend/internal/config"
	"github.com/princeprakhar/foodiespace-backend/internal/database"
	"github.com/princeprakhar/foodiespace-backend/internal/identity"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
	"github.com/princeprakhar/foodiespace-backend/internal/services"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger.Init()

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment == "production")
	if err != nil {
		logger.Fatal("Failed to initialize database: ", err)
	}

	provider, err := newIdentityProvider(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize identity provider: ", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to redis: ", err)
		}
		defer redisClient.Close()
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal("Failed to create rate limiter store: ", err)
	}

	deps := routes.Dependencies{
		Config:       cfg,
		Identity:     provider,
		Users:        repositories.NewUserRepository(db),
		Reviews:      repositories.NewReviewRepository(db),
		LimiterStore: limiterStore,
	}

	if cfg.SMTPEnabled() {
		deps.Notifier = services.NewEmailService(cfg)
	}
	if cfg.S3Enabled() {
		photos, err := services.NewS3Service(cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.Fatal("Failed to initialize S3: ", err)
		}
		deps.Photos = photos
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, deps)

	logger.Info("Server starting on port " + cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server: ", err)
	}
}

func newIdentityProvider(cfg *config.Config) (identity.Provider, error) {
	switch cfg.AuthProvider {
	case "firebase":
		return identity.NewFirebaseProvider(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
	case "jwt":
		return identity.NewJWTProvider(cfg.JWTSecret)
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}
}
