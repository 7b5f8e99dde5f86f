package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodiespace-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLimiterStore keeps counters in redis when a client is given so that every instance shares
// them, and in process memory otherwise.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStore(), nil
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "foodiespace:limiter",
		MaxRetry: 3,
	})
}

func RateLimitMiddleware(cfg *config.Config, store limiter.Store) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: time.Second,
		Limit:  int64(cfg.RateLimitRPS),
	}

	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(true))

	return mgin.NewMiddleware(instance, mgin.WithKeyGetter(func(c *gin.Context) string {
		return fmt.Sprintf("%s:%s", c.ClientIP(), c.Request.URL.Path)
	}))
}
