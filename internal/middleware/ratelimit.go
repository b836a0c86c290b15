package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/smart-planner/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultRate is used when no rate is configured
const DefaultRate = "120-M"

// RateLimit returns ulule/limiter middleware at the formatted rate ("120-M").
// Counters live in Redis when a client is given and in process memory otherwise.
// Authenticated callers are keyed by user id, everyone else by client IP.
func RateLimit(redisClient *redis.Client, rate string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "planner_ratelimit"})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed),
		stdlibmw.WithKeyGetter(rateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_error", zap.Error(err))
			respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Rate limiter unavailable", logger)
		}),
	)
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if id, ok := request.UserID(r); ok {
		return "user:" + id.String()
	}
	return "ip:" + request.ClientIP(r)
}
