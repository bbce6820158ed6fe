package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

type RateLimitConfig struct {
	RequestsPerPeriod int
	Period            time.Duration
	Store             limiter.Store
	// KeyFunc extracts the limiter key from the request; defaults to the
	// remote address.
	KeyFunc func(r *http.Request) string
}

func NewMemoryStore() limiter.Store {
	return memorystore.NewStore()
}

func NewRedisStore(redisURL string) (limiter.Store, error) {
	client := redis.NewClient(&redis.Options{Addr: redisURL})
	return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "directory:limiter",
	})
}

// RateLimit applies a global request-rate ceiling in front of all routes.
func RateLimit(config RateLimitConfig) mux.MiddlewareFunc {
	period := config.Period
	if period == 0 {
		period = time.Second
	}
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = func(r *http.Request) string { return r.RemoteAddr }
	}
	instance := limiter.New(config.Store, limiter.Rate{
		Period: period,
		Limit:  int64(config.RequestsPerPeriod),
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiterCtx, err := instance.Get(r.Context(), keyFunc(r))
			if err != nil {
				// A broken limiter store must not take the service down.
				next.ServeHTTP(w, r)
				return
			}
			if limiterCtx.Reached {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
