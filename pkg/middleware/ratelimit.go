package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/httpapi"
)

type RateLimitConfig struct {
	RequestsPerPeriod int64
	Period            time.Duration
	Store             limiter.Store
	RealIPHeader      string
	// Only matching requests are counted; nil counts everything.
	Match func(r *http.Request) bool
}

func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

func NewRedisStore(addr string) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(redis.NewClient(&redis.Options{Addr: addr}), limiter.StoreOptions{
		Prefix: "dtr:ratelimit",
	})
}

// RateLimit limits requests per client address and answers 429 with the
// standard error envelope once the limit is reached.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	if cfg.Period == 0 {
		cfg.Period = time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	instance := limiter.New(cfg.Store, limiter.Rate{Period: cfg.Period, Limit: cfg.RequestsPerPeriod})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.RequestsPerPeriod <= 0 || (cfg.Match != nil && !cfg.Match(r)) {
				next.ServeHTTP(w, r)
				return
			}
			lctx, err := instance.Get(r.Context(), clientKey(r, cfg.RealIPHeader))
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Warn("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				requestID, _ := composables.UseRequestID(r.Context())
				_ = httpapi.WriteError(w, http.StatusTooManyRequests, requestID, "RATE_LIMITED", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request, realIPHeader string) string {
	if realIPHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(realIPHeader)); v != "" {
			return v
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
