package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/campus-sdk/modules"
	"github.com/iota-uz/campus-sdk/modules/dtr"
	"github.com/iota-uz/campus-sdk/pkg/application"
	"github.com/iota-uz/campus-sdk/pkg/configuration"
	"github.com/iota-uz/campus-sdk/pkg/eventbus"
	"github.com/iota-uz/campus-sdk/pkg/metrics"
	"github.com/iota-uz/campus-sdk/pkg/middleware"
	"github.com/iota-uz/campus-sdk/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules(conf)...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}
	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader
	app.RegisterMiddleware(
		middleware.WithLogger(logger, loggerOpts),
		middleware.Cors(conf.CORSOrigins...),
		middleware.WithPool(pool),
	)
	if conf.RateLimit.Enabled {
		app.RegisterMiddleware(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.PerMinute,
			Period:            time.Minute,
			Store:             rateLimitStore(conf, logger),
			RealIPHeader:      conf.RealIPHeader,
			Match:             isUpload,
		}))
	}

	startRelay(ctx, conf, pool, logger)

	srv := server.NewHTTPServer(app, nil, nil)
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := srv.Start(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// Only uploads are limited; they are the expensive requests.
func isUpload(r *http.Request) bool {
	return r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/imports")
}

func rateLimitStore(conf *configuration.Configuration, logger *logrus.Logger) limiter.Store {
	if conf.RateLimit.Storage == "redis" {
		store, err := middleware.NewRedisStore(conf.RedisURL)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
	}
	return middleware.NewMemoryStore()
}

func startRelay(ctx context.Context, conf *configuration.Configuration, pool *pgxpool.Pool, logger *logrus.Logger) {
	relayLog := logger.WithField("component", "outbox")
	relay, err := dtr.NewRelay(pool, conf.DTR, logger)
	if err != nil {
		relayLog.WithError(err).Warn("outbox: failed to create relay")
		return
	}
	if relay == nil {
		relayLog.Info("outbox: DTR_RELAY_URL is empty; relay disabled")
		return
	}
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			relayLog.WithError(err).Error("outbox: relay stopped")
		}
	}()
}
