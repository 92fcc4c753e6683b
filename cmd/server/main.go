package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookheaven-be/internal/book"
	"bookheaven-be/internal/config"
	"bookheaven-be/internal/db"
	"bookheaven-be/internal/events"
	"bookheaven-be/internal/lock"
	"bookheaven-be/internal/logger"
	"bookheaven-be/internal/metrics"
	"bookheaven-be/internal/middleware"
	"bookheaven-be/internal/order"
	"bookheaven-be/internal/rest"
	"bookheaven-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tokenTTL        = 24 * time.Hour
	loginPath       = "/api/auth/login"
	shutdownTimeout = 10 * time.Second
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	handler, cleanup := newServer(ctx, cfg, database)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- startServerFunc(srv) }()
	logger.L().Info("server started", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires stores, services, and transport. The returned func releases
// the event publisher and lock backend.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, func()) {
	m := metrics.NewOrderMetrics()
	publisher := newPublisher(cfg)
	locker, closeLocker := newLocker(cfg)

	books := book.NewRepository(database)
	users := user.NewRepository(database)
	orders := order.NewRepository(database)

	orderSvc := order.NewService(orders, books, users, locker, publisher, m, order.PolicyFor(cfg.TransitionPolicy))
	userSvc := user.NewService(users, []byte(cfg.JWTSecret), tokenTTL)

	limiter := middleware.NewRateLimiter(cfg.InternalKey, loginPath)
	go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	h := rest.NewHandler(orderSvc, userSvc, m, tokenTTL)
	router := setupRouter(h, limiter, []byte(cfg.JWTSecret))

	return router, func() {
		if err := publisher.Close(); err != nil {
			logger.L().Warn("failed to close event publisher", zap.Error(err))
		}
		closeLocker()
	}
}

func setupRouter(h *rest.Handler, limiter *middleware.RateLimiter, secret []byte) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = middleware.AuthMiddleware(secret)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	handler = middleware.Recover(handler)
	return handler
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.L().Info("no kafka brokers configured, order events disabled")
		return events.Nop{}
	}
	logger.L().Info("publishing order events",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.OrderEventsTopic),
	)
	return events.NewKafka(cfg.KafkaBrokers, cfg.OrderEventsTopic)
}

func newLocker(cfg *config.Config) (lock.Locker, func()) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.L().Info("using redis order locks", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.LockTTL))
	return lock.NewRedis(client, cfg.LockTTL), func() {
		if err := client.Close(); err != nil {
			logger.L().Warn("failed to close redis client", zap.Error(err))
		}
	}
}
