package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zapas-be/internal/auth"
	"zapas-be/internal/config"
	"zapas-be/internal/db"
	"zapas-be/internal/logger"
	"zapas-be/internal/metrics"
	"zapas-be/internal/middleware"
	"zapas-be/internal/order"
	"zapas-be/internal/product"
	"zapas-be/internal/rest"
	"zapas-be/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Swapped in tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("server starting",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.AppEnv),
	)
	return startServerFunc(ctx, srv)
}

// newServer wires repositories, services and the HTTP stack. The rate
// limiter's cleanup goroutine lives as long as ctx.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) http.Handler {
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	reg := metrics.NewRegistry()

	userSvc := user.NewService(user.NewRepository(database), tokens)
	productSvc := product.NewService(product.NewRepository(database), product.CacheConfig{
		Size: cfg.CatalogCacheSize,
		TTL:  cfg.CatalogCacheTTL,
	})
	orderSvc := order.NewService(order.NewRepository(database), order.Options{
		IdempotencyWindow: cfg.IdempotencyWindow,
		Metrics:           reg,
	})

	router := rest.NewRouter(rest.Deps{
		Users:    userSvc,
		Products: productSvc,
		Orders:   orderSvc,
		Metrics:  reg,
	})

	limiter := middleware.NewRateLimiter(ctx, cfg.InternalSecretKey, "/api/auth/login", "/api/auth/register")
	return setupHandler(router, tokens, reg, limiter, cfg.FrontendURL)
}

// setupHandler wraps the router, outermost first:
// request id, auth, access log, CORS, rate limit.
func setupHandler(router http.Handler, tokens middleware.TokenParser, reg *metrics.Registry, limiter *middleware.RateLimiter, frontendURL string) http.Handler {
	h := limiter.Middleware(router)
	h = middleware.CORS(frontendURL)(h)
	h = middleware.Logging(reg)(h)
	h = middleware.Auth(tokens)(h)
	return logger.RequestIDMiddleware(h)
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
