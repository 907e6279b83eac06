// Package server initializes and runs the gophauth server: it opens the
// database, runs migrations, builds the auth core and serves the HTTP API
// until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	userService *services.UserService
	limiter     throttle.Limiter
	metrics     *metrics.Metrics
}

// NewApp wires every dependency from cfg. The caller owns the returned App
// and must call Close.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	return newApp(ctx, cfg, logger, dbx.DefaultOpenOptions)
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger, openOpts dbx.OpenOptions) (*App, error) {
	app := &App{config: cfg, logger: logger, metrics: metrics.New()}

	db, target, err := dbx.Open(ctx, cfg.DatabaseURI, openOpts)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm, err := repomanager.New(target.Dialect)
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher, auth.DefaultArgon2Params, cfg.BcryptCost)
	if err != nil {
		app.Close()
		return nil, err
	}
	issuer := auth.NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL)

	app.userService, err = services.NewUserService(rm.Users(db), hasher, issuer, logger.With("module", "user_service"))
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := app.initLimiter(); err != nil {
		app.Close()
		return nil, err
	}

	logger.Info(ctx, "App initialized", "dialect", string(target.Dialect), "hasher", cfg.PasswordHasher)

	return app, nil
}

func (app *App) initLimiter() error {
	policy := throttle.Policy{
		MaxAttempts: app.config.LoginMaxAttempts,
		Window:      app.config.LoginWindow,
		LockFor:     app.config.LoginLockDuration,
	}

	switch {
	case !policy.Enabled():
		app.limiter = throttle.Nop{}
	case app.config.RedisURL != "":
		rdb, err := throttle.NewRedisClient(app.config.RedisURL)
		if err != nil {
			return err
		}
		app.redis = rdb
		app.limiter = throttle.NewRedisLimiter(rdb, policy)
	default:
		app.limiter = throttle.NewMemoryLimiter(policy)
	}

	return nil
}

// Close releases the database and Redis connections.
func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) newHTTPServer() *httpapi.Server {
	return httpapi.NewHTTPServer(httpapi.Options{
		Address:     app.config.EndpointAddrHTTP,
		CORSOrigins: app.config.CORSAllowedOrigins,
		Users:       app.userService,
		Limiter:     app.limiter,
		Metrics:     app.metrics,
		Health:      app.db,
		Logger:      app.logger,
	})
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.newHTTPServer().Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	gin.SetMode(app.config.GinMode)

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, stop)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
}
