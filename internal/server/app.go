// Package server wires the portal server together: configuration, stores,
// token issuer, account service and the REST API, plus graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/policyportal/internal/logging"
	"github.com/dmitrijs2005/policyportal/internal/server/auth"
	"github.com/dmitrijs2005/policyportal/internal/server/config"
	"github.com/dmitrijs2005/policyportal/internal/server/httpapi"
	"github.com/dmitrijs2005/policyportal/internal/server/ratelimit"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/policyportal/internal/server/services"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const connectTimeout = 10 * time.Second

// connectBackoff spaces out startup attempts to reach Postgres and Redis,
// which may still be starting next to the portal.
var connectBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(4, retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond)))
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *httpapi.Server
}

// NewApp connects to the configured backends and builds the HTTP server. Log
// output goes to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(w, c.IsProduction())
	app := &App{config: c, logger: logger}

	rm, err := app.initStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	var denylist auth.Denylist
	if c.RedisURL != "" {
		if err := app.initRedis(ctx); err != nil {
			app.Close()
			return nil, err
		}
		denylist = auth.NewRedisDenylist(app.redis)
	}

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.TokenTTL, denylist)
	if err != nil {
		app.Close()
		return nil, err
	}

	accounts := services.NewAccountService(rm.Identities(app.db), rm.Profiles(app.db), issuer, logger)

	app.server = httpapi.NewServer(c.HTTPAddr, logger, accounts, issuer, httpapi.Options{
		Production:     c.IsProduction(),
		AllowedOrigins: c.AllowedOrigins,
		RequestTimeout: c.RequestTimeout,
		Limiter:        app.loginLimiter(),

		TrustProxyHeaders: c.TrustProxyHeaders,
	})
	return app, nil
}

func (app *App) initStore(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.UsesMemoryStore() {
		app.logger.Warn(ctx, "Using in-memory stores, data will not survive a restart")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	var db *sql.DB
	err := app.connect(ctx, "postgres", func(ctx context.Context) error {
		var err error
		db, err = repomanager.OpenPostgres(ctx, app.config.DatabaseDSN, connectTimeout)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	return rm, nil
}

func (app *App) initRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(app.config.RedisURL)
	if err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	app.redis = redis.NewClient(opts)

	err = app.connect(ctx, "redis", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return app.redis.Ping(pingCtx).Err()
	})
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// connect runs fn until it succeeds or connectBackoff gives up.
func (app *App) connect(ctx context.Context, backend string, fn func(context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			app.logger.Warn(ctx, "Backend not ready", "backend", backend, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) loginLimiter() ratelimit.Limiter {
	c := app.config
	switch {
	case c.LoginRateLimit <= 0:
		return nil
	case app.redis != nil:
		return ratelimit.NewRedisLimiter(app.redis, c.LoginRateLimit, c.LoginRateWindow)
	default:
		return ratelimit.NewLocalLimiter(c.LoginRateLimit, c.LoginRateWindow)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then releases the backends.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the database and Redis connections.
func (app *App) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
		app.db = nil
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
		app.redis = nil
	}
	return errors.Join(errs...)
}
