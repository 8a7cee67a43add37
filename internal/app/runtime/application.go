package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	app "github.com/R3E-Network/exercise_tracker/internal/app"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/httpapi"
	"github.com/R3E-Network/exercise_tracker/internal/app/idgen"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage/mongostore"
	pgstore "github.com/R3E-Network/exercise_tracker/internal/app/storage/postgres"
	"github.com/R3E-Network/exercise_tracker/internal/config"
	"github.com/R3E-Network/exercise_tracker/internal/middleware"
	"github.com/R3E-Network/exercise_tracker/internal/platform/migrations"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	app     *app.Application
	handler http.Handler
	server  *http.Server
	closers []func(context.Context) error
}

// NewApplication constructs the application described by cfg. A nil cfg is
// loaded from the environment.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log := newLogger(cfg)

	stores, closers, err := buildStores(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	application, err := app.New(stores, app.Options{LogOrder: exercise.Order(cfg.Exercises.LogOrder)}, log.Named("app"))
	if err != nil {
		closeAll(ctx, closers, log)
		return nil, err
	}

	opts := []httpapi.Option{httpapi.WithCORS(cfg.HTTP.Origins())}
	if cfg.HTTP.Tracing {
		opts = append(opts, httpapi.WithTracing())
	}
	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitBurst, log.Named("ratelimit"))
		sweeper := middleware.NewCleanupScheduler(limiter, cfg.HTTP.LimiterSweep, cfg.HTTP.LimiterIdleAfter, log.Named("ratelimit"))
		if err := application.Attach(sweeper); err != nil {
			closeAll(ctx, closers, log)
			return nil, fmt.Errorf("attach limiter sweep: %w", err)
		}
		opts = append(opts, httpapi.WithRateLimiter(limiter))
	}
	handler := httpapi.NewHandler(application, log.Named("httpapi"), opts...)

	return &Application{
		cfg:     cfg,
		log:     log,
		app:     application,
		handler: handler,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
		closers: closers,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// App returns the composed domain application.
func (a *Application) App() *app.Application {
	return a.app
}

// Run starts background services and the HTTP server and blocks until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	a.log.WithField("services", a.app.Services()).Debug("background services started")

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s (storage=%s)", a.server.Addr, a.cfg.Storage.Backend)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, background services and
// storage connections.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("services: %w", err))
	}
	closeAll(shutdownCtx, a.closers, a.log)
	return errors.Join(errs...)
}

// Migrate applies the postgres schema described by cfg.
func Migrate(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Apply(ctx, db)
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})
}

func buildStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (app.Stores, []func(context.Context) error, error) {
	switch cfg.Storage.Backend {
	case "", config.BackendMemory:
		return app.Stores{}, nil, nil

	case config.BackendPostgres:
		db, err := openDatabase(cfg.Database)
		if err != nil {
			return app.Stores{}, nil, err
		}
		if cfg.Database.MigrateOnStart {
			if err := migrations.Apply(ctx, db); err != nil {
				db.Close()
				return app.Stores{}, nil, err
			}
		}
		store := pgstore.New(db)
		closers := []func(context.Context) error{func(context.Context) error { return db.Close() }}
		return app.Stores{Users: store, Exercises: store}, closers, nil

	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongostore.Connect(connectCtx, cfg.Mongo.URI)
		if err != nil {
			return app.Stores{}, nil, err
		}
		closers := []func(context.Context) error{client.Disconnect}

		var ids idgen.Allocator
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			closers = append(closers, func(context.Context) error { return rdb.Close() })
			if err := rdb.Ping(connectCtx).Err(); err != nil {
				closeAll(ctx, closers, log)
				return app.Stores{}, nil, fmt.Errorf("ping redis: %w", err)
			}
			ids = idgen.NewRedis(rdb, cfg.Redis.Prefix)
			log.Infof("using redis id allocator at %s", cfg.Redis.Addr)
		}

		store := mongostore.New(client.Database(cfg.Mongo.Database), ids)
		if err := store.EnsureIndexes(connectCtx); err != nil {
			closeAll(ctx, closers, log)
			return app.Stores{}, nil, err
		}
		return app.Stores{Users: store, Exercises: store}, closers, nil

	default:
		return app.Stores{}, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// closeAll runs closers in reverse order, logging failures.
func closeAll(ctx context.Context, closers []func(context.Context) error, log *logger.Logger) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			log.WithError(err).Warn("error closing storage connection")
		}
	}
}
