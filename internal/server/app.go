// Package server initializes and runs the alumnae API: it opens the
// database, applies migrations, wires the services and serves HTTP until
// the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/config"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alumnae/internal/server/rest"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
	"github.com/dmitrijs2005/alumnae/internal/server/storage"
	"github.com/dmitrijs2005/alumnae/internal/server/validation"
)

// dbDriver is the database/sql driver name registered by pgx/v5/stdlib.
var dbDriver = "pgx"

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	revocations *services.RevocationService
	httpServer  *rest.HTTPServer
}

// OpenDB opens a connection pool and checks that the database answers.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dbDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// NewAuthComponents builds the hasher, lockout policy and token issuer
// described by c.
func NewAuthComponents(c *config.Config, clock auth.Clock, m *metrics.Metrics, l logging.Logger) services.AuthComponents {
	return services.AuthComponents{
		Hasher:  auth.NewBcryptHasher(c.BcryptCost),
		Lockout: auth.NewLockoutPolicy(c.MaxLoginAttempts, c.LockDuration, clock),
		Tokens:  auth.NewTokenIssuer([]byte(c.SecretKey), c.TokenIssuer, c.TokenAudience, c.TokenValidityDuration, clock),
		Clock:   clock,
		Metrics: m,
		Logger:  l,
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := storage.NewS3Store(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	m := metrics.New()
	clock := auth.SystemClock{}
	ac := NewAuthComponents(c, clock, m, logger)
	v := validation.New()

	revocations := services.NewRevocationService(db, rm, ac)
	svc := rest.Services{
		Auth:       services.NewUserService(db, rm, ac, revocations),
		Guard:      services.NewGuard(db, rm, ac, revocations),
		BatchYears: services.NewBatchYearService(db, rm, clock, logger),
		Alumni:     services.NewAlumniService(db, rm, store, v, c.MaxUploadSize, logger),
		Events:     services.NewEventService(db, rm, v, clock, logger),
	}

	httpServer := rest.NewHTTPServer(rest.Options{
		Address:        c.EndpointAddrHTTP,
		LoginRateLimit: c.LoginRateLimit,
		LoginRateBurst: c.LoginRateBurst,
		MaxUploadSize:  c.MaxUploadSize,
		Metrics:        m,
	}, logger, svc)

	return &App{config: c, logger: logger, db: db, revocations: revocations, httpServer: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// waits for the HTTP server and the revocation sweeper to stop.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.revocations.RunSweeper(ctx, app.config.RevocationSweepInterval)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
