// Package server wires configuration, storage, signing, notification and the
// dispatch tables into a running democracy365 gateway: the public HTTP API,
// the gRPC health service and the maintenance scheduler.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/config"
	"github.com/dmitrijs2005/democracy365/internal/server/db"
	"github.com/dmitrijs2005/democracy365/internal/server/dispatch"
	"github.com/dmitrijs2005/democracy365/internal/server/operations"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/democracy365/internal/server/scheduler"
	"github.com/dmitrijs2005/democracy365/internal/server/services"

	gs "github.com/dmitrijs2005/democracy365/internal/server/grpc"
	hs "github.com/dmitrijs2005/democracy365/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	provider    *db.Provider
	repomanager repomanager.RepositoryManager
	httpServer  *hs.Server
	health      *gs.HealthServer
	scheduler   *scheduler.Scheduler
	closers     []func() error
}

// notifierFactory is swapped in tests to observe notifier cleanup.
var notifierFactory = newNotifier

func NewApp(c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	awsCfg, err := loadAWSConfig(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	read, write, scheduled, err := operations.Registries()
	if err != nil {
		return nil, fmt.Errorf("operation tables: %w", err)
	}

	app := &App{config: c, logger: logger, repomanager: repomanager.NewPostgresRepositoryManager()}

	app.provider = db.NewProvider(newConnector(c, awsCfg), logger)
	app.closers = append(app.closers, app.provider.Close)

	signer, err := newSigner(c, awsCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("signer init error: %w", err), app.close())
	}

	notifier, closeNotifier, err := notifierFactory(c, awsCfg, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("notifier init error: %w", err), app.close())
	}
	app.closers = append(app.closers, closeNotifier)

	signin := services.NewSigninService(app.provider, app.repomanager, notifier, logger)
	tokens := services.NewTokenService(app.provider, app.repomanager, signer, c.KMSKeyID, logger)

	gin.SetMode(gin.ReleaseMode)
	router := hs.SetupRouter(hs.Deps{
		Signin: signin,
		Tokens: tokens,
		Reads:  dispatch.NewGateway(read, app.provider, app.repomanager, logger),
		Writes: dispatch.NewGateway(write, app.provider, app.repomanager, logger),
		Logger: logger,
	})
	app.httpServer = hs.NewServer(c.HTTPAddr, router, logger)

	app.health = gs.NewHealthServer(c.HealthAddrGRPC, app.provider, c.HealthProbeInterval, logger)

	app.scheduler, err = scheduler.New(dispatch.NewGateway(scheduled, app.provider, app.repomanager, logger), scheduled, c.Schedule, logger)
	if err != nil {
		return nil, errors.Join(err, app.close())
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) migrate(ctx context.Context) error {
	conn, err := app.provider.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := app.repomanager.RunMigrations(ctx, conn); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	app.logger.Info(ctx, "migrations applied")
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// releases every resource.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if app.config.RunMigrations {
		if err := app.migrate(ctx); err != nil {
			return errors.Join(err, app.close())
		}
	}

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.close()
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
