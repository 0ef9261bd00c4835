// Package server wires the configuration, storage, dispatch and transport
// layers together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/auth"
	"github.com/dmitrijs2005/vat/internal/server/blobstore"
	"github.com/dmitrijs2005/vat/internal/server/config"
	"github.com/dmitrijs2005/vat/internal/server/dispatch"
	"github.com/dmitrijs2005/vat/internal/server/httpapi"
	"github.com/dmitrijs2005/vat/internal/server/identity"
	"github.com/dmitrijs2005/vat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vat/internal/server/services"

	gs "github.com/dmitrijs2005/vat/internal/server/grpc"
)

// sessionPurgeInterval is how often expired sessions are removed.
const sessionPurgeInterval = time.Hour

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	authService *services.AuthService
	http        *http.Server
	health      *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newStore(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	targets, err := dispatch.NewTargets(c.TranscriptionWebhookURL, c.AnalysisWebhooks)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dispatch targets: %w", err)
	}
	dispatcher := dispatch.NewHTTPDispatcher(targets, c.DispatchTimeout, logger)
	tokens := auth.NewCallbackTokens(c.CallbackSecret, c.CallbackTokenValidity)
	if !tokens.Enabled() {
		logger.Warn(ctx, "callback secret is empty, webhook callbacks are not authenticated")
	}
	if c.TelegramBotToken == "" {
		logger.Warn(ctx, "telegram bot token is empty, every login will be rejected")
	}
	verifier := identity.NewTelegramVerifier(c.TelegramBotToken, c.TelegramAuthMaxAge)

	as := services.NewAuthService(db, rm, verifier, c, logger)
	api := httpapi.NewServer(httpapi.Services{
		Auth:     as,
		Files:    services.NewFileService(db, rm, store, dispatcher, tokens, c, logger),
		Analyses: services.NewAnalysisService(db, rm, store, dispatcher, tokens, c, logger),
		Webhooks: services.NewWebhookService(db, rm, store, tokens, logger),
		Billing:  services.NewBillingService(db, rm, c, logger),
	}, httpapi.Options{
		CORSOrigins:   c.CORSOrigins,
		CookieSecure:  c.CookieSecure,
		SessionMaxAge: c.SessionValidity,
	}, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		authService: as,
		http: &http.Server{
			Addr:              c.HTTPAddr,
			Handler:           api.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		health: gs.NewHealthServer(c.GRPCAddr, db.PingContext, 0, logger),
	}, nil
}

// newStore returns the S3 store, or an in-process one when no bucket is
// configured.
func newStore(ctx context.Context, c *config.Config, logger logging.Logger) (blobstore.Store, error) {
	if c.S3Bucket == "" {
		logger.Warn(ctx, "no S3 bucket configured, objects are kept in memory")
		return blobstore.NewMemory(), nil
	}
	s, err := blobstore.NewS3Store(ctx, blobstore.S3Options{
		Endpoint:  c.S3Endpoint,
		Region:    c.S3Region,
		Bucket:    c.S3Bucket,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		PathStyle: c.S3PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}
	return s, nil
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
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
		defer cancel()
		if err := app.http.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.GRPCAddr == "" {
		return
	}
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeSessions deletes expired sessions until ctx is done.
func (app *App) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.authService.PurgeExpiredSessions(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Error(ctx, "purge sessions", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

// Run blocks until a signal arrives or a server fails, then shuts everything
// down.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "max_upload_bytes", common.MaxUploadBytes)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	for _, run := range []func(){
		func() { app.startHTTPServer(ctx, cancelFunc) },
		func() { app.startGRPCServer(ctx, cancelFunc) },
		func() { app.purgeSessions(ctx) },
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run()
		}()
	}
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
