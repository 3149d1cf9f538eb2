// Package server wires PodMate together and runs it: the HTTP front end,
// the gRPC health endpoint and the session sweeper, until a signal arrives.
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

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/blobstore"
	"github.com/dmitrijs2005/podmate/internal/server/config"
	"github.com/dmitrijs2005/podmate/internal/server/llm"
	"github.com/dmitrijs2005/podmate/internal/server/podcast"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/podmate/internal/server/research"
	"github.com/dmitrijs2005/podmate/internal/server/research/tools"
	"github.com/dmitrijs2005/podmate/internal/server/services"
	"github.com/dmitrijs2005/podmate/internal/server/session"
	"github.com/dmitrijs2005/podmate/internal/server/speech"
	"github.com/dmitrijs2005/podmate/internal/server/summarize"
	"github.com/dmitrijs2005/podmate/internal/server/web"

	gs "github.com/dmitrijs2005/podmate/internal/server/grpc"
)

const (
	sweepInterval       = time.Minute
	healthCheckInterval = 10 * time.Second
	toolTimeout         = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	repos    repomanager.RepositoryManager
	sessions *session.Manager
	handler  http.Handler
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, repos, err := repomanager.Open(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	secretKey, err := signingKey(c.SecretKey, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	provider := llm.NewClient(c.ProviderBaseURL, c.ProviderTimeout)
	sessions := session.NewManager(provider, c.SessionTTL, logger)

	var store blobstore.Store
	if c.S3Enabled() {
		store = blobstore.NewS3Store(c, &http.Client{Timeout: c.ProviderTimeout})
		sessions.OnClose(podcast.CleanupHook(store, logger))
	}

	credentials := services.NewCredentialStore(db, repos, logger)

	toolClient := tools.NewHTTPClient(toolTimeout)
	assistant := research.NewAssistant(provider, c.ChatModel, c.AgentMaxSteps, logger,
		tools.NewWikipedia(c.WikipediaURL, toolClient),
		tools.NewArxiv(c.ArxivURL, toolClient),
		tools.NewWebSearch(c.SearchURL, toolClient),
	)

	generator := podcast.NewGenerator(
		summarize.NewSummarizer(provider, c.ChatModel, logger),
		speech.NewSynthesizer(provider, c.TTSModel, c.TTSVoice, c.TTSFormat, logger),
		store,
		logger,
	)

	handler, err := web.NewServer(web.Deps{
		Registrar:     credentials,
		Authenticator: services.NewAuthenticator(credentials, sessions, secretKey, logger),
		Generator:     generator,
		Assistant:     assistant,
		Store:         store,
		Logger:        logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		repos:    repos,
		sessions: sessions,
		handler:  handler,
	}, nil
}

// signingKey returns the configured session secret, or a random one when
// none is set. A random key invalidates every cookie on restart.
func signingKey(configured string, logger logging.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}
	key, err := common.MakeRandHexString(32)
	if err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	logger.Warn(context.Background(), "no secret key configured, using an ephemeral one")
	return key, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.db, healthCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the database and serves until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sessions.Run(ctx, sweepInterval)
	}()

	wg.Wait()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return nil
}
