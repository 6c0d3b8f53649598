// Package server initializes and runs the GemSpark chat server.
// It configures the storage backend and the model provider, wires the
// services, and runs the gRPC transport until a shutdown signal arrives.
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

	"github.com/dmitrijs2005/gemspark/internal/cryptox"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/config"
	gs "github.com/dmitrijs2005/gemspark/internal/server/grpc"
	"github.com/dmitrijs2005/gemspark/internal/server/llm"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gemspark/internal/server/services"
	"golang.org/x/sync/errgroup"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// logOutput is where slog formats write.
var logOutput io.Writer = os.Stdout

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services gs.Services
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, logOutput)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	store, db, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(ctx, llm.Settings{
		Provider: c.ModelProvider,
		Name:     c.ModelName,
		APIKey:   c.ResolvedModelAPIKey(),
		BaseURL:  c.ModelBaseURL,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("model init error: %w", err)
	}

	us, err := services.NewUserService(store, cryptox.NewBcryptHasher(c.BcryptCost), c, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	ss := services.NewSessionService(store, logger)
	ts := services.NewTranscriptService(store)

	app := &App{
		config: c,
		logger: logger,
		db:     db,
		services: gs.Services{
			Users:         us,
			Sessions:      ss,
			Conversations: services.NewConversationService(ss, ts, model, c.HistoryWindow, c.ModelTimeout, logger),
			Exports:       services.NewExportService(ss, c, logger),
		},
	}

	logger.Info(ctx, "App initialized",
		"storage", c.StorageBackend, "model_provider", c.ModelProvider, "model", c.ModelName,
		"history_window", c.HistoryWindow)
	return app, nil
}

// openStore connects the configured backend. For postgres the schema is
// migrated before the store is returned.
func openStore(ctx context.Context, c *config.Config) (services.Store, *sql.DB, error) {
	retry := dbx.RetryPolicy{MaxRetries: c.StoreRetries, Backoff: c.StoreRetryBackoff}

	switch c.StorageBackend {
	case config.StorageMemory:
		return services.Store{
			Tx:    memory.Transactor{},
			Repos: memory.NewManager(memory.NewStore()),
			Retry: retry,
		}, nil, nil

	case config.StoragePostgres:
		db, err := openDB(c.DatabaseDSN)
		if err != nil {
			return services.Store{}, nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			closeDB(db)
			return services.Store{}, nil, fmt.Errorf("db migration error: %w", err)
		}
		return services.Store{
			DB:    db,
			Tx:    dbx.NewSQLTransactor(db, nil),
			Repos: rm,
			Retry: retry,
		}, db, nil

	default:
		return services.Store{}, nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
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

// Run serves until ctx is cancelled or a shutdown signal arrives, then
// releases the store and flushes the logger.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.services, app.config.SecretKey)
		return s.Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}

	closeDB(app.db)
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		// stderr cannot always be synced; that is not a shutdown failure.
		if serr := s.Sync(); serr != nil && !errors.Is(serr, syscall.EINVAL) {
			app.logger.Warn(ctx, "logger sync failed", "error", serr)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
