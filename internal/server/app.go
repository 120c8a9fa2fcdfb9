// Package server initializes and runs the council site server.
// It opens the database, applies migrations, connects object storage,
// starts the session sweeper and serves HTTP until a shutdown signal.
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

	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/councilsite/internal/server/services"
	"github.com/dmitrijs2005/councilsite/internal/server/sessions"
	"github.com/dmitrijs2005/councilsite/internal/server/web"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *sessions.Store
	web      *web.Server
}

// OpenDB opens the PostgreSQL pool and brings the schema up to date.
func OpenDB(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, rm, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, rm, err := OpenDB(ctx, c)
	if err != nil {
		return nil, err
	}

	store, err := objectstore.NewS3Store(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}
	pipeline := imaging.NewPipeline(store, logger.With("module", "imaging"), c.UploadTimeout)

	users := services.NewUserService(db, rm, c)
	st := sessions.NewStore(db, rm, users, c, logger.With("module", "sessions"))

	svc := web.Services{
		Members:    services.NewMemberService(db, rm, pipeline, store, logger),
		Programs:   services.NewProgramService(db, rm, pipeline, store, logger),
		Activities: services.NewActivityService(db, rm, pipeline, store, logger),
		Profile:    services.NewProfileService(db, rm),
		Dashboard:  services.NewDashboardService(db, rm),
		Sessions:   st,
	}

	ws, err := web.NewServer(c, logger, svc)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, sessions: st, web: ws}, nil
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
	if err := app.web.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	app.sessions.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.sessions.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
