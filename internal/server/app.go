// Package server initializes and runs the CookMate API server.
// It opens the database, applies migrations, wires the optional image
// storage and event publisher, and serves HTTP until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/cookmate/internal/logging"
	"github.com/dmitrijs2005/cookmate/internal/server/config"
	"github.com/dmitrijs2005/cookmate/internal/server/events"
	"github.com/dmitrijs2005/cookmate/internal/server/images"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cookmate/internal/server/services"
	"github.com/dmitrijs2005/cookmate/internal/server/storage"

	hs "github.com/dmitrijs2005/cookmate/internal/server/http"
)

var openDB = storage.OpenPostgres

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	publisher     events.Publisher
	recipeService *services.RecipeService
	userService   *services.UserService
	imageService  hs.ImageService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	// Interfaces stay nil, not typed-nil, when images are off.
	var (
		signer services.ImageSigner
		upload hs.ImageService
	)
	if c.ImagesEnabled() {
		is := images.NewService(c)
		signer, upload = is, is
	} else {
		logger.Warn(ctx, "image storage is not configured")
	}

	var publisher events.Publisher
	if c.EventsEnabled() {
		publisher = events.NewKafkaPublisher(c.KafkaBroker, c.KafkaTopic, c.KafkaUsername, c.KafkaPassword)
	} else {
		logger.Warn(ctx, "kafka is not configured, verification events are only logged")
		publisher = events.NewNopPublisher(logger)
	}

	rs := services.NewRecipeService(db, rm, signer, logger)
	us := services.NewUserService(db, rm, publisher, logger, c)

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		publisher:     publisher,
		recipeService: rs,
		userService:   us,
		imageService:  upload,
	}, nil
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

	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.recipeService, app.userService,
		app.imageService, app.config.SecretKey, app.config.Origins())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "publisher close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
