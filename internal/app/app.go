package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/db"
	"github.com/acaduss/acaduss-backend/internal/http"
	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/platform/pdftext"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	watcher      *pdftext.Watcher
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	if err := LoadEnvFiles(log); err != nil {
		log.Sync()
		return nil, err
	}
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(cfg.MetricsEnabled)

	dbService, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	clientset, err := wireClients(log, cfg)
	if err != nil {
		dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset)
	if err != nil {
		clientset.Close()
		dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := http.NewServer(":"+cfg.Port, routerConfig(log, cfg, metrics, handlerset, middleware))

	a := &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}

	// Cached PDF text is dropped when the file under uploads changes.
	if clientset.TextCache != nil {
		w, err := pdftext.NewWatcher(log, serviceset.Upload.Dir(), clientset.TextCache)
		if err != nil {
			log.Warn("uploads watcher disabled", "error", err)
		} else {
			a.watcher = w
		}
	}
	return a, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.watcher != nil {
		go a.watcher.Run(ctx)
	}
}

// Run blocks serving HTTP until Shutdown.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	a.Clients.Close()
	if a.dbService != nil {
		a.dbService.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
