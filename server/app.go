package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refractiq/config"
	"refractiq/internal/db"
	"refractiq/internal/devices"
	"refractiq/internal/health"
	"refractiq/internal/ingest"
	"refractiq/internal/logs"
	"refractiq/internal/middleware"
	"refractiq/internal/models"
	"refractiq/internal/repo"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db     *gorm.DB
	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	// 1) Логи
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) БД — обязательна: ingest без durable-хранилища не имеет смысла
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d

	// ---- DB migrations ----
	if err := a.db.AutoMigrate(
		&models.Device{},
		&models.Reading{},
	); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	// 3) Роутер + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)
	a.Router.Use(middleware.CORS(a.cfg.CORS.Origins))

	// 4) Health маршруты
	health.RegisterRoutesWithDB(a.Router, a.db)
	a.Router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"service": "RefractIQ API",
			"version": "1.0.0",
		})
	}).Methods(http.MethodGet)

	// 5) Доменные ручки
	deviceStore := repo.NewDeviceStore(a.db)
	readingStore := repo.NewReadingStore(a.db)

	api := a.Router.PathPrefix("/api/v1").Subrouter()

	// запись гейтим API-ключом, чтение — публичное
	ingestAPI := api.NewRoute().Subrouter()
	ingestAPI.Use(middleware.APIKey(a.cfg.Auth.APIKey, a.cfg.Auth.Require))
	ingestHTTP := ingest.NewHTTP(ingest.NewService(deviceStore, readingStore))
	ingestHTTP.RegisterRoutes(ingestAPI)

	devHTTP := devices.NewHTTP(deviceStore, readingStore)
	devHTTP.RegisterRoutes(api)

	a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	return nil
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
