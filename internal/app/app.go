package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/detailpage-backend/internal/data/db"
	"github.com/yungbote/detailpage-backend/internal/data/repos"
	transport "github.com/yungbote/detailpage-backend/internal/http"
	"github.com/yungbote/detailpage-backend/internal/observability"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/realtime"
	"github.com/yungbote/detailpage-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *transport.Server

	store         *db.Service
	otelShutdown  func(context.Context) error
	cancelForward context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	store, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	hub := realtime.NewSSEHub(log)
	var emitter realtime.Emitter = hub
	var cancelForward context.CancelFunc
	if clients.SSEBus != nil {
		fctx, cancel := context.WithCancel(context.Background())
		if err := clients.SSEBus.StartForwarder(fctx, hub.Broadcast); err != nil {
			cancel()
			clients.Close(log)
			_ = store.Close()
			log.Sync()
			return nil, fmt.Errorf("start SSE forwarder: %w", err)
		}
		cancelForward = cancel
		emitter = bus.NewEmitter(clients.SSEBus, hub, log)
	}

	docs := repos.NewDocumentRepo(store.DB(), log)
	svc, err := wireServices(log, cfg, docs, clients, emitter)
	if err != nil {
		if cancelForward != nil {
			cancelForward()
		}
		clients.Close(log)
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	h := wireHandlers(log, store.DB(), svc, hub)
	server := transport.NewServer(transport.RouterConfig{
		Log:                log,
		ServiceName:        otelServiceName(cfg),
		AllowedOrigins:     cfg.AllowedOrigins,
		HealthHandler:      h.Health,
		SectionTypeHandler: h.SectionTypes,
		DocumentHandler:    h.Documents,
		SectionHandler:     h.Sections,
		GenerationHandler:  h.Generation,
		ExportHandler:      h.Export,
		RealtimeHandler:    h.Realtime,
	})

	return &App{
		Log:           log,
		DB:            store.DB(),
		Cfg:           cfg,
		Clients:       clients,
		Services:      svc,
		SSEHub:        hub,
		Server:        server,
		store:         store,
		otelShutdown:  otelShutdown,
		cancelForward: cancelForward,
	}, nil
}

func otelServiceName(cfg Config) string {
	if !cfg.Otel.Enabled {
		return ""
	}
	return cfg.Otel.ServiceName
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr, "db_driver", a.store.Driver())
	return a.Server.Run(addr)
}

// Close stops accepting requests, flushes pending document saves and then
// releases every backing client.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Services.Editor != nil {
		if err := a.Services.Editor.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush documents: %w", err))
		}
	}
	if a.cancelForward != nil {
		a.cancelForward()
	}
	a.Clients.Close(a.Log)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	a.Log.Sync()
	return errors.Join(errs...)
}
