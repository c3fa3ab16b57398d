package companion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/config"
	"github.com/ramonehamilton/PTCG-Companion/internal/events"
	"github.com/ramonehamilton/PTCG-Companion/internal/metrics"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
	"github.com/ramonehamilton/PTCG-Companion/internal/storage"
)

// App wires storage, session, API clients and facades from a Config.
type App struct {
	Storage    *storage.Service
	Sessions   *session.Manager
	Catalog    *pokemontcg.Client
	Remote     *backend.Client
	Dispatcher *events.EventDispatcher
	Services   *Services

	CatalogMetrics *metrics.APIMetrics
	BackendMetrics *metrics.APIMetrics

	Session    *SessionFacade
	CatalogUI  *CatalogFacade
	Collection *CollectionFacade
}

// NewApp opens the local database, restores the persisted session and
// builds every facade. Close releases the database.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	dbConfig := storage.DefaultConfig(dbPath)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := storage.NewService(db)

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(events.NewLoggingObserver(cfg.App.DebugMode))

	opts := session.Options{Dispatcher: dispatcher}
	if cfg.Storage.EncryptToken {
		opts.Encryption = storage.DefaultEncryptionConfig(cfg.Storage.Passphrase)
	}
	sessions := session.NewManager(store, opts)
	if err := sessions.Initialize(ctx); err != nil {
		log.Printf("[App] Failed to restore session: %v", err)
	}

	// Durations were checked by Validate.
	spacing, _ := cfg.GetRequestSpacing()
	catalogTimeout, _ := cfg.GetCatalogTimeout()
	backendTimeout, _ := cfg.GetBackendTimeout()

	catalogMetrics := metrics.NewAPIMetrics()
	backendMetrics := metrics.NewAPIMetrics()

	catalog := pokemontcg.NewClient(pokemontcg.ClientOptions{
		BaseURL:        cfg.Catalog.BaseURL,
		APIKey:         cfg.Catalog.APIKey,
		RequestSpacing: noSpacingIfZero(spacing),
		Timeout:        catalogTimeout,
		PageSize:       cfg.Catalog.PageSize,
		Metrics:        catalogMetrics,
	})
	remote := backend.NewClient(sessions, backend.ClientOptions{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: backendTimeout,
		Metrics: backendMetrics,
	})

	services, err := NewServices(sessions, catalog, remote, dispatcher)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	app := &App{
		Storage:    store,
		Sessions:   sessions,
		Catalog:    catalog,
		Remote:     remote,
		Dispatcher: dispatcher,
		Services:   services,

		CatalogMetrics: catalogMetrics,
		BackendMetrics: backendMetrics,

		Session:    NewSessionFacade(services),
		CatalogUI:  NewCatalogFacade(services),
		Collection: NewCollectionFacade(services),
	}
	dispatcher.Register(app.Collection)

	return app, nil
}

// noSpacingIfZero maps a configured spacing of 0 to "no spacing"; the
// client treats 0 as "use the default".
func noSpacingIfZero(spacing time.Duration) time.Duration {
	if spacing == 0 {
		return -1
	}
	return spacing
}

// ApplyConfig applies the settings that can change at runtime.
func (a *App) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	spacing, err := cfg.GetRequestSpacing()
	if err != nil {
		return fmt.Errorf("invalid request spacing: %w", err)
	}
	a.Catalog.SetRequestSpacing(spacing)

	log.Printf("[App] Catalog request spacing set to %s", spacing)
	a.Dispatcher.Dispatch(events.NewEvent(ctx, events.ConfigReloaded, events.ConfigReloadedEvent{
		RequestSpacing: spacing.String(),
	}))
	return nil
}

// UpstreamMetrics returns the request metrics of both API clients.
func (a *App) UpstreamMetrics() map[string]*metrics.APIMetrics {
	return map[string]*metrics.APIMetrics{
		"catalog": a.CatalogMetrics,
		"backend": a.BackendMetrics,
	}
}

// Close detaches the collection facade from session events and releases
// the local database.
func (a *App) Close() error {
	if a.Dispatcher != nil && a.Collection != nil {
		a.Dispatcher.Unregister(a.Collection)
	}
	if a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}
