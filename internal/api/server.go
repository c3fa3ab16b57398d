// Package api serves the companion's local REST and WebSocket API to the
// front-end.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/websocket"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/events"
	"github.com/ramonehamilton/PTCG-Companion/internal/metrics"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int

	// Browser auto-open configuration
	openBrowser bool
	frontendURL string

	// WebSocket hub for real-time events
	wsHub *websocket.Hub

	sessionFacade    *companion.SessionFacade
	catalogFacade    *companion.CatalogFacade
	collectionFacade *companion.CollectionFacade

	upstream map[string]*metrics.APIMetrics
}

// Config holds configuration for the API server.
type Config struct {
	Port        int
	OpenBrowser bool   // Whether to auto-open browser on startup
	FrontendURL string // URL to open in browser, also allowed as a CORS and WebSocket origin

	// Upstream client metrics reported by /health, keyed by client name
	Upstream map[string]*metrics.APIMetrics
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:        8080,
		OpenBrowser: false,
		FrontendURL: "",
	}
}

// Facades holds the facades served by the API.
type Facades struct {
	Session    *companion.SessionFacade
	Catalog    *companion.CatalogFacade
	Collection *companion.CollectionFacade
}

// NewServer creates a new API server with the given facades.
func NewServer(cfg *Config, facades *Facades) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if facades == nil || facades.Session == nil || facades.Catalog == nil || facades.Collection == nil {
		return nil, errors.New("session, catalog and collection facades are required")
	}

	s := &Server{
		router:           chi.NewRouter(),
		port:             cfg.Port,
		openBrowser:      cfg.OpenBrowser,
		frontendURL:      cfg.FrontendURL,
		wsHub:            websocket.NewHub(cfg.FrontendURL),
		sessionFacade:    facades.Session,
		catalogFacade:    facades.Catalog,
		collectionFacade: facades.Collection,
		upstream:         cfg.Upstream,
	}

	// New clients learn the current session before any change event.
	s.wsHub.SetWelcome(func() (websocket.Event, bool) {
		state := s.sessionFacade.State()
		payload := events.SessionChangedEvent{Authenticated: state.Authenticated}
		if state.User != nil {
			payload.UserName = state.User.Name
		}
		return websocket.Event{Type: events.SessionChanged, Data: payload}, true
	})

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	// Request ID for tracing
	s.router.Use(middleware.RequestID)

	// Real IP detection
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(middleware.Logger)

	// Panic recovery
	s.router.Use(middleware.Recoverer)

	// Request timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"}
	if s.frontendURL != "" {
		origins = append(origins, strings.TrimRight(s.frontendURL, "/"))
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Content-Type enforcement for POST/PUT/PATCH only (not GET/DELETE/OPTIONS)
	s.router.Use(jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the WebSocket hub and starts listening in the background.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("API server starting on port %d", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("API server error: %v", err)
		}
	}()

	// Open browser after short delay to ensure server is ready
	if s.openBrowser && s.frontendURL != "" {
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := openBrowser(s.frontendURL); err != nil {
				log.Printf("Failed to open browser: %v", err)
			} else {
				log.Printf("Opened browser to %s", s.frontendURL)
			}
		}()
	}

	return nil
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// Shutdown stops the hub and gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}

	log.Println("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WebSocketHub returns the WebSocket hub.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// NewWebSocketObserver creates an observer that forwards dispatched
// events to WebSocket clients.
func (s *Server) NewWebSocketObserver() *websocket.WebSocketObserver {
	return websocket.NewWebSocketObserver(s.wsHub)
}
