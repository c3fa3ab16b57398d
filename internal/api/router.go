package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/handlers"
	"github.com/ramonehamilton/PTCG-Companion/internal/api/response"
	"github.com/ramonehamilton/PTCG-Companion/internal/metrics"
	"github.com/ramonehamilton/PTCG-Companion/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint (no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)

	sessionHandler := handlers.NewSessionHandler(s.sessionFacade)
	catalogHandler := handlers.NewCatalogHandler(s.catalogFacade)
	collectionHandler := handlers.NewCollectionHandler(s.collectionFacade)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
			r.Post("/register", sessionHandler.Register)
			r.Get("/avatar", sessionHandler.GetAvatar)
			r.Put("/avatar", sessionHandler.SetAvatar)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/sets", catalogHandler.ListSets)
			r.Get("/sets/{setID}/cards", catalogHandler.GetSetCards)
			r.Get("/cards", catalogHandler.SearchCards)
			r.Get("/cards/{cardID}", catalogHandler.GetCard)
		})

		// Everything below needs a logged-in user
		r.Group(func(r chi.Router) {
			r.Use(sessionHandler.RequireSession)

			r.Get("/profile", collectionHandler.GetProfile)

			r.Route("/collection", func(r chi.Router) {
				r.Get("/", collectionHandler.GetCollection)
				r.Post("/", collectionHandler.AddCard)
				r.Post("/refresh", collectionHandler.RefreshCollection)
				r.Get("/value", collectionHandler.GetValue)
				r.Get("/series", collectionHandler.GetSeries)
				r.Get("/spend", collectionHandler.GetSpend)
				r.Get("/charts/series", collectionHandler.GetSeriesChart)
				r.Get("/charts/spend", collectionHandler.GetSpendChart)
				r.Get("/export", collectionHandler.ExportCollection)
				r.Delete("/{entryID}", collectionHandler.RemoveEntry)
			})
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	upstream := make(map[string]metrics.APIStats, len(s.upstream))
	for name, m := range s.upstream {
		upstream[name] = m.Stats()
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  "ptcg-companion-api",
		"version":  version.Version,
		"clients":  s.wsHub.ClientCount(),
		"upstream": upstream,
	})
}
