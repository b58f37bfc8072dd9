package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/phishsim/internal/auth"
)

// SetupRoutes builds the admin router. authManager may be nil, which
// leaves the API open for local development.
func SetupRoutes(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Credentials allowed so the session cookie flows from the console UI
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
	}

	// Download links are opened outside the console session; the token
	// in the URL is the whole credential.
	r.Get("/exports/{kind}/{id}", h.DownloadExport)

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.RequireAuth)
		}

		r.Get("/campaigns/{id}", h.GetCampaign)
		r.Get("/campaigns/{id}/stats", h.GetCampaignStats)
		r.Get("/campaigns/{id}/targets", h.ListCampaignTargets)
		r.Post("/campaigns/{id}/launch", h.LaunchCampaign)
		r.Post("/campaigns/{id}/complete", h.CompleteCampaign)
		r.Post("/targets/{id}/sent", h.MarkTargetSent)
		r.Post("/exports/{kind}/{id}/token", h.IssueExportToken)
	})

	return r
}
