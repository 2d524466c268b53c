package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agentdrop/admin-console/internal/auth"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/tracking"
)

// SetupRoutes configures all routes. The beacon, health and metrics are
// public; everything under /api/admin except check-status requires an admin.
func SetupRoutes(h *Handlers, d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	// CORS - credentials are needed for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Health != nil {
		r.Get("/health", d.Health.HandleLiveness)
		r.Get("/health/ready", d.Health.HandleReadiness)
	} else {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			httputil.OK(w, map[string]string{"status": "ok"})
		})
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if d.Tracking != nil {
		r.Get(tracking.Path, d.Tracking.HandleOpen)
	}

	gate := d.Gate
	if gate == nil {
		gate = auth.NewGate(nil, nil, "")
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/check-status", gate.CheckStatus)

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAdmin)

			r.Route("/beta-users", func(r chi.Router) {
				r.Get("/", h.ListBetaUsers)
				r.Post("/", h.SetBetaAccess)
				r.Post("/send-email", h.SendApprovalEmail)
				r.Post("/send-rejection", h.SendRejectionEmail)
				r.Get("/email-analytics", h.EmailAnalytics)
			})

			r.Get("/users", h.ListUsers)
			r.Get("/dashboard-stats", h.DashboardStats)
			r.Get("/analytics", h.Analytics)

			r.Route("/invite-codes", func(r chi.Router) {
				r.Get("/", h.ListInviteCodes)
				r.Post("/", h.CreateInviteCode)
				r.Put("/", h.UpdateInviteCode)
				r.Delete("/", h.DeleteInviteCode)
			})

			r.Route("/blog", func(r chi.Router) {
				r.Get("/articles", h.ListArticles)
				r.Post("/articles", h.CreateArticle)
				r.Post("/upload-image", h.UploadImage)
			})
		})
	})

	return r
}
