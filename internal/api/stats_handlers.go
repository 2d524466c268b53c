package api

import (
	"net/http"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
)

// ListUsers returns every application account.
//
//	GET /api/admin/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch users")
		return
	}
	httputil.OK(w, map[string][]domain.UserSummary{"users": users})
}

// DashboardStats returns the headline counters.
//
//	GET /api/admin/dashboard-stats
func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.DashboardStats(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch dashboard stats")
		return
	}
	httputil.OK(w, map[string]any{"success": true, "stats": stats})
}

// Analytics returns the growth report.
//
//	GET /api/admin/analytics
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.Analytics(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch analytics")
		return
	}
	httputil.OK(w, out)
}
