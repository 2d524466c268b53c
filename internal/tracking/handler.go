// Package tracking serves the open-tracking beacon embedded in outgoing
// emails.
package tracking

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdrop/admin-console/internal/pkg/logger"
	"github.com/agentdrop/admin-console/internal/service/approval"
)

// Path is the beacon route.
const Path = approval.TrackOpenPath

const defaultProcessTimeout = 3 * time.Second

// 1x1 transparent PNG
var pixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
)

// OpenRecorder applies a beacon hit. It must not block past ctx.
type OpenRecorder interface {
	RecordOpen(ctx context.Context, email, emailType string) approval.OpenResult
}

// Handler serves the beacon.
type Handler struct {
	recorder OpenRecorder
	timeout  time.Duration
}

// NewHandler creates a beacon handler. A zero timeout uses 3s.
func NewHandler(recorder OpenRecorder, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultProcessTimeout
	}
	return &Handler{recorder: recorder, timeout: timeout}
}

// Routes mounts the beacon and a health check, for the standalone binary.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get(Path, h.HandleOpen)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records the open and always answers with the pixel.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email, emailType := q.Get("email"), q.Get("type")

	if email != "" && emailType != "" {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
		res := h.recorder.RecordOpen(ctx, email, emailType)
		cancel()
		logger.Debug("open beacon",
			"email", email,
			"type", emailType,
			"entry_marked", res.EntryMarked,
			"record_advanced", res.RecordAdvanced,
			"ip", realIP(r),
		)
	}
	servePixel(w)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	w.Write(pixelPNG)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
