package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the body returned by the health endpoints.
type Response struct {
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
}

// Handler serves liveness and readiness for the store process.
type Handler struct {
	ready func() bool
}

// NewHandler creates a health handler. ready reports whether every store
// bucket has finished recovery and registered.
func NewHandler(ready func() bool) *Handler {
	return &Handler{ready: ready}
}

// Register installs the health endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleLiveness)
	mux.HandleFunc("/readyz", h.handleReadiness)
}

// handleLiveness reports process liveness. Always healthy while the
// process can serve HTTP.
func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, "ok")
}

// handleReadiness reports store readiness: 503 until every bucket is
// initialized, 200 afterwards.
func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		writeResponse(w, http.StatusServiceUnavailable, "initializing")
		return
	}
	writeResponse(w, http.StatusOK, "ready")
}

func writeResponse(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Response{
		Status:    status,
		CheckedAt: time.Now(),
	})
}
