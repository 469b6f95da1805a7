// Package health exposes liveness and readiness endpoints for the auction
// bot. Readiness gates on the ledger store and the Discord gateway session.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pokevault/auctioneer/internal/clock"
)

const checkTimeout = 5 * time.Second

// Report is the JSON body of a health response.
type Report struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Check is a named dependency probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Handler serves /healthz and /readyz.
type Handler struct {
	mu      sync.RWMutex
	ready   bool
	checks  []Check
	clock   clock.Clock
	started time.Time
}

// NewHandler creates a Handler. The service starts not-ready; call SetReady
// once the ledger is recovered and the gateway session is open.
func NewHandler(clk clock.Clock, checks ...Check) *Handler {
	return &Handler{checks: checks, clock: clk, started: clk.Now()}
}

// SetReady flips the readiness gate.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// Register attaches the endpoints to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Liveness)
	mux.HandleFunc("/readyz", h.Readiness)
}

// Liveness answers 200 whenever the process is up.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	writeJSON(w, http.StatusOK, Report{
		Status:    "ok",
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

// Readiness answers 200 only when the service is marked ready and every
// dependency probe passes.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	ready := h.ready
	h.mu.RUnlock()

	now := h.clock.Now()
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, Report{
			Status:    "not_ready",
			Timestamp: now.UTC().Format(time.RFC3339),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	status, code := "ready", http.StatusOK
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			results[c.Name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			results[c.Name] = "ok"
		}
	}

	writeJSON(w, code, Report{
		Status:    status,
		Checks:    results,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
