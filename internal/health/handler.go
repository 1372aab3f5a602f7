package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status response
type Status struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Handler handles health check endpoints
type Handler struct {
	mu           sync.RWMutex
	checks       []namedCheck
	startTime    time.Time
	startupGrace time.Duration
}

// NewHandler creates a new health handler
func NewHandler() *Handler {
	return &Handler{
		startTime:    time.Now(),
		startupGrace: 5 * time.Second,
	}
}

// AddCheck registers a readiness check, e.g. the run ledger ping.
func (h *Handler) AddCheck(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, fn: fn})
}

// HandleLive handles the liveness probe
// Returns 200 if the application is running
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	status := Status{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeStatus(w, http.StatusOK, status)
}

// HandleReady handles the readiness probe
// Returns 200 if every registered check passes and startup is complete
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	h.mu.RLock()
	checks := append([]namedCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := make(map[string]string, len(checks)+1)
	allHealthy := true

	for _, c := range checks {
		if err := c.fn(ctx); err != nil {
			results[c.name] = "not_ready: " + err.Error()
			allHealthy = false
		} else {
			results[c.name] = "healthy"
		}
	}

	if time.Since(h.startTime) >= h.startupGrace {
		results["startup"] = "complete"
	} else {
		results["startup"] = "in_progress"
		allHealthy = false
	}

	status := Status{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
	}
	if allHealthy {
		status.Status = "ready"
		writeStatus(w, http.StatusOK, status)
		return
	}
	status.Status = "not_ready"
	writeStatus(w, http.StatusServiceUnavailable, status)
}

// HandleHealth handles the combined health endpoint (for Docker HEALTHCHECK)
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.HandleReady(w, r)
}

func writeStatus(w http.ResponseWriter, code int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
