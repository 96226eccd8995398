package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"oitracker/pkg/logger"
)

// Checker pings one dependency
type Checker func(ctx context.Context) error

// Handler provides health check endpoints
type Handler struct {
	log       *logger.Logger
	app       string
	version   string
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]Checker
}

// New creates a new health check handler
func New(app, version string) *Handler {
	return &Handler{
		log:       logger.Get().With("component", "health"),
		app:       app,
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]Checker),
	}
}

// AddCheck registers a dependency probed by the readiness endpoint
func (h *Handler) AddCheck(name string, check Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// ReadinessStatus represents the overall readiness
type ReadinessStatus struct {
	Status    string                     `json:"status"` // "healthy", "unhealthy"
	App       string                     `json:"app"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleHealth reports the process is up, {status, app, version}
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"app":     h.app,
		"version": h.version,
	})
}

// HandleReadiness probes every registered dependency
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	status := ReadinessStatus{
		Status:    "healthy",
		App:       h.app,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentHealth, len(names)),
	}
	code := http.StatusOK

	for _, name := range names {
		h.mu.RLock()
		check := h.checks[name]
		h.mu.RUnlock()

		res := h.probe(ctx, name, check)
		status.Checks[name] = res
		if res.Status != "healthy" {
			status.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) probe(ctx context.Context, name string, check Checker) ComponentHealth {
	start := time.Now()
	err := check(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Health check failed", "component", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}
	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}
