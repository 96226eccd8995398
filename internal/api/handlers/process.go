package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	ingestsvc "oitracker/internal/services/ingest"
	ingestworker "oitracker/internal/workers/ingest"
	"oitracker/pkg/logger"
)

// Process handles /api/v1/process
type Process struct {
	batcher Batcher
	// base outlives the request so refreshes finish after the response
	base context.Context
	log  *logger.Logger
}

// NewProcess creates the processing handlers. base bounds background
// refreshes, usually the application lifetime context.
func NewProcess(base context.Context, batcher Batcher) *Process {
	return &Process{
		batcher: batcher,
		base:    base,
		log:     logger.Get().With("component", "process_api"),
	}
}

// Refresh starts a batch in the background
func (h *Process) Refresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, err := h.batcher.ProcessAll(h.base, ingestsvc.Options{ClearExisting: true, Trigger: "refresh"}); err != nil {
			h.log.Warnw("Background refresh did not complete", "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "processing",
		"message":   "Data refresh initiated in background",
		"timestamp": time.Now(),
	})
}

// Status returns the last batch of this process
func (h *Process) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.batcher.Status())
}

// BackgroundControl drives the ingest worker. *ingestworker.Worker satisfies it.
type BackgroundControl interface {
	Start() bool
	Stop() bool
	UpdateInterval(d time.Duration) error
	Status() ingestworker.Status
}

// Background handles /api/v1/background
type Background struct {
	worker BackgroundControl
	log    *logger.Logger
}

// NewBackground creates the background processor handlers
func NewBackground(worker BackgroundControl) *Background {
	return &Background{
		worker: worker,
		log:    logger.Get().With("component", "background_api"),
	}
}

// Status returns {"status": "success", "data": {...}}
func (h *Background) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   h.worker.Status(),
	})
}

// Start resumes the background processor
func (h *Background) Start(w http.ResponseWriter, r *http.Request) {
	h.worker.Start()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Background processor started",
	})
}

// Stop pauses the background processor
func (h *Background) Stop(w http.ResponseWriter, r *http.Request) {
	h.worker.Stop()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Background processor stopped",
	})
}

// Interval changes the market-hours cadence, PUT .../interval/{seconds}
func (h *Background) Interval(w http.ResponseWriter, r *http.Request) {
	seconds, err := strconv.Atoi(r.PathValue("seconds"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "seconds must be an integer")
		return
	}
	if err := h.worker.UpdateInterval(time.Duration(seconds) * time.Second); err != nil {
		writeError(w, h.log, "Error updating interval", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Process interval updated to " + strconv.Itoa(seconds) + " seconds",
	})
}

