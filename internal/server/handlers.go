package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/skald-run/skald/internal/model"
	"github.com/skald-run/skald/internal/telemetry"
	"github.com/skald-run/skald/internal/workload"
)

// pinger is satisfied by a storage.DB when skald runs in stateful mode.
// Kept as a narrow interface so handlers don't import internal/storage
// directly and health checks stay testable with a fake.
type pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	manager     *workload.Manager
	db          pinger
	metrics     *telemetry.ConsolidationMetrics
	maxBodySize int64
	version     string
	stateful    bool
	startedAt   time.Time
	logger      *slog.Logger
}

// NewHandlers creates a new Handlers with all dependencies. db may be nil
// in stateless mode, where there is no database to ping.
func NewHandlers(manager *workload.Manager, db pinger, metrics *telemetry.ConsolidationMetrics, maxBodySize int64, stateful bool, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		manager:     manager,
		db:          db,
		metrics:     metrics,
		maxBodySize: maxBodySize,
		version:     "0.1.0",
		stateful:    stateful,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// HandleConsolidate handles POST /consolidate.
func (h *Handlers) HandleConsolidate(w http.ResponseWriter, r *http.Request) {
	var req model.ConsolidateRequest
	if err := decodeJSON(w, r, &req, h.maxBodySize); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}

	if len(req.Objects) == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "objects must not be empty")
		return
	}

	resp, err := h.manager.Run(r.Context(), req.Objects, req.Sources)
	if err != nil {
		h.writeConsolidateError(w, r, err)
		return
	}

	rowCount := 0
	for _, obj := range req.Objects {
		rowCount += len(obj.Claims)
	}
	h.metrics.RecordRequest(r.Context(), len(req.Objects), rowCount)

	writeJSON(w, r, http.StatusOK, resp)
}

// writeConsolidateError maps a workload error to the appropriate HTTP status.
func (h *Handlers) writeConsolidateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, model.ErrInvalidSource):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidSource, err.Error())
	case errors.Is(err, model.ErrInvalidRating):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidRating, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, r, http.StatusNotFound, model.ErrCodeInvalidSource, err.Error())
	case errors.Is(err, model.ErrStore):
		h.writeInternalError(w, r, "reputation store failure", err)
	default:
		h.writeInternalError(w, r, "failed to consolidate objects", err)
	}
}

// HandleClear handles GET /clear. It drops all stored reputation data in
// stateful mode; it is a no-op, always reporting success, in stateless mode.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Clear(r.Context()); err != nil {
		writeJSON(w, r, http.StatusOK, model.ClearResponse{Success: -1})
		h.logger.Error("failed to clear reputation store", "error", err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.ClearResponse{Success: 1})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		Stateful: h.stateful,
	})
}
