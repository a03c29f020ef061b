package api

import (
	"context"
	"net/http"
	"time"

	"github.com/snarg/podscribe/internal/workflow"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
	Queue         *QueueHealth      `json:"queue,omitempty"`
}

type QueueHealth struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// HealthChecker reports database liveness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// QueueReporter exposes background worker statistics.
type QueueReporter interface {
	Stats() workflow.PoolStats
}

type HealthHandler struct {
	db        HealthChecker
	queue     QueueReporter
	version   string
	startTime time.Time
}

func NewHealthHandler(db HealthChecker, queue QueueReporter, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		queue:     queue,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}

	if h.queue != nil {
		stats := h.queue.Stats()
		checks["queue"] = "ok"
		resp.Queue = &QueueHealth{
			Pending:   stats.Pending,
			Completed: stats.Completed,
			Failed:    stats.Failed,
		}
	}

	WriteJSON(w, httpStatus, resp)
}
