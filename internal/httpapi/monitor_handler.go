package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/monitor"
)

// MonitorHandler exposes the periodic scans for manual (cron or operator)
// triggering alongside the internal loop.
type MonitorHandler struct {
	mon    *monitor.Monitor
	logger *zap.Logger
}

func NewMonitorHandler(mon *monitor.Monitor, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{mon: mon, logger: logger}
}

// Run handles POST /api/monitors/{offline|battery|security|all}/run.
func (h *MonitorHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/monitors/")
	scan, ok := strings.CutSuffix(rest, "/run")
	if !ok {
		writeError(w, http.StatusNotFound, "unknown monitor endpoint", r.URL.Path)
		return
	}

	ctx := r.Context()
	var err error
	switch scan {
	case "offline":
		err = h.mon.RunOffline(ctx)
	case "battery":
		err = h.mon.RunBattery(ctx)
	case "security":
		err = h.mon.RunSecurity(ctx)
	case "all":
		h.mon.RunAll(ctx)
	default:
		writeError(w, http.StatusNotFound, "unknown monitor scan", scan)
		return
	}

	if err != nil {
		h.logger.Error("Manual monitor run failed", zap.String("scan", scan), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "monitor run failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"scan": scan, "status": "completed"})
}
