package httpapi

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"
)

// HealthHandler answers liveness probes with a database ping.
type HealthHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Warn("Health check database ping failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unreachable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
