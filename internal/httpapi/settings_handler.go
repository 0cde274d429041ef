package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/service"
)

// SettingsHandler serves the notification settings singleton.
type SettingsHandler struct {
	svc    *service.SettingsService
	logger *zap.Logger
}

func NewSettingsHandler(svc *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, logger: logger}
}

// Get handles GET /api/settings. Reads go through the resolver cache, so a
// missing or broken settings row still yields the defaults.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Get(r.Context()))
}

// Save handles POST /api/settings.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	ns := models.DefaultNotificationSettings()
	if err := json.NewDecoder(r.Body).Decode(ns); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload", err.Error())
		return
	}

	if err := h.svc.Save(r.Context(), ns); err != nil {
		h.logger.Error("Failed to save notification settings", zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to save settings", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ns)
}
