package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/repository"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/service"
)

// DeviceHandler serves the dashboard's device views.
type DeviceHandler struct {
	svc    *service.DeviceService
	logger *zap.Logger
}

func NewDeviceHandler(svc *service.DeviceService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{svc: svc, logger: logger}
}

// ListStatuses handles GET /api/devices.
func (h *DeviceHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.ListStatuses(r.Context())
	if err != nil {
		h.logger.Error("Failed to list device statuses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list devices", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

// ServeDevice dispatches GET and DELETE on /api/devices/{id}, plus
// GET /api/devices/{id}/apps.
func (h *DeviceHandler) ServeDevice(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	if deviceID, ok := strings.CutSuffix(rest, "/apps"); ok {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.listApps(w, r, deviceID)
		return
	}

	deviceID := rest
	if deviceID == "" || strings.Contains(deviceID, "/") {
		writeError(w, http.StatusBadRequest, "invalid device id", "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getStatus(w, r, deviceID)
	case http.MethodDelete:
		h.deleteDevice(w, r, deviceID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *DeviceHandler) getStatus(w http.ResponseWriter, r *http.Request, deviceID string) {
	status, err := h.svc.GetStatus(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "device not found", deviceID)
			return
		}
		h.logger.Error("Failed to get device status",
			zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get device", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *DeviceHandler) listApps(w http.ResponseWriter, r *http.Request, deviceID string) {
	apps, err := h.svc.ListApps(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "device not found", deviceID)
			return
		}
		h.logger.Error("Failed to list device apps",
			zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list device apps", err.Error())
		return
	}
	if apps == nil {
		apps = []string{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *DeviceHandler) deleteDevice(w http.ResponseWriter, r *http.Request, deviceID string) {
	if err := h.svc.DeleteDevice(r.Context(), deviceID); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "device not found", deviceID)
			return
		}
		h.logger.Error("Failed to delete device",
			zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete device", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": deviceID})
}
