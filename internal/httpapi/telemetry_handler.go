package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/service"
)

// maxPayloadBytes bounds a submission; app lists can make payloads large but
// anything past this is abuse.
const maxPayloadBytes = 2 << 20

// TelemetryHandler is the ingestion surface for device agents.
type TelemetryHandler struct {
	svc    *service.TelemetryService
	apiKey string
	logger *zap.Logger
}

func NewTelemetryHandler(svc *service.TelemetryService, apiKey string, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		svc:    svc,
		apiKey: apiKey,
		logger: logger,
	}
}

// Submit handles POST /api/telemetry: the primary (raw-history) write path.
func (h *TelemetryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.svc.Submit)
}

// SubmitStructured handles POST /api/telemetry/structured: the legacy
// agent's flattened write path.
func (h *TelemetryHandler) SubmitStructured(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.svc.SubmitStructured)
}

func (h *TelemetryHandler) handle(w http.ResponseWriter, r *http.Request, submit func(ctx context.Context, raw json.RawMessage) (*service.SubmitResult, error)) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body", err.Error())
		return
	}

	result, err := submit(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedPayload), errors.Is(err, service.ErrMissingDeviceID):
			writeError(w, http.StatusBadRequest, "invalid telemetry payload", err.Error())
		default:
			h.logger.Error("Telemetry submission failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to record telemetry", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TelemetryHandler) authorized(r *http.Request) bool {
	if h.apiKey == "" {
		// No key configured: open ingestion (development mode).
		return true
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) == 1
}
