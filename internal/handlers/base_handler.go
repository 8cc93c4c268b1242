package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/volunteerhub/backend/internal/apperrors"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondAppError maps a classified error to its status and public message.
// Infrastructure failures are logged with their cause and answered generically.
func (h *BaseHandler) RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInfrastructure {
		h.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.Logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Stringer("kind", kind), zap.Error(err))
	}
	h.RespondError(w, kind.Status(), apperrors.PublicMessage(err))
}

// decodeJSON decodes a JSON request body into dst
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
