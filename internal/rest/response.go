package rest

import (
	"encoding/json"
	"net/http"

	"bookheaven-be/internal/apperr"
	"bookheaven-be/internal/logger"

	"go.uber.org/zap"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeOK(w http.ResponseWriter, status int, msg string, fields envelope) {
	body := envelope{"success": true}
	if msg != "" {
		body["message"] = msg
	}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeError maps err to its status. Internal errors are logged with their
// cause and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeJSON(w, apperr.HTTPStatus(kind), envelope{
		"success": false,
		"message": apperr.PublicMessage(err),
	})
}
