package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the {success, message} failure envelope shared with the REST handlers.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": msg,
	})
}
