package middleware

import (
	"net/http"
	"runtime/debug"

	"bookheaven-be/internal/logger"

	"go.uber.org/zap"
)

// Recover turns a panic in a handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromCtx(r.Context()).Error("panic while serving request",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, "Server error")
		}()

		next.ServeHTTP(w, r)
	})
}
