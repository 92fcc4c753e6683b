package middleware

import (
	"net/http"

	"bookheaven-be/internal/auth"
	"bookheaven-be/internal/logger"

	"go.uber.org/zap"
)

// AuthMiddleware resolves the request actor from the access token. Requests
// without a token continue anonymously; a token that fails verification is
// rejected with 401.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := auth.ParseJWT(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected access token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}
