package httpx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

const (
	// APIKeyHeader carries the caller's key for mutating routes.
	APIKeyHeader = "X-API-Key"
)

// RequireAPIKey gates a handler behind a static API key. The comparison is
// constant time; a missing or mismatched key is rejected with 401 before
// the wrapped handler runs. Key management itself lives outside this
// service, so there is nothing to look up here.
func RequireAPIKey(key string, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				logger.WarnContext(r.Context(), "missing api key",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
				)
				WriteError(w, http.StatusUnauthorized, "unauthorized",
					"missing "+APIKeyHeader+" header", nil)
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logger.WarnContext(r.Context(), "invalid api key",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
				)
				WriteError(w, http.StatusUnauthorized, "unauthorized",
					"invalid api key", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
