package middlewares

import (
	"net/http"

	"github.com/charlieegan3/exiflab/pkg/server/handlers"
)

// BuildSessionMiddleware puts the session cookie value on the request context.
func BuildSessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(handlers.SessionCookie)
			if err == nil && cookie.Value != "" {
				r = r.WithContext(handlers.WithSessionID(r.Context(), cookie.Value))
			}

			next.ServeHTTP(w, r)
		})
	}
}
