package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/charlieegan3/exiflab/pkg/server/handlers"
)

// BuildAuth requires a bearer token outside dev mode. A server without a
// configured token is open.
func BuildAuth(opts *handlers.Options) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.DevMode || opts.AuthToken == "" {
				h.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if c, err := r.Cookie("token"); err == nil && token == "" {
				token = c.Value
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(opts.AuthToken)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				_, err := w.Write([]byte("unauthorized"))
				if err != nil && opts.LoggerError != nil {
					opts.LoggerError.Println(err)
				}
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
