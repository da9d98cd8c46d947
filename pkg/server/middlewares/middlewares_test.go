package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charlieegan3/exiflab/pkg/server/handlers"
)

func TestBuildAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	testCases := map[string]struct {
		opts     handlers.Options
		header   string
		cookie   string
		expected int
	}{
		"dev mode is open": {
			opts:     handlers.Options{DevMode: true, AuthToken: "secret"},
			expected: http.StatusOK,
		},
		"no token configured is open": {
			opts:     handlers.Options{},
			expected: http.StatusOK,
		},
		"missing token": {
			opts:     handlers.Options{AuthToken: "secret"},
			expected: http.StatusUnauthorized,
		},
		"wrong token": {
			opts:     handlers.Options{AuthToken: "secret"},
			header:   "Bearer nope",
			expected: http.StatusUnauthorized,
		},
		"bearer token": {
			opts:     handlers.Options{AuthToken: "secret"},
			header:   "Bearer secret",
			expected: http.StatusOK,
		},
		"cookie token": {
			opts:     handlers.Options{AuthToken: "secret"},
			cookie:   "secret",
			expected: http.StatusOK,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tc.cookie})
			}

			rr := httptest.NewRecorder()
			BuildAuth(&tc.opts)(ok).ServeHTTP(rr, req)

			if rr.Code != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, rr.Code)
			}
		})
	}
}

func TestBuildSessionMiddleware(t *testing.T) {
	var got string
	h := BuildSessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handlers.SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: handlers.SessionCookie, Value: "abc"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "abc" {
		t.Fatalf("expected session id abc, got %q", got)
	}

	got = ""
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/session", nil))
	if got != "" {
		t.Fatalf("expected no session id, got %q", got)
	}
}
