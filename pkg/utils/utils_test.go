package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCRC32Hash(t *testing.T) {
	if got := CRC32Hash([]byte("hello")); got != "3610a686" {
		t.Fatalf("unexpected hash %s", got)
	}
}

func TestNotModified(t *testing.T) {
	testCases := map[string]struct {
		ifNoneMatch string
		expected    bool
	}{
		"no header":     {"", false},
		"stale etag":    {`"00000000"`, false},
		"current etag":  {`"3610a686"`, true},
		"unquoted etag": {"3610a686", false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
			if tc.ifNoneMatch != "" {
				r.Header.Set("If-None-Match", tc.ifNoneMatch)
			}
			w := httptest.NewRecorder()

			if got := NotModified(w, r, CRC32Hash([]byte("hello"))); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			if w.Header().Get("ETag") != `"3610a686"` {
				t.Fatalf("unexpected etag header %q", w.Header().Get("ETag"))
			}
			if tc.expected && w.Code != http.StatusNotModified {
				t.Fatalf("expected 304, got %d", w.Code)
			}
		})
	}
}

func TestFreePort(t *testing.T) {
	port, err := FreePort(20000)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if port < 20000 || port >= 20100 {
		t.Fatalf("unexpected port %d", port)
	}
}

func TestSetCacheControl(t *testing.T) {
	w := httptest.NewRecorder()
	SetCacheControl(w, "no-store")

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("unexpected header %q", w.Header().Get("Cache-Control"))
	}
}
