package utils

import (
	"fmt"
	"hash/crc32"
	"net/http"
)

func SetCacheControl(w http.ResponseWriter, cacheControl string) {
	w.Header().Set("Cache-Control", cacheControl)
}

// CRC32Hash is a short content hash used for ETags.
func CRC32Hash(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}

// NotModified sets the ETag header and reports whether the request already holds
// the current version, writing a 304 when it does.
func NotModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	quoted := `"` + etag + `"`
	w.Header().Set("ETag", quoted)

	if r.Header.Get("If-None-Match") == quoted {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	return false
}
