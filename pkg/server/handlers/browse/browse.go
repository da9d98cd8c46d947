package browse

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/charlieegan3/exiflab/pkg/server/handlers"
	"github.com/charlieegan3/exiflab/pkg/stores"
)

type fileEntry struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Kind        string `json:"kind"`
	ContentType string `json:"content_type"`
	Size        string `json:"size"`
	Link        string `json:"link,omitempty"`
}

// BuildHandler lists the objects stored for the current session: the uploaded
// source, the output once applied and any processor artefacts.
func BuildHandler(opts *handlers.Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlers.SessionID(r.Context())
		if !ok {
			writeJSON(w, opts, handlers.StatusFor(stores.ErrSessionNotFound), map[string]string{
				"error": stores.ErrSessionNotFound.Error(),
			})
			return
		}

		files, err := opts.Objects.Files(r.Context(), id)
		if err != nil {
			status := handlers.StatusFor(err)
			if status == http.StatusInternalServerError && opts.LoggerError != nil {
				opts.LoggerError.Printf("failed to list files for %s: %v", id, err)
			}
			writeJSON(w, opts, status, map[string]string{"error": err.Error()})
			return
		}

		entries := []fileEntry{}
		for _, f := range files {
			kind, link := linkFor(f.Key)
			entries = append(entries, fileEntry{
				Name:        path.Base(f.Key),
				Key:         f.Key,
				Kind:        kind,
				ContentType: f.ContentType,
				Size:        humanizeBytes(f.Size),
				Link:        link,
			})
		}

		writeJSON(w, opts, http.StatusOK, entries)
	}
}

func writeJSON(w http.ResponseWriter, opts *handlers.Options, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && opts.LoggerError != nil {
		opts.LoggerError.Println(err)
	}
}
