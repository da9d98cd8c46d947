package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/charlieegan3/exiflab/pkg/convert"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/meta"
	"github.com/charlieegan3/exiflab/pkg/objects"
	"github.com/charlieegan3/exiflab/pkg/session"
	"github.com/charlieegan3/exiflab/pkg/stores"
)

const SessionCookie = "session"

const defaultMaxUploadSize = 32 << 20

type sessionIDKey struct{}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}

type changeView struct {
	fields.Change
	Changed bool `json:"changed"`
}

// Inspection is the JSON view of a session.
type Inspection struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	State       session.State    `json:"state"`
	Warning     string           `json:"warning,omitempty"`
	HasMetadata bool             `json:"has_metadata"`
	Fields      fields.Fields    `json:"fields"`
	Directories []fields.Listing `json:"directories"`
	Changes     []changeView     `json:"changes"`
	OutputName  string           `json:"output_name,omitempty"`
	Metadata    []string         `json:"metadata,omitempty"`
}

func inspect(rec *stores.Session, s *session.Session) Inspection {
	in := Inspection{
		ID:          rec.ID,
		Filename:    rec.Filename,
		State:       s.State(),
		Warning:     s.Warning(),
		HasMetadata: s.HasMetadata(),
		Fields:      s.Fields(),
		Directories: []fields.Listing{},
	}

	if original := s.Original(); original != nil {
		in.Directories = fields.Describe(original)
	}

	for _, c := range s.Changes() {
		in.Changes = append(in.Changes, changeView{Change: c, Changed: c.Changed()})
	}

	if s.State() == session.StateApplied {
		in.OutputName = session.OutputName(rec.Filename)
	}

	return in
}

// loadSession restores the session named by the request cookie.
func loadSession(r *http.Request, opts *Options) (*stores.Session, *session.Session, error) {
	id, ok := SessionID(r.Context())
	if !ok {
		return nil, nil, fmt.Errorf("%w: no session cookie", stores.ErrSessionNotFound)
	}

	rec, err := opts.Sessions.GetSession(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}

	var source, output []byte
	if rec.Snapshot.State != session.StateEmpty && rec.Snapshot.State != "" {
		source, err = opts.Objects.Get(r.Context(), objects.DataKey(rec.ID, objects.SourceName))
		if err != nil {
			return nil, nil, fmt.Errorf("could not load source: %w", err)
		}
	}
	if rec.Snapshot.State == session.StateApplied {
		output, err = opts.Objects.Get(r.Context(), rec.OutputKey)
		if err != nil {
			return nil, nil, fmt.Errorf("could not load output: %w", err)
		}
	}

	s, err := session.Restore(opts.sessionOptions(), rec.Snapshot, source, output)
	if err != nil {
		return nil, nil, err
	}

	return rec, s, nil
}

func saveSession(ctx context.Context, opts *Options, rec *stores.Session, s *session.Session) error {
	rec.Snapshot = s.Snapshot()
	if s.State() != session.StateApplied {
		rec.OutputKey = ""
	}

	return opts.Sessions.UpdateSession(ctx, rec)
}

// BuildUploadHandler accepts a multipart "image" file, converts it to JPEG when
// needed and starts a new session for it.
func BuildUploadHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	maxSize := opts.MaxUploadSize
	if maxSize <= 0 {
		maxSize = defaultMaxUploadSize
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, opts, fmt.Errorf("%w: missing image: %s", ErrBadRequest, err))
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			writeError(w, opts, fmt.Errorf("%w: could not read image: %s", ErrBadRequest, err))
			return
		}

		source, format, err := convert.ToJPEG(opts.Converter, content)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		s := session.New(opts.sessionOptions())
		if err := s.Load(source); err != nil {
			writeError(w, opts, err)
			return
		}

		ctx := r.Context()

		if previous, ok := SessionID(ctx); ok {
			if err := removeSession(ctx, opts, previous); err != nil {
				opts.logError("could not remove previous session %s: %v", previous, err)
			}
		}

		id, err := opts.Sessions.CreateSession(ctx, header.Filename, string(format))
		if err != nil {
			writeError(w, opts, err)
			return
		}

		err = opts.Objects.Put(ctx, objects.DataKey(id, objects.SourceName), "image/jpeg", source)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		rec := &stores.Session{ID: id, Filename: header.Filename, SourceFormat: string(format)}
		if err := saveSession(ctx, opts, rec, s); err != nil {
			writeError(w, opts, err)
			return
		}

		opts.logInfo("session %s started for %s (%s)", id, header.Filename, format)

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   !opts.DevMode,
		})

		writeJSON(w, opts, http.StatusCreated, inspect(rec, s))
	}
}

func BuildGetSessionHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, s, err := loadSession(r, opts)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		writeJSON(w, opts, http.StatusOK, inspect(rec, s))
	}
}

// buildEditHandler wraps a session mutation: load, mutate, store, respond.
func buildEditHandler(
	opts *Options,
	edit func(r *http.Request, s *session.Session) error,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, s, err := loadSession(r, opts)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		if err := edit(r, s); err != nil {
			writeError(w, opts, err)
			return
		}

		if err := saveSession(r.Context(), opts, rec, s); err != nil {
			writeError(w, opts, err)
			return
		}

		writeJSON(w, opts, http.StatusOK, inspect(rec, s))
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, err)
	}

	return nil
}

// BuildFieldsHandler replaces the working fields with the JSON body.
func BuildFieldsHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return buildEditHandler(opts, func(r *http.Request, s *session.Session) error {
		var f fields.Fields
		if err := decodeBody(r, &f); err != nil {
			return err
		}

		return s.SetFields(f)
	})
}

func BuildDeviceHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return buildEditHandler(opts, func(r *http.Request, s *session.Session) error {
		var body struct {
			Device string `json:"device"`
		}
		if err := decodeBody(r, &body); err != nil {
			return err
		}

		return s.UseDevice(body.Device)
	})
}

func BuildActionHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return buildEditHandler(opts, func(r *http.Request, s *session.Session) error {
		return s.Perform(session.Action(mux.Vars(r)["action"]))
	})
}

func BuildReloadHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return buildEditHandler(opts, func(r *http.Request, s *session.Session) error {
		return s.ReloadOriginal()
	})
}

func BuildDiscardHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return buildEditHandler(opts, func(r *http.Request, s *session.Session) error {
		return s.Discard()
	})
}

// BuildApplyHandler writes the fields into the image, stores the output and runs
// the metadata processors over it. Processor failures are reported but do not
// fail the apply.
func BuildApplyHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, s, err := loadSession(r, opts)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		output, err := s.Apply()
		if err != nil {
			writeError(w, opts, err)
			return
		}

		ctx := r.Context()
		key := objects.DataKey(rec.ID, objects.OutputName)
		if err := opts.Objects.Put(ctx, key, "image/jpeg", output); err != nil {
			writeError(w, opts, err)
			return
		}

		rec.OutputKey = key
		if err := saveSession(ctx, opts, rec, s); err != nil {
			writeError(w, opts, err)
			return
		}

		in := inspect(rec, s)

		if opts.Processors != nil {
			keys, err := opts.Processors(ctx, key)
			if err != nil {
				opts.logError("metadata processors failed for %s: %v", rec.ID, err)
				in.Warning = joinWarning(in.Warning, fmt.Sprintf("post-apply checks failed: %s", err))
			}
			in.Metadata = keys
		}

		writeJSON(w, opts, http.StatusOK, in)
	}
}

func joinWarning(a, b string) string {
	if a == "" {
		return b
	}

	return a + "; " + b
}

func BuildDownloadHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, s, err := loadSession(r, opts)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		output, err := s.Output()
		if err != nil {
			writeError(w, opts, err)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", session.OutputName(rec.Filename)))
		w.Header().Set("Content-Length", fmt.Sprint(len(output)))

		if _, err := w.Write(output); err != nil {
			opts.logError("failed to write download: %v", err)
		}
	}
}

// BuildMetadataHandler serves a processor artefact of the current session.
func BuildMetadataHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := SessionID(r.Context())
		if !ok {
			writeError(w, opts, stores.ErrSessionNotFound)
			return
		}

		vars := mux.Vars(r)
		name, ext := vars["name"], vars["ext"]

		contentType, ok := meta.ContentTypeForFileExt(ext)
		if !ok {
			writeError(w, opts, fmt.Errorf("%w: unknown artefact type %q", objects.ErrNotFound, ext))
			return
		}

		content, err := opts.Objects.Get(r.Context(), objects.MetaPrefix(id)+name+ext)
		if err != nil {
			writeError(w, opts, err)
			return
		}

		w.Header().Set("Content-Type", meta.ContentTypeToString(contentType))
		if _, err := w.Write(content); err != nil {
			opts.logError("failed to write metadata: %v", err)
		}
	}
}

func removeSession(ctx context.Context, opts *Options, id string) error {
	if err := opts.Objects.DeleteSession(ctx, id); err != nil {
		return err
	}

	return opts.Sessions.DeleteSession(ctx, id)
}

// BuildDeleteSessionHandler resets the session: its row and objects are removed
// and the cookie cleared.
func BuildDeleteSessionHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := SessionID(r.Context())
		if ok {
			err := removeSession(r.Context(), opts, id)
			if err != nil && !errors.Is(err, stores.ErrSessionNotFound) {
				writeError(w, opts, err)
				return
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:   SessionCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})

		w.WriteHeader(http.StatusNoContent)
	}
}

func BuildProfilesHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles := opts.Catalog.All()

		writeJSON(w, opts, http.StatusOK, profiles)
	}
}
