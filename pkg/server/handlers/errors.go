package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charlieegan3/exiflab/pkg/convert"
	"github.com/charlieegan3/exiflab/pkg/exif"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/jpeg"
	"github.com/charlieegan3/exiflab/pkg/objects"
	"github.com/charlieegan3/exiflab/pkg/profiles"
	"github.com/charlieegan3/exiflab/pkg/session"
	"github.com/charlieegan3/exiflab/pkg/stores"
)

var ErrBadRequest = errors.New("bad request")

var statusErrors = []struct {
	status int
	errs   []error
}{
	{http.StatusNotFound, []error{stores.ErrSessionNotFound, objects.ErrNotFound}},
	{http.StatusConflict, []error{session.ErrInvalidState}},
	{http.StatusRequestEntityTooLarge, []error{jpeg.ErrSegmentTooLarge}},
	{http.StatusBadRequest, []error{
		ErrBadRequest,
		session.ErrUnknownAction,
		jpeg.ErrUnsupportedContainer,
		jpeg.ErrCorruptContainer,
		convert.ErrUnsupportedFormat,
		fields.ErrInvalidCoordinate,
		fields.ErrMalformedDateTime,
		fields.ErrInvalidDisplay,
		profiles.ErrUnknownProfile,
		exif.ErrZeroDenominator,
	}},
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	for _, se := range statusErrors {
		for _, target := range se.errs {
			if errors.Is(err, target) {
				return se.status
			}
		}
	}

	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, opts *Options, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		opts.logError("request failed: %v", err)
	}

	writeJSON(w, opts, status, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, opts *Options, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		opts.logError("failed to write response: %v", err)
	}
}
