package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/charlieegan3/exiflab/pkg/meta"
)

// Summary is what a second reader makes of the produced metadata.
type Summary struct {
	Make      string   `json:"make,omitempty"`
	Model     string   `json:"model,omitempty"`
	Software  string   `json:"software,omitempty"`
	DateTime  string   `json:"date_time,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// VerifyProcessor decodes the produced JPEG with rwcarlsen/goexif. Output that
// reader cannot parse fails the processor.
type VerifyProcessor struct{}

func (p *VerifyProcessor) Name() string {
	return "verify"
}

func (p *VerifyProcessor) ContentTypes() []string {
	return []string{"image/jpeg"}
}

func (p *VerifyProcessor) Process(
	ctx context.Context,
	objectInfo *minio.ObjectInfo,
	content []byte,
) ([]meta.PutMetadata, error) {
	x, err := goexif.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("produced exif is unreadable: %w", err)
	}

	var summary Summary
	for name, dst := range map[goexif.FieldName]*string{
		goexif.Make:     &summary.Make,
		goexif.Model:    &summary.Model,
		goexif.Software: &summary.Software,
	} {
		*dst, err = stringField(x, name)
		if err != nil {
			return nil, err
		}
	}

	if dt, err := x.DateTime(); err == nil {
		summary.DateTime = dt.Format("2006:01:02 15:04:05")
	}

	if lat, long, err := x.LatLong(); err == nil {
		summary.Latitude, summary.Longitude = &lat, &long
	}

	jsonData, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("error converting summary to JSON: %w", err)
	}

	return []meta.PutMetadata{
		{
			Path:        meta.PathFor(objectInfo, p.Name(), meta.JSON),
			ContentType: meta.JSON,
			Content:     jsonData,
		},
	}, nil
}

func stringField(x *goexif.Exif, name goexif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		var missing goexif.TagNotPresentError
		if errors.As(err, &missing) {
			return "", nil
		}
		return "", fmt.Errorf("could not read %s: %w", name, err)
	}

	if tag.Format() != tiff.StringVal {
		return "", fmt.Errorf("%s is not a string", name)
	}

	s, err := tag.StringVal()
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", name, err)
	}

	return s, nil
}
