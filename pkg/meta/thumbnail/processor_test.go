package thumbnail_test

import (
	"bytes"
	"context"
	"image/jpeg"
	"testing"

	"github.com/minio/minio-go/v7"

	jpegseg "github.com/charlieegan3/exiflab/pkg/jpeg"
	"github.com/charlieegan3/exiflab/pkg/meta"
	"github.com/charlieegan3/exiflab/pkg/meta/thumbnail"
	"github.com/charlieegan3/exiflab/pkg/test"
)

func TestThumbnailProcessor(t *testing.T) {
	testCases := map[string]struct {
		width, height  int
		expectedWidth  int
		expectedHeight int
	}{
		"landscape is scaled down": {width: 400, height: 200, expectedWidth: 100, expectedHeight: 50},
		"portrait is scaled down":  {width: 200, height: 400, expectedWidth: 50, expectedHeight: 100},
		"small images are kept":    {width: 60, height: 40, expectedWidth: 60, expectedHeight: 40},
	}

	processor := thumbnail.ThumbnailProcessor{MaxSize: 100}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			metadata, err := processor.Process(context.Background(), &minio.ObjectInfo{
				Key:  "data/foobar/output.jpg",
				ETag: "foobar",
			}, test.JPEG(t, tc.width, tc.height))
			if err != nil {
				t.Fatalf("failed to process image: %v", err)
			}

			if len(metadata) != 1 {
				t.Fatalf("expected 1 metadata entry, got %d", len(metadata))
			}

			if metadata[0].Path != "foobar/thumbnail.jpg" {
				t.Fatalf("expected path 'foobar/thumbnail.jpg', got '%s'", metadata[0].Path)
			}

			if metadata[0].ContentType != meta.JPG {
				t.Errorf("expected content type jpg, got '%v'", metadata[0].ContentType)
			}

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(metadata[0].Content))
			if err != nil {
				t.Fatalf("thumbnail is not a jpeg: %s", err)
			}
			if cfg.Width != tc.expectedWidth || cfg.Height != tc.expectedHeight {
				t.Fatalf("expected %dx%d, got %dx%d", tc.expectedWidth, tc.expectedHeight, cfg.Width, cfg.Height)
			}

			loc, ok, err := jpegseg.LocateSegment(metadata[0].Content)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if ok {
				t.Fatalf("expected thumbnail without exif, found segment at %d", loc.Offset)
			}
		})
	}
}

func TestThumbnailProcessorInvalidSize(t *testing.T) {
	processor := thumbnail.ThumbnailProcessor{}

	_, err := processor.Process(context.Background(), &minio.ObjectInfo{}, test.JPEG(t, 8, 8))
	if err == nil {
		t.Fatalf("expected an error for a zero MaxSize")
	}
}
