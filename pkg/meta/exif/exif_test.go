package exif_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/minio/minio-go/v7"

	codec "github.com/charlieegan3/exiflab/pkg/exif"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/meta"
	"github.com/charlieegan3/exiflab/pkg/meta/exif"
	"github.com/charlieegan3/exiflab/pkg/test"
)

func TestExifMetadataProcessor(t *testing.T) {
	b := codec.NewBlock()
	b.Image.Set(codec.ASCII(codec.TagMake, "SONY"))
	b.Image.Set(codec.ASCII(codec.TagModel, "DSC-RX100M7"))
	b.Capture.Set(codec.ASCII(codec.TagLensModel, "24-200mm F2.8-4.5"))
	b.Capture.Set(codec.Short(codec.TagISOSpeedRatings, 200))
	if err := fields.SetCoordinates(&b.GPS, 51.5007, -0.1246); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	content := test.ExifJPEG(t, 32, 32, b)

	processor := exif.ExifMetadataProcessor{}

	metadata, err := processor.Process(context.Background(), &minio.ObjectInfo{
		Key:  "data/abc/output.jpg",
		ETag: "foobar",
	}, content)
	if err != nil {
		t.Fatalf("failed to process image: %v", err)
	}

	if len(metadata) != 1 {
		t.Fatalf("expected 1 metadata entry, got %d", len(metadata))
	}

	if metadata[0].ContentType != meta.JSON {
		t.Fatalf("expected content type 'json', got '%v'", metadata[0].ContentType)
	}

	if metadata[0].Path != "abc/exif.json" {
		t.Fatalf("expected path 'abc/exif.json', got '%s'", metadata[0].Path)
	}

	var exifData map[string]map[string]interface{}
	err = json.Unmarshal(metadata[0].Content, &exifData)
	if err != nil {
		t.Fatalf("failed to unmarshal JSON content: %v", err)
	}

	expected := map[string]map[string]string{
		"IFD":      {"Make": "SONY", "Model": "DSC-RX100M7"},
		"IFD/Exif": {"LensModel": "24-200mm F2.8-4.5"},
		"IFD/GPSInfo": {
			"GPSLatitudeRef":  "N",
			"GPSLongitudeRef": "W",
		},
	}

	for ifdPath, tags := range expected {
		for tagName, expectedValue := range tags {
			if value, ok := exifData[ifdPath][tagName].(string); !ok || value != expectedValue {
				t.Errorf("expected %s %s '%s', got '%v'", ifdPath, tagName, expectedValue, exifData[ifdPath][tagName])
			}
		}
	}
}

func TestExifMetadataProcessorWithoutExif(t *testing.T) {
	processor := exif.ExifMetadataProcessor{}

	metadata, err := processor.Process(context.Background(), &minio.ObjectInfo{
		Key: "data/abc/output.jpg",
	}, test.JPEG(t, 16, 16))
	if err != nil {
		t.Fatalf("failed to process image: %v", err)
	}

	if len(metadata) != 0 {
		t.Fatalf("expected no metadata, got %d", len(metadata))
	}
}
