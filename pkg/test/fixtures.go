package test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/charlieegan3/exiflab/pkg/exif"
	jpegseg "github.com/charlieegan3/exiflab/pkg/jpeg"
)

// Image returns a gradient image, enough structure for encoders and colour
// extraction to produce stable output.
func Image(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 0x80,
				A: 0xff,
			})
		}
	}

	return img
}

// JPEG encodes a gradient image as a baseline JPEG without metadata.
func JPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Image(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg fixture: %s", err)
	}

	return buf.Bytes()
}

// PNG encodes a gradient image as a PNG.
func PNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, Image(width, height)); err != nil {
		t.Fatalf("failed to encode png fixture: %s", err)
	}

	return buf.Bytes()
}

// ExifJPEG encodes b and splices it into a gradient JPEG.
func ExifJPEG(t *testing.T, width, height int, b *exif.Block) []byte {
	t.Helper()

	segment, err := exif.Encode(b)
	if err != nil {
		t.Fatalf("failed to encode exif fixture: %s", err)
	}

	out, err := jpegseg.Splice(segment, JPEG(t, width, height))
	if err != nil {
		t.Fatalf("failed to splice exif fixture: %s", err)
	}

	return out
}
