package convert

import (
	"bytes"
	"errors"
	"fmt"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

type Format string

const (
	Unknown Format = ""
	JPEG    Format = "jpeg"
	PNG     Format = "png"
	GIF     Format = "gif"
	WebP    Format = "webp"
	AVIF    Format = "avif"
	BMP     Format = "bmp"
	TIFF    Format = "tiff"
)

// Detect identifies an image by its magic bytes.
func Detect(content []byte) Format {
	switch {
	case bytes.HasPrefix(content, []byte{0xFF, 0xD8, 0xFF}):
		return JPEG
	case bytes.HasPrefix(content, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case bytes.HasPrefix(content, []byte("GIF87a")), bytes.HasPrefix(content, []byte("GIF89a")):
		return GIF
	case len(content) >= 12 && string(content[:4]) == "RIFF" && string(content[8:12]) == "WEBP":
		return WebP
	case isAVIF(content):
		return AVIF
	case bytes.HasPrefix(content, []byte("BM")):
		return BMP
	case bytes.HasPrefix(content, []byte("II*\x00")), bytes.HasPrefix(content, []byte("MM\x00*")):
		return TIFF
	}

	return Unknown
}

// isAVIF checks the ISO BMFF ftyp box for an AVIF brand.
func isAVIF(content []byte) bool {
	if len(content) < 16 || string(content[4:8]) != "ftyp" {
		return false
	}

	size := int(content[0])<<24 | int(content[1])<<16 | int(content[2])<<8 | int(content[3])
	if size < 16 || size > len(content) {
		size = len(content)
	}

	// major brand, then compatible brands after the minor version
	brands := [][]byte{content[8:12]}
	for i := 16; i+4 <= size; i += 4 {
		brands = append(brands, content[i:i+4])
	}
	for _, b := range brands {
		if string(b) == "avif" || string(b) == "avis" {
			return true
		}
	}

	return false
}

// ContentType is the media type served for a format.
func (f Format) ContentType() string {
	if f == Unknown {
		return "application/octet-stream"
	}

	return "image/" + string(f)
}

// Converter re-encodes raster images as JPEG.
type Converter interface {
	Name() string
	Supports(f Format) bool
	ToJPEG(content []byte, f Format) ([]byte, error)
}

// ToJPEG returns JPEG input unchanged and converts anything the converter supports.
func ToJPEG(c Converter, content []byte) ([]byte, Format, error) {
	f := Detect(content)
	if f == JPEG {
		return content, f, nil
	}
	if f == Unknown || !c.Supports(f) {
		return nil, f, fmt.Errorf("%w: %q with %s converter", ErrUnsupportedFormat, f, c.Name())
	}

	out, err := c.ToJPEG(content, f)
	if err != nil {
		return nil, f, fmt.Errorf("failed to convert %s: %w", f, err)
	}

	return out, f, nil
}

// New picks a converter by name, as written in config.
func New(name string, quality int) (Converter, error) {
	switch name {
	case "", "vips":
		return &VipsConverter{Quality: quality}, nil
	case "native":
		return &NativeConverter{Quality: quality}, nil
	}

	return nil, fmt.Errorf("unknown converter %q", name)
}
