package convert

import (
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var vipsOnce sync.Once

// StartVips initialises libvips once per process with its logging silenced.
func StartVips() {
	vipsOnce.Do(func() {
		vips.LoggingSettings(func(messageDomain string, messageLevel vips.LogLevel, message string) {}, vips.LogLevelCritical)
		vips.Startup(nil)
	})
}

// VipsConverter uses libvips, which also reads AVIF.
type VipsConverter struct {
	Quality int
}

func (c *VipsConverter) Name() string {
	return "vips"
}

func (c *VipsConverter) Supports(f Format) bool {
	switch f {
	case PNG, GIF, WebP, AVIF, BMP, TIFF:
		return true
	}

	return false
}

func (c *VipsConverter) ToJPEG(content []byte, f Format) ([]byte, error) {
	StartVips()

	img, err := vips.NewImageFromBuffer(content)
	if err != nil {
		return nil, fmt.Errorf("could not load image: %w", err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("could not auto-rotate image: %w", err)
	}

	if img.HasAlpha() {
		if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("could not flatten image: %w", err)
		}
	}

	ep := vips.NewJpegExportParams()
	ep.Quality = quality(c.Quality)
	ep.StripMetadata = true

	out, _, err := img.ExportJpeg(ep)
	if err != nil {
		return nil, fmt.Errorf("could not export jpeg: %w", err)
	}

	return out, nil
}
