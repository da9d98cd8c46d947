package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// NativeConverter uses the Go image decoders. It cannot read AVIF.
type NativeConverter struct {
	Quality int
}

func (c *NativeConverter) Name() string {
	return "native"
}

func (c *NativeConverter) Supports(f Format) bool {
	switch f {
	case PNG, GIF, WebP, BMP, TIFF:
		return true
	}

	return false
}

func (c *NativeConverter) ToJPEG(content []byte, f Format) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	// flatten transparency onto white, jpeg has no alpha
	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality(c.Quality)}); err != nil {
		return nil, fmt.Errorf("could not encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

func quality(q int) int {
	if q <= 0 || q > 100 {
		return 92
	}

	return q
}
