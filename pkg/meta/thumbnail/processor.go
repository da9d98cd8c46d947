package thumbnail

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/minio/minio-go/v7"

	"github.com/charlieegan3/exiflab/pkg/convert"
	"github.com/charlieegan3/exiflab/pkg/meta"
)

// ThumbnailProcessor renders a preview of the produced JPEG, longest side at most
// MaxSize pixels. The preview carries no metadata.
type ThumbnailProcessor struct {
	MaxSize int
}

func (p *ThumbnailProcessor) Name() string {
	return "thumbnail"
}

func (p *ThumbnailProcessor) ContentTypes() []string {
	return []string{"image/jpeg"}
}

func (p *ThumbnailProcessor) Process(
	ctx context.Context,
	objectInfo *minio.ObjectInfo,
	content []byte,
) ([]meta.PutMetadata, error) {
	if p.MaxSize <= 0 {
		return nil, fmt.Errorf("invalid MaxSize: %d", p.MaxSize)
	}

	convert.StartVips()

	image, err := vips.NewImageFromBuffer(content)
	if err != nil {
		return nil, fmt.Errorf("could not load image: %w", err)
	}
	defer image.Close()

	if err := image.AutoRotate(); err != nil {
		return nil, fmt.Errorf("could not auto-rotate image: %w", err)
	}

	longestSide := image.Width()
	if image.Height() > longestSide {
		longestSide = image.Height()
	}

	if longestSide > p.MaxSize {
		scale := float64(p.MaxSize) / float64(longestSide)
		if err := image.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("could not resize image: %w", err)
		}
	}

	ep := vips.NewJpegExportParams()
	ep.StripMetadata = true
	thumbnailBytes, _, err := image.ExportJpeg(ep)
	if err != nil {
		return nil, fmt.Errorf("could not export thumbnail: %w", err)
	}

	putMetadata := meta.PutMetadata{
		Path:        meta.PathFor(objectInfo, p.Name(), meta.JPG),
		ContentType: meta.JPG,
		Content:     thumbnailBytes,
	}

	return []meta.PutMetadata{putMetadata}, nil
}
