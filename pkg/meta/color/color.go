package color

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/minio/minio-go/v7"

	"github.com/charlieegan3/exiflab/pkg/meta"
)

// Swatch is one of the prominent colours of an image.
type Swatch struct {
	Hex   string `json:"hex"`
	Count int    `json:"count"`
}

type ColorAnalysisProcessor struct{}

func (c *ColorAnalysisProcessor) Name() string {
	return "color"
}

func (c *ColorAnalysisProcessor) ContentTypes() []string {
	return []string{"image/jpeg"}
}

func (c *ColorAnalysisProcessor) Process(
	ctx context.Context,
	objectInfo *minio.ObjectInfo,
	content []byte,
) ([]meta.PutMetadata, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	colors, err := prominentcolor.Kmeans(img)
	if err != nil {
		return nil, fmt.Errorf("failed to extract prominent colors: %w", err)
	}

	swatches := make([]Swatch, 0, len(colors))
	for _, ci := range colors {
		swatches = append(swatches, Swatch{
			Hex:   fmt.Sprintf("#%02X%02X%02X", ci.Color.R, ci.Color.G, ci.Color.B),
			Count: ci.Cnt,
		})
	}

	jsonData, err := json.Marshal(swatches)
	if err != nil {
		return nil, fmt.Errorf("error converting colors to JSON: %w", err)
	}

	putMetadata := meta.PutMetadata{
		Path:        meta.PathFor(objectInfo, c.Name(), meta.JSON),
		ContentType: meta.JSON,
		Content:     jsonData,
	}

	return []meta.PutMetadata{putMetadata}, nil
}
