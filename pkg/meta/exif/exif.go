package exif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/minio/minio-go/v7"

	"github.com/charlieegan3/exiflab/pkg/meta"
)

// ExifMetadataProcessor re-reads a produced JPEG with an independent EXIF reader and
// records every tag it finds, keyed by directory path and tag name.
type ExifMetadataProcessor struct{}

func (p *ExifMetadataProcessor) Name() string {
	return "exif"
}

func (p *ExifMetadataProcessor) ContentTypes() []string {
	return []string{"image/jpeg"}
}

func (p *ExifMetadataProcessor) Process(
	ctx context.Context,
	objectInfo *minio.ObjectInfo,
	content []byte,
) ([]meta.PutMetadata, error) {
	metadata := make(map[string]map[string]interface{})

	rawExif, err := exif.SearchAndExtractExif(content)
	if errors.Is(err, exif.ErrNoExif) {
		return []meta.PutMetadata{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get raw exif data: %w", err)
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("failed to create IFD mapping: %w", err)
	}

	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return nil, fmt.Errorf("failed to collect exif data: %w", err)
	}

	cb := func(ifd *exif.Ifd, ite *exif.IfdTagEntry) error {
		tagName := ite.TagName()
		rawValue, err := ite.Value()
		if err != nil {
			return fmt.Errorf("could not get value for tag %s: %w", tagName, err)
		}

		ifdPath := ite.IfdPath()
		if metadata[ifdPath] == nil {
			metadata[ifdPath] = make(map[string]interface{})
		}
		// IFD1 shares its path with IFD0, the primary image wins
		if _, ok := metadata[ifdPath][tagName]; !ok {
			metadata[ifdPath][tagName] = rawValue
		}

		return nil
	}

	err = index.RootIfd.EnumerateTagsRecursively(cb)
	if err != nil {
		return nil, fmt.Errorf("failed to walk exif data tree: %w", err)
	}

	jsonData, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("error converting EXIF data to JSON: %w", err)
	}

	putMetadata := meta.PutMetadata{
		Path:        meta.PathFor(objectInfo, p.Name(), meta.JSON),
		ContentType: meta.JSON,
		Content:     jsonData,
	}

	return []meta.PutMetadata{putMetadata}, nil
}
