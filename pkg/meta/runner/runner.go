package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"slices"

	"github.com/minio/minio-go/v7"

	"github.com/charlieegan3/exiflab/pkg/meta"
	"github.com/charlieegan3/exiflab/pkg/meta/color"
	"github.com/charlieegan3/exiflab/pkg/meta/exif"
	"github.com/charlieegan3/exiflab/pkg/meta/thumbnail"
	"github.com/charlieegan3/exiflab/pkg/meta/verify"
)

const metaPath = "meta/"

type Report struct {
	Counts map[string]int
	Keys   []string
}

type Options struct {
	BucketName string

	EnabledProcessors []string
	ThumbnailSize     int

	LoggerError *log.Logger
	LoggerInfo  *log.Logger
}

// Processors resolves processor names, failing on the first unknown one.
func Processors(names []string, thumbnailSize int) ([]meta.MetadataOperationProcessor, error) {
	var processors []meta.MetadataOperationProcessor
	for _, name := range names {
		processor, err := processorForName(name, thumbnailSize)
		if err != nil {
			return nil, err
		}
		processors = append(processors, processor)
	}

	return processors, nil
}

// Run reads the object at key and writes the output of every enabled processor
// that handles its content type under meta/.
func Run(
	ctx context.Context,
	minioClient *minio.Client,
	key string,
	opts *Options,
) (*Report, error) {
	processors, err := Processors(opts.EnabledProcessors, opts.ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("could not get processors: %w", err)
	}

	obj, err := minioClient.GetObject(ctx, opts.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not get object %s: %w", key, err)
	}
	defer obj.Close()

	objStat, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat object %s: %w", key, err)
	}

	bs, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("could not read object: %w", err)
	}

	rpt := Report{Counts: make(map[string]int)}

	var putMetadatas []meta.PutMetadata
	for _, processor := range processors {
		if !slices.Contains(processor.ContentTypes(), objStat.ContentType) {
			continue
		}

		if opts.LoggerInfo != nil {
			opts.LoggerInfo.Printf("running %s for %s", processor.Name(), key)
		}

		pms, err := processor.Process(ctx, &objStat, bs)
		if err != nil {
			return nil, fmt.Errorf("processor %s failed: %w", processor.Name(), err)
		}

		rpt.Counts[processor.Name()] += len(pms)
		putMetadatas = append(putMetadatas, pms...)
	}

	for _, putMetadata := range putMetadatas {
		if putMetadata.Path == "" {
			return nil, fmt.Errorf("metadata path must be set")
		}

		metaKey := path.Join(metaPath, putMetadata.Path)
		_, err := minioClient.PutObject(
			ctx,
			opts.BucketName,
			metaKey,
			bytes.NewReader(putMetadata.Content),
			int64(len(putMetadata.Content)),
			minio.PutObjectOptions{
				ContentType: meta.ContentTypeToString(putMetadata.ContentType),
			},
		)
		if err != nil {
			return nil, fmt.Errorf("could not put metadata: %w", err)
		}

		rpt.Keys = append(rpt.Keys, metaKey)
	}

	return &rpt, nil
}

func processorForName(name string, thumbnailSize int) (meta.MetadataOperationProcessor, error) {
	switch name {
	case "thumbnail":
		if thumbnailSize <= 0 {
			thumbnailSize = 300
		}
		return &thumbnail.ThumbnailProcessor{
			MaxSize: thumbnailSize,
		}, nil
	case "color":
		return &color.ColorAnalysisProcessor{}, nil
	case "exif":
		return &exif.ExifMetadataProcessor{}, nil
	case "verify":
		return &verify.VerifyProcessor{}, nil
	default:
		return nil, fmt.Errorf("unknown processor: %s", name)
	}
}
