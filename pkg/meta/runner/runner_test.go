package runner_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/charlieegan3/exiflab/pkg/exif"
	"github.com/charlieegan3/exiflab/pkg/meta/runner"
	"github.com/charlieegan3/exiflab/pkg/test"
)

func TestProcessors(t *testing.T) {
	processors, err := runner.Processors([]string{"exif", "verify", "thumbnail", "color"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(processors) != 4 {
		t.Fatalf("expected 4 processors, got %d", len(processors))
	}

	if _, err := runner.Processors([]string{"exif", "ocr"}, 0); err == nil {
		t.Fatalf("expected unknown processor to fail")
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	minioClient, minioCleanup, err := test.InitMinio(ctx, t, "example")
	defer func() {
		if minioCleanup == nil {
			return
		}
		if err := minioCleanup(); err != nil {
			t.Fatalf("Could not cleanup minio: %s", err)
		}
	}()
	if err != nil {
		t.Fatalf("Could not init minio: %s", err)
	}

	b := exif.NewBlock()
	b.Image.Set(exif.ASCII(exif.TagMake, "Canon"))
	b.Image.Set(exif.ASCII(exif.TagModel, "Canon EOS R5"))
	content := test.ExifJPEG(t, 120, 80, b)

	_, err = minioClient.PutObject(
		ctx,
		"example",
		"data/abc/output.jpg",
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{
			ContentType: "image/jpeg",
		},
	)
	if err != nil {
		t.Fatalf("Could not put object: %s", err)
	}

	loggerError, loggerInfo := test.Loggers(t)

	rpt, err := runner.Run(ctx, minioClient, "data/abc/output.jpg", &runner.Options{
		BucketName:        "example",
		EnabledProcessors: []string{"thumbnail", "exif", "verify", "color"},
		ThumbnailSize:     50,
		LoggerError:       loggerError,
		LoggerInfo:        loggerInfo,
	})
	if err != nil {
		t.Fatalf("Could not run runner: %s", err)
	}

	for _, name := range []string{"thumbnail", "exif", "verify", "color"} {
		if count, ok := rpt.Counts[name]; !ok || count != 1 {
			t.Fatalf("Expected 1 %s output, got %d", name, count)
		}
	}

	for _, key := range []string{
		"meta/abc/thumbnail.jpg",
		"meta/abc/exif.json",
		"meta/abc/verify.json",
		"meta/abc/color.json",
	} {
		_, err = minioClient.StatObject(ctx, "example", key, minio.StatObjectOptions{})
		if err != nil {
			t.Fatalf("Could not stat object %s: %s", key, err)
		}
	}
}
