package meta

import (
	"context"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
)

type ContentType int

const (
	JPG ContentType = iota
	JSON
)

func ContentTypeToString(contentType ContentType) string {
	switch contentType {
	case JPG:
		return "image/jpeg"
	case JSON:
		return "application/json"
	default:
		return ""
	}
}

func ContentTypeToFileExt(contentType ContentType) string {
	switch contentType {
	case JPG:
		return "jpg"
	case JSON:
		return "json"
	default:
		return ""
	}
}

// ContentTypeForFileExt maps an artefact extension, with or without the leading dot,
// back to its content type.
func ContentTypeForFileExt(ext string) (ContentType, bool) {
	switch strings.TrimPrefix(ext, ".") {
	case "jpg":
		return JPG, true
	case "json":
		return JSON, true
	default:
		return 0, false
	}
}

// PutMetadata is one artefact produced by a processor. Path is relative to the
// meta/ prefix of the bucket.
type PutMetadata struct {
	Path        string
	ContentType ContentType
	Content     []byte
}

type MetadataOperationProcessor interface {
	Name() string
	ContentTypes() []string
	Process(
		ctx context.Context,
		objectInfo *minio.ObjectInfo,
		content []byte,
	) ([]PutMetadata, error)
}

// PathFor names the artefact of a processor for an object stored under
// data/<session>/, giving <session>/<name>.<ext>.
func PathFor(objectInfo *minio.ObjectInfo, name string, contentType ContentType) string {
	dir := path.Dir(strings.TrimPrefix(objectInfo.Key, "data/"))
	if dir == "." || dir == "/" {
		dir = objectInfo.ETag
	}

	return path.Join(dir, name+"."+ContentTypeToFileExt(contentType))
}
