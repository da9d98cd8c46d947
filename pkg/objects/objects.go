package objects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

var ErrNotFound = errors.New("object not found")

const (
	dataPath = "data/"
	metaPath = "meta/"

	SourceName = "source.jpg"
	OutputName = "output.jpg"
)

// Store keeps session images in a single bucket: image bytes under
// data/<session>/ and processor artefacts under meta/<session>/.
type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Bucket() string {
	return s.bucket
}

func (s *Store) Client() *minio.Client {
	return s.client
}

// DataKey is the key of a session image.
func DataKey(sessionID, name string) string {
	return path.Join(dataPath, sessionID, name)
}

// MetaPrefix is the prefix under which processor output for a session is kept.
func MetaPrefix(sessionID string) string {
	return path.Join(metaPath, sessionID) + "/"
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("could not check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("could not create bucket %s: %w", s.bucket, err)
	}

	return nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, content []byte) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return fmt.Errorf("could not put object %s: %w", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not get object %s: %w", key, err)
	}
	defer obj.Close()

	bs, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("could not read object %s: %w", key, err)
	}

	return bs, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("could not remove object %s: %w", key, err)
	}

	return nil
}

// DeleteSession removes every object stored for a session.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	for _, prefix := range []string{path.Join(dataPath, sessionID) + "/", MetaPrefix(sessionID)} {
		for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return fmt.Errorf("could not list %s: %w", prefix, obj.Err)
			}

			if err := s.Delete(ctx, obj.Key); err != nil {
				return err
			}
		}
	}

	return nil
}

// List returns the keys stored under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("could not list %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

// File describes one stored object of a session.
type File struct {
	Key         string
	Size        int64
	ContentType string
}

// Files lists the images and processor artefacts stored for a session.
func (s *Store) Files(ctx context.Context, sessionID string) ([]File, error) {
	var files []File
	for _, prefix := range []string{path.Join(dataPath, sessionID) + "/", MetaPrefix(sessionID)} {
		keys, err := s.List(ctx, prefix)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
			if err != nil {
				return nil, fmt.Errorf("could not stat %s: %w", key, err)
			}

			files = append(files, File{Key: key, Size: info.Size, ContentType: info.ContentType})
		}
	}

	return files, nil
}
