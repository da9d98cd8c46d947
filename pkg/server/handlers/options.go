package handlers

import (
	"context"
	"log"

	"github.com/charlieegan3/exiflab/pkg/convert"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/objects"
	"github.com/charlieegan3/exiflab/pkg/profiles"
	"github.com/charlieegan3/exiflab/pkg/session"
	"github.com/charlieegan3/exiflab/pkg/stores"
)

// SessionStore persists session rows.
type SessionStore interface {
	CreateSession(ctx context.Context, filename, sourceFormat string) (string, error)
	GetSession(ctx context.Context, sessionID string) (*stores.Session, error)
	UpdateSession(ctx context.Context, s *stores.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// ObjectStore keeps session images and processor output.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Files(ctx context.Context, sessionID string) ([]objects.File, error)
}

// ProcessorRunner runs the metadata processors over a stored output and returns
// the keys written.
type ProcessorRunner func(ctx context.Context, key string) ([]string, error)

type Options struct {
	DevMode    bool
	AuthToken  string
	EtagScript string
	EtagStyles string

	LoggerError *log.Logger
	LoggerInfo  *log.Logger

	Sessions   SessionStore
	Objects    ObjectStore
	Catalog    *profiles.Catalog
	Converter  convert.Converter
	Fields     fields.Options
	Processors ProcessorRunner

	MaxUploadSize int64
}

func (o *Options) sessionOptions() session.Options {
	return session.Options{Catalog: o.Catalog, Fields: o.Fields}
}

func (o *Options) logError(format string, v ...any) {
	if o.LoggerError != nil {
		o.LoggerError.Printf(format, v...)
	}
}

func (o *Options) logInfo(format string, v ...any) {
	if o.LoggerInfo != nil {
		o.LoggerInfo.Printf(format, v...)
	}
}
