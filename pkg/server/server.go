package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/charlieegan3/exiflab/pkg/config"
	"github.com/charlieegan3/exiflab/pkg/convert"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/meta/runner"
	"github.com/charlieegan3/exiflab/pkg/objects"
	"github.com/charlieegan3/exiflab/pkg/profiles"
	"github.com/charlieegan3/exiflab/pkg/server/handlers"
	"github.com/charlieegan3/exiflab/pkg/stores"
)

const (
	sessionTTL      = 24 * time.Hour
	cleanupInterval = time.Hour
)

func NewServer(db *sql.DB, minioClient *minio.Client, cfg *config.Config) (*Server, error) {
	catalog, err := profiles.LoadFile(cfg.Editor.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	converter, err := convert.New(cfg.Editor.Conversion, cfg.Editor.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to create converter: %w", err)
	}

	if _, err := runner.Processors(cfg.Editor.Processors, cfg.Editor.ThumbnailSize); err != nil {
		return nil, fmt.Errorf("invalid processors: %w", err)
	}

	return &Server{
		cfg:       cfg,
		sessions:  stores.NewSessionDB(db, cfg.Database.Schema),
		objects:   objects.NewStore(minioClient, cfg.S3.BucketName),
		catalog:   catalog,
		converter: converter,
	}, nil
}

type Server struct {
	cfg *config.Config

	sessions  *stores.SessionDB
	objects   *objects.Store
	catalog   *profiles.Catalog
	converter convert.Converter

	httpServer *http.Server
}

func (s *Server) options() *handlers.Options {
	opts := &handlers.Options{
		DevMode:     s.cfg.Server.DevMode,
		AuthToken:   s.cfg.Server.AuthToken,
		LoggerError: s.cfg.Server.LoggerError,
		LoggerInfo:  s.cfg.Server.LoggerInfo,
		Sessions:    s.sessions,
		Objects:     s.objects,
		Catalog:     s.catalog,
		Converter:   s.converter,
		Fields:      fields.Options{DefaultSoftware: s.cfg.Editor.DefaultSoftware},
	}

	if len(s.cfg.Editor.Processors) > 0 {
		opts.Processors = func(ctx context.Context, key string) ([]string, error) {
			rpt, err := runner.Run(ctx, s.objects.Client(), key, &runner.Options{
				BucketName:        s.objects.Bucket(),
				EnabledProcessors: s.cfg.Editor.Processors,
				ThumbnailSize:     s.cfg.Editor.ThumbnailSize,
				LoggerError:       s.cfg.Server.LoggerError,
				LoggerInfo:        s.cfg.Server.LoggerInfo,
			})
			if err != nil {
				return nil, err
			}

			return rpt.Keys, nil
		}
	}

	return opts
}

func (s *Server) Start(ctx context.Context) error {
	if err := s.objects.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to prepare bucket: %w", err)
	}

	router, err := newRouter(s.options())
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	s.httpServer = &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			s.cfg.Server.Address,
			s.cfg.Server.Port,
		),
		Handler: router,
	}

	go s.cleanup(ctx)

	httpServer := s.httpServer
	go func() {
		<-ctx.Done()
		err := httpServer.Shutdown(context.Background())
		if err != nil && s.cfg.Server.LoggerError != nil {
			s.cfg.Server.LoggerError.Println("failed to shutdown", err)
		}
	}()

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed && s.cfg.Server.LoggerError != nil {
			s.cfg.Server.LoggerError.Println("failed to listen and serve", err)
		}
	}()

	return nil
}

// cleanup removes sessions that have not been touched for sessionTTL.
func (s *Server) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.removeExpired(ctx, time.Now().Add(-sessionTTL)); err != nil && s.cfg.Server.LoggerError != nil {
			s.cfg.Server.LoggerError.Printf("session cleanup failed: %v", err)
		}
	}
}

func (s *Server) removeExpired(ctx context.Context, before time.Time) error {
	ids, err := s.sessions.ExpiredSessions(ctx, before)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := s.objects.DeleteSession(ctx, id); err != nil {
			return err
		}
		if err := s.sessions.DeleteSession(ctx, id); err != nil {
			return err
		}
	}

	if len(ids) > 0 && s.cfg.Server.LoggerInfo != nil {
		s.cfg.Server.LoggerInfo.Printf("removed %d expired sessions", len(ids))
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		err := s.httpServer.Shutdown(ctx)
		if err != nil {
			return err
		}
	}

	s.httpServer = nil

	return nil
}
