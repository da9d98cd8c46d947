package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/charlieegan3/exiflab/pkg/config"
	"github.com/charlieegan3/exiflab/pkg/database/migration"
	"github.com/charlieegan3/exiflab/pkg/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(os.Args) != 2 {
		log.Fatal("Please provide config as first arg")
	}

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("error loading env: %v", err)
	}

	configFile, err := os.OpenFile(os.Args[1], os.O_RDONLY, 0644)
	if err != nil {
		log.Fatalf("error reading config file: %v", err)
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString)
	if err != nil {
		log.Fatalf("error connecting to database: %v", err)
	}

	err = migration.Up(db, cfg.Database.MigrationsTable)
	if err != nil {
		log.Fatalf("error running migrations: %v", err)
	}

	version, _, err := migration.Version(db, cfg.Database.MigrationsTable)
	if err != nil {
		log.Fatalf("error checking migrations: %v", err)
	}
	if logger := cfg.Server.LoggerInfo; logger != nil {
		logger.Printf("database at migration %d", version)
	}

	minioClient, err := minio.New(cfg.S3.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.Secure,
	})
	if err != nil {
		log.Fatalf("error connecting to minio: %v", err)
	}

	_, err = minioClient.ListBuckets(ctx)
	if err != nil {
		log.Fatalf("error listing buckets when testing minio connection: %v", err)
	}

	srv, err := server.NewServer(db, minioClient, cfg)
	if err != nil {
		log.Fatalf("error creating server: %v", err)
	}

	if logger := cfg.Server.LoggerInfo; logger != nil {
		logger.Printf(
			"Starting server on http://%s:%d\n",
			cfg.Server.Address,
			cfg.Server.Port,
		)
	}

	err = srv.Start(ctx)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Printf("Received %v, shutting down...\n", sig)

		cancel()

		err = srv.Stop(context.Background())
		if err != nil {
			log.Fatalf("error stopping server: %v", err)
		}

		os.Exit(0)
	}()

	log.Println("Press Ctrl+C to exit.")

	select {}
}
