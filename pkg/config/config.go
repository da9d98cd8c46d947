package config

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	S3       S3       `yaml:"s3"`
	Editor   Editor   `yaml:"editor"`
}

type Server struct {
	Port      int    `yaml:"port"`
	Address   string `yaml:"address"`
	DevMode   bool   `yaml:"dev_mode"`
	AuthToken string `yaml:"auth_token"`

	LoggerError *log.Logger
	LoggerInfo  *log.Logger
}

type Database struct {
	ConnectionString string `yaml:"connection_string"`
	MigrationsTable  string `yaml:"migrations_table"`
	Schema           string `yaml:"schema"`
}

type S3 struct {
	URL        string `yaml:"url"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	BucketName string `yaml:"bucket_name"`
	Secure     bool   `yaml:"secure"`
}

type Editor struct {
	DefaultSoftware string   `yaml:"default_software"`
	ProfilesFile    string   `yaml:"profiles_file"`
	Conversion      string   `yaml:"conversion"`
	JPEGQuality     int      `yaml:"jpeg_quality"`
	Processors      []string `yaml:"processors"`
	ThumbnailSize   int      `yaml:"thumbnail_size"`
}

// LoadEnv reads KEY=value pairs from the given files (.env when none are given)
// into the environment. Missing files are ignored.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	var present []string
	for _, f := range filenames {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	return nil
}

// LoadConfig parses a YAML config. ${VAR} references are expanded from the
// environment before parsing.
func LoadConfig(rawConfig io.Reader) (*Config, error) {
	raw, err := io.ReadAll(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := struct {
		Server struct {
			Port      int    `yaml:"port"`
			Address   string `yaml:"address"`
			DevMode   bool   `yaml:"dev_mode"`
			AuthToken string `yaml:"auth_token"`

			Log struct {
				Error string `yaml:"error"`
				Info  string `yaml:"info"`
			} `yaml:"log"`
		} `yaml:"server"`
		Database Database `yaml:"database"`
		S3       S3       `yaml:"s3"`
		Editor   Editor   `yaml:"editor"`
	}{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	var loggerError *log.Logger
	if config.Server.Log.Error == "stderr" {
		loggerError = log.New(os.Stderr, "", log.LstdFlags)
	}

	var loggerInfo *log.Logger
	if config.Server.Log.Info == "stdout" {
		loggerInfo = log.New(os.Stdout, "", log.LstdFlags)
	}

	editor := config.Editor
	if editor.Conversion == "" {
		editor.Conversion = "vips"
	}
	if editor.JPEGQuality == 0 {
		editor.JPEGQuality = 92
	}
	if editor.JPEGQuality < 1 || editor.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", editor.JPEGQuality)
	}
	if editor.ThumbnailSize == 0 {
		editor.ThumbnailSize = 300
	}

	database := config.Database
	if database.Schema == "" {
		database.Schema = "exiflab"
	}
	if database.MigrationsTable == "" {
		database.MigrationsTable = "schema_migrations_exiflab"
	}

	return &Config{
		Server: Server{
			Port:        config.Server.Port,
			Address:     config.Server.Address,
			DevMode:     config.Server.DevMode,
			AuthToken:   config.Server.AuthToken,
			LoggerError: loggerError,
			LoggerInfo:  loggerInfo,
		},
		Database: database,
		S3:       config.S3,
		Editor:   editor,
	}, nil
}
