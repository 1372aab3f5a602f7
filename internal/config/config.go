package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
)

// Config holds all configuration for the generator service
type Config struct {
	// Core settings
	AppName      string `mapstructure:"APP_NAME"`
	HTTPPort     int    `mapstructure:"HTTP_PORT"`
	OPCUAEnabled bool   `mapstructure:"OPCUA_ENABLED"`
	OPCUAPort    int    `mapstructure:"OPCUA_PORT"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`

	// Generation settings
	Seed          int64   `mapstructure:"SEED"`
	BatchesPerDay int     `mapstructure:"BATCHES_PER_DAY"`
	ComplaintRate float64 `mapstructure:"COMPLAINT_RATE"`
	CAPABaseCount int     `mapstructure:"CAPA_BASE_COUNT"`
	CatalogFile   string  `mapstructure:"CATALOG_FILE"`
	MaxWorkers    int     `mapstructure:"MAX_WORKERS"`

	// Storage settings
	DatabaseDSN     string `mapstructure:"DATABASE_DSN"`
	BlobDriver      string `mapstructure:"BLOB_DRIVER"`
	BlobRoot        string `mapstructure:"BLOB_ROOT"`
	BlobS3Bucket    string `mapstructure:"BLOB_S3_BUCKET"`
	BlobS3Region    string `mapstructure:"BLOB_S3_REGION"`
	BlobS3Endpoint  string `mapstructure:"BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool   `mapstructure:"BLOB_S3_PATH_STYLE"`
	ArchivePrefix   string `mapstructure:"ARCHIVE_PREFIX"`

	// Integration settings
	IngestEndpoint string `mapstructure:"INGEST_ENDPOINT"`
	IngestRunPath  string `mapstructure:"INGEST_RUN_PATH"`
}

var defaults = map[string]any{
	"APP_NAME":           "apr-datagen",
	"HTTP_PORT":          8081,
	"OPCUA_ENABLED":      false,
	"OPCUA_PORT":         4840,
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "console",
	"SEED":               42,
	"BATCHES_PER_DAY":    20,
	"COMPLAINT_RATE":     0.008,
	"CAPA_BASE_COUNT":    10,
	"CATALOG_FILE":       "",
	"MAX_WORKERS":        2,
	"DATABASE_DSN":       "data/aprgen.db",
	"BLOB_DRIVER":        "fs",
	"BLOB_ROOT":          "./archives",
	"BLOB_S3_BUCKET":     "",
	"BLOB_S3_REGION":     "us-east-1",
	"BLOB_S3_ENDPOINT":   "",
	"BLOB_S3_PATH_STYLE": false,
	"ARCHIVE_PREFIX":     "apr_data",
	"INGEST_ENDPOINT":    "",
	"INGEST_RUN_PATH":    "/api/v1/apr-runs",
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and driver specific requirements.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.BatchesPerDay < 1 || c.BatchesPerDay > 100 {
		return fmt.Errorf("BATCHES_PER_DAY must be between 1 and 100, got %d", c.BatchesPerDay)
	}
	if c.ComplaintRate < 0 || c.ComplaintRate > 0.5 {
		return fmt.Errorf("COMPLAINT_RATE must be between 0.0 and 0.5, got %f", c.ComplaintRate)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1, got %d", c.MaxWorkers)
	}
	switch blob.Driver(strings.ToLower(c.BlobDriver)) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.BlobS3Bucket == "" {
			return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_DRIVER=s3")
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be fs, s3 or memory, got %q", c.BlobDriver)
	}
	return nil
}

// Blob returns the archive store settings.
func (c *Config) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(strings.ToLower(c.BlobDriver)),
		Root:   c.BlobRoot,
		S3: blob.S3Config{
			Bucket:    c.BlobS3Bucket,
			Region:    c.BlobS3Region,
			Endpoint:  c.BlobS3Endpoint,
			PathStyle: c.BlobS3PathStyle,
		},
	}
}

// NotificationsEnabled reports whether finished runs are posted to an ingest endpoint.
func (c *Config) NotificationsEnabled() bool {
	return c.IngestEndpoint != ""
}
