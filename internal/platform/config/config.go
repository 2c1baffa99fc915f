// Package config reads daemon configuration from BLOODBANK_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bloodbank/internal/blob"
	"bloodbank/internal/core"
	redisstore "bloodbank/internal/infra/persistence/redis"
)

// Config is the daemon configuration.
type Config struct {
	Addr              string
	LogLevel          string
	LogFormat         string
	ServiceName       string
	SweepInterval     time.Duration
	ExpiryWarningDays int
	CascadePolicy     core.CascadePolicy
	ArchivePrefix     string
	Storage           core.StorageConfig
	// Archive is where snapshot archives and reports are written. It shares
	// the BLOODBANK_BLOB_* settings with the blob snapshot store.
	Archive blob.Config
}

// FromEnv builds a Config, applying defaults for unset variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          getenv("BLOODBANK_ADDR", ":8080"),
		LogLevel:      getenv("BLOODBANK_LOG_LEVEL", "info"),
		LogFormat:     getenv("BLOODBANK_LOG_FORMAT", "json"),
		ServiceName:   getenv("BLOODBANK_SERVICE_NAME", "bloodbankd"),
		ArchivePrefix: getenv("BLOODBANK_ARCHIVE_PREFIX", "archives/"),
	}

	interval, err := time.ParseDuration(getenv("BLOODBANK_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("BLOODBANK_SWEEP_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("BLOODBANK_SWEEP_INTERVAL must be positive, got %s", interval)
	}
	cfg.SweepInterval = interval

	if cfg.ExpiryWarningDays, err = atoi("BLOODBANK_EXPIRY_WARNING_DAYS", 7); err != nil {
		return Config{}, err
	}

	switch policy := core.CascadePolicy(getenv("BLOODBANK_CASCADE_POLICY", string(core.CascadeAll))); policy {
	case core.CascadeAll, core.CascadeInStockOnly:
		cfg.CascadePolicy = policy
	default:
		return Config{}, fmt.Errorf("BLOODBANK_CASCADE_POLICY: unknown policy %q", policy)
	}

	redisDB, err := atoi("BLOODBANK_REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	pathStyle, err := parseBool("BLOODBANK_BLOB_S3_PATH_STYLE")
	if err != nil {
		return Config{}, err
	}

	blobCfg := blob.Config{
		Driver: blob.Driver(getenv("BLOODBANK_BLOB_DRIVER", string(blob.DriverFilesystem))),
		FSRoot: getenv("BLOODBANK_BLOB_FS_ROOT", "./blobdata"),
		S3: blob.S3Config{
			Region:          os.Getenv("BLOODBANK_BLOB_S3_REGION"),
			Bucket:          os.Getenv("BLOODBANK_BLOB_S3_BUCKET"),
			Endpoint:        os.Getenv("BLOODBANK_BLOB_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("BLOODBANK_BLOB_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("BLOODBANK_BLOB_S3_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("BLOODBANK_BLOB_S3_SESSION_TOKEN"),
			PathStyle:       pathStyle,
		},
	}
	cfg.Archive = blobCfg
	cfg.Storage = core.StorageConfig{
		Driver:      core.StorageDriver(getenv("BLOODBANK_STORAGE_DRIVER", string(core.StorageSQLite))),
		SQLitePath:  getenv("BLOODBANK_SQLITE_PATH", "./bloodbank.db"),
		PostgresDSN: os.Getenv("BLOODBANK_POSTGRES_DSN"),
		Redis: redisstore.Config{
			Addr:     getenv("BLOODBANK_REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("BLOODBANK_REDIS_PASSWORD"),
			DB:       redisDB,
			Prefix:   os.Getenv("BLOODBANK_REDIS_PREFIX"),
		},
		Blob:       blobCfg,
		BlobPrefix: os.Getenv("BLOODBANK_BLOB_STATE_PREFIX"),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func atoi(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
