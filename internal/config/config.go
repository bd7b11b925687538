// Package config loads the runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"venueflow/internal/core"
	"venueflow/internal/infra/blob"
	blobcore "venueflow/internal/infra/blob/core"
	"venueflow/internal/infra/blob/s3"
	"venueflow/internal/infra/persistence/objectstore"
	"venueflow/internal/infra/persistence/sqlite"
)

// Config is the resolved process configuration.
type Config struct {
	HTTPAddr    string
	LogLevel    string
	LogFormat   string
	Storage     core.StorageConfig
	JWTSecret   string
	TokenTTL    time.Duration
	Seed        bool
	CORSOrigins []string
}

const devSecret = "venueflow-dev-secret-change-me"

// Load reads the optional dotenv files (default ".env"; missing files are
// skipped) and then the VENUEFLOW_* variables. Variables already set in the
// environment win over dotenv values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	retain, err := readInt("VENUEFLOW_BLOB_RETAIN", objectstore.DefaultRetain)
	if err != nil {
		return Config{}, err
	}
	ttlMinutes, err := readInt("VENUEFLOW_TOKEN_TTL_MINUTES", 12*60)
	if err != nil {
		return Config{}, err
	}
	seed, err := readBool("VENUEFLOW_SEED", true)
	if err != nil {
		return Config{}, err
	}
	pathStyle, err := readBool("VENUEFLOW_BLOB_S3_PATH_STYLE", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:  getenv("VENUEFLOW_HTTP_ADDR", ":8080"),
		LogLevel:  getenv("VENUEFLOW_LOG_LEVEL", "info"),
		LogFormat: getenv("VENUEFLOW_LOG_FORMAT", "console"),
		Storage: core.StorageConfig{
			Driver:      core.StorageDriver(strings.ToLower(getenv("VENUEFLOW_STORAGE_DRIVER", string(core.StorageSQLite)))),
			SQLitePath:  getenv("VENUEFLOW_SQLITE_PATH", sqlite.DefaultPath),
			PostgresDSN: os.Getenv("VENUEFLOW_POSTGRES_DSN"),
			Blob: blob.Config{
				Driver: blobcore.Driver(strings.ToLower(getenv("VENUEFLOW_BLOB_DRIVER", string(blobcore.DriverFilesystem)))),
				FSRoot: os.Getenv("VENUEFLOW_BLOB_FS_ROOT"),
				S3: s3.Config{
					Bucket:          os.Getenv("VENUEFLOW_BLOB_S3_BUCKET"),
					Region:          getenv("VENUEFLOW_BLOB_S3_REGION", s3.DefaultRegion),
					Endpoint:        os.Getenv("VENUEFLOW_BLOB_S3_ENDPOINT"),
					AccessKeyID:     os.Getenv("VENUEFLOW_BLOB_S3_ACCESS_KEY_ID"),
					SecretAccessKey: os.Getenv("VENUEFLOW_BLOB_S3_SECRET_ACCESS_KEY"),
					PathStyle:       pathStyle,
				},
			},
			BlobPrefix: getenv("VENUEFLOW_BLOB_PREFIX", objectstore.DefaultPrefix),
			BlobRetain: retain,
		},
		JWTSecret:   getenv("VENUEFLOW_JWT_SECRET", devSecret),
		TokenTTL:    time.Duration(ttlMinutes) * time.Minute,
		Seed:        seed,
		CORSOrigins: splitList(getenv("VENUEFLOW_CORS_ORIGINS", "http://localhost:5173")),
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case core.StorageMemory, core.StorageSQLite, core.StorageBlob:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("VENUEFLOW_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown VENUEFLOW_STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Driver == core.StorageBlob && c.Storage.Blob.Driver == blobcore.DriverS3 && c.Storage.Blob.S3.Bucket == "" {
		return errors.New("VENUEFLOW_BLOB_S3_BUCKET is required for the s3 blob driver")
	}
	if c.TokenTTL <= 0 {
		return errors.New("VENUEFLOW_TOKEN_TTL_MINUTES must be positive")
	}
	return nil
}

// UsesDevSecret reports whether no JWT secret was configured.
func (c Config) UsesDevSecret() bool { return c.JWTSecret == devSecret }

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func readInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, raw)
	}
	return v, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
