// Package blob selects a concrete object store backend.
package blob

import (
	"context"
	"fmt"

	"venueflow/internal/infra/blob/core"
	"venueflow/internal/infra/blob/fs"
	"venueflow/internal/infra/blob/memory"
	"venueflow/internal/infra/blob/s3"
)

// Config chooses and parameterises a backend.
type Config struct {
	Driver core.Driver
	FSRoot string
	S3     s3.Config
}

// Open returns the backend named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Driver {
	case "", core.DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case core.DriverMemory:
		return memory.New(), nil
	case core.DriverS3:
		return s3.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
