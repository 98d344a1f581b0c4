package snapshot

import (
	"context"
	"fmt"

	"conia-sync/internal/conia"
	"conia-sync/internal/config"
)

// NewSnapshotStoreFromConfig creates a SnapshotStore implementation based on
// the snapshot config type.
func NewSnapshotStoreFromConfig(ctx context.Context, cfg config.SnapshotConfig) (conia.SnapshotStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem snapshot store requires root to be set")
		}
		return NewFilesystemStore(cfg.Root)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %s", cfg.Type)
	}
}
