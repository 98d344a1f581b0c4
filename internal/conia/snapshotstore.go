package conia

import (
	"context"
	"io"
)

// SnapshotStore provides an interface for snapshot storage backends.
// All operations use io.Reader/io.Writer for streaming so a large database
// file never has to fit in memory.
type SnapshotStore interface {
	// Put stores a snapshot under the given name.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get retrieves the named snapshot and writes it to w.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the stored snapshots sorted by name ascending. Names
	// embed the capture time, so ascending order is oldest first.
	List(ctx context.Context) ([]SnapshotInfo, error)

	// ValidateSetup verifies that the store is accessible and properly
	// configured.
	ValidateSetup(ctx context.Context) error
}

// SnapshotInfo describes one stored snapshot.
type SnapshotInfo struct {
	Name string
	Size int64
}
