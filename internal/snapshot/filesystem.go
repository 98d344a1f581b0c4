package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"conia-sync/internal/conia"
)

// FilesystemStore keeps snapshots as plain files in one directory. Writes go
// through a temp file and rename, so a crash mid-upload never leaves a
// half-written snapshot under its final name.
type FilesystemStore struct {
	root string
}

var _ conia.SnapshotStore = (*FilesystemStore)(nil)

// NewFilesystemStore creates a store rooted at the given directory, creating
// it if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

func (f *FilesystemStore) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	destPath := filepath.Join(f.root, name)

	tmpFile, err := os.CreateTemp(f.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}

func (f *FilesystemStore) Get(ctx context.Context, name string, w io.Writer) error {
	src, err := os.Open(filepath.Join(f.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not found: %s", name)
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

func (f *FilesystemStore) List(ctx context.Context) ([]conia.SnapshotInfo, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var infos []conia.SnapshotInfo
	for _, entry := range entries {
		// Skip directories and the leftovers of interrupted writes.
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("sizing snapshot %s: %w", entry.Name(), err)
		}
		infos = append(infos, conia.SnapshotInfo{Name: entry.Name(), Size: fi.Size()})
	}
	return infos, nil
}

func (f *FilesystemStore) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(f.root)
	if err != nil {
		return fmt.Errorf("snapshot root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot root is not a directory: %s", f.root)
	}
	return nil
}
