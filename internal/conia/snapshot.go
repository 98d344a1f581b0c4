package conia

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// snapshotTimeFormat names snapshots by capture time so lexical order is
// chronological order.
const snapshotTimeFormat = "20060102T150405Z"

// SaveSnapshot captures a consistent copy of the local database, encrypts
// it, and uploads it to the snapshot store. Returns the stored name.
// Snapshots are always encrypted; without key material the call refuses.
func (s *SyncService) SaveSnapshot(ctx context.Context) (string, error) {
	if !s.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys not found, run `conia-sync key init` first")
	}

	dir, err := os.MkdirTemp("", "conia-sync-snapshot-")
	if err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, "snapshot.db")
	if err := s.local.BackupTo(ctx, dbPath); err != nil {
		return "", fmt.Errorf("capturing database copy: %w", err)
	}

	encPath := dbPath + ".age"
	if err := s.encryptFile(dbPath, encPath); err != nil {
		return "", err
	}

	f, err := os.Open(encPath)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("sizing ciphertext: %w", err)
	}

	name := s.clock.Now().UTC().Format(snapshotTimeFormat) + ".db.age"
	if err := s.snapshots.Put(ctx, name, f, info.Size()); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}
	s.logger.Info("snapshot stored", "name", name, "bytes", info.Size())
	return name, nil
}

func (s *SyncService) encryptFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening database copy: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating ciphertext file: %w", err)
	}
	defer out.Close()

	if err := s.encryptor.Encrypt(in, out); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("flushing ciphertext: %w", err)
	}
	return nil
}

// ListSnapshots returns the stored snapshots, oldest first.
func (s *SyncService) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	infos, err := s.snapshots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return infos, nil
}
