package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"conia-sync/internal/config"
	"conia-sync/internal/encryption"
	"conia-sync/internal/snapshot"
)

// RestoreSnapshot downloads the named snapshot, decrypts it with the
// passphrase-unlocked private key, and writes the plaintext database to
// outPath. It never opens the live store; pointing the config's database
// path at the restored file is the operator's final step.
func RestoreSnapshot(ctx context.Context, cfg *config.Config, name, outPath, passphrase string, force bool) error {
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists (pass --force to overwrite)", outPath)
		}
	}

	encryptor, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	decryptCtx, err := encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	snapshots, err := snapshot.NewSnapshotStoreFromConfig(ctx, snapshotConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating snapshot store: %w", err)
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	// Pipe the snapshot fetch directly into the decryptor, no intermediate
	// buffer.
	pr, pw := io.Pipe()
	fetchErrCh := make(chan error, 1)
	go func() {
		err := snapshots.Get(ctx, name, pw)
		pw.CloseWithError(err)
		fetchErrCh <- err
	}()

	decryptErr := decryptCtx.Decrypt(pr, out)
	pr.CloseWithError(decryptErr) // unblocks the fetch goroutine when Decrypt fails early
	fetchErr := <-fetchErrCh

	if fetchErr != nil {
		os.Remove(outPath)
		return fmt.Errorf("fetching snapshot %s: %w", name, fetchErr)
	}
	if decryptErr != nil {
		os.Remove(outPath)
		return fmt.Errorf("decrypting snapshot: %w", decryptErr)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("flushing output file: %w", err)
	}
	return nil
}
