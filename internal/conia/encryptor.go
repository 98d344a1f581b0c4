package conia

import "io"

// Encryptor protects snapshots at rest. The public key alone is enough to
// encrypt, so scheduled snapshot uploads never prompt for anything; the
// private key stays encrypted under a passphrase until a restore needs it.
type Encryptor interface {
	// Setup performs one-time key generation. Called during
	// `conia-sync key init`. Stores the public key in plaintext and the
	// private key encrypted with the provided passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w using
	// the public key only.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with the passphrase and returns a
	// DecryptionContext valid for the rest of the session. Returns an error
	// if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist at configured paths.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for the duration
// of a restore. The unlocked key is never written to disk.
type DecryptionContext interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
