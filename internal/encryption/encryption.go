package encryption

import "io"

// Encryptor handles encryption of catalog snapshots and unlocking for
// decryption. Encryption uses the public key only; decryption requires a
// passphrase to unlock the private key.
type Encryptor interface {
	// Setup performs one-time key generation. Called during `vv key init`.
	// Generates a key pair, stores the public key in plaintext, and
	// encrypts the private key with the provided passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	// Uses the public key only; no passphrase required.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase and returns a
	// Decrypter valid for the rest of the session. Returns an error if the
	// passphrase is incorrect.
	Unlock(passphrase string) (Decrypter, error)

	// IsConfigured returns true if both key files exist at configured paths.
	IsConfigured() bool
}

// Decrypter holds an unlocked private key in memory for the duration of a
// restore session. The unlocked key is never written to disk.
type Decrypter interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
