package vault

import "io"

// Vault provides an interface for catalog snapshot storage backends.
// Snapshots stream through io.Reader/io.Writer so large catalogs never
// need to be held in memory.
type Vault interface {
	// PutSnapshot stores the catalog snapshot for a host, replacing any
	// previous one. size is the number of bytes that will be read from r.
	// version is stored alongside the snapshot for consistency checks;
	// it is the highest operation ID contained in the snapshot.
	PutSnapshot(hostID string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves the stored snapshot for a host and writes it to w.
	GetSnapshot(hostID string, w io.Writer) error

	// SnapshotVersion returns the version of the stored snapshot for a host.
	// Returns 0 if no snapshot has been stored.
	SnapshotVersion(hostID string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
