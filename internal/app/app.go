package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vv-go/internal/catalog"
	"vv-go/internal/config"
	"vv-go/internal/database"
	"vv-go/internal/encryption"
	"vv-go/internal/fs"
	"vv-go/internal/model"
	"vv-go/internal/vault"
)

// VVApp is the application layer between the CLI and CatalogService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the store lifecycle on Close.
type VVApp struct {
	cfg       *config.Config
	store     catalog.Store
	vault     vault.Vault
	fsmgr     catalog.Filesystem
	encryptor encryption.Encryptor
	service   *catalog.CatalogService
	op        *CatalogOperation
	logFile   *os.File
}

// NewVVApp creates a fully wired VVApp from the given config.
// operation identifies the CLI command being run (e.g. "Scan", "Dedupe").
// The caller must call Close when done.
func NewVVApp(cfg *config.Config, operation string) (*VVApp, error) {
	fsmgr := fs.NewOSFilesystem(cfg.Scanner.Ignore)

	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	store, err := database.NewStoreFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("catalog schema out of date: %w", err)
	}

	// Check local catalog version against the vault snapshot version.
	remoteVersion, err := v.SnapshotVersion(cfg.HostID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("checking vault snapshot version: %w", err)
	}

	localMax, err := store.MaxOperationID()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("checking local catalog version: %w", err)
	}

	if remoteVersion > localMax {
		store.Close()
		return nil, fmt.Errorf("local catalog is behind vault snapshot (local=%d, vault=%d): run `vv snapshot restore` or re-initialize", localMax, remoteVersion)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	filter := catalog.NewExtensionFilter(cfg.Scanner.Extensions)
	svc := catalog.NewCatalogService(store, fsmgr, filter, &slogAdapter{l: logger}, catalog.RealClock{}, catalog.UUIDGenerator{})
	op := NewCatalogOperation(operation, "")

	return &VVApp{
		cfg:       cfg,
		store:     store,
		vault:     v,
		fsmgr:     fsmgr,
		encryptor: enc,
		service:   svc,
		op:        op,
		logFile:   logFile,
	}, nil
}

// persistOperation saves the catalog operation to the store, giving it an
// auto-increment ID. This should only be called for mutating commands.
func (a *VVApp) persistOperation() error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	op, err := a.store.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting catalog operation: %w", err)
	}
	a.op.ID = op.ID
	return nil
}

// MarkError records that the operation failed so the operation log and
// history reflect it. Call before Close.
func (a *VVApp) MarkError() {
	a.op.Status = "error"
}

// Scan resolves the given path and catalogs video files under it.
func (a *VVApp) Scan(ctx context.Context, rawPath string, onProgress catalog.ProgressFunc) (*catalog.ScanResult, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.ScanDirectory(ctx, p, onProgress)
}

// FindDuplicates computes the current duplicate groups.
func (a *VVApp) FindDuplicates(ctx context.Context, onProgress catalog.ProgressFunc, onGroup catalog.GroupFunc) ([]*catalog.DuplicateGroup, error) {
	// Grouping rewrites the denormalized bookkeeping, so it counts as a
	// mutating operation.
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	return a.service.FindDuplicates(ctx, onProgress, onGroup)
}

// DedupeSummary aggregates an automatic deduplication pass.
type DedupeSummary struct {
	Groups  int                      // duplicate groups considered
	Planned []*model.CatalogEntry    // victims selected (populated on dry-run)
	Results []catalog.VictimResult   // per-victim outcomes (empty on dry-run)
	Deleted int
	Failed  int
}

// Dedupe resolves every duplicate group by keeping the first-ranked member
// and deleting the rest. With dryRun, the selected victims are reported
// without touching disk or catalog.
func (a *VVApp) Dedupe(ctx context.Context, dryRun bool) (*DedupeSummary, error) {
	var groups []*catalog.DuplicateGroup
	if dryRun {
		// FindDuplicates rewrites the duplicate_of bookkeeping, so a dry
		// run groups over a read-only snapshot of the catalog instead.
		entries, err := a.store.GetAllEntries()
		if err != nil {
			return nil, err
		}
		groups, err = catalog.GroupDuplicates(ctx, entries, nil, nil)
		if err != nil {
			return nil, err
		}
	} else {
		if err := a.persistOperation(); err != nil {
			return nil, err
		}

		var err error
		groups, err = a.service.FindDuplicates(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
	}

	summary := &DedupeSummary{Groups: len(groups)}

	for _, group := range groups {
		victims := group.Members[1:]
		if dryRun {
			summary.Planned = append(summary.Planned, victims...)
			continue
		}

		report, err := a.service.DeleteSelected(group, victims)
		if err != nil {
			return nil, fmt.Errorf("deleting from group %s: %w", group.Fingerprint, err)
		}
		summary.Results = append(summary.Results, report.Results...)
		summary.Deleted += report.Deleted
		summary.Failed += report.Failed
	}

	return summary, nil
}

// Remove deletes the given cataloged files, validating each against its
// duplicate group: a file that is the only copy of its content is refused.
// Results are grouped by fingerprint, preserving submission order within
// each group.
func (a *VVApp) Remove(ctx context.Context, rawPaths []string) (*catalog.DeletionReport, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	victims := make([]*model.CatalogEntry, 0, len(rawPaths))
	for _, raw := range rawPaths {
		absPath, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		entry, err := a.store.FindEntryByPath(absPath)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("not in catalog: %s", absPath)
		}
		victims = append(victims, entry)
	}

	groups, err := a.service.FindDuplicates(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	groupByEntryID := make(map[string]*catalog.DuplicateGroup)
	for _, group := range groups {
		for _, member := range group.Members {
			groupByEntryID[member.ID] = group
		}
	}

	// Partition victims by group, preserving submission order.
	victimsByGroup := make(map[*catalog.DuplicateGroup][]*model.CatalogEntry)
	var groupOrder []*catalog.DuplicateGroup
	for _, victim := range victims {
		group, ok := groupByEntryID[victim.ID]
		if !ok {
			return nil, fmt.Errorf("refusing to delete the only copy: %s", victim.Path)
		}
		if len(victimsByGroup[group]) == 0 {
			groupOrder = append(groupOrder, group)
		}
		victimsByGroup[group] = append(victimsByGroup[group], victim)
	}

	// Validate every group's selection before the first deletion so a bad
	// selection in any group aborts the whole call with nothing touched.
	for _, group := range groupOrder {
		if err := catalog.ValidateSelection(group, victimsByGroup[group]); err != nil {
			return nil, fmt.Errorf("group %s: %w", group.Fingerprint, err)
		}
	}

	merged := &catalog.DeletionReport{}
	for _, group := range groupOrder {
		report, err := a.service.DeleteSelected(group, victimsByGroup[group])
		if err != nil {
			return nil, err
		}
		merged.Results = append(merged.Results, report.Results...)
		merged.Deleted += report.Deleted
		merged.Failed += report.Failed
	}

	return merged, nil
}

// Prune removes catalog entries whose files no longer exist on disk.
func (a *VVApp) Prune() (int, error) {
	if err := a.persistOperation(); err != nil {
		return 0, err
	}
	return a.service.Prune()
}

// List returns every live catalog entry.
func (a *VVApp) List() ([]*model.CatalogEntry, error) {
	return a.service.ListEntries()
}

// Stats computes catalog statistics.
func (a *VVApp) Stats(ctx context.Context) (*catalog.Stats, error) {
	return a.service.Stats(ctx)
}

// History returns the most recent catalog operations.
func (a *VVApp) History(limit int) ([]*model.Operation, error) {
	return a.service.History(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the
// catalog, and uploads it to the vault. For non-persisted operations: just
// closes the store.
func (a *VVApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		// Finalize the operation record
		if err := a.store.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing catalog operation: %w", err)
		}

		// Snapshot the catalog to a temp file
		tmpFile, err := os.CreateTemp("", "vv-catalog-snapshot-*.db")
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("creating temp file for snapshot: %w", err)
			}
		}

		var tmpPath string
		if tmpFile != nil {
			tmpPath = tmpFile.Name()
			tmpFile.Close()
			os.Remove(tmpPath) // VACUUM INTO refuses to overwrite

			if err := a.store.BackupTo(tmpPath); err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("snapshotting catalog: %w", err)
				}
				tmpPath = "" // skip vault upload
			}
		}

		// Close the store
		if err := a.store.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("closing store: %w", err)
			}
		}

		// Upload catalog snapshot to vault with version = operation ID
		if tmpPath != "" {
			if err := a.uploadSnapshot(tmpPath, a.op.ID); err != nil {
				if firstErr == nil {
					firstErr = err
				}
			}
			os.Remove(tmpPath)
		}
	} else {
		// Non-mutating operation: just close the store, no upload
		if err := a.store.Close(); err != nil {
			firstErr = fmt.Errorf("closing store: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// uploadSnapshot uploads the snapshot file to the vault, encrypting it
// first when an encryptor is configured.
func (a *VVApp) uploadSnapshot(path string, version int64) error {
	uploadPath := path

	if a.encryptor != nil && a.encryptor.IsConfigured() {
		encPath, err := a.encryptSnapshot(path)
		if err != nil {
			return err
		}
		defer os.Remove(encPath)
		uploadPath = encPath
	}

	f, err := os.Open(uploadPath)
	if err != nil {
		return fmt.Errorf("opening snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(a.cfg.HostID, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}

	return nil
}

// encryptSnapshot encrypts the snapshot into a sibling temp file and
// returns its path. The caller removes the file.
func (a *VVApp) encryptSnapshot(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening snapshot for encryption: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(filepath.Dir(path), "vv-catalog-snapshot-*.age")
	if err != nil {
		return "", fmt.Errorf("creating encrypted snapshot file: %w", err)
	}

	if err := a.encryptor.Encrypt(src, dst); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("closing encrypted snapshot: %w", err)
	}

	return dst.Name(), nil
}
