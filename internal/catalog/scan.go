package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"vv-go/internal/model"
)

// ScanResult summarizes one directory scan.
type ScanResult struct {
	Added   int // new entries cataloged
	Skipped int // filtered by extension or already cataloged
}

// ScanDirectory walks the given directory, fingerprints candidate video
// files and catalogs the ones not seen before. Files failing the extension
// filter and paths already in the catalog are counted as skipped.
//
// Cancellation is checked before each file; on cancellation the scan stops
// and returns ctx's error along with the counts accumulated so far (entries
// already persisted stay persisted). onProgress may be nil.
func (s *CatalogService) ScanDirectory(ctx context.Context, path *Path, onProgress ProgressFunc) (*ScanResult, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	files, err := s.fsmgr.FindFiles(path, true)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}

	result := &ScanResult{}
	total := len(files)

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		added, err := s.catalogOneFile(f)
		if err != nil {
			return result, err
		}
		if added {
			result.Added++
		} else {
			result.Skipped++
		}

		if onProgress != nil {
			onProgress(i+1, total, f.String())
		}
	}

	s.logger.Info("scan complete", "path", path.String(), "added", result.Added, "skipped", result.Skipped)
	return result, nil
}

// catalogOneFile fingerprints and persists a single candidate file.
// Returns false when the file was skipped rather than cataloged.
func (s *CatalogService) catalogOneFile(path *Path) (bool, error) {
	if !s.filter.Match(path.String()) {
		return false, nil
	}

	exists, err := s.store.EntryExists(path.String())
	if err != nil {
		return false, fmt.Errorf("checking catalog for %s: %w", path.String(), err)
	}
	if exists {
		return false, nil
	}

	fingerprint, err := s.fingerprint(path)
	if err != nil {
		return false, fmt.Errorf("fingerprinting %s: %w", path.String(), err)
	}

	entry := &model.CatalogEntry{
		ID:          s.idgen.New(),
		Path:        path.String(),
		SizeBytes:   path.Info().Size(),
		Fingerprint: fingerprint,
		AddedAt:     s.clock.Now(),
	}
	if err := s.store.CreateEntry(entry); err != nil {
		return false, fmt.Errorf("cataloging %s: %w", path.String(), err)
	}

	s.logger.Debug("file cataloged", "path", path.String(), "fingerprint", fingerprint)
	return true, nil
}

// fingerprint streams the file through SHA-256 and returns the hex digest.
func (s *CatalogService) fingerprint(path *Path) (string, error) {
	r, err := s.fsmgr.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
