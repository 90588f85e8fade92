package catalog

import (
	"fmt"

	"vv-go/internal/model"
)

// CatalogService is the orchestration layer that coordinates the store and
// the filesystem to perform the high-level catalog operations needed by the
// CLI. It holds no state between calls beyond its collaborators.
type CatalogService struct {
	store  Store
	fsmgr  Filesystem
	filter *ExtensionFilter
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewCatalogService creates a new CatalogService with the provided dependencies.
func NewCatalogService(store Store, fsmgr Filesystem, filter *ExtensionFilter, logger Logger, clock Clock, idgen IDGenerator) *CatalogService {
	return &CatalogService{
		store:  store,
		fsmgr:  fsmgr,
		filter: filter,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// ListEntries returns every live catalog entry.
func (s *CatalogService) ListEntries() ([]*model.CatalogEntry, error) {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// Prune removes catalog entries whose files no longer exist on disk.
// Returns the number of entries removed.
func (s *CatalogService) Prune() (int, error) {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		_, err := s.fsmgr.Resolve(entry.Path)
		if err == nil {
			continue
		}
		if err := s.store.RemoveEntry(entry.ID); err != nil {
			return removed, fmt.Errorf("removing entry for %s: %w", entry.Path, err)
		}
		s.logger.Info("pruned missing file", "path", entry.Path)
		removed++
	}

	return removed, nil
}

// History returns the most recent catalog operations, newest first.
func (s *CatalogService) History(limit int) ([]*model.Operation, error) {
	ops, err := s.store.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
