package catalog

import (
	"context"
	"fmt"
)

// Stats summarizes the catalog and its duplicate load.
type Stats struct {
	TotalEntries     int
	TotalBytes       int64
	DuplicateGroups  int
	DuplicateEntries int   // entries beyond the kept member, across all groups
	ReclaimableBytes int64 // bytes freed by keeping one member per group
}

// Stats computes catalog statistics from the current store contents.
// Reclaimable bytes count every group member after the first-ranked one.
func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	groups, err := GroupDuplicates(ctx, entries, nil, nil)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalEntries: len(entries)}
	for _, entry := range entries {
		stats.TotalBytes += entry.SizeBytes
	}

	stats.DuplicateGroups = len(groups)
	for _, group := range groups {
		for _, member := range group.Members[1:] {
			stats.DuplicateEntries++
			stats.ReclaimableBytes += member.SizeBytes
		}
	}

	return stats, nil
}
