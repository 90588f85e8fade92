package catalog

import (
	"context"
	"fmt"
	"sort"

	"vv-go/internal/model"
)

// DuplicateGroup is the set of catalog entries sharing one content
// fingerprint. Groups are computed fresh on every call and never persisted;
// a group is a snapshot that may be stale by the time the caller acts on it.
type DuplicateGroup struct {
	// Fingerprint is the shared content digest.
	Fingerprint string

	// Members is ordered by size descending, then ID ascending.
	// With an unbroken hash equal fingerprints imply equal sizes, so the
	// size key only matters as a deterministic tie-break inherited from
	// the original ranking design; it carries no quality signal.
	Members []*model.CatalogEntry
}

// ProgressFunc reports incremental progress: current out of total, with a
// human-readable label for the unit just finished.
type ProgressFunc func(current, total int, label string)

// GroupFunc receives each duplicate group as it is finalized.
type GroupFunc func(group *DuplicateGroup)

// GroupDuplicates partitions entries by fingerprint and returns one group
// per fingerprint shared by two or more entries. Groups are emitted in
// lexical fingerprint order so output is reproducible regardless of input
// ordering. Pure computation: no I/O, no store access.
//
// Cancellation is checked before each partition is finalized. On
// cancellation the returned slice is nil and err is ctx.Err(); callers must
// treat that as "did not complete", never as a partial result.
// onProgress and onGroup may be nil.
func GroupDuplicates(ctx context.Context, entries []*model.CatalogEntry, onProgress ProgressFunc, onGroup GroupFunc) ([]*DuplicateGroup, error) {
	byFingerprint := make(map[string][]*model.CatalogEntry)
	for _, entry := range entries {
		byFingerprint[entry.Fingerprint] = append(byFingerprint[entry.Fingerprint], entry)
	}

	fingerprints := make([]string, 0, len(byFingerprint))
	for fp, members := range byFingerprint {
		if len(members) < 2 {
			continue // singleton, not a duplicate
		}
		fingerprints = append(fingerprints, fp)
	}
	sort.Strings(fingerprints)

	total := len(fingerprints)
	groups := make([]*DuplicateGroup, 0, total)

	for i, fp := range fingerprints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		members := byFingerprint[fp]
		sort.Slice(members, func(a, b int) bool {
			if members[a].SizeBytes != members[b].SizeBytes {
				return members[a].SizeBytes > members[b].SizeBytes
			}
			return members[a].ID < members[b].ID
		})

		group := &DuplicateGroup{Fingerprint: fp, Members: members}
		groups = append(groups, group)

		if onGroup != nil {
			onGroup(group)
		}
		if onProgress != nil {
			onProgress(i+1, total, fp)
		}
	}

	return groups, nil
}

// FindDuplicates loads the full catalog from the store, computes duplicate
// groups, and rewrites the denormalized duplicate bookkeeping (the
// first-ranked member of each group becomes the canonical entry for the
// rest). The bookkeeping is display state only; the next call recomputes
// groups from fingerprints regardless.
func (s *CatalogService) FindDuplicates(ctx context.Context, onProgress ProgressFunc, onGroup GroupFunc) ([]*DuplicateGroup, error) {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	groups, err := GroupDuplicates(ctx, entries, onProgress, onGroup)
	if err != nil {
		return nil, err
	}

	canonicalByID := make(map[string]string)
	for _, group := range groups {
		canonical := group.Members[0]
		for _, member := range group.Members[1:] {
			canonicalByID[member.ID] = canonical.ID
		}
	}
	if err := s.store.MarkDuplicates(canonicalByID); err != nil {
		return nil, fmt.Errorf("recording duplicate bookkeeping: %w", err)
	}

	s.logger.Debug("duplicate scan complete", "entries", len(entries), "groups", len(groups))
	return groups, nil
}
