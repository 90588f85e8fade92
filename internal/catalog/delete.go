package catalog

import (
	"errors"

	"vv-go/internal/model"
)

// Call-level precondition failures. When DeleteSelected returns either of
// these, no filesystem or store mutation has happened.
var (
	// ErrInvalidSelection means the victims are not a non-empty,
	// duplicate-free subset of the group's members.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrWouldEmptyGroup means the selection covers every member of the
	// group. At least one copy of every duplicate group must survive.
	ErrWouldEmptyGroup = errors.New("selection would delete every copy in the group")
)

// VictimOutcome is the terminal state of one victim's deletion.
type VictimOutcome string

const (
	// OutcomeDeleted means the file is gone and the catalog entry removed.
	OutcomeDeleted VictimOutcome = "deleted"

	// OutcomeFilesystemFailed means the file could not be removed; the
	// catalog entry is untouched so catalog and disk stay consistent.
	OutcomeFilesystemFailed VictimOutcome = "filesystem_failed"

	// OutcomeStoreFailed means the file was removed but the catalog entry
	// could not be; a later Prune reconciles it.
	OutcomeStoreFailed VictimOutcome = "store_failed"
)

// VictimResult is the per-file outcome of a deletion batch.
type VictimResult struct {
	Entry   *model.CatalogEntry
	Outcome VictimOutcome
	Reason  string // failure detail, empty on success
}

// DeletionReport aggregates the outcomes of one DeleteSelected call.
// Results appear in the same order the victims were submitted.
type DeletionReport struct {
	Results []VictimResult
	Deleted int
	Failed  int
}

// ValidateSelection checks the DeleteSelected preconditions without
// mutating anything:
//   - victims must be a non-empty subset of group.Members with no
//     repeated IDs (ErrInvalidSelection otherwise);
//   - at least one member must survive (ErrWouldEmptyGroup otherwise).
//
// Callers deleting across several groups should validate every group up
// front so a bad selection anywhere aborts before the first deletion.
func ValidateSelection(group *DuplicateGroup, victims []*model.CatalogEntry) error {
	if len(victims) == 0 {
		return ErrInvalidSelection
	}

	memberIDs := make(map[string]bool, len(group.Members))
	for _, m := range group.Members {
		memberIDs[m.ID] = true
	}

	victimIDs := make(map[string]bool, len(victims))
	for _, v := range victims {
		if !memberIDs[v.ID] || victimIDs[v.ID] {
			return ErrInvalidSelection
		}
		victimIDs[v.ID] = true
	}

	if len(victimIDs) == len(group.Members) {
		return ErrWouldEmptyGroup
	}

	return nil
}

// DeleteSelected deletes the selected victims from a duplicate group.
//
// ValidateSelection's preconditions are enforced before any mutation. Once
// they pass the batch always runs to completion: each victim is processed
// independently and per-file failures are reported in the DeletionReport,
// never returned as an error. The catalog entry is removed only after the
// file is confirmed gone; a path already absent from disk counts as a
// successful filesystem deletion so retries converge.
func (s *CatalogService) DeleteSelected(group *DuplicateGroup, victims []*model.CatalogEntry) (*DeletionReport, error) {
	if err := ValidateSelection(group, victims); err != nil {
		return nil, err
	}

	report := &DeletionReport{Results: make([]VictimResult, 0, len(victims))}

	for _, victim := range victims {
		result := s.deleteOne(victim)
		if result.Outcome == OutcomeDeleted {
			report.Deleted++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info("deletion batch complete",
		"fingerprint", group.Fingerprint,
		"deleted", report.Deleted,
		"failed", report.Failed,
	)
	return report, nil
}

// deleteOne runs the two-step delete for a single victim: filesystem first,
// then the catalog entry only once the file is confirmed gone.
func (s *CatalogService) deleteOne(victim *model.CatalogEntry) VictimResult {
	if err := s.fsmgr.DeleteFile(victim.Path); err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			s.logger.Warn("file deletion failed", "path", victim.Path, "err", err)
			return VictimResult{Entry: victim, Outcome: OutcomeFilesystemFailed, Reason: err.Error()}
		}
		// Already gone: proceed to remove the catalog entry.
		s.logger.Debug("file already absent", "path", victim.Path)
	}

	if err := s.store.RemoveEntry(victim.ID); err != nil {
		s.logger.Warn("entry removal failed", "path", victim.Path, "err", err)
		return VictimResult{Entry: victim, Outcome: OutcomeStoreFailed, Reason: err.Error()}
	}

	return VictimResult{Entry: victim, Outcome: OutcomeDeleted}
}
