package storage

import (
	"github.com/skeinhq/skein/internal/errors"
	"github.com/skeinhq/skein/internal/session"
)

// UIStateRecord is the durable UI-scoped record: selection, sidebar layout,
// unread digests, and per-worktree review state.
type UIStateRecord struct {
	ActiveWorktreeID    string                            `json:"active_worktree_id,omitempty"`
	ActiveProjectID     string                            `json:"active_project_id,omitempty"`
	ExpandedProjects    []string                          `json:"expanded_projects,omitempty"`
	ExpandedFolders     []string                          `json:"expanded_folders,omitempty"`
	SidebarWidth        int                               `json:"sidebar_width,omitempty"`
	ActiveSessions      map[string]string                 `json:"active_sessions,omitempty"`
	ReviewResults       map[string]*session.ReviewResults `json:"review_results,omitempty"`
	FixedReviewFindings map[string][]string               `json:"fixed_review_findings,omitempty"`
	PendingDigests      []string                          `json:"pending_digests,omitempty"`
	Version             int                               `json:"version,omitempty"`
}

// LoadUIState reads the UI-state record. A missing record yields an empty
// one, never an error.
func (s *Store) LoadUIState() (*UIStateRecord, error) {
	path := s.UIStatePath()
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	var rec UIStateRecord
	ok, err := readJSON(path, &rec)
	if err != nil {
		return nil, errors.UIStateLoadFailed(err)
	}
	if !ok {
		return &UIStateRecord{}, nil
	}
	return &rec, nil
}

// SaveUIState writes the UI-state record.
func (s *Store) SaveUIState(rec *UIStateRecord) error {
	path := s.UIStatePath()
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	if err := writeJSONAtomic(path, rec); err != nil {
		return errors.UIStateSaveFailed(err)
	}
	return nil
}
