package state

import (
	"github.com/skeinhq/skein/internal/session"
)

// UIState is the process-wide UI-scoped state: selection, sidebar layout,
// and the unread-digest set. It is persisted by the UI synchronizer.
type UIState struct {
	ActiveWorktreeID string
	ActiveProjectID  string
	ExpandedProjects map[string]bool
	ExpandedFolders  map[string]bool
	SidebarWidth     int
	// ActiveSessions mirrors each worktree's active session id so selection
	// restores instantly before the worktree record is loaded.
	ActiveSessions map[string]string
	PendingDigests []string
}

// Clone returns a deep copy.
func (u UIState) Clone() UIState {
	out := u
	out.ExpandedProjects = make(map[string]bool, len(u.ExpandedProjects))
	for k, v := range u.ExpandedProjects {
		out.ExpandedProjects[k] = v
	}
	out.ExpandedFolders = make(map[string]bool, len(u.ExpandedFolders))
	for k, v := range u.ExpandedFolders {
		out.ExpandedFolders[k] = v
	}
	out.ActiveSessions = make(map[string]string, len(u.ActiveSessions))
	for k, v := range u.ActiveSessions {
		out.ActiveSessions[k] = v
	}
	out.PendingDigests = append([]string(nil), u.PendingDigests...)
	return out
}

// LoadUIState installs a loaded UI record as one batched mutation.
func (s *Store) LoadUIState(u UIState) {
	cp := u.Clone()
	if cp.ExpandedProjects == nil {
		cp.ExpandedProjects = make(map[string]bool)
	}
	if cp.ExpandedFolders == nil {
		cp.ExpandedFolders = make(map[string]bool)
	}
	if cp.ActiveSessions == nil {
		cp.ActiveSessions = make(map[string]string)
	}
	s.mu.Lock()
	s.ui = cp
	s.mu.Unlock()
	s.publishUI(FieldLoaded)
}

// UISnapshot returns a deep copy of the UI-scoped state.
func (s *Store) UISnapshot() UIState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.Clone()
}

// SetActiveWorktree selects the worktree shown in the UI.
func (s *Store) SetActiveWorktree(worktreeID string) {
	s.mu.Lock()
	s.ui.ActiveWorktreeID = worktreeID
	s.mu.Unlock()
	s.publishUI(FieldActiveWorktree)
}

// ActiveWorktree returns the selected worktree id, "" when none.
func (s *Store) ActiveWorktree() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.ActiveWorktreeID
}

// SetActiveProject selects the project shown in the UI.
func (s *Store) SetActiveProject(projectID string) {
	s.mu.Lock()
	s.ui.ActiveProjectID = projectID
	s.mu.Unlock()
	s.publishUI(FieldActiveProject)
}

// ActiveProject returns the selected project id, "" when none.
func (s *Store) ActiveProject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.ActiveProjectID
}

// SetProjectExpanded toggles a project's sidebar expansion. Collapsed
// entries are dropped so the record only lists expanded ids.
func (s *Store) SetProjectExpanded(projectID string, expanded bool) {
	s.mu.Lock()
	if expanded {
		s.ui.ExpandedProjects[projectID] = true
	} else {
		delete(s.ui.ExpandedProjects, projectID)
	}
	s.mu.Unlock()
	s.publishUI(FieldExpandedProjects)
}

// IsProjectExpanded reports whether the project is expanded in the sidebar.
func (s *Store) IsProjectExpanded(projectID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.ExpandedProjects[projectID]
}

// SetFolderExpanded toggles a folder's sidebar expansion.
func (s *Store) SetFolderExpanded(folderID string, expanded bool) {
	s.mu.Lock()
	if expanded {
		s.ui.ExpandedFolders[folderID] = true
	} else {
		delete(s.ui.ExpandedFolders, folderID)
	}
	s.mu.Unlock()
	s.publishUI(FieldExpandedFolders)
}

// IsFolderExpanded reports whether the folder is expanded in the sidebar.
func (s *Store) IsFolderExpanded(folderID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.ExpandedFolders[folderID]
}

// SetSidebarWidth stores the sidebar width in columns.
func (s *Store) SetSidebarWidth(width int) {
	s.mu.Lock()
	s.ui.SidebarWidth = width
	s.mu.Unlock()
	s.publishUI(FieldSidebarWidth)
}

// SidebarWidth returns the stored sidebar width, 0 when unset.
func (s *Store) SidebarWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.SidebarWidth
}

// AddPendingDigest marks a session as having finished work the user has not
// seen yet. Duplicate adds are a no-op.
func (s *Store) AddPendingDigest(sessionID string) {
	s.mu.Lock()
	if contains(s.ui.PendingDigests, sessionID) {
		s.mu.Unlock()
		return
	}
	s.ui.PendingDigests = append(s.ui.PendingDigests, sessionID)
	s.mu.Unlock()
	s.publishUI(FieldPendingDigests)
}

// RemovePendingDigest clears the unread mark, typically when the session is
// viewed.
func (s *Store) RemovePendingDigest(sessionID string) {
	s.mu.Lock()
	removed := false
	for i, id := range s.ui.PendingDigests {
		if id == sessionID {
			s.ui.PendingDigests = append(s.ui.PendingDigests[:i], s.ui.PendingDigests[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.publishUI(FieldPendingDigests)
	}
}

// PendingDigests returns a copy of the unread session ids in arrival order.
func (s *Store) PendingDigests() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ui.PendingDigests...)
}

// HasPendingDigest reports whether the session has an unread digest.
func (s *Store) HasPendingDigest(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.ui.PendingDigests, sessionID)
}

// ReviewResultsByWorktree returns a deep copy of all stored review results,
// for the UI record writer.
func (s *Store) ReviewResultsByWorktree() map[string]*session.ReviewResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*session.ReviewResults, len(s.reviewResults))
	for k, v := range s.reviewResults {
		out[k] = v.Clone()
	}
	return out
}

// FixedReviewFindingsByWorktree returns a copy of all worktree fixed-finding
// id lists, for the UI record writer.
func (s *Store) FixedReviewFindingsByWorktree() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.fixedReviewFindings))
	for k, v := range s.fixedReviewFindings {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// LoadReviewState installs review results and fixed-finding ids from the UI
// record as one batched mutation. Tabs stay closed; a restored result set
// does not force the review tab open on startup.
func (s *Store) LoadReviewState(results map[string]*session.ReviewResults, fixed map[string][]string) {
	s.mu.Lock()
	s.reviewResults = make(map[string]*session.ReviewResults, len(results))
	for k, v := range results {
		s.reviewResults[k] = v.Clone()
	}
	s.fixedReviewFindings = make(map[string][]string, len(fixed))
	for k, v := range fixed {
		s.fixedReviewFindings[k] = append([]string(nil), v...)
	}
	s.mu.Unlock()
	s.publishUI(FieldLoaded)
}
