package storage

import (
	"os"

	"github.com/skeinhq/skein/internal/errors"
	"github.com/skeinhq/skein/internal/logger"
)

// PreserveBaseSessions stashes a closing base worktree's index under the
// project id so the sessions survive worktree re-creation. Missing index is
// a no-op.
func (s *Store) PreserveBaseSessions(worktreeID, projectID string) error {
	path := s.IndexPath(worktreeID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	preserved := s.BaseIndexPath(projectID)
	if err := os.Rename(path, preserved); err != nil {
		return errors.E(errors.Op("storage.PreserveBaseSessions"), errors.KindIO,
			"failed to preserve index for worktree "+worktreeID, err)
	}
	logger.Debug("Storage: Preserved base sessions for project %s", projectID)
	return nil
}

// RestoreBaseSessions reinstalls a preserved base index under a new worktree
// id and deletes the preserved file. Returns (nil, nil) when nothing was
// preserved for the project.
func (s *Store) RestoreBaseSessions(projectID, newWorktreeID string) (*WorktreeIndex, error) {
	path := s.IndexPath(newWorktreeID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	preserved := s.BaseIndexPath(projectID)
	var idx WorktreeIndex
	ok, err := readJSON(preserved, &idx)
	if err != nil {
		return nil, errors.E(errors.Op("storage.RestoreBaseSessions"), errors.KindIO,
			"failed to read preserved index for project "+projectID, err)
	}
	if !ok {
		logger.Debug("Storage: No preserved base sessions for project %s", projectID)
		return nil, nil
	}

	idx.WorktreeID = newWorktreeID
	if err := writeJSONAtomic(path, &idx); err != nil {
		return nil, errors.IndexSaveFailed(newWorktreeID, err)
	}
	if err := os.Remove(preserved); err != nil {
		logger.Warn("Storage: Failed to delete preserved index for project %s: %v", projectID, err)
	}
	logger.Debug("Storage: Restored %d base sessions for worktree %s", len(idx.Sessions), newWorktreeID)
	return &idx, nil
}
