package storage

import (
	"github.com/skeinhq/skein/internal/errors"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/session"
)

// SessionIndexEntry is the slim per-session row in a worktree index, enough
// to render a session list without loading transcripts.
type SessionIndexEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Order        int    `json:"order"`
	MessageCount int    `json:"message_count"`
	ArchivedAt   *int64 `json:"archived_at,omitempty"`
}

// WorktreeIndex is the durable index record for one worktree.
type WorktreeIndex struct {
	WorktreeID            string              `json:"worktree_id"`
	Sessions              []SessionIndexEntry `json:"sessions"`
	ActiveSessionID       string              `json:"active_session_id,omitempty"`
	DefaultModel          string              `json:"default_model,omitempty"`
	Version               int                 `json:"version"`
	BranchNamingCompleted bool                `json:"branch_naming_completed,omitempty"`
}

// FindEntry returns a pointer to the entry with the given id, or nil.
func (idx *WorktreeIndex) FindEntry(id string) *SessionIndexEntry {
	for i := range idx.Sessions {
		if idx.Sessions[i].ID == id {
			return &idx.Sessions[i]
		}
	}
	return nil
}

// NewWorktreeIndex builds the index for a fresh worktree: one default
// session entry, active, version 1.
func NewWorktreeIndex(worktreeID string) *WorktreeIndex {
	return indexFromTree(session.NewWorktreeSessions(worktreeID))
}

// indexFromTree projects a worktree session tree onto its index record.
func indexFromTree(ws *session.WorktreeSessions) *WorktreeIndex {
	idx := &WorktreeIndex{
		WorktreeID:            ws.WorktreeID,
		Sessions:              make([]SessionIndexEntry, 0, len(ws.Sessions)),
		ActiveSessionID:       ws.ActiveSessionID,
		DefaultModel:          ws.DefaultModel,
		Version:               ws.Version,
		BranchNamingCompleted: ws.BranchNamingCompleted,
	}
	if idx.Version == 0 {
		idx.Version = session.CurrentVersion
	}
	for i := range ws.Sessions {
		idx.Sessions = append(idx.Sessions, entryFromSession(&ws.Sessions[i]))
	}
	return idx
}

func entryFromSession(sess *session.Session) SessionIndexEntry {
	e := SessionIndexEntry{
		ID:           sess.ID,
		Name:         sess.Name,
		Order:        sess.Order,
		MessageCount: sess.MessageCount,
	}
	if sess.MessageCount == 0 {
		e.MessageCount = len(sess.Messages)
	}
	if sess.ArchivedAt != nil {
		at := *sess.ArchivedAt
		e.ArchivedAt = &at
	}
	return e
}

// readIndex reads an index record without locking or default creation.
func (s *Store) readIndex(worktreeID string) (*WorktreeIndex, bool, error) {
	var idx WorktreeIndex
	ok, err := readJSON(s.IndexPath(worktreeID), &idx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &idx, true, nil
}

// LoadIndex loads a worktree's index. A missing record yields a fresh
// default index, which is written back so later scans see the worktree.
func (s *Store) LoadIndex(worktreeID string) (*WorktreeIndex, error) {
	path := s.IndexPath(worktreeID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	idx, ok, err := s.readIndex(worktreeID)
	if err != nil {
		return nil, errors.IndexLoadFailed(worktreeID, err)
	}
	if !ok {
		logger.Debug("Storage: No index for worktree %s, creating default", worktreeID)
		idx = NewWorktreeIndex(worktreeID)
		if err := writeJSONAtomic(path, idx); err != nil {
			return nil, errors.IndexSaveFailed(worktreeID, err)
		}
	}
	return idx, nil
}

// SaveIndex writes a worktree's index record.
func (s *Store) SaveIndex(idx *WorktreeIndex) error {
	path := s.IndexPath(idx.WorktreeID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	if err := writeJSONAtomic(path, idx); err != nil {
		return errors.IndexSaveFailed(idx.WorktreeID, err)
	}
	return nil
}

// withIndex atomically loads, mutates, and writes back a worktree's index,
// holding its path lock for the whole read-modify-write.
func (s *Store) withIndex(worktreeID string, fn func(*WorktreeIndex)) error {
	path := s.IndexPath(worktreeID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	idx, ok, err := s.readIndex(worktreeID)
	if err != nil {
		return errors.IndexLoadFailed(worktreeID, err)
	}
	if !ok {
		idx = NewWorktreeIndex(worktreeID)
	}
	fn(idx)
	if err := writeJSONAtomic(path, idx); err != nil {
		return errors.IndexSaveFailed(worktreeID, err)
	}
	return nil
}
