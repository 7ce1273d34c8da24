package storage

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/skeinhq/skein/internal/errors"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/session"
)

// SessionMetadata is the full per-session record: the session itself plus
// its owning worktree and the record schema version.
type SessionMetadata struct {
	session.Session
	WorktreeID string `json:"worktree_id"`
	Version    int    `json:"version"`
}

// NewSessionMetadata wraps a session into its metadata record.
func NewSessionMetadata(sess session.Session, worktreeID string) *SessionMetadata {
	return &SessionMetadata{
		Session:    sess.Clone(),
		WorktreeID: worktreeID,
		Version:    session.CurrentVersion,
	}
}

// LoadSessionMetadata reads a session's metadata record. A missing record
// yields (nil, nil).
func (s *Store) LoadSessionMetadata(sessionID string) (*SessionMetadata, error) {
	path := s.MetadataPath(sessionID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	var meta SessionMetadata
	ok, err := readJSON(path, &meta)
	if err != nil {
		return nil, errors.MetadataLoadFailed(sessionID, err)
	}
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

// SaveSessionMetadata writes a session's metadata record.
func (s *Store) SaveSessionMetadata(meta *SessionMetadata) error {
	path := s.MetadataPath(meta.ID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	if meta.Version == 0 {
		meta.Version = session.CurrentVersion
	}
	if err := writeJSONAtomic(path, meta); err != nil {
		return errors.MetadataSaveFailed(meta.ID, err)
	}
	return nil
}

// LoadSessions joins a worktree's index with each session's metadata into
// the in-memory tree. Sessions whose metadata is missing or unreadable are
// rebuilt minimally from their index entry.
func (s *Store) LoadSessions(worktreeID string) (*session.WorktreeSessions, error) {
	idx, err := s.LoadIndex(worktreeID)
	if err != nil {
		return nil, err
	}

	ws := &session.WorktreeSessions{
		WorktreeID:            idx.WorktreeID,
		Sessions:              make([]session.Session, 0, len(idx.Sessions)),
		ActiveSessionID:       idx.ActiveSessionID,
		DefaultModel:          idx.DefaultModel,
		Version:               idx.Version,
		BranchNamingCompleted: idx.BranchNamingCompleted,
	}
	for _, entry := range idx.Sessions {
		meta, err := s.LoadSessionMetadata(entry.ID)
		if err != nil {
			logger.Warn("Storage: Metadata for session %s unreadable, rebuilding from index: %v", entry.ID, err)
		}
		if meta == nil {
			ws.Sessions = append(ws.Sessions, sessionFromEntry(entry))
			continue
		}
		ws.Sessions = append(ws.Sessions, meta.Session.Clone())
	}
	return ws, nil
}

// sessionFromEntry builds a minimal session when only the index row exists.
func sessionFromEntry(e SessionIndexEntry) session.Session {
	sess := session.Session{
		ID:           e.ID,
		Name:         e.Name,
		Order:        e.Order,
		CreatedAt:    time.Now().Unix(),
		MessageCount: e.MessageCount,
	}
	if e.ArchivedAt != nil {
		at := *e.ArchivedAt
		sess.ArchivedAt = &at
	}
	return sess
}

// SaveSessions writes a worktree's tree back to disk: the index is updated
// in place (entries added, refreshed, and dropped to match the tree) and
// each session's metadata record is rewritten.
func (s *Store) SaveSessions(ws *session.WorktreeSessions) error {
	if ws == nil || ws.WorktreeID == "" {
		return nil
	}

	err := s.withIndex(ws.WorktreeID, func(idx *WorktreeIndex) {
		idx.ActiveSessionID = ws.ActiveSessionID
		idx.DefaultModel = ws.DefaultModel
		idx.BranchNamingCompleted = ws.BranchNamingCompleted
		if ws.Version > idx.Version {
			idx.Version = ws.Version
		}

		inUse := make(map[string]bool, len(ws.Sessions))
		for i := range ws.Sessions {
			sess := &ws.Sessions[i]
			inUse[sess.ID] = true
			if entry := idx.FindEntry(sess.ID); entry != nil {
				*entry = entryFromSession(sess)
			} else {
				idx.Sessions = append(idx.Sessions, entryFromSession(sess))
			}
		}
		kept := idx.Sessions[:0]
		for _, e := range idx.Sessions {
			if inUse[e.ID] {
				kept = append(kept, e)
			}
		}
		idx.Sessions = kept
	})
	if err != nil {
		return err
	}

	for i := range ws.Sessions {
		meta := NewSessionMetadata(ws.Sessions[i], ws.WorktreeID)
		if err := s.SaveSessionMetadata(meta); err != nil {
			return err
		}
	}
	logger.Debug("Storage: Saved %d sessions for worktree %s", len(ws.Sessions), ws.WorktreeID)
	return nil
}

// DeleteSessionData removes a session's data directory, metadata included.
func (s *Store) DeleteSessionData(sessionID string) error {
	path := s.MetadataPath(sessionID)
	mu := s.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	if err := s.removeSessionDir(sessionID); err != nil {
		return errors.E(errors.Op("storage.DeleteSessionData"), errors.KindIO, "failed to delete data for session "+sessionID, err)
	}
	return nil
}

// ListSessionIDs scans the data directory for sessions that have a metadata
// record, sorted for stable output.
func (s *Store) ListSessionIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(s.dataDir(), entry.Name(), "metadata.json")
		if _, err := os.Stat(metaPath); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FindOrphanedSessionData lists session data directories that no index
// references, preserved base indexes included. Used by the clean command.
// An unreadable index aborts the scan rather than misreporting its sessions
// as orphans.
func (s *Store) FindOrphanedSessionData() ([]string, error) {
	ids, err := s.ListSessionIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	referenced := make(map[string]bool)
	indexFiles, err := filepath.Glob(filepath.Join(s.indexDir(), "*.json"))
	if err != nil {
		return nil, err
	}
	for _, path := range indexFiles {
		var idx WorktreeIndex
		if _, err := readJSON(path, &idx); err != nil {
			return nil, errors.IndexLoadFailed(filepath.Base(path), err)
		}
		for _, e := range idx.Sessions {
			// Data dirs are named with sanitized ids; compare like with like.
			referenced[sanitizeFilename(e.ID)] = true
		}
	}

	var orphans []string
	for _, id := range ids {
		if !referenced[id] {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}
