// Package storage reads and writes the engine's durable records: per-worktree
// session indexes, per-session metadata, and the UI-state record. All records
// are snake_case JSON with every field optional on read.
//
// Layout under the records dir:
//
//	sessions/index/{worktree_id}.json      worktree index
//	sessions/index/base-{project_id}.json  preserved base-worktree index
//	sessions/data/{session_id}/metadata.json
//	ui/state.json
//
// Writes are atomic (temp file + rename) under a per-path mutex and an
// advisory file lock, so a crash mid-save never leaves a torn record.
package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/skeinhq/skein/internal/logger"
)

// Store is the durable record layer rooted at one directory.
type Store struct {
	dir string

	// locksMu guards locks; each record path gets its own mutex so writes
	// to different records don't serialize.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates a record store rooted at dir. The directory tree is
// created lazily on first write.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Dir returns the records root directory.
func (s *Store) Dir() string { return s.dir }

// pathLock returns the mutex serializing access to one record path.
func (s *Store) pathLock(path string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu := s.locks[path]
	if mu == nil {
		mu = &sync.Mutex{}
		s.locks[path] = mu
	}
	return mu
}

func (s *Store) indexDir() string {
	return filepath.Join(s.dir, "sessions", "index")
}

func (s *Store) dataDir() string {
	return filepath.Join(s.dir, "sessions", "data")
}

// IndexPath returns the index file path for a worktree.
func (s *Store) IndexPath(worktreeID string) string {
	return filepath.Join(s.indexDir(), sanitizeFilename(worktreeID)+".json")
}

// BaseIndexPath returns the preserved index path for a project's closed base
// worktree.
func (s *Store) BaseIndexPath(projectID string) string {
	return filepath.Join(s.indexDir(), "base-"+sanitizeFilename(projectID)+".json")
}

// MetadataPath returns the metadata file path for a session.
func (s *Store) MetadataPath(sessionID string) string {
	return filepath.Join(s.dataDir(), sanitizeFilename(sessionID), "metadata.json")
}

// UIStatePath returns the UI-state record path.
func (s *Store) UIStatePath() string {
	return filepath.Join(s.dir, "ui", "state.json")
}

// removeSessionDir deletes a session's data directory.
func (s *Store) removeSessionDir(sessionID string) error {
	dir := filepath.Join(s.dataDir(), sanitizeFilename(sessionID))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	logger.Debug("Storage: Deleting session data dir %s", dir)
	return os.RemoveAll(dir)
}
