// Package persist keeps the in-memory stores and the JSON records on disk in
// sync. Two synchronizers subscribe to store change events: one follows the
// active worktree's session tree, the other follows UI state and per-worktree
// review results. Both coalesce bursts of changes into a single trailing-edge
// write, skip writes when nothing changed since the last one, and suppress
// the echo of their own loads. Persistence failures are logged, never raised.
package persist

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/session"
	"github.com/skeinhq/skein/internal/state"
)

const (
	// DefaultSaveDelay is how long a synchronizer waits after the last
	// change before writing.
	DefaultSaveDelay = 500 * time.Millisecond

	// DefaultLoadGrace suppresses save triggers for a short window after a
	// load, so installing freshly loaded state never writes it back out.
	DefaultLoadGrace = 100 * time.Millisecond
)

// durableSessionFields are the session-scoped changes that reach disk. Tool
// calls, execution mode, the queue, and sending flags are per-run state and
// stay in memory.
var durableSessionFields = map[state.Field]bool{
	state.FieldMessages:        true,
	state.FieldName:            true,
	state.FieldArchived:        true,
	state.FieldClaudeSessionID: true,
	state.FieldModel:           true,
	state.FieldThinkingLevel:   true,
	state.FieldNamingCompleted: true,
	state.FieldAnswers:         true,
	state.FieldFixedFindings:   true,
	state.FieldDenials:         true,
	state.FieldDeniedContext:   true,
	state.FieldReviewing:       true,
	state.FieldWaitingForInput: true,
	state.FieldPlanApproved:    true,
	state.FieldCleared:         true,
}

// durableWorktreeFields are the worktree-scoped changes the session record
// carries. Review results live in the UI record and belong to the UI
// synchronizer.
var durableWorktreeFields = map[state.Field]bool{
	state.FieldSessions:      true,
	state.FieldActiveSession: true,
	state.FieldDefaultModel:  true,
	state.FieldBranchNaming:  true,
}

// SessionRecords is the slice of the record store the session synchronizer
// needs.
type SessionRecords interface {
	LoadSessions(worktreeID string) (*session.WorktreeSessions, error)
	SaveSessions(ws *session.WorktreeSessions) error
}

// SessionSynchronizer binds one worktree's session tree to its records on
// disk. Start loads the tree into the store and begins observing; durable
// changes schedule a debounced save of a full snapshot. Stop drops any
// pending save; callers that need the trailing write call Flush first.
type SessionSynchronizer struct {
	store   *state.Store
	records SessionRecords

	saveDelay time.Duration
	loadGrace time.Duration

	mu         sync.Mutex
	worktreeID string
	loading    bool
	gen        uint64
	deb        *Debouncer
	graceTimer *time.Timer
	unsub      []func()
	lastSaved  []byte
}

// NewSessionSynchronizer returns a synchronizer with the default delays. It
// observes nothing until Start.
func NewSessionSynchronizer(store *state.Store, records SessionRecords) *SessionSynchronizer {
	return &SessionSynchronizer{
		store:     store,
		records:   records,
		saveDelay: DefaultSaveDelay,
		loadGrace: DefaultLoadGrace,
	}
}

// Start activates the synchronizer for worktreeID: any previous worktree is
// detached, the new worktree's sessions are loaded into the store, and
// observation begins. Saves stay suppressed until the load grace elapses.
func (s *SessionSynchronizer) Start(worktreeID string) {
	if worktreeID == "" {
		return
	}

	s.mu.Lock()
	s.stopLocked()
	s.gen++
	gen := s.gen
	s.worktreeID = worktreeID
	s.loading = true
	s.deb = NewDebouncer(s.saveDelay, s.saveNow)
	s.unsub = []func(){
		s.store.SessionChanges().Subscribe(s.onSessionChange),
		s.store.WorktreeChanges().Subscribe(s.onWorktreeChange),
	}
	s.mu.Unlock()

	ws, err := s.records.LoadSessions(worktreeID)
	if err != nil || ws == nil {
		if err != nil {
			logger.Warn("SessionSync: Loading worktree %s failed, starting fresh: %v", worktreeID, err)
		}
		ws = session.NewWorktreeSessions(worktreeID)
	}
	s.store.LoadWorktree(ws)

	// Seed the dirty check from the installed tree so the first trigger
	// after the grace window does not rewrite identical state.
	if snapshot := s.store.Worktree(worktreeID); snapshot != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			s.mu.Lock()
			if s.gen == gen {
				s.lastSaved = data
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	if s.gen == gen {
		s.graceTimer = time.AfterFunc(s.loadGrace, func() { s.endLoading(gen) })
	}
	s.mu.Unlock()

	logger.Debug("SessionSync: Started for worktree %s with %d sessions", worktreeID, len(ws.Sessions))
}

// Stop detaches the synchronizer from the store and drops any pending save.
func (s *SessionSynchronizer) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// Flush writes a pending debounced save immediately. Idle is a no-op.
func (s *SessionSynchronizer) Flush() {
	s.mu.Lock()
	deb := s.deb
	s.mu.Unlock()
	if deb != nil {
		deb.Flush()
	}
}

// WorktreeID returns the worktree this synchronizer is bound to, "" when
// stopped.
func (s *SessionSynchronizer) WorktreeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worktreeID
}

func (s *SessionSynchronizer) stopLocked() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
	if s.deb != nil {
		s.deb.Cancel()
		s.deb = nil
	}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	// Invalidate in-flight timer callbacks from this activation.
	s.gen++
	s.worktreeID = ""
	s.loading = false
	s.lastSaved = nil
}

func (s *SessionSynchronizer) endLoading(gen uint64) {
	s.mu.Lock()
	if s.gen == gen && s.loading {
		s.loading = false
		logger.Debug("SessionSync: Load grace elapsed for worktree %s, saves enabled", s.worktreeID)
	}
	s.mu.Unlock()
}

func (s *SessionSynchronizer) onSessionChange(ev state.SessionChange) {
	if !durableSessionFields[ev.Field] {
		return
	}
	s.maybeSchedule(ev.WorktreeID)
}

func (s *SessionSynchronizer) onWorktreeChange(ev state.WorktreeChange) {
	if !durableWorktreeFields[ev.Field] {
		return
	}
	s.maybeSchedule(ev.WorktreeID)
}

func (s *SessionSynchronizer) maybeSchedule(worktreeID string) {
	s.mu.Lock()
	deb := s.deb
	ok := s.worktreeID != "" && s.worktreeID == worktreeID && !s.loading
	s.mu.Unlock()
	if ok && deb != nil {
		deb.Schedule()
	}
}

// saveNow snapshots the worktree and writes it, skipping the write when the
// snapshot matches the last one saved. Runs on the debounce timer goroutine
// or a Flush caller.
func (s *SessionSynchronizer) saveNow() {
	s.mu.Lock()
	wid := s.worktreeID
	gen := s.gen
	s.mu.Unlock()
	if wid == "" {
		return
	}

	snapshot := s.store.Worktree(wid)
	if snapshot == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("SessionSync: Marshal of worktree %s failed: %v", wid, err)
		return
	}

	s.mu.Lock()
	unchanged := s.gen == gen && bytes.Equal(data, s.lastSaved)
	s.mu.Unlock()
	if unchanged {
		logger.Debug("SessionSync: Worktree %s unchanged, skipping save", wid)
		return
	}

	if err := s.records.SaveSessions(snapshot); err != nil {
		logger.Error("SessionSync: Saving worktree %s failed: %v", wid, err)
		return
	}

	s.mu.Lock()
	if s.gen == gen {
		s.lastSaved = data
	}
	s.mu.Unlock()
	logger.Debug("SessionSync: Saved %d sessions for worktree %s", len(snapshot.Sessions), wid)
}
