// Package state holds the in-memory source of truth for every worktree's
// sessions plus the volatile per-session overlay (execution mode, live tool
// calls, queued messages) and UI-scoped state. The store is explicitly
// constructed, mutex-guarded, and publishes a change event after every
// mutation so persistence can observe without polling.
//
// All getters are total: unknown ids yield zero values and defaults rather
// than errors. All mutators are safe no-ops on unknown ids.
package state

import (
	"sync"

	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/queue"
	"github.com/skeinhq/skein/internal/session"
)

// sessionVolatile is the per-session state that never reaches disk.
type sessionVolatile struct {
	executionMode session.ExecutionMode
	toolCalls     []session.ToolCall
	queue         *queue.Queue
}

// Store is the session state store. One instance per process; the engine and
// both persistence synchronizers share it.
//
// A single mutex guards all fields. Each exported mutation takes the lock
// exactly once, so multi-field operations are atomic. Change events are
// published after the lock is released, which lets subscribers read back
// through the store without deadlocking.
type Store struct {
	mu sync.RWMutex

	// Durable-shaped truth: worktree id -> tree, session id -> owning worktree.
	worktrees map[string]*session.WorktreeSessions
	owners    map[string]string

	volatile map[string]*sessionVolatile
	sending  map[string]bool

	// Worktree-scoped review state. Results and fixed finding ids are
	// persisted in the UI record; the viewing tab is volatile.
	reviewResults       map[string]*session.ReviewResults
	fixedReviewFindings map[string][]string
	reviewTabs          map[string]bool

	ui UIState

	sessionChanges  *Topic[SessionChange]
	worktreeChanges *Topic[WorktreeChange]
	uiChanges       *Topic[UIChange]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		worktrees:           make(map[string]*session.WorktreeSessions),
		owners:              make(map[string]string),
		volatile:            make(map[string]*sessionVolatile),
		sending:             make(map[string]bool),
		reviewResults:       make(map[string]*session.ReviewResults),
		fixedReviewFindings: make(map[string][]string),
		reviewTabs:          make(map[string]bool),
		ui: UIState{
			ExpandedProjects: make(map[string]bool),
			ExpandedFolders:  make(map[string]bool),
			ActiveSessions:   make(map[string]string),
		},
		sessionChanges:  NewTopic[SessionChange](),
		worktreeChanges: NewTopic[WorktreeChange](),
		uiChanges:       NewTopic[UIChange](),
	}
}

// SessionChanges is the topic carrying per-session change events.
func (s *Store) SessionChanges() *Topic[SessionChange] { return s.sessionChanges }

// WorktreeChanges is the topic carrying worktree-level change events.
func (s *Store) WorktreeChanges() *Topic[WorktreeChange] { return s.worktreeChanges }

// UIChanges is the topic carrying UI-scoped change events.
func (s *Store) UIChanges() *Topic[UIChange] { return s.uiChanges }

func (s *Store) publishSession(worktreeID, sessionID string, f Field) {
	s.sessionChanges.Publish(SessionChange{WorktreeID: worktreeID, SessionID: sessionID, Field: f})
}

func (s *Store) publishWorktree(worktreeID string, f Field) {
	s.worktreeChanges.Publish(WorktreeChange{WorktreeID: worktreeID, Field: f})
}

func (s *Store) publishUI(f Field) {
	s.uiChanges.Publish(UIChange{Field: f})
}

// sessionLocked returns a pointer into the tree plus the owning worktree id.
// Caller holds s.mu.
func (s *Store) sessionLocked(sessionID string) (*session.Session, string) {
	wid, ok := s.owners[sessionID]
	if !ok {
		return nil, ""
	}
	ws := s.worktrees[wid]
	if ws == nil {
		return nil, ""
	}
	return ws.FindSession(sessionID), wid
}

// LoadWorktree installs a loaded worktree record as one batched mutation.
// Any previously held tree for the same worktree is replaced, and the
// session ownership index is rebuilt. Volatile per-session state survives a
// reload since it is keyed by session id.
func (s *Store) LoadWorktree(ws *session.WorktreeSessions) {
	if ws == nil || ws.WorktreeID == "" {
		return
	}
	cp := ws.Clone()
	s.mu.Lock()
	if old := s.worktrees[cp.WorktreeID]; old != nil {
		for i := range old.Sessions {
			delete(s.owners, old.Sessions[i].ID)
		}
	}
	s.worktrees[cp.WorktreeID] = cp
	for i := range cp.Sessions {
		s.owners[cp.Sessions[i].ID] = cp.WorktreeID
	}
	if cp.ActiveSessionID != "" {
		s.ui.ActiveSessions[cp.WorktreeID] = cp.ActiveSessionID
	}
	s.mu.Unlock()
	logger.Debug("State: Loaded worktree %s with %d sessions", cp.WorktreeID, len(cp.Sessions))
	s.publishWorktree(cp.WorktreeID, FieldLoaded)
}

// Worktree returns a deep copy of the worktree's tree, or nil when unknown.
func (s *Store) Worktree(worktreeID string) *session.WorktreeSessions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.worktrees[worktreeID].Clone()
}

// Session returns a deep copy of the session, if it exists anywhere.
func (s *Store) Session(sessionID string) (session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	if sess == nil {
		return session.Session{}, false
	}
	return sess.Clone(), true
}

// SessionWorktree returns the id of the worktree owning the session, or "".
func (s *Store) SessionWorktree(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owners[sessionID]
}

// AddSession appends a session to a worktree. Adding an id that already
// exists anywhere is a no-op, as is an unknown worktree.
func (s *Store) AddSession(worktreeID string, sess session.Session) {
	if sess.ID == "" {
		return
	}
	s.mu.Lock()
	ws := s.worktrees[worktreeID]
	if ws == nil {
		s.mu.Unlock()
		logger.Debug("State: AddSession ignored, unknown worktree %s", worktreeID)
		return
	}
	if _, taken := s.owners[sess.ID]; taken {
		s.mu.Unlock()
		logger.Debug("State: AddSession ignored, session %s already exists", sess.ID)
		return
	}
	ws.Sessions = append(ws.Sessions, sess.Clone())
	s.owners[sess.ID] = worktreeID
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldSessions)
}

// RemoveSession deletes a session and all its volatile state. When the
// removed session was active, the first remaining session becomes active.
func (s *Store) RemoveSession(sessionID string) {
	s.mu.Lock()
	wid, ok := s.owners[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}
	ws := s.worktrees[wid]
	for i := range ws.Sessions {
		if ws.Sessions[i].ID == sessionID {
			ws.Sessions = append(ws.Sessions[:i], ws.Sessions[i+1:]...)
			break
		}
	}
	delete(s.owners, sessionID)
	delete(s.volatile, sessionID)
	delete(s.sending, sessionID)
	activeChanged := false
	if ws.ActiveSessionID == sessionID {
		ws.ActiveSessionID = ""
		if len(ws.Sessions) > 0 {
			ws.ActiveSessionID = ws.Sessions[0].ID
		}
		s.ui.ActiveSessions[wid] = ws.ActiveSessionID
		activeChanged = true
	}
	s.mu.Unlock()
	s.publishWorktree(wid, FieldSessions)
	if activeChanged {
		s.publishWorktree(wid, FieldActiveSession)
		s.publishUI(FieldActiveSessions)
	}
}

// RenameSession sets the session's display name.
func (s *Store) RenameSession(sessionID, name string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.Name = name
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldName)
}

// ArchiveSession stamps the session archived at the given unix time. A
// non-positive time clears the stamp, unarchiving the session.
func (s *Store) ArchiveSession(sessionID string, at int64) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	if at > 0 {
		sess.ArchivedAt = &at
	} else {
		sess.ArchivedAt = nil
	}
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldArchived)
}

// SetActiveSession selects the worktree's active session. The session must
// belong to the worktree; an empty id clears the selection.
func (s *Store) SetActiveSession(worktreeID, sessionID string) {
	s.mu.Lock()
	ws := s.worktrees[worktreeID]
	if ws == nil {
		s.mu.Unlock()
		return
	}
	if sessionID != "" && s.owners[sessionID] != worktreeID {
		s.mu.Unlock()
		logger.Debug("State: SetActiveSession ignored, session %s not in worktree %s", sessionID, worktreeID)
		return
	}
	ws.ActiveSessionID = sessionID
	s.ui.ActiveSessions[worktreeID] = sessionID
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldActiveSession)
	s.publishUI(FieldActiveSessions)
}

// ActiveSession returns a deep copy of the worktree's active session.
func (s *Store) ActiveSession(worktreeID string) (session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws := s.worktrees[worktreeID]
	if ws == nil || ws.ActiveSessionID == "" {
		return session.Session{}, false
	}
	sess := ws.FindSession(ws.ActiveSessionID)
	if sess == nil {
		return session.Session{}, false
	}
	return sess.Clone(), true
}

// SetDefaultModel sets the model new sessions in the worktree start with.
func (s *Store) SetDefaultModel(worktreeID, model string) {
	s.mu.Lock()
	ws := s.worktrees[worktreeID]
	if ws == nil {
		s.mu.Unlock()
		return
	}
	ws.DefaultModel = model
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldDefaultModel)
}

// SetBranchNamingCompleted records that the worktree branch has been named.
func (s *Store) SetBranchNamingCompleted(worktreeID string, done bool) {
	s.mu.Lock()
	ws := s.worktrees[worktreeID]
	if ws == nil {
		s.mu.Unlock()
		return
	}
	ws.BranchNamingCompleted = done
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldBranchNaming)
}

// AppendMessage appends a chat message to the session's transcript and
// refreshes the cached message count. The message's session id is filled in
// when empty.
func (s *Store) AppendMessage(sessionID string, msg session.ChatMessage) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		logger.Debug("State: AppendMessage ignored, unknown session %s", sessionID)
		return
	}
	cp := msg.Clone()
	if cp.SessionID == "" {
		cp.SessionID = sessionID
	}
	sess.Messages = append(sess.Messages, cp)
	sess.MessageCount = len(sess.Messages)
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldMessages)
}

// SetMessageCancelled flags a message as cancelled mid-stream.
func (s *Store) SetMessageCancelled(sessionID, messageID string, cancelled bool) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	msg := sess.FindMessage(messageID)
	if msg == nil {
		s.mu.Unlock()
		return
	}
	msg.Cancelled = cancelled
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldMessages)
}

// MarkPlanApproved flags the message's plan as approved and records the
// message id on the session.
func (s *Store) MarkPlanApproved(sessionID, messageID string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	msg := sess.FindMessage(messageID)
	if msg == nil {
		s.mu.Unlock()
		logger.Debug("State: MarkPlanApproved ignored, unknown message %s", messageID)
		return
	}
	msg.PlanApproved = true
	if !contains(sess.ApprovedPlanMessageIDs, messageID) {
		sess.ApprovedPlanMessageIDs = append(sess.ApprovedPlanMessageIDs, messageID)
	}
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldPlanApproved)
}

// SetClaudeSessionID stores the backend conversation handle used to resume.
func (s *Store) SetClaudeSessionID(sessionID, claudeSessionID string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.ClaudeSessionID = claudeSessionID
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldClaudeSessionID)
}

// SetSelectedModel sets the session's model.
func (s *Store) SetSelectedModel(sessionID, model string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.SelectedModel = model
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldModel)
}

// SetSelectedThinkingLevel sets the session's thinking level, normalizing
// unknown values to off.
func (s *Store) SetSelectedThinkingLevel(sessionID string, level session.ThinkingLevel) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.SelectedThinkingLevel = level.Normalize()
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldThinkingLevel)
}

// SetSessionNamingCompleted records that auto-naming has run for the session.
func (s *Store) SetSessionNamingCompleted(sessionID string, done bool) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.SessionNamingCompleted = done
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldNamingCompleted)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
