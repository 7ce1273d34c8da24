package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/queue"
	"github.com/skeinhq/skein/internal/session"
)

// volatileLocked returns the session's volatile overlay, creating it on first
// touch. Caller holds s.mu.
func (s *Store) volatileLocked(sessionID string) *sessionVolatile {
	v := s.volatile[sessionID]
	if v == nil {
		v = &sessionVolatile{
			executionMode: session.DefaultExecutionMode,
			queue:         queue.New(),
		}
		s.volatile[sessionID] = v
	}
	return v
}

// AddSendingSession marks a session as having an in-flight backend stream.
func (s *Store) AddSendingSession(sessionID string) {
	s.mu.Lock()
	s.sending[sessionID] = true
	wid := s.owners[sessionID]
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldSending)
}

// RemoveSendingSession clears the in-flight mark.
func (s *Store) RemoveSendingSession(sessionID string) {
	s.mu.Lock()
	delete(s.sending, sessionID)
	wid := s.owners[sessionID]
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldSending)
}

// IsSending reports whether the session has an in-flight stream.
func (s *Store) IsSending(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending[sessionID]
}

// IsWorktreeRunning reports whether the worktree's active session is sending.
func (s *Store) IsWorktreeRunning(worktreeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws := s.worktrees[worktreeID]
	if ws == nil || ws.ActiveSessionID == "" {
		return false
	}
	return s.sending[ws.ActiveSessionID]
}

// AddToolCall registers a live tool call. Re-adding an id the session
// already holds is a no-op.
func (s *Store) AddToolCall(sessionID string, tc session.ToolCall) {
	if tc.ID == "" {
		return
	}
	s.mu.Lock()
	v := s.volatileLocked(sessionID)
	for i := range v.toolCalls {
		if v.toolCalls[i].ID == tc.ID {
			s.mu.Unlock()
			logger.Debug("State: AddToolCall ignored, duplicate id %s", tc.ID)
			return
		}
	}
	v.toolCalls = append(v.toolCalls, tc)
	wid := s.owners[sessionID]
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldToolCalls)
}

// UpdateToolCallOutput attaches output to a live tool call. Unknown ids are
// a no-op.
func (s *Store) UpdateToolCallOutput(sessionID, toolCallID, output string) {
	s.mu.Lock()
	v := s.volatile[sessionID]
	if v == nil {
		s.mu.Unlock()
		return
	}
	found := false
	for i := range v.toolCalls {
		if v.toolCalls[i].ID == toolCallID {
			v.toolCalls[i].Output = output
			found = true
			break
		}
	}
	wid := s.owners[sessionID]
	s.mu.Unlock()
	if found {
		s.publishSession(wid, sessionID, FieldToolCalls)
	}
}

// ToolCalls returns a copy of the session's live tool calls in arrival order.
func (s *Store) ToolCalls(sessionID string) []session.ToolCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.volatile[sessionID]
	if v == nil {
		return nil
	}
	return append([]session.ToolCall(nil), v.toolCalls...)
}

// ClearToolCalls drops the session's live tool calls, typically after they
// have been folded into a finalized message.
func (s *Store) ClearToolCalls(sessionID string) {
	s.mu.Lock()
	v := s.volatile[sessionID]
	if v != nil {
		v.toolCalls = nil
	}
	wid := s.owners[sessionID]
	s.mu.Unlock()
	if v != nil {
		s.publishSession(wid, sessionID, FieldToolCalls)
	}
}

// ExecutionMode returns the session's current mode, plan by default.
func (s *Store) ExecutionMode(sessionID string) session.ExecutionMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.volatile[sessionID]
	if v == nil {
		return session.DefaultExecutionMode
	}
	return v.executionMode
}

// SetExecutionMode sets the session's mode. Entering yolo clears the
// session's pending permission denials; plan and build transitions leave
// them alone.
func (s *Store) SetExecutionMode(sessionID string, mode session.ExecutionMode) {
	s.mu.Lock()
	wid, deniedCleared := s.applyModeLocked(sessionID, mode.Normalize())
	s.mu.Unlock()
	s.publishMode(wid, sessionID, deniedCleared)
}

// CycleExecutionMode advances plan -> build -> yolo -> plan and returns the
// new mode.
func (s *Store) CycleExecutionMode(sessionID string) session.ExecutionMode {
	s.mu.Lock()
	next := s.volatileLocked(sessionID).executionMode.Next()
	wid, deniedCleared := s.applyModeLocked(sessionID, next)
	s.mu.Unlock()
	s.publishMode(wid, sessionID, deniedCleared)
	return next
}

// applyModeLocked sets the mode and performs the yolo denial sweep. Caller
// holds s.mu.
func (s *Store) applyModeLocked(sessionID string, mode session.ExecutionMode) (wid string, deniedCleared bool) {
	s.volatileLocked(sessionID).executionMode = mode
	sess, wid := s.sessionLocked(sessionID)
	if mode == session.ModeYolo && sess != nil && len(sess.PendingPermissionDenials) > 0 {
		sess.PendingPermissionDenials = nil
		deniedCleared = true
	}
	return wid, deniedCleared
}

func (s *Store) publishMode(wid, sessionID string, deniedCleared bool) {
	s.publishSession(wid, sessionID, FieldExecutionMode)
	if deniedCleared {
		logger.Debug("State: Cleared pending denials for session %s on yolo", sessionID)
		s.publishSession(wid, sessionID, FieldDenials)
	}
}

// EnqueueMessage appends to the session's message queue, stamping a fresh id
// and enqueue time when the caller left them empty. The stored message is
// returned.
func (s *Store) EnqueueMessage(sessionID string, msg session.QueuedMessage) session.QueuedMessage {
	cp := msg.Clone()
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	if cp.QueuedAt == 0 {
		cp.QueuedAt = time.Now().UnixMilli()
	}
	s.mu.Lock()
	s.volatileLocked(sessionID).queue.Enqueue(cp)
	wid := s.owners[sessionID]
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldQueue)
	return cp
}

// DequeueMessage pops the head of the session's queue.
func (s *Store) DequeueMessage(sessionID string) (session.QueuedMessage, bool) {
	s.mu.Lock()
	v := s.volatile[sessionID]
	if v == nil {
		s.mu.Unlock()
		return session.QueuedMessage{}, false
	}
	msg, ok := v.queue.Dequeue()
	wid := s.owners[sessionID]
	s.mu.Unlock()
	if ok {
		s.publishSession(wid, sessionID, FieldQueue)
	}
	return msg, ok
}

// RemoveQueuedMessage deletes a queued message by id, preserving the order
// of the rest.
func (s *Store) RemoveQueuedMessage(sessionID, messageID string) {
	s.mu.Lock()
	v := s.volatile[sessionID]
	removed := v != nil && v.queue.Remove(messageID)
	wid := s.owners[sessionID]
	s.mu.Unlock()
	if removed {
		s.publishSession(wid, sessionID, FieldQueue)
	}
}

// ClearQueue drops all of the session's queued messages.
func (s *Store) ClearQueue(sessionID string) {
	s.mu.Lock()
	v := s.volatile[sessionID]
	had := v != nil && v.queue.Len() > 0
	if v != nil {
		v.queue.Clear()
	}
	wid := s.owners[sessionID]
	s.mu.Unlock()
	if had {
		s.publishSession(wid, sessionID, FieldQueue)
	}
}

// QueuedMessages returns a copy of the session's queue in FIFO order.
func (s *Store) QueuedMessages(sessionID string) []session.QueuedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.volatile[sessionID]
	if v == nil {
		return nil
	}
	return v.queue.Items()
}

// QueuedMessageCount returns the session's queue length.
func (s *Store) QueuedMessageCount(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.volatile[sessionID]
	if v == nil {
		return 0
	}
	return v.queue.Len()
}

// ClearSessionState atomically resets all session-scoped state: live tool
// calls, answered questions, submitted answers, fixed findings, plan
// approvals, pending denials, denied message context, reviewing and waiting
// flags, the manual thinking override, execution mode, and the message
// queue. The transcript, ids, and other sessions are untouched.
func (s *Store) ClearSessionState(sessionID string) {
	s.mu.Lock()
	delete(s.volatile, sessionID)
	delete(s.sending, sessionID)
	sess, wid := s.sessionLocked(sessionID)
	if sess != nil {
		sess.AnsweredQuestions = nil
		sess.SubmittedAnswers = nil
		sess.FixedFindings = nil
		sess.ApprovedPlanMessageIDs = nil
		sess.PendingPermissionDenials = nil
		sess.DeniedMessageContext = ""
		sess.IsReviewing = false
		sess.WaitingForInput = false
		sess.SelectedThinkingLevel = ""
	}
	s.mu.Unlock()
	logger.Debug("State: Cleared session state for %s", sessionID)
	s.publishSession(wid, sessionID, FieldCleared)
}
