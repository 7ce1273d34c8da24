package state

import (
	"github.com/skeinhq/skein/internal/session"
)

// MarkQuestionAnswered records that the question tool call has been answered
// and stores the answer text. Resubmitting overwrites the stored answer; the
// answered predicate stays true.
func (s *Store) MarkQuestionAnswered(sessionID, toolUseID, answer string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	if !contains(sess.AnsweredQuestions, toolUseID) {
		sess.AnsweredQuestions = append(sess.AnsweredQuestions, toolUseID)
	}
	if sess.SubmittedAnswers == nil {
		sess.SubmittedAnswers = make(map[string]string)
	}
	sess.SubmittedAnswers[toolUseID] = answer
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldAnswers)
}

// IsQuestionAnswered reports whether the question tool call was answered.
func (s *Store) IsQuestionAnswered(sessionID, toolUseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	return sess != nil && contains(sess.AnsweredQuestions, toolUseID)
}

// SubmittedAnswer returns the stored answer text, "" when none.
func (s *Store) SubmittedAnswer(sessionID, toolUseID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	if sess == nil {
		return ""
	}
	return sess.SubmittedAnswers[toolUseID]
}

// SetPendingDenials replaces the session's pending permission denial list.
func (s *Store) SetPendingDenials(sessionID string, denials []session.PermissionDenial) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.PendingPermissionDenials = append([]session.PermissionDenial(nil), denials...)
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldDenials)
}

// PendingDenials returns a copy of the session's pending denial list.
func (s *Store) PendingDenials(sessionID string) []session.PermissionDenial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	if sess == nil {
		return nil
	}
	return append([]session.PermissionDenial(nil), sess.PendingPermissionDenials...)
}

// ClearPendingDenials drops the session's pending denial list.
func (s *Store) ClearPendingDenials(sessionID string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil || len(sess.PendingPermissionDenials) == 0 {
		s.mu.Unlock()
		return
	}
	sess.PendingPermissionDenials = nil
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldDenials)
}

// SetDeniedMessageContext stores the text of the message being retried after
// permission denials, "" to clear.
func (s *Store) SetDeniedMessageContext(sessionID, text string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.DeniedMessageContext = text
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldDeniedContext)
}

// DeniedMessageContext returns the stored retry context, "" when none.
func (s *Store) DeniedMessageContext(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	if sess == nil {
		return ""
	}
	return sess.DeniedMessageContext
}

// MarkFindingFixed records a review finding as fixed from this session.
func (s *Store) MarkFindingFixed(sessionID, findingID string) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil || contains(sess.FixedFindings, findingID) {
		s.mu.Unlock()
		return
	}
	sess.FixedFindings = append(sess.FixedFindings, findingID)
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldFixedFindings)
}

// IsFindingFixed reports whether the finding was fixed from this session.
func (s *Store) IsFindingFixed(sessionID, findingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	return sess != nil && contains(sess.FixedFindings, findingID)
}

// FixedFindings returns a copy of the session's fixed finding ids.
func (s *Store) FixedFindings(sessionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	if sess == nil {
		return nil
	}
	return append([]string(nil), sess.FixedFindings...)
}

// SetReviewing flags the session as running a code review.
func (s *Store) SetReviewing(sessionID string, reviewing bool) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.IsReviewing = reviewing
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldReviewing)
}

// IsReviewing reports whether the session is running a code review.
func (s *Store) IsReviewing(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	return sess != nil && sess.IsReviewing
}

// SetWaitingForInput flags the session as blocked on a user response.
func (s *Store) SetWaitingForInput(sessionID string, waiting bool) {
	s.mu.Lock()
	sess, wid := s.sessionLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.WaitingForInput = waiting
	s.mu.Unlock()
	s.publishSession(wid, sessionID, FieldWaitingForInput)
}

// IsWaitingForInput reports whether the session is blocked on a user
// response.
func (s *Store) IsWaitingForInput(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, _ := s.sessionLocked(sessionID)
	return sess != nil && sess.WaitingForInput
}

// SetReviewResults installs the worktree's review results. Non-nil results
// force the review tab open; nil clears the results and resets the tab.
func (s *Store) SetReviewResults(worktreeID string, results *session.ReviewResults) {
	s.mu.Lock()
	if results == nil {
		delete(s.reviewResults, worktreeID)
		s.reviewTabs[worktreeID] = false
	} else {
		s.reviewResults[worktreeID] = results.Clone()
		s.reviewTabs[worktreeID] = true
	}
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldReviewResults)
	s.publishWorktree(worktreeID, FieldReviewTab)
}

// ReviewResults returns a copy of the worktree's review results, nil when
// none are stored.
func (s *Store) ReviewResults(worktreeID string) *session.ReviewResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviewResults[worktreeID].Clone()
}

// SetViewingReviewTab toggles the worktree's review tab.
func (s *Store) SetViewingReviewTab(worktreeID string, viewing bool) {
	s.mu.Lock()
	s.reviewTabs[worktreeID] = viewing
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldReviewTab)
}

// ViewingReviewTab reports whether the worktree's review tab is open.
func (s *Store) ViewingReviewTab(worktreeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviewTabs[worktreeID]
}

// MarkReviewFindingFixed records a finding id as fixed at the worktree
// level.
func (s *Store) MarkReviewFindingFixed(worktreeID, findingID string) {
	s.mu.Lock()
	if contains(s.fixedReviewFindings[worktreeID], findingID) {
		s.mu.Unlock()
		return
	}
	s.fixedReviewFindings[worktreeID] = append(s.fixedReviewFindings[worktreeID], findingID)
	s.mu.Unlock()
	s.publishWorktree(worktreeID, FieldFixedReviewFindings)
}

// FixedReviewFindings returns a copy of the worktree's fixed finding ids.
func (s *Store) FixedReviewFindings(worktreeID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.fixedReviewFindings[worktreeID]...)
}
