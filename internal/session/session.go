package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one AI conversation bound to a worktree. The zero value of
// every optional field is its in-memory default; records written to disk may
// omit any of them.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	CreatedAt int64  `json:"created_at"` // unix seconds

	Messages []ChatMessage `json:"messages"`
	// MessageCount caches len(Messages) in the worktree index so session
	// lists render without loading transcripts.
	MessageCount int `json:"message_count,omitempty"`

	// ClaudeSessionID is the backend conversation handle used to resume.
	ClaudeSessionID string `json:"claude_session_id,omitempty"`

	SelectedModel         string        `json:"selected_model,omitempty"`
	SelectedThinkingLevel ThinkingLevel `json:"selected_thinking_level,omitempty"`

	SessionNamingCompleted bool   `json:"session_naming_completed,omitempty"`
	ArchivedAt             *int64 `json:"archived_at,omitempty"` // unix seconds

	AnsweredQuestions []string          `json:"answered_questions,omitempty"`
	SubmittedAnswers  map[string]string `json:"submitted_answers,omitempty"`
	FixedFindings     []string          `json:"fixed_findings,omitempty"`

	PendingPermissionDenials []PermissionDenial `json:"pending_permission_denials,omitempty"`
	DeniedMessageContext     string             `json:"denied_message_context,omitempty"`

	IsReviewing     bool `json:"is_reviewing,omitempty"`
	WaitingForInput bool `json:"waiting_for_input,omitempty"`

	ApprovedPlanMessageIDs []string `json:"approved_plan_message_ids,omitempty"`
}

// New creates a session with a fresh UUID and creation time.
func New(name string, order int) Session {
	return Session{
		ID:        uuid.New().String(),
		Name:      name,
		Order:     order,
		CreatedAt: time.Now().Unix(),
	}
}

// Archived reports whether the session has been archived.
func (s *Session) Archived() bool {
	return s.ArchivedAt != nil
}

// FindMessage returns a pointer to the message with the given id, or nil.
func (s *Session) FindMessage(id string) *ChatMessage {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand across the store boundary.
func (s *Session) Clone() Session {
	out := *s
	if s.ArchivedAt != nil {
		at := *s.ArchivedAt
		out.ArchivedAt = &at
	}
	out.Messages = make([]ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.Clone()
	}
	out.AnsweredQuestions = append([]string(nil), s.AnsweredQuestions...)
	if s.SubmittedAnswers != nil {
		out.SubmittedAnswers = make(map[string]string, len(s.SubmittedAnswers))
		for k, v := range s.SubmittedAnswers {
			out.SubmittedAnswers[k] = v
		}
	}
	out.FixedFindings = append([]string(nil), s.FixedFindings...)
	out.PendingPermissionDenials = append([]PermissionDenial(nil), s.PendingPermissionDenials...)
	out.ApprovedPlanMessageIDs = append([]string(nil), s.ApprovedPlanMessageIDs...)
	return out
}

// WorktreeSessions is the ordered session list of one worktree plus its
// selection state. Session ids are globally unique: a session appears in
// exactly one WorktreeSessions.
type WorktreeSessions struct {
	WorktreeID      string    `json:"worktree_id"`
	Sessions        []Session `json:"sessions"`
	ActiveSessionID string    `json:"active_session_id,omitempty"`
	DefaultModel    string    `json:"default_model,omitempty"`
	Version         int       `json:"version"`
	// BranchNamingCompleted records that the worktree branch has been
	// auto-named from its first prompt.
	BranchNamingCompleted bool `json:"branch_naming_completed,omitempty"`
}

// CurrentVersion is the record schema version written by this engine.
const CurrentVersion = 1

// defaultSessionPrefix is the name stem for auto-created sessions.
const defaultSessionPrefix = "Session "

// NewWorktreeSessions builds the state for a fresh worktree: one default
// session, active, version 1.
func NewWorktreeSessions(worktreeID string) *WorktreeSessions {
	first := New(defaultSessionPrefix+"1", 0)
	return &WorktreeSessions{
		WorktreeID:      worktreeID,
		Sessions:        []Session{first},
		ActiveSessionID: first.ID,
		Version:         CurrentVersion,
	}
}

// FindSession returns a pointer to the session with the given id, or nil.
func (w *WorktreeSessions) FindSession(id string) *Session {
	for i := range w.Sessions {
		if w.Sessions[i].ID == id {
			return &w.Sessions[i]
		}
	}
	return nil
}

// NextSessionNumber returns 1 + the highest N among names "Session N", so a
// newly created session never collides with an existing default name.
func (w *WorktreeSessions) NextSessionNumber() int {
	max := 0
	for i := range w.Sessions {
		rest, ok := strings.CutPrefix(w.Sessions[i].Name, defaultSessionPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// NextSessionName returns the default name for the next created session.
func (w *WorktreeSessions) NextSessionName() string {
	return fmt.Sprintf("%s%d", defaultSessionPrefix, w.NextSessionNumber())
}

// Clone returns a deep copy safe to hand across the store boundary.
func (w *WorktreeSessions) Clone() *WorktreeSessions {
	if w == nil {
		return nil
	}
	out := *w
	out.Sessions = make([]Session, len(w.Sessions))
	for i := range w.Sessions {
		out.Sessions[i] = w.Sessions[i].Clone()
	}
	return &out
}
