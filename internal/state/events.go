package state

// Field names what part of the state a change event touched. Subscribers
// filter on it; the persistence layer uses it to tell durable fields from
// volatile ones.
type Field string

// Session-scoped fields.
const (
	FieldMessages        Field = "messages"
	FieldName            Field = "name"
	FieldArchived        Field = "archived_at"
	FieldClaudeSessionID Field = "claude_session_id"
	FieldModel           Field = "selected_model"
	FieldThinkingLevel   Field = "selected_thinking_level"
	FieldNamingCompleted Field = "session_naming_completed"
	FieldAnswers         Field = "answers"
	FieldFixedFindings   Field = "fixed_findings"
	FieldDenials         Field = "pending_permission_denials"
	FieldDeniedContext   Field = "denied_message_context"
	FieldReviewing       Field = "is_reviewing"
	FieldWaitingForInput Field = "waiting_for_input"
	FieldPlanApproved    Field = "approved_plan_message_ids"
	FieldCleared         Field = "cleared"

	// Volatile session fields, published for observers but never persisted.
	FieldToolCalls     Field = "tool_calls"
	FieldExecutionMode Field = "execution_mode"
	FieldQueue         Field = "queue"
	FieldSending       Field = "sending"
)

// Worktree-scoped fields.
const (
	FieldSessions            Field = "sessions"
	FieldActiveSession       Field = "active_session_id"
	FieldDefaultModel        Field = "default_model"
	FieldBranchNaming        Field = "branch_naming_completed"
	FieldLoaded              Field = "loaded"
	FieldReviewResults       Field = "review_results"
	FieldFixedReviewFindings Field = "fixed_review_findings"

	// Volatile worktree field.
	FieldReviewTab Field = "viewing_review_tab"
)

// UI-scoped fields.
const (
	FieldActiveWorktree   Field = "active_worktree_id"
	FieldActiveProject    Field = "active_project_id"
	FieldExpandedProjects Field = "expanded_projects"
	FieldExpandedFolders  Field = "expanded_folders"
	FieldSidebarWidth     Field = "sidebar_width"
	FieldActiveSessions   Field = "active_sessions"
	FieldPendingDigests   Field = "pending_digests"
)

// SessionChange reports a mutation of one session's state. WorktreeID is the
// owning worktree, so scoped subscribers can filter without a lookup.
type SessionChange struct {
	WorktreeID string
	SessionID  string
	Field      Field
}

// WorktreeChange reports a mutation of worktree-level state.
type WorktreeChange struct {
	WorktreeID string
	Field      Field
}

// UIChange reports a mutation of UI-scoped state.
type UIChange struct {
	Field Field
}
