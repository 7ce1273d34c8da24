package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UsageStats carries token accounting reported by the backend for one
// assistant message.
type UsageStats struct {
	InputTokens              int `json:"input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// ToolCall records one tool invocation within a message. The id is unique
// per session; re-registering a known id is a no-op at the store layer.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
	// Output is filled in when the matching tool_result arrives.
	Output string `json:"output,omitempty"`
	// ParentToolUseID is set when the call was emitted by a delegated
	// sub-task rather than the top-level conversation.
	ParentToolUseID string `json:"parent_tool_use_id,omitempty"`
}

// ParsedInput decodes the raw input into the typed union for this tool name.
func (tc *ToolCall) ParsedInput() ToolInput {
	return DecodeToolInput(tc.Name, tc.Input)
}

// PermissionDenial records one tool invocation the user declined. Denials
// accumulate per session and are cleared wholesale when the session enters
// yolo mode.
type PermissionDenial struct {
	ToolName  string          `json:"tool_name"`
	ToolUseID string          `json:"tool_use_id"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`
}

// ChatMessage is one entry in a session transcript.
type ChatMessage struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
	// Content is the flattened text. When ContentBlocks is present the
	// blocks are authoritative and Content approximates their text
	// concatenation, best-effort.
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds

	ToolCalls     []ToolCall     `json:"tool_calls,omitempty"`
	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`

	Cancelled    bool        `json:"cancelled,omitempty"`
	PlanApproved bool        `json:"plan_approved,omitempty"`
	Usage        *UsageStats `json:"usage,omitempty"`
}

// NewUserMessage builds a user message with a fresh id and timestamp.
func NewUserMessage(sessionID, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewAssistantMessage builds an assistant message from assembled blocks.
// Content is derived by flattening the text blocks.
func NewAssistantMessage(sessionID string, blocks []ContentBlock, toolCalls []ToolCall) ChatMessage {
	return ChatMessage{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		Role:          RoleAssistant,
		Content:       FlattenBlocks(blocks),
		Timestamp:     time.Now().UnixMilli(),
		ToolCalls:     toolCalls,
		ContentBlocks: blocks,
	}
}

// Clone returns a deep copy safe to hand across the store boundary.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	out.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	out.ContentBlocks = append([]ContentBlock(nil), m.ContentBlocks...)
	if m.Usage != nil {
		u := *m.Usage
		out.Usage = &u
	}
	return out
}

// FindToolCall returns a pointer to the call with the given id, or nil.
func (m *ChatMessage) FindToolCall(id string) *ToolCall {
	for i := range m.ToolCalls {
		if m.ToolCalls[i].ID == id {
			return &m.ToolCalls[i]
		}
	}
	return nil
}
