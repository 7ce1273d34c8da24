// Package backend defines the stream vocabulary shared with AI CLI
// backends and assembles their interleaved chunks into ordered content
// blocks. The engine never spawns backend processes; it only folds the
// events a host application feeds it.
package backend

import (
	"encoding/json"

	"github.com/skeinhq/skein/internal/session"
)

// ChunkType identifies what kind of content a ResponseChunk carries.
type ChunkType string

const (
	// ChunkTypeText is assistant prose.
	ChunkTypeText ChunkType = "text"
	// ChunkTypeThinking is extended-thinking content.
	ChunkTypeThinking ChunkType = "thinking"
	// ChunkTypeToolUse announces a tool invocation.
	ChunkTypeToolUse ChunkType = "tool_use"
	// ChunkTypeToolResult reports a finished tool invocation.
	ChunkTypeToolResult ChunkType = "tool_result"
)

// ResponseChunk is a piece of streaming response from a backend.
type ResponseChunk struct {
	Type    ChunkType
	Content string

	// Tool fields, set for tool_use and tool_result chunks.
	ToolUseID  string
	ToolName   string
	ToolInput  json.RawMessage
	ToolOutput string
	// ParentToolUseID is set when a delegated sub-task emitted the chunk.
	ParentToolUseID string

	// Usage arrives with the final chunk of a turn.
	Usage *session.UsageStats

	Done  bool
	Error error
}
