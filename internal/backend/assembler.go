package backend

import (
	"sync"

	"github.com/skeinhq/skein/internal/session"
)

// Assembler accumulates streamed chunks into ordered content block lists,
// one per session. Text chunks extend the trailing text block; thinking and
// tool_use chunks always start a new block, so a finished list never holds
// two consecutive text blocks. Sessions are created implicitly on first
// append.
type Assembler struct {
	mu     sync.Mutex
	blocks map[string][]session.ContentBlock
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		blocks: make(map[string][]session.ContentBlock),
	}
}

// AppendText adds streamed text, coalescing with the trailing text block.
func (a *Assembler) AppendText(sessionID, text string) {
	if text == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocks[sessionID] = session.AppendText(a.blocks[sessionID], text)
}

// AppendThinking adds a thinking block. Thinking never merges with
// neighboring blocks.
func (a *Assembler) AppendThinking(sessionID, text string) {
	if text == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocks[sessionID] = append(a.blocks[sessionID], session.ThinkingBlock(text))
}

// AppendToolUse adds a tool_use marker block referencing a ToolCall.
func (a *Assembler) AppendToolUse(sessionID, toolUseID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocks[sessionID] = append(a.blocks[sessionID], session.ToolUseBlock(toolUseID))
}

// Blocks returns a copy of the session's accumulated blocks.
func (a *Assembler) Blocks(sessionID string) []session.ContentBlock {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]session.ContentBlock(nil), a.blocks[sessionID]...)
}

// Flatten concatenates the session's text blocks.
func (a *Assembler) Flatten(sessionID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return session.FlattenBlocks(a.blocks[sessionID])
}

// Len returns the session's current block count.
func (a *Assembler) Len(sessionID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks[sessionID])
}

// Clear drops the session's partial blocks, typically after they have been
// finalized into a message or the stream was cancelled.
func (a *Assembler) Clear(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blocks, sessionID)
}
