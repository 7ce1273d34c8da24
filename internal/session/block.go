package session

// BlockType discriminates content block variants.
type BlockType string

const (
	BlockTypeText     BlockType = "text"
	BlockTypeToolUse  BlockType = "tool_use"
	BlockTypeThinking BlockType = "thinking"
)

// ContentBlock is one ordered piece of an assistant message. When a message
// carries blocks they are the rendering source of truth; the flattened
// content string is derived from them.
type ContentBlock struct {
	Type BlockType `json:"type"`
	// Text carries the body for text and thinking blocks.
	Text string `json:"text,omitempty"`
	// ToolUseID links a tool_use block to its ToolCall.
	ToolUseID string `json:"tool_use_id,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// ThinkingBlock returns a thinking content block.
func ThinkingBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeThinking, Text: text}
}

// ToolUseBlock returns a tool_use content block.
func ToolUseBlock(toolUseID string) ContentBlock {
	return ContentBlock{Type: BlockTypeToolUse, ToolUseID: toolUseID}
}

// AppendText appends text to a block list, extending the trailing text block
// when there is one so the list never holds two consecutive text blocks.
func AppendText(blocks []ContentBlock, text string) []ContentBlock {
	if n := len(blocks); n > 0 && blocks[n-1].Type == BlockTypeText {
		blocks[n-1].Text += text
		return blocks
	}
	return append(blocks, TextBlock(text))
}

// FlattenBlocks concatenates the text blocks of a block list. Thinking and
// tool_use blocks contribute nothing.
func FlattenBlocks(blocks []ContentBlock) string {
	var out string
	for _, b := range blocks {
		if b.Type == BlockTypeText {
			out += b.Text
		}
	}
	return out
}
