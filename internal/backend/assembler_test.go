package backend

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/skeinhq/skein/internal/session"
)

func TestAssembler_CoalescesAdjacentText(t *testing.T) {
	a := NewAssembler()

	a.AppendText("sess-1", "Hello, ")
	a.AppendText("sess-1", "world")
	a.AppendToolUse("sess-1", "toolu_01")
	a.AppendText("sess-1", "Done.")

	blocks := a.Blocks("sess-1")
	if len(blocks) != 3 {
		t.Fatalf("Blocks() returned %d blocks, want 3", len(blocks))
	}
	if blocks[0].Type != session.BlockTypeText || blocks[0].Text != "Hello, world" {
		t.Errorf("blocks[0] = %+v, want text %q", blocks[0], "Hello, world")
	}
	if blocks[1].Type != session.BlockTypeToolUse || blocks[1].ToolUseID != "toolu_01" {
		t.Errorf("blocks[1] = %+v, want tool_use %q", blocks[1], "toolu_01")
	}
	if blocks[2].Type != session.BlockTypeText || blocks[2].Text != "Done." {
		t.Errorf("blocks[2] = %+v, want text %q", blocks[2], "Done.")
	}
}

func TestAssembler_ThinkingSeparateFromText(t *testing.T) {
	a := NewAssembler()

	a.AppendThinking("sess-1", "hmm")
	a.AppendText("sess-1", "answer")
	a.AppendThinking("sess-1", " more")

	blocks := a.Blocks("sess-1")
	if len(blocks) != 3 {
		t.Fatalf("Blocks() returned %d blocks, want 3", len(blocks))
	}
	if blocks[0].Type != session.BlockTypeThinking {
		t.Errorf("blocks[0].Type = %q, want thinking", blocks[0].Type)
	}
	if blocks[2].Type != session.BlockTypeThinking {
		t.Errorf("blocks[2].Type = %q, want thinking", blocks[2].Type)
	}
}

func TestAssembler_SkipsEmptyText(t *testing.T) {
	a := NewAssembler()

	a.AppendText("sess-1", "")
	a.AppendThinking("sess-1", "")

	if got := a.Len("sess-1"); got != 0 {
		t.Errorf("Len() = %d after empty appends, want 0", got)
	}
}

func TestAssembler_SessionsIndependent(t *testing.T) {
	a := NewAssembler()

	a.AppendText("sess-1", "one")
	a.AppendText("sess-2", "two")

	if got := a.Flatten("sess-1"); got != "one" {
		t.Errorf("Flatten(sess-1) = %q, want %q", got, "one")
	}
	if got := a.Flatten("sess-2"); got != "two" {
		t.Errorf("Flatten(sess-2) = %q, want %q", got, "two")
	}
}

func TestAssembler_Clear(t *testing.T) {
	a := NewAssembler()

	a.AppendText("sess-1", "partial")
	a.Clear("sess-1")

	if got := a.Len("sess-1"); got != 0 {
		t.Errorf("Len() = %d after Clear, want 0", got)
	}
	if got := a.Blocks("sess-1"); got != nil {
		t.Errorf("Blocks() = %v after Clear, want nil", got)
	}
}

func TestAssembler_BlocksReturnsCopy(t *testing.T) {
	a := NewAssembler()

	a.AppendText("sess-1", "abc")
	blocks := a.Blocks("sess-1")
	blocks[0].Text = "mutated"

	if got := a.Flatten("sess-1"); got != "abc" {
		t.Errorf("Flatten() = %q after mutating the returned slice, want %q", got, "abc")
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input string
		want  Provider
		ok    bool
	}{
		{"claude", ProviderClaude, true},
		{"Claude", ProviderClaude, true},
		{"GEMINI", ProviderGemini, true},
		{"codex", ProviderCodex, true},
		{"kimi", ProviderKimi, true},
		{"gpt", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseProvider(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseProvider(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProvider_DisplayName(t *testing.T) {
	tests := []struct {
		provider Provider
		want     string
	}{
		{ProviderClaude, "Claude (Anthropic)"},
		{ProviderGemini, "Gemini (Google)"},
		{ProviderCodex, "Codex (OpenAI)"},
		{ProviderKimi, "Kimi (Moonshot)"},
	}

	for _, tt := range tests {
		if got := tt.provider.DisplayName(); got != tt.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestDescribeToolInput(t *testing.T) {
	tests := []struct {
		name     string
		toolName string
		input    string
		want     string
	}{
		{
			name:     "read shortens path",
			toolName: "Read",
			input:    `{"file_path": "/home/user/project/main.go"}`,
			want:     "main.go",
		},
		{
			name:     "glob keeps short pattern",
			toolName: "Glob",
			input:    `{"pattern": "**/*.go"}`,
			want:     "**/*.go",
		},
		{
			name:     "bash keeps short command",
			toolName: "Bash",
			input:    `{"command": "ls -la"}`,
			want:     "ls -la",
		},
		{
			name:     "task description",
			toolName: "Task",
			input:    `{"description": "Investigate flaky test", "prompt": "long prompt here"}`,
			want:     "Investigate flaky test",
		},
		{
			name:     "unknown tool falls back to first string",
			toolName: "CustomTool",
			input:    `{"target": "something"}`,
			want:     "something",
		},
		{
			name:     "missing configured field",
			toolName: "Read",
			input:    `{"offset": 10}`,
			want:     "",
		},
		{
			name:     "empty input",
			toolName: "Read",
			input:    ``,
			want:     "",
		},
		{
			name:     "invalid json",
			toolName: "Read",
			input:    `{not json`,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeToolInput(tt.toolName, json.RawMessage(tt.input))
			if got != tt.want {
				t.Errorf("DescribeToolInput(%q, %s) = %q, want %q", tt.toolName, tt.input, got, tt.want)
			}
		})
	}
}

func TestDescribeToolInput_TruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", 100)
	input := json.RawMessage(`{"command": "` + long + `"}`)

	got := DescribeToolInput("Bash", input)
	if len(got) != 43 {
		t.Errorf("DescribeToolInput() length = %d, want 40 chars plus ellipsis", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("DescribeToolInput() = %q, want ellipsis suffix", got)
	}

	input = json.RawMessage(`{"pattern": "` + long + `"}`)
	got = DescribeToolInput("Grep", input)
	if len(got) != 33 {
		t.Errorf("DescribeToolInput() for Grep length = %d, want 30 chars plus ellipsis", len(got))
	}
}

func TestTruncateForLog(t *testing.T) {
	short := "short message"
	if got := TruncateForLog(short); got != short {
		t.Errorf("TruncateForLog(%q) = %q, want unchanged", short, got)
	}

	long := strings.Repeat("0123456789", 30)
	got := TruncateForLog(long)
	if len(got) != 203 {
		t.Errorf("TruncateForLog() length = %d, want 203", len(got))
	}
}
