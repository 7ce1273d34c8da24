package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skeinhq/skein/internal/session"
	"github.com/skeinhq/skein/internal/storage"
)

func TestTruncateCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits exactly", "hello", 5, "hello"},
		{"fits with room", "hi", 10, "hi"},
		{"ascii truncated", "hello world", 8, "hello..."},
		{"wide runes truncated", "日本語のセッション", 10, "日本語..."},
		{"wide rune never split", "あいう", 4, "あ..."},
		{"tiny width keeps one cell", "abcdef", 3, "a..."},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateCell(tt.input, tt.width)
			if got != tt.expected {
				t.Errorf("truncateCell(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestTruncateCell_KeepsCombiningMarks(t *testing.T) {
	// The accent is a separate rune but the same grapheme cluster; a cut
	// must never strand it.
	s := "e\u0301abcdef"
	got := truncateCell(s, 4)
	if got != "e\u0301..." {
		t.Errorf("truncateCell(%q, 4) = %q, want %q", s, got, "e\u0301...")
	}
}

func TestPadCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"pads short", "ab", 5, "ab   "},
		{"exact width unchanged", "abcde", 5, "abcde"},
		{"overlong unchanged", "abcdef", 5, "abcdef"},
		{"wide runes counted as two cells", "日本", 6, "日本  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padCell(tt.input, tt.width)
			if got != tt.expected {
				t.Errorf("padCell(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine(single) = %q", got)
	}
	if got := firstLine("first\nsecond\nthird"); got != "first" {
		t.Errorf("firstLine(multi) = %q", got)
	}
	if got := firstLine("\nbody"); got != "" {
		t.Errorf("firstLine(leading newline) = %q", got)
	}
}

func TestSortMetadata(t *testing.T) {
	meta := func(id, worktreeID string, order int, name string) *storage.SessionMetadata {
		return &storage.SessionMetadata{
			Session:    session.Session{ID: id, Name: name, Order: order},
			WorktreeID: worktreeID,
		}
	}
	metas := []*storage.SessionMetadata{
		meta("d", "wt-b", 0, "Session 1"),
		meta("c", "wt-a", 2, "Session 3"),
		meta("a", "wt-a", 1, "Alpha"),
		meta("b", "wt-a", 1, "Beta"),
	}

	sortMetadata(metas)

	var ids []string
	for _, m := range metas {
		ids = append(ids, m.ID)
	}
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("sorted ids = %v, want %v", ids, want)
		}
	}
}

func TestMessageCount(t *testing.T) {
	// The index caches a count so lists render without transcripts; a loaded
	// transcript wins over the cache.
	cached := &storage.SessionMetadata{Session: session.Session{MessageCount: 7}}
	if got := messageCount(cached); got != 7 {
		t.Errorf("messageCount(cached) = %d, want 7", got)
	}

	loaded := &storage.SessionMetadata{Session: session.Session{
		MessageCount: 9,
		Messages: []session.ChatMessage{
			{Role: session.RoleUser, Content: "hi"},
			{Role: session.RoleAssistant, Content: "hello"},
		},
	}}
	if got := messageCount(loaded); got != 2 {
		t.Errorf("messageCount(loaded) = %d, want 2", got)
	}
}

func TestRenderSessionTable(t *testing.T) {
	archivedAt := time.Now().Unix()
	metas := []*storage.SessionMetadata{
		{
			Session:    session.Session{ID: "sess-1", Name: "auth bugfix", MessageCount: 4},
			WorktreeID: "wt-1",
		},
		{
			Session: session.Session{
				ID:         "sess-2",
				Name:       "a very long session name that will not fit the column",
				ArchivedAt: &archivedAt,
			},
			WorktreeID: "wt-2",
		},
	}

	out := renderSessionTable(metas)
	lines := strings.Split(out, "\n")

	for _, label := range []string{"NAME", "WORKTREE", "MSGS", "STATUS", "ID"} {
		if !strings.Contains(lines[0], label) {
			t.Errorf("header missing %q: %q", label, lines[0])
		}
	}
	if !strings.Contains(out, "auth bugfix") {
		t.Errorf("output missing session name:\n%s", out)
	}
	if !strings.Contains(out, "sess-1") || !strings.Contains(out, "sess-2") {
		t.Errorf("output missing session ids:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("overlong name not truncated:\n%s", out)
	}
	if strings.Contains(out, "a very long session name that will not fit") {
		t.Errorf("overlong name rendered in full:\n%s", out)
	}
	if !strings.Contains(out, "archived") {
		t.Errorf("archived status missing:\n%s", out)
	}
	if !strings.Contains(out, "2 session(s)") {
		t.Errorf("count footer missing:\n%s", out)
	}
}

func TestRenderSessionDetail(t *testing.T) {
	meta := &storage.SessionMetadata{
		Session: session.Session{
			ID:                    "sess-1",
			Name:                  "auth bugfix",
			CreatedAt:             time.Date(2025, 3, 1, 10, 30, 0, 0, time.Local).Unix(),
			SelectedModel:         "opus",
			SelectedThinkingLevel: session.ThinkingMegathink,
			Messages: []session.ChatMessage{
				{
					Role:      session.RoleUser,
					Content:   "fix the login flow\nplease be careful",
					Timestamp: time.Date(2025, 3, 1, 10, 31, 0, 0, time.Local).UnixMilli(),
				},
				{
					Role:      session.RoleAssistant,
					Content:   "Done. The session cookie was truncated.",
					Timestamp: time.Date(2025, 3, 1, 10, 32, 0, 0, time.Local).UnixMilli(),
					ToolCalls: []session.ToolCall{
						{ID: "tc-1", Name: "Read", Input: []byte(`{"file_path":"/src/auth/login.go"}`)},
						{ID: "tc-2", Name: "TodoWrite"},
					},
				},
			},
		},
		WorktreeID: "wt-1",
	}

	out := renderSessionDetail(meta)

	for _, want := range []string{
		"Name:     auth bugfix",
		"ID:       sess-1",
		"Worktree: wt-1",
		"Model:    opus",
		"Thinking: megathink",
		"Messages: 2",
		"[10:31:00]",
		"fix the login flow",
		"Read(login.go)",
		"TodoWrite",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "please be careful") {
		t.Errorf("detail rendered past the first line:\n%s", out)
	}
	if strings.Contains(out, "Archived:") {
		t.Errorf("unarchived session rendered an archive stamp:\n%s", out)
	}
}

func TestRenderSessionDetail_Archived(t *testing.T) {
	archivedAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.Local).Unix()
	meta := &storage.SessionMetadata{
		Session: session.Session{
			ID:         "sess-1",
			Name:       "old work",
			CreatedAt:  time.Date(2025, 3, 1, 10, 30, 0, 0, time.Local).Unix(),
			ArchivedAt: &archivedAt,
		},
		WorktreeID: "wt-1",
	}

	out := renderSessionDetail(meta)
	if !strings.Contains(out, "Archived: 2025-03-02 09:00") {
		t.Errorf("archive stamp missing:\n%s", out)
	}
}

func TestLoadAllMetadata(t *testing.T) {
	dataDir := t.TempDir()
	records := storage.NewStore(dataDir)

	ws := session.NewWorktreeSessions("wt-1")
	if err := records.SaveSessions(ws); err != nil {
		t.Fatalf("saving worktree: %v", err)
	}
	other := session.New("other work", 0)
	if err := records.SaveSessionMetadata(storage.NewSessionMetadata(other, "wt-2")); err != nil {
		t.Fatalf("saving metadata: %v", err)
	}

	// A corrupt record is skipped with a warning, not fatal.
	badDir := filepath.Join(dataDir, "sessions", "data", "bad-session")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatalf("creating corrupt dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "metadata.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing corrupt record: %v", err)
	}

	metas, err := loadAllMetadata(records)
	if err != nil {
		t.Fatalf("loadAllMetadata: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("loaded %d records, want 2", len(metas))
	}

	worktrees := map[string]bool{}
	for _, m := range metas {
		worktrees[m.WorktreeID] = true
	}
	if !worktrees["wt-1"] || !worktrees["wt-2"] {
		t.Errorf("loaded worktrees = %v", worktrees)
	}
}
