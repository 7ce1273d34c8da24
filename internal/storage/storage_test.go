package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skeinhq/skein/internal/session"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"worktree-123", "worktree-123"},
		{"feature_branch", "feature_branch"},
		{"a/b/c", "a-b-c"},
		{"../../etc/passwd", "------etc-passwd"},
		{"name with spaces", "name-with-spaces"},
		{"émoji🎉", "émoji-"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPaths_StayInsideRecordsDir(t *testing.T) {
	s := NewStore("/records")

	for _, id := range []string{"../escape", "a/b", "..", "normal"} {
		for _, path := range []string{s.IndexPath(id), s.MetadataPath(id), s.BaseIndexPath(id)} {
			rel, err := filepath.Rel("/records", path)
			if err != nil || strings.HasPrefix(rel, "..") {
				t.Errorf("path for id %q escapes the records dir: %s", id, path)
			}
		}
	}
}

func TestWriteFileAtomic_NoPartialFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "record.json")

	if err := writeFileAtomic(path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("writeFileAtomic() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "record.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory after write = %v, want only record.json", names)
	}

	data, _ := os.ReadFile(path)
	if string(data) != `{"ok":true}` {
		t.Errorf("file content = %s", data)
	}
}

func TestLoadIndex_MissingCreatesDefault(t *testing.T) {
	s := NewStore(t.TempDir())

	idx, err := s.LoadIndex("wt-1")
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if idx.WorktreeID != "wt-1" || idx.Version != 1 {
		t.Errorf("default index = %+v, want worktree wt-1 version 1", idx)
	}
	if len(idx.Sessions) != 1 || idx.Sessions[0].Name != "Session 1" {
		t.Errorf("default sessions = %+v, want one entry named Session 1", idx.Sessions)
	}
	if idx.ActiveSessionID != idx.Sessions[0].ID {
		t.Error("default index active session does not point at the default entry")
	}

	// The default is written back so later scans see the worktree.
	if _, err := os.Stat(s.IndexPath("wt-1")); err != nil {
		t.Errorf("default index not persisted: %v", err)
	}
}

func TestSaveSessions_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	ws := session.NewWorktreeSessions("wt-1")
	ws.Sessions[0].Messages = append(ws.Sessions[0].Messages,
		session.NewUserMessage(ws.Sessions[0].ID, "hello"))
	ws.Sessions[0].MessageCount = 1
	ws.DefaultModel = "opus"

	if err := s.SaveSessions(ws); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}

	got, err := s.LoadSessions("wt-1")
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if got.WorktreeID != "wt-1" || got.DefaultModel != "opus" {
		t.Errorf("loaded tree = %+v", got)
	}
	if len(got.Sessions) != 1 {
		t.Fatalf("loaded %d sessions, want 1", len(got.Sessions))
	}
	sess := got.Sessions[0]
	if len(sess.Messages) != 1 || sess.Messages[0].Content != "hello" {
		t.Errorf("transcript did not survive the round trip: %+v", sess.Messages)
	}
	if got.ActiveSessionID != sess.ID {
		t.Errorf("ActiveSessionID = %q, want %q", got.ActiveSessionID, sess.ID)
	}
}

func TestSaveSessions_DropsDeletedFromIndex(t *testing.T) {
	s := NewStore(t.TempDir())

	ws := session.NewWorktreeSessions("wt-1")
	second := session.New("Session 2", 1)
	ws.Sessions = append(ws.Sessions, second)
	if err := s.SaveSessions(ws); err != nil {
		t.Fatal(err)
	}

	// Delete the second session from the tree and save again.
	ws.Sessions = ws.Sessions[:1]
	if err := s.SaveSessions(ws); err != nil {
		t.Fatal(err)
	}

	idx, err := s.LoadIndex("wt-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Sessions) != 1 || idx.Sessions[0].ID != ws.Sessions[0].ID {
		t.Errorf("index entries = %+v, want only the surviving session", idx.Sessions)
	}
}

func TestLoadSessions_MissingMetadataRebuildsFromIndex(t *testing.T) {
	s := NewStore(t.TempDir())

	at := int64(1700000000)
	idx := &WorktreeIndex{
		WorktreeID: "wt-1",
		Sessions: []SessionIndexEntry{
			{ID: "sess-a", Name: "Recovered", Order: 3, MessageCount: 7, ArchivedAt: &at},
		},
		ActiveSessionID: "sess-a",
		Version:         1,
	}
	if err := s.SaveIndex(idx); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadSessions("wt-1")
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if len(got.Sessions) != 1 {
		t.Fatalf("loaded %d sessions, want 1", len(got.Sessions))
	}
	sess := got.Sessions[0]
	if sess.ID != "sess-a" || sess.Name != "Recovered" || sess.Order != 3 {
		t.Errorf("rebuilt session = %+v", sess)
	}
	if sess.MessageCount != 7 {
		t.Errorf("MessageCount = %d, want 7", sess.MessageCount)
	}
	if sess.ArchivedAt == nil || *sess.ArchivedAt != at {
		t.Errorf("ArchivedAt = %v, want %d", sess.ArchivedAt, at)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("rebuilt session has %d messages, want none", len(sess.Messages))
	}
}

func TestLoadSessionMetadata_IsReviewingAbsentDecodesFalse(t *testing.T) {
	s := NewStore(t.TempDir())

	raw := []byte(`{"id":"sess-a","worktree_id":"wt-1","name":"Session 1","order":0,"created_at":1700000000,"messages":[],"version":1}`)
	path := s.MetadataPath("sess-a")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := s.LoadSessionMetadata("sess-a")
	if err != nil {
		t.Fatalf("LoadSessionMetadata() error = %v", err)
	}
	if meta == nil {
		t.Fatal("LoadSessionMetadata() = nil for existing record")
	}
	if meta.IsReviewing {
		t.Error("is_reviewing absent decoded to true")
	}
	if meta.WaitingForInput {
		t.Error("waiting_for_input absent decoded to true")
	}
	if meta.WorktreeID != "wt-1" || meta.Version != 1 {
		t.Errorf("metadata envelope = worktree %q version %d", meta.WorktreeID, meta.Version)
	}
}

func TestDeleteSessionData_AndOrphanScan(t *testing.T) {
	s := NewStore(t.TempDir())

	ws := session.NewWorktreeSessions("wt-1")
	if err := s.SaveSessions(ws); err != nil {
		t.Fatal(err)
	}

	// A session with metadata but no index reference is an orphan.
	orphan := NewSessionMetadata(session.New("stray", 0), "wt-gone")
	if err := s.SaveSessionMetadata(orphan); err != nil {
		t.Fatal(err)
	}

	ids, err := s.ListSessionIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("ListSessionIDs() = %v, want 2 entries", ids)
	}

	orphans, err := s.FindOrphanedSessionData()
	if err != nil {
		t.Fatalf("FindOrphanedSessionData() error = %v", err)
	}
	if len(orphans) != 1 || orphans[0] != orphan.ID {
		t.Errorf("orphans = %v, want [%s]", orphans, orphan.ID)
	}

	if err := s.DeleteSessionData(orphan.ID); err != nil {
		t.Fatalf("DeleteSessionData() error = %v", err)
	}
	orphans, err = s.FindOrphanedSessionData()
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 0 {
		t.Errorf("orphans after delete = %v, want none", orphans)
	}
}

func TestPreserveAndRestoreBaseSessions(t *testing.T) {
	s := NewStore(t.TempDir())

	ws := session.NewWorktreeSessions("wt-base-old")
	if err := s.SaveSessions(ws); err != nil {
		t.Fatal(err)
	}

	if err := s.PreserveBaseSessions("wt-base-old", "proj-1"); err != nil {
		t.Fatalf("PreserveBaseSessions() error = %v", err)
	}
	if _, err := os.Stat(s.IndexPath("wt-base-old")); !os.IsNotExist(err) {
		t.Error("old index still present after preserve")
	}

	idx, err := s.RestoreBaseSessions("proj-1", "wt-base-new")
	if err != nil {
		t.Fatalf("RestoreBaseSessions() error = %v", err)
	}
	if idx == nil {
		t.Fatal("RestoreBaseSessions() = nil, want restored index")
	}
	if idx.WorktreeID != "wt-base-new" {
		t.Errorf("restored worktree id = %q, want wt-base-new", idx.WorktreeID)
	}
	if len(idx.Sessions) != 1 || idx.Sessions[0].ID != ws.Sessions[0].ID {
		t.Errorf("restored entries = %+v", idx.Sessions)
	}
	if _, err := os.Stat(s.BaseIndexPath("proj-1")); !os.IsNotExist(err) {
		t.Error("preserved file still present after restore")
	}

	// Restoring again finds nothing.
	again, err := s.RestoreBaseSessions("proj-1", "wt-base-newer")
	if err != nil || again != nil {
		t.Errorf("second restore = (%v, %v), want (nil, nil)", again, err)
	}
}

func TestPreserveBaseSessions_MissingIndexIsNoOp(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.PreserveBaseSessions("wt-none", "proj-1"); err != nil {
		t.Errorf("PreserveBaseSessions() error = %v, want nil", err)
	}
}

func TestUIStateRecord_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	empty, err := s.LoadUIState()
	if err != nil {
		t.Fatalf("LoadUIState() on fresh dir error = %v", err)
	}
	if empty == nil || empty.Version != 0 {
		t.Errorf("fresh UI state = %+v, want empty record", empty)
	}

	rec := &UIStateRecord{
		ActiveWorktreeID: "wt-1",
		ExpandedProjects: []string{"proj-1"},
		SidebarWidth:     280,
		ActiveSessions:   map[string]string{"wt-1": "sess-1"},
		ReviewResults: map[string]*session.ReviewResults{
			"wt-1": {Findings: []session.ReviewFinding{{ID: "f1", File: "a.go", Summary: "x"}}},
		},
		PendingDigests: []string{"sess-2"},
		Version:        3,
	}
	if err := s.SaveUIState(rec); err != nil {
		t.Fatalf("SaveUIState() error = %v", err)
	}

	got, err := s.LoadUIState()
	if err != nil {
		t.Fatal(err)
	}
	if got.ActiveWorktreeID != "wt-1" || got.SidebarWidth != 280 || got.Version != 3 {
		t.Errorf("loaded record = %+v", got)
	}
	if got.ActiveSessions["wt-1"] != "sess-1" {
		t.Errorf("active sessions = %v", got.ActiveSessions)
	}
	if rr := got.ReviewResults["wt-1"]; rr == nil || len(rr.Findings) != 1 {
		t.Errorf("review results = %+v", got.ReviewResults)
	}
}
