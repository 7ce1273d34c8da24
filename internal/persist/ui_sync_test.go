package persist

import (
	"sync"
	"testing"
	"time"

	"github.com/skeinhq/skein/internal/session"
	"github.com/skeinhq/skein/internal/state"
	"github.com/skeinhq/skein/internal/storage"
)

type fakeUIRecords struct {
	mu     sync.Mutex
	loaded *storage.UIStateRecord
	saves  []*storage.UIStateRecord
}

func (f *fakeUIRecords) LoadUIState() (*storage.UIStateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded != nil {
		return f.loaded, nil
	}
	return &storage.UIStateRecord{}, nil
}

func (f *fakeUIRecords) SaveUIState(rec *storage.UIStateRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, rec)
	return nil
}

func (f *fakeUIRecords) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeUIRecords) lastSave() *storage.UIStateRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func startedUISync(t *testing.T, records *fakeUIRecords) (*state.Store, *UISynchronizer) {
	t.Helper()
	store := state.NewStore()
	syncer := NewUISynchronizer(store, records)
	syncer.saveDelay = 20 * time.Millisecond
	syncer.loadGrace = 10 * time.Millisecond
	syncer.Start()
	t.Cleanup(syncer.Stop)
	time.Sleep(40 * time.Millisecond)
	return store, syncer
}

func TestUISync_LoadInstallsRecordWithoutSaving(t *testing.T) {
	records := &fakeUIRecords{loaded: &storage.UIStateRecord{
		ActiveWorktreeID: "wt-1",
		ExpandedProjects: []string{"proj-1"},
		SidebarWidth:     260,
		ReviewResults: map[string]*session.ReviewResults{
			"wt-1": {Findings: []session.ReviewFinding{{ID: "f1", File: "a.go", Summary: "x"}}},
		},
		FixedReviewFindings: map[string][]string{"wt-1": {"f0"}},
		Version:             7,
	}}

	store, _ := startedUISync(t, records)

	if got := store.ActiveWorktree(); got != "wt-1" {
		t.Errorf("ActiveWorktree() = %q, want wt-1", got)
	}
	if !store.IsProjectExpanded("proj-1") {
		t.Error("expanded project list did not survive the load")
	}
	if got := store.SidebarWidth(); got != 260 {
		t.Errorf("SidebarWidth() = %d, want 260", got)
	}
	if rr := store.ReviewResults("wt-1"); rr == nil || len(rr.Findings) != 1 {
		t.Errorf("restored review results = %+v", rr)
	}
	if store.ViewingReviewTab("wt-1") {
		t.Error("restored review results forced the review tab open")
	}
	if fixed := store.FixedReviewFindings("wt-1"); len(fixed) != 1 || fixed[0] != "f0" {
		t.Errorf("fixed review findings = %v, want [f0]", fixed)
	}

	time.Sleep(60 * time.Millisecond)
	if got := records.saveCount(); got != 0 {
		t.Errorf("load triggered %d saves, want 0", got)
	}
}

func TestUISync_CoalescesRapidChanges(t *testing.T) {
	records := &fakeUIRecords{loaded: &storage.UIStateRecord{Version: 3}}
	store, _ := startedUISync(t, records)

	for w := 200; w < 250; w += 10 {
		store.SetSidebarWidth(w)
	}
	time.Sleep(100 * time.Millisecond)

	if got := records.saveCount(); got != 1 {
		t.Fatalf("5 rapid changes produced %d saves, want 1", got)
	}
	rec := records.lastSave()
	if rec.SidebarWidth != 240 {
		t.Errorf("saved width = %d, want the final value", rec.SidebarWidth)
	}
	if rec.Version != 4 {
		t.Errorf("saved version = %d, want loaded version + 1", rec.Version)
	}
}

func TestUISync_VersionIncrementsPerSave(t *testing.T) {
	records := &fakeUIRecords{}
	store, _ := startedUISync(t, records)

	store.SetActiveProject("proj-1")
	time.Sleep(60 * time.Millisecond)
	store.SetActiveProject("proj-2")
	time.Sleep(60 * time.Millisecond)

	if got := records.saveCount(); got != 2 {
		t.Fatalf("saves = %d, want 2", got)
	}
	if v := records.lastSave().Version; v != 2 {
		t.Errorf("version after two saves = %d, want 2", v)
	}
}

func TestUISync_ReviewResultChangesReachTheRecord(t *testing.T) {
	records := &fakeUIRecords{}
	store, _ := startedUISync(t, records)

	store.SetReviewResults("wt-9", &session.ReviewResults{
		Findings: []session.ReviewFinding{{ID: "f1", File: "b.go", Summary: "y"}},
	})
	store.MarkReviewFindingFixed("wt-9", "f1")
	time.Sleep(100 * time.Millisecond)

	if got := records.saveCount(); got != 1 {
		t.Fatalf("review mutations produced %d saves, want 1", got)
	}
	rec := records.lastSave()
	if rr := rec.ReviewResults["wt-9"]; rr == nil || len(rr.Findings) != 1 {
		t.Errorf("saved review results = %+v", rec.ReviewResults)
	}
	if fixed := rec.FixedReviewFindings["wt-9"]; len(fixed) != 1 || fixed[0] != "f1" {
		t.Errorf("saved fixed findings = %v", rec.FixedReviewFindings)
	}
}

func TestUISync_SkipsIdenticalState(t *testing.T) {
	records := &fakeUIRecords{}
	store, _ := startedUISync(t, records)

	store.SetSidebarWidth(300)
	time.Sleep(60 * time.Millisecond)
	store.SetSidebarWidth(300)
	time.Sleep(60 * time.Millisecond)

	if got := records.saveCount(); got != 1 {
		t.Errorf("identical state was rewritten, saves = %d, want 1", got)
	}
	if v := records.lastSave().Version; v != 1 {
		t.Errorf("version = %d, want no bump for the skipped write", v)
	}
}

func TestUISync_FlushWritesImmediately(t *testing.T) {
	records := &fakeUIRecords{}
	store, syncer := startedUISync(t, records)

	store.AddPendingDigest("sess-1")
	syncer.Flush()

	if got := records.saveCount(); got != 1 {
		t.Fatalf("saves after flush = %d, want 1", got)
	}
	if got := records.lastSave().PendingDigests; len(got) != 1 || got[0] != "sess-1" {
		t.Errorf("saved digests = %v", got)
	}
}
