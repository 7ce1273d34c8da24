package persist

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/state"
	"github.com/skeinhq/skein/internal/storage"
)

// UIRecords is the slice of the record store the UI synchronizer needs.
type UIRecords interface {
	LoadUIState() (*storage.UIStateRecord, error)
	SaveUIState(rec *storage.UIStateRecord) error
}

// UISynchronizer binds the UI-scoped state to its record on disk: selection,
// sidebar layout, pending digests, and the per-worktree review results. It
// spans all worktrees and runs for the lifetime of the process, so Start
// takes no scope argument.
type UISynchronizer struct {
	store   *state.Store
	records UIRecords

	saveDelay time.Duration
	loadGrace time.Duration

	mu         sync.Mutex
	started    bool
	loading    bool
	gen        uint64
	deb        *Debouncer
	graceTimer *time.Timer
	unsub      []func()
	version    int
	lastSaved  []byte
}

// NewUISynchronizer returns a synchronizer with the default delays. It
// observes nothing until Start.
func NewUISynchronizer(store *state.Store, records UIRecords) *UISynchronizer {
	return &UISynchronizer{
		store:     store,
		records:   records,
		saveDelay: DefaultSaveDelay,
		loadGrace: DefaultLoadGrace,
	}
}

// Start loads the UI record into the store and begins observing. Saves stay
// suppressed until the load grace elapses.
func (s *UISynchronizer) Start() {
	s.mu.Lock()
	s.stopLocked()
	s.gen++
	gen := s.gen
	s.started = true
	s.loading = true
	s.deb = NewDebouncer(s.saveDelay, s.saveNow)
	s.unsub = []func(){
		s.store.UIChanges().Subscribe(s.onUIChange),
		s.store.WorktreeChanges().Subscribe(s.onWorktreeChange),
	}
	s.mu.Unlock()

	rec, err := s.records.LoadUIState()
	if err != nil || rec == nil {
		if err != nil {
			logger.Warn("UISync: Loading UI state failed, starting fresh: %v", err)
		}
		rec = &storage.UIStateRecord{}
	}
	s.store.LoadUIState(uiStateFromRecord(rec))
	s.store.LoadReviewState(rec.ReviewResults, rec.FixedReviewFindings)

	// Seed the dirty check and version counter from the loaded record.
	seed := s.buildRecord()
	data, merr := json.Marshal(seed)
	s.mu.Lock()
	if s.gen == gen {
		s.version = rec.Version
		if merr == nil {
			s.lastSaved = data
		}
		s.graceTimer = time.AfterFunc(s.loadGrace, func() { s.endLoading(gen) })
	}
	s.mu.Unlock()

	logger.Debug("UISync: Started at version %d", rec.Version)
}

// Stop detaches the synchronizer from the store and drops any pending save.
func (s *UISynchronizer) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// Flush writes a pending debounced save immediately. Idle is a no-op.
func (s *UISynchronizer) Flush() {
	s.mu.Lock()
	deb := s.deb
	s.mu.Unlock()
	if deb != nil {
		deb.Flush()
	}
}

func (s *UISynchronizer) stopLocked() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
	if s.deb != nil {
		s.deb.Cancel()
		s.deb = nil
	}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.gen++
	s.started = false
	s.loading = false
	s.lastSaved = nil
}

func (s *UISynchronizer) endLoading(gen uint64) {
	s.mu.Lock()
	if s.gen == gen && s.loading {
		s.loading = false
		logger.Debug("UISync: Load grace elapsed, saves enabled")
	}
	s.mu.Unlock()
}

func (s *UISynchronizer) onUIChange(ev state.UIChange) {
	if ev.Field == state.FieldLoaded {
		return
	}
	s.maybeSchedule()
}

// onWorktreeChange picks up review result changes for any worktree; the UI
// record carries them all.
func (s *UISynchronizer) onWorktreeChange(ev state.WorktreeChange) {
	if ev.Field != state.FieldReviewResults && ev.Field != state.FieldFixedReviewFindings {
		return
	}
	s.maybeSchedule()
}

func (s *UISynchronizer) maybeSchedule() {
	s.mu.Lock()
	deb := s.deb
	ok := s.started && !s.loading
	s.mu.Unlock()
	if ok && deb != nil {
		deb.Schedule()
	}
}

// buildRecord assembles the on-disk record from the store. Version is left
// zero; saveNow stamps it so the dirty check compares content only.
func (s *UISynchronizer) buildRecord() *storage.UIStateRecord {
	ui := s.store.UISnapshot()
	return &storage.UIStateRecord{
		ActiveWorktreeID:    ui.ActiveWorktreeID,
		ActiveProjectID:     ui.ActiveProjectID,
		ExpandedProjects:    sortedKeys(ui.ExpandedProjects),
		ExpandedFolders:     sortedKeys(ui.ExpandedFolders),
		SidebarWidth:        ui.SidebarWidth,
		ActiveSessions:      ui.ActiveSessions,
		ReviewResults:       s.store.ReviewResultsByWorktree(),
		FixedReviewFindings: s.store.FixedReviewFindingsByWorktree(),
		PendingDigests:      ui.PendingDigests,
	}
}

func (s *UISynchronizer) saveNow() {
	s.mu.Lock()
	gen := s.gen
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}

	rec := s.buildRecord()
	data, err := json.Marshal(rec)
	if err != nil {
		logger.Error("UISync: Marshal failed: %v", err)
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if bytes.Equal(data, s.lastSaved) {
		s.mu.Unlock()
		logger.Debug("UISync: State unchanged, skipping save")
		return
	}
	version := s.version + 1
	s.mu.Unlock()

	rec.Version = version
	if err := s.records.SaveUIState(rec); err != nil {
		logger.Error("UISync: Save failed: %v", err)
		return
	}

	s.mu.Lock()
	if s.gen == gen {
		s.version = version
		s.lastSaved = data
	}
	s.mu.Unlock()
	logger.Debug("UISync: Saved UI state version %d", version)
}

// uiStateFromRecord expands the on-disk record into the store's shape.
func uiStateFromRecord(rec *storage.UIStateRecord) state.UIState {
	ui := state.UIState{
		ActiveWorktreeID: rec.ActiveWorktreeID,
		ActiveProjectID:  rec.ActiveProjectID,
		ExpandedProjects: make(map[string]bool, len(rec.ExpandedProjects)),
		ExpandedFolders:  make(map[string]bool, len(rec.ExpandedFolders)),
		SidebarWidth:     rec.SidebarWidth,
		ActiveSessions:   rec.ActiveSessions,
		PendingDigests:   rec.PendingDigests,
	}
	for _, id := range rec.ExpandedProjects {
		ui.ExpandedProjects[id] = true
	}
	for _, id := range rec.ExpandedFolders {
		ui.ExpandedFolders[id] = true
	}
	return ui
}

// sortedKeys flattens an expansion set for the record, sorted so encoded
// records compare byte for byte.
func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
