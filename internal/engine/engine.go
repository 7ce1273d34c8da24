// Package engine wires the session state store, the content block
// assembler, the delegation tracker, and the persistence synchronizers
// into the conversation lifecycle a host application embeds. The engine
// never spawns backend processes; the host feeds it stream chunks and
// delegation events, and registers a callback through which the engine
// hands prompts back for dispatch.
package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skeinhq/skein/internal/backend"
	"github.com/skeinhq/skein/internal/config"
	"github.com/skeinhq/skein/internal/delegation"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/persist"
	"github.com/skeinhq/skein/internal/session"
	"github.com/skeinhq/skein/internal/state"
)

// Records is the persistence surface the engine needs. *storage.Store
// satisfies it; tests substitute in-memory fakes.
type Records interface {
	persist.SessionRecords
	persist.UIRecords
}

// SendFunc delivers a prompt to the backend. The queued message carries
// the model, execution mode, and thinking level snapshots the turn
// should run with.
type SendFunc func(sessionID string, msg session.QueuedMessage)

// Engine is the top-level coordinator.
type Engine struct {
	store     *state.Store
	config    *config.Config
	assembler *backend.Assembler
	tracker   *delegation.Tracker

	sessionSync *persist.SessionSynchronizer
	uiSync      *persist.UISynchronizer

	mu   sync.Mutex
	send SendFunc
}

// New builds an engine around an explicitly constructed store.
func New(store *state.Store, records Records, cfg *config.Config) *Engine {
	return &Engine{
		store:       store,
		config:      cfg,
		assembler:   backend.NewAssembler(),
		tracker:     delegation.NewTracker(),
		sessionSync: persist.NewSessionSynchronizer(store, records),
		uiSync:      persist.NewUISynchronizer(store, records),
	}
}

// Store exposes the state store for the host's read paths.
func (e *Engine) Store() *state.Store { return e.store }

// Tracker exposes the delegation tracker.
func (e *Engine) Tracker() *delegation.Tracker { return e.tracker }

// Assembler exposes the content block assembler.
func (e *Engine) Assembler() *backend.Assembler { return e.assembler }

// OnSend registers the dispatch callback. Without one, sends are
// dropped with a warning.
func (e *Engine) OnSend(fn SendFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.send = fn
}

// Start loads the UI state record and, when it names an active
// worktree, brings that worktree's session scope up too.
func (e *Engine) Start() {
	e.uiSync.Start()
	if wid := e.store.ActiveWorktree(); wid != "" {
		e.sessionSync.Start(wid)
	}
}

// ActivateWorktree switches the session persistence scope. Pending
// writes for the previous scope are flushed before it is torn down.
func (e *Engine) ActivateWorktree(worktreeID string) {
	if worktreeID == "" {
		e.DeactivateWorktree()
		return
	}
	if worktreeID == e.sessionSync.WorktreeID() {
		e.store.SetActiveWorktree(worktreeID)
		return
	}
	logger.Info("Engine: Activating worktree %s", worktreeID)
	e.sessionSync.Flush()
	e.sessionSync.Start(worktreeID)
	e.store.SetActiveWorktree(worktreeID)
}

// DeactivateWorktree tears the session scope down without flushing.
// Pending debounced writes are dropped.
func (e *Engine) DeactivateWorktree() {
	e.sessionSync.Stop()
	e.store.SetActiveWorktree("")
}

// Shutdown flushes both synchronizers concurrently, stops them, and
// closes the logger. After Shutdown the engine must not be reused.
func (e *Engine) Shutdown(ctx context.Context) error {
	logger.Info("Engine: Shutting down")
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.sessionSync.Flush()
		e.sessionSync.Stop()
		return nil
	})
	g.Go(func() error {
		e.uiSync.Flush()
		e.uiSync.Stop()
		return nil
	})
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	logger.Close()
	return err
}

// SendMessage sends text on a session, or queues it when the session
// already has a turn in flight. Returns true when the message was
// queued rather than dispatched.
func (e *Engine) SendMessage(sessionID, text string) bool {
	if _, ok := e.store.Session(sessionID); !ok {
		logger.Warn("Engine: Send for unknown session %s dropped", sessionID)
		return false
	}

	qm := session.NewQueuedMessage(text)
	qm.Model = e.resolveModel(sessionID)
	qm.ExecutionMode = e.store.ExecutionMode(sessionID)
	qm.ThinkingLevel = e.effectiveThinking(sessionID, qm.ExecutionMode)

	if e.store.IsSending(sessionID) {
		e.store.EnqueueMessage(sessionID, qm)
		logger.Debug("Engine: Session %s busy, queued message %s", sessionID, qm.ID)
		return true
	}

	e.dispatch(sessionID, qm)
	return false
}

// dispatch appends the user message to the transcript and hands the
// prompt to the registered callback. Sending a message answers any
// pending input request, so the waiting flag is cleared here.
func (e *Engine) dispatch(sessionID string, qm session.QueuedMessage) {
	e.mu.Lock()
	send := e.send
	e.mu.Unlock()
	if send == nil {
		logger.Warn("Engine: No send callback registered, dropping message for session %s", sessionID)
		return
	}

	e.store.AppendMessage(sessionID, session.NewUserMessage(sessionID, qm.Text))
	if e.store.IsWaitingForInput(sessionID) {
		e.store.SetWaitingForInput(sessionID, false)
	}
	e.store.AddSendingSession(sessionID)
	send(sessionID, qm)
}

// resolveModel picks the model for a turn: the session's selection,
// then the worktree default, then the configured default.
func (e *Engine) resolveModel(sessionID string) string {
	if sess, ok := e.store.Session(sessionID); ok && sess.SelectedModel != "" {
		return sess.SelectedModel
	}
	if ws := e.store.Worktree(e.store.SessionWorktree(sessionID)); ws != nil && ws.DefaultModel != "" {
		return ws.DefaultModel
	}
	return e.config.GetDefaultModel()
}

func (e *Engine) effectiveThinking(sessionID string, mode session.ExecutionMode) session.ThinkingLevel {
	sess, ok := e.store.Session(sessionID)
	if !ok {
		return session.ThinkingOff
	}
	return session.EffectiveThinkingLevel(sess.SelectedThinkingLevel, mode, e.config.GetDisableThinkingOutsidePlan())
}

// sessionName resolves a display name for notifications.
func (e *Engine) sessionName(sessionID string) string {
	if sess, ok := e.store.Session(sessionID); ok {
		return sess.Name
	}
	return ""
}

// isActiveSession reports whether the session is the focused one: its
// worktree is the active worktree and it is that worktree's active
// session.
func (e *Engine) isActiveSession(sessionID string) bool {
	wid := e.store.SessionWorktree(sessionID)
	if wid == "" || wid != e.store.ActiveWorktree() {
		return false
	}
	active, ok := e.store.ActiveSession(wid)
	return ok && active.ID == sessionID
}
