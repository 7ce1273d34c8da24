package engine

import (
	"encoding/json"

	"github.com/skeinhq/skein/internal/delegation"
	"github.com/skeinhq/skein/internal/notification"
)

// HandleDelegationEvent routes a raw delegation event to the tracker.
// When the run completes it also raises the desktop notification,
// counting how many sub-tasks failed.
func (e *Engine) HandleDelegationEvent(name string, payload json.RawMessage) {
	e.tracker.HandleEvent(name, payload)

	if name != delegation.EventAllCompleted || !e.config.GetNotificationsEnabled() {
		return
	}
	var ev delegation.AllCompletedEvent
	if err := json.Unmarshal(payload, &ev); err != nil || ev.SessionID == "" {
		return
	}

	failed := 0
	for _, task := range e.tracker.Tasks(ev.SessionID) {
		if task.Status == delegation.TaskFailed {
			failed++
		}
	}
	go notification.DelegationFinished(e.sessionName(ev.SessionID), failed)
}
