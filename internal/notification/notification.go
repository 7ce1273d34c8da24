// Package notification delivers desktop notifications for session activity.
// It uses the beeep library, which talks to the native notifier on macOS,
// Linux, and Windows.
package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/skeinhq/skein/internal/logger"
)

// notifyFunc matches beeep.Notify so delivery can be intercepted in tests.
type notifyFunc func(title, message string, appIcon any) error

var notifier notifyFunc = beeep.Notify

// SetNotifier replaces the delivery function.
func SetNotifier(fn notifyFunc) { notifier = fn }

// ResetNotifier restores delivery through beeep.
func ResetNotifier() { notifier = beeep.Notify }

// Send raises a desktop notification. Delivery failures are logged and
// returned; callers treat them as advisory.
func Send(title, message string) error {
	logger.Debug("Notification: Sending title=%q message=%q", title, message)
	err := notifier(title, message, "")
	if err != nil {
		logger.Warn("Notification: Delivery failed: %v", err)
	}
	return err
}

// SessionReady announces that a session finished its turn in a worktree the
// user is not looking at.
func SessionReady(sessionName string) error {
	if sessionName == "" {
		sessionName = "Session"
	}
	return Send("Skein", sessionName+" is ready")
}

// DelegationFinished announces the end of a delegation run.
func DelegationFinished(sessionName string, failed int) error {
	if sessionName == "" {
		sessionName = "Session"
	}
	if failed > 0 {
		return Send("Skein", fmt.Sprintf("%s finished delegating, %d task(s) failed", sessionName, failed))
	}
	return Send("Skein", sessionName+" finished delegating")
}
