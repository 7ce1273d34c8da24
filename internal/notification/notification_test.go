package notification

import (
	"errors"
	"testing"
)

// mockNotification records calls to the notification function
type mockNotification struct {
	calls []struct {
		title   string
		message string
		icon    any
	}
	err error
}

func (m *mockNotification) notify(title, message string, icon any) error {
	m.calls = append(m.calls, struct {
		title   string
		message string
		icon    any
	}{title, message, icon})
	return m.err
}

func TestSend(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		message     string
		mockErr     error
		expectError bool
	}{
		{
			name:    "successful notification",
			title:   "Test Title",
			message: "Test Message",
		},
		{
			name:        "notification error",
			title:       "Test Title",
			message:     "Test Message",
			mockErr:     errors.New("notification failed"),
			expectError: true,
		},
		{
			name:    "empty title",
			message: "Message with empty title",
		},
		{
			name:  "empty message",
			title: "Title",
		},
		{
			name:    "unicode content",
			title:   "通知",
			message: "🎉 Notification with emoji",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockNotification{err: tt.mockErr}
			SetNotifier(mock.notify)
			defer ResetNotifier()

			err := Send(tt.title, tt.message)

			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if len(mock.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(mock.calls))
			}

			call := mock.calls[0]
			if call.title != tt.title {
				t.Errorf("title = %q, want %q", call.title, tt.title)
			}
			if call.message != tt.message {
				t.Errorf("message = %q, want %q", call.message, tt.message)
			}
			if icon, ok := call.icon.(string); !ok || icon != "" {
				t.Errorf("icon = %v, want platform default", call.icon)
			}
		})
	}
}

func TestSessionReady(t *testing.T) {
	tests := []struct {
		name            string
		sessionName     string
		expectedTitle   string
		expectedMessage string
		mockErr         error
		expectError     bool
	}{
		{
			name:            "basic session",
			sessionName:     "my-session",
			expectedTitle:   "Skein",
			expectedMessage: "my-session is ready",
		},
		{
			name:            "empty session name",
			sessionName:     "",
			expectedTitle:   "Skein",
			expectedMessage: "Session is ready",
		},
		{
			name:            "session with spaces",
			sessionName:     "My Cool Session",
			expectedTitle:   "Skein",
			expectedMessage: "My Cool Session is ready",
		},
		{
			name:            "unicode session name",
			sessionName:     "会话-123",
			expectedTitle:   "Skein",
			expectedMessage: "会话-123 is ready",
		},
		{
			name:            "notification failure",
			sessionName:     "test-session",
			expectedTitle:   "Skein",
			expectedMessage: "test-session is ready",
			mockErr:         errors.New("notification system unavailable"),
			expectError:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockNotification{err: tt.mockErr}
			SetNotifier(mock.notify)
			defer ResetNotifier()

			err := SessionReady(tt.sessionName)

			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if len(mock.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(mock.calls))
			}

			call := mock.calls[0]
			if call.title != tt.expectedTitle {
				t.Errorf("title = %q, want %q", call.title, tt.expectedTitle)
			}
			if call.message != tt.expectedMessage {
				t.Errorf("message = %q, want %q", call.message, tt.expectedMessage)
			}
		})
	}
}

func TestDelegationFinished(t *testing.T) {
	tests := []struct {
		name            string
		sessionName     string
		failed          int
		expectedMessage string
	}{
		{
			name:            "all tasks succeeded",
			sessionName:     "refactor",
			failed:          0,
			expectedMessage: "refactor finished delegating",
		},
		{
			name:            "some tasks failed",
			sessionName:     "refactor",
			failed:          2,
			expectedMessage: "refactor finished delegating, 2 task(s) failed",
		},
		{
			name:            "empty session name",
			sessionName:     "",
			failed:          0,
			expectedMessage: "Session finished delegating",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockNotification{}
			SetNotifier(mock.notify)
			defer ResetNotifier()

			if err := DelegationFinished(tt.sessionName, tt.failed); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if len(mock.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(mock.calls))
			}
			if got := mock.calls[0].message; got != tt.expectedMessage {
				t.Errorf("message = %q, want %q", got, tt.expectedMessage)
			}
		})
	}
}
