package session

import (
	"time"

	"github.com/google/uuid"
)

// TextAttachment is a named text snippet attached to a queued message.
type TextAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// QueuedMessage is a user prompt captured while its session was busy. All
// attachment lists are point-in-time snapshots taken at enqueue; later edits
// to the originals do not affect the queued copy.
type QueuedMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`

	Images          []string         `json:"images,omitempty"`
	Files           []string         `json:"files,omitempty"`
	Skills          []string         `json:"skills,omitempty"`
	TextAttachments []TextAttachment `json:"text_attachments,omitempty"`

	Model         string        `json:"model,omitempty"`
	ExecutionMode ExecutionMode `json:"execution_mode,omitempty"`
	ThinkingLevel ThinkingLevel `json:"thinking_level,omitempty"`

	QueuedAt int64 `json:"queued_at"` // unix milliseconds
}

// NewQueuedMessage stamps a queued message with a fresh id and enqueue time.
func NewQueuedMessage(text string) QueuedMessage {
	return QueuedMessage{
		ID:       uuid.New().String(),
		Text:     text,
		QueuedAt: time.Now().UnixMilli(),
	}
}

// Clone returns a copy whose attachment snapshots are independent of the
// original's slices.
func (m QueuedMessage) Clone() QueuedMessage {
	out := m
	out.Images = append([]string(nil), m.Images...)
	out.Files = append([]string(nil), m.Files...)
	out.Skills = append([]string(nil), m.Skills...)
	out.TextAttachments = append([]TextAttachment(nil), m.TextAttachments...)
	return out
}
