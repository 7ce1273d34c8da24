// Package queue holds user prompts captured while their session is busy.
// Delivery is strictly FIFO with exactly-once semantics: the engine dequeues
// the next message only after the in-flight send completes.
package queue

import (
	"sync"

	"github.com/skeinhq/skein/internal/session"
)

// Queue is a FIFO of queued messages for one session.
type Queue struct {
	mu    sync.Mutex
	items []session.QueuedMessage
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends a message to the tail.
func (q *Queue) Enqueue(msg session.QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, msg)
}

// Dequeue pops the head. The second return is false when the queue is empty.
func (q *Queue) Dequeue() (session.QueuedMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return session.QueuedMessage{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (session.QueuedMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return session.QueuedMessage{}, false
	}
	return q.items[0], true
}

// Remove deletes the message with the given id, preserving the relative
// order of the rest. Returns false when no message has that id.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops all queued messages.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Items returns a copy of the queued messages in order.
func (q *Queue) Items() []session.QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]session.QueuedMessage(nil), q.items...)
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
