package state

import "sync"

// Topic is a minimal synchronous pub/sub primitive. Publish fans out to every
// subscriber on the caller's goroutine, so subscribers observe mutations in
// the order they happened. Subscribers must not block.
type Topic[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns an unsubscribe function. Unsubscribing
// twice is harmless.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish delivers v to all current subscribers. The subscriber list is
// snapshotted first, so a callback may unsubscribe itself or subscribe others
// without deadlocking.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	fns := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the current subscriber count.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
