// Package prompt lets a running command wait for the caller's next message.
// Listeners are registered per channel and user and are always removed when
// the wait ends, whether by answer, timeout, replacement or cancellation.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned when no answer arrived in time.
	ErrTimeout = errors.New("prompt timed out")
	// ErrReplaced is returned when a newer prompt for the same key took over.
	ErrReplaced = errors.New("prompt replaced by a newer one")
	// ErrCancelled wraps the context error when the waiting command was stopped.
	ErrCancelled = errors.New("prompt cancelled")
)

// Key identifies whose answer a listener waits for and where.
type Key struct {
	ChannelID string
	UserID    string
}

type listener struct {
	answer   chan string
	replaced chan struct{}
}

// Registry tracks pending prompts. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	waiting map[Key]*listener
	timeout time.Duration
}

// NewRegistry returns a registry whose waits end after timeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Registry{
		waiting: make(map[Key]*listener),
		timeout: timeout,
	}
}

// Await blocks until Deliver hands over text for key, the timeout passes or
// ctx is done.
func (r *Registry) Await(ctx context.Context, key Key) (string, error) {
	l := &listener{
		answer:   make(chan string, 1),
		replaced: make(chan struct{}),
	}

	r.mu.Lock()
	if prev, ok := r.waiting[key]; ok {
		close(prev.replaced)
	}
	r.waiting[key] = l
	r.mu.Unlock()

	defer r.remove(key, l)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	select {
	case text := <-l.answer:
		return text, nil
	case <-l.replaced:
		return "", ErrReplaced
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
}

// Deliver hands text to the listener for key. It reports whether a listener
// took it; transports skip dispatching consumed messages.
func (r *Registry) Deliver(key Key, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.waiting[key]
	if !ok {
		return false
	}
	delete(r.waiting, key)
	l.answer <- text
	return true
}

// Pending returns the number of registered listeners.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiting)
}

func (r *Registry) remove(key Key, l *listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting[key] == l {
		delete(r.waiting, key)
	}
}

// Confirm waits for an answer and reports whether it was affirmative.
func (r *Registry) Confirm(ctx context.Context, key Key) (bool, error) {
	text, err := r.Await(ctx, key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes", "confirm", "ok":
		return true, nil
	default:
		return false, nil
	}
}
