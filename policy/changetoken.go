package policy

import (
	"sync"
	"sync/atomic"
)

// ChangeToken notifies consumers that the catalog has been replaced.
//
// Tokens are single-use: once HasChanged returns true it stays true, and
// callers fetch a fresh token from Watcher.Changes to keep listening.
//
//	token := w.Changes()
//	token.RegisterChangeCallback(func() {
//	    log.Println("policies reloaded")
//	})
type ChangeToken interface {
	// HasChanged reports whether a reload happened since the token was issued.
	HasChanged() bool

	// RegisterChangeCallback runs callback once, on the next reload. The
	// returned function unregisters it.
	RegisterChangeCallback(callback func()) (unregister func())
}

// callbackToken is the ChangeToken a Watcher hands out for one reload.
type callbackToken struct {
	mu        sync.RWMutex
	changed   atomic.Bool
	callbacks []func()
}

func newCallbackToken() *callbackToken {
	return &callbackToken{}
}

func (t *callbackToken) HasChanged() bool {
	return t.changed.Load()
}

func (t *callbackToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	if t.changed.Load() {
		t.mu.Unlock()
		callback()
		return func() {}
	}
	t.callbacks = append(t.callbacks, callback)
	index := len(t.callbacks) - 1
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.callbacks) {
			t.callbacks[index] = nil
		}
	}
}

// signal marks the token changed and runs its callbacks. Later calls are
// no-ops.
func (t *callbackToken) signal() {
	t.mu.Lock()
	if t.changed.Swap(true) {
		t.mu.Unlock()
		return
	}
	callbacks := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}
