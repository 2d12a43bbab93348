package auth

import "sync"

// CancellationToken signals a platform challenge to abort. Cancel is
// idempotent; hooks registered with OnCancel run once, on the first Cancel.
type CancellationToken struct {
	mu       sync.Mutex
	done     chan struct{}
	canceled bool
	hooks    []func()
}

// NewCancellationToken creates a token that has not been canceled.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

// Cancel signals cancellation. It reports whether this call was the one
// that canceled the token; later calls are no-ops.
func (t *CancellationToken) Cancel() bool {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return false
	}
	t.canceled = true
	close(t.done)
	hooks := t.hooks
	t.hooks = nil
	t.mu.Unlock()

	for _, h := range hooks {
		h()
	}
	return true
}

// Canceled reports whether Cancel has been called.
func (t *CancellationToken) Canceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Done is closed when the token is canceled.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.done
}

// OnCancel registers fn to run on cancellation. If the token is already
// canceled fn runs immediately.
func (t *CancellationToken) OnCancel(fn func()) {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		fn()
		return
	}
	t.hooks = append(t.hooks, fn)
	t.mu.Unlock()
}
