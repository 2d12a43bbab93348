package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/keystore"
)

// fakeBiometrics records the challenge and lets the test drive callbacks.
// When confirmCancel is set it reports ErrorCanceled after the token is
// canceled, as real platforms do.
type fakeBiometrics struct {
	hardware      bool
	enrolled      bool
	confirmCancel bool

	mu      sync.Mutex
	binding *keystore.Cipher
	token   *CancellationToken
	cb      func(Event)
	issued  int
}

func newFakeBiometrics() *fakeBiometrics {
	return &fakeBiometrics{hardware: true, enrolled: true, confirmCancel: true}
}

func (f *fakeBiometrics) HasHardware() bool            { return f.hardware }
func (f *fakeBiometrics) HasEnrolledCredentials() bool { return f.enrolled }

func (f *fakeBiometrics) IssueChallenge(binding *keystore.Cipher, token *CancellationToken, cb func(Event)) {
	f.mu.Lock()
	f.binding = binding
	f.token = token
	f.cb = cb
	f.issued++
	f.mu.Unlock()
	if f.confirmCancel {
		token.OnCancel(func() {
			go cb(Event{Kind: EventError, Code: ErrorCanceled})
		})
	}
}

func (f *fakeBiometrics) emit(ev Event) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(ev)
}

func (f *fakeBiometrics) succeed() {
	f.mu.Lock()
	b := f.binding
	f.mu.Unlock()
	f.emit(Event{Kind: EventSucceeded, Binding: b})
}

func (f *fakeBiometrics) issuedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued
}

type fakeDialog struct {
	mu        sync.Mutex
	choose    func(DialogChoice)
	shown     int
	dismissed int
}

func (d *fakeDialog) Show(choose func(DialogChoice)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.choose = choose
	d.shown++
}

func (d *fakeDialog) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismissed++
}

func (d *fakeDialog) pick(c DialogChoice) {
	d.mu.Lock()
	choose := d.choose
	d.mu.Unlock()
	choose(c)
}

func (d *fakeDialog) dismissCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dismissed
}

type fakeCredential struct {
	secure  bool
	confirm bool
	block   bool
}

func (c *fakeCredential) IsDeviceSecure() bool { return c.secure }

func (c *fakeCredential) IssueConfirmation(ctx context.Context, done func(bool)) {
	if c.block {
		go func() {
			<-ctx.Done()
			done(false)
		}()
		return
	}
	go done(c.confirm)
}

func newTestKeys(t *testing.T) *keystore.Store {
	t.Helper()
	s, err := keystore.New(keystore.NewMemoryBackend(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func waitOutcome(t *testing.T, a *Attempt) Outcome {
	t.Helper()
	select {
	case o := <-a.Outcome():
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("attempt produced no outcome")
		return Outcome{}
	}
}

func requireNoSecondOutcome(t *testing.T, a *Attempt) {
	t.Helper()
	select {
	case o := <-a.Outcome():
		t.Fatalf("attempt delivered a second outcome: %v", o)
	case <-time.After(50 * time.Millisecond):
	}
}
