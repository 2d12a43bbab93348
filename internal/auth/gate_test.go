package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUnlocker struct {
	got []Outcome
	err error
}

func (u *recordingUnlocker) Unlock(o Outcome) error {
	u.got = append(u.got, o)
	return u.err
}

func TestParseFallbackPolicy(t *testing.T) {
	for _, s := range []string{"auto", "request", "never"} {
		p, err := ParseFallbackPolicy(s)
		require.NoError(t, err)
		assert.Equal(t, FallbackPolicy(s), p)
	}
	p, err := ParseFallbackPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FallbackAuto, p)

	_, err = ParseFallbackPolicy("sometimes")
	assert.Error(t, err)
}

func TestFallbackNotSecure(t *testing.T) {
	f := NewFallback(&fakeCredential{}, nil)
	assert.False(t, f.Available())

	a, err := f.Start(context.Background())
	require.NoError(t, err)
	o := waitOutcome(t, a)
	assert.Equal(t, Canceled, o.Kind)
	assert.Equal(t, ErrorNoDeviceCredential, o.Code)
}

func TestFallbackConfirmed(t *testing.T) {
	f := NewFallback(&fakeCredential{secure: true, confirm: true}, nil)

	a, err := f.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Found, waitOutcome(t, a).Kind)
}

func TestFallbackDenied(t *testing.T) {
	f := NewFallback(&fakeCredential{secure: true}, nil)

	a, err := f.Start(context.Background())
	require.NoError(t, err)
	o := waitOutcome(t, a)
	assert.Equal(t, Canceled, o.Kind)
	assert.Equal(t, ErrorUserCanceled, o.Code)
}

func TestFallbackCanceledByContext(t *testing.T) {
	f := NewFallback(&fakeCredential{secure: true, block: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	a, err := f.Start(ctx)
	require.NoError(t, err)

	_, err = f.Start(context.Background())
	assert.ErrorIs(t, err, ErrAttemptInProgress)

	cancel()
	assert.Equal(t, Canceled, waitOutcome(t, a).Kind)
}

func TestGateBiometricSuccess(t *testing.T) {
	c, prompt, _ := newUnified(t)
	g := NewGate(c, NewFallback(&fakeCredential{secure: true, confirm: true}, nil), FallbackAuto, nil)

	go func() {
		for prompt.issuedCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		prompt.succeed()
	}()

	u := &recordingUnlocker{}
	o, err := g.Unlock(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, Found, o.Kind)
	assert.Len(t, u.got, 1)
}

func TestGateFallbackOnRequest(t *testing.T) {
	c, _, dialog := newLegacy(t)
	g := NewGate(c, NewFallback(&fakeCredential{secure: true, confirm: true}, nil), FallbackRequest, nil)

	go func() {
		for {
			dialog.mu.Lock()
			shown := dialog.choose != nil
			dialog.mu.Unlock()
			if shown {
				break
			}
			time.Sleep(time.Millisecond)
		}
		dialog.pick(ChoiceFallback)
	}()

	o, err := g.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Found, o.Kind)
}

func TestGateNeverFallsBack(t *testing.T) {
	c, sensor, _ := newLegacy(t)
	sensor.hardware = false
	g := NewGate(c, NewFallback(&fakeCredential{secure: true, confirm: true}, nil), FallbackNever, nil)

	u := &recordingUnlocker{}
	o, err := g.Unlock(context.Background(), u)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, Canceled, o.Kind)
	assert.Empty(t, u.got)
}

func TestGateAutoFallsBackWhenUnavailable(t *testing.T) {
	c := NewCoordinator(newTestKeys(t), Platform{})
	g := NewGate(c, NewFallback(&fakeCredential{secure: true, confirm: true}, nil), FallbackAuto, nil)

	o, err := g.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Found, o.Kind)
}

func TestGateAutoWithoutCredential(t *testing.T) {
	c := NewCoordinator(newTestKeys(t), Platform{})
	g := NewGate(c, NewFallback(&fakeCredential{}, nil), FallbackAuto, nil)

	o, err := g.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Canceled, o.Kind)
	assert.Equal(t, ErrorHWNotPresent, o.Code)
}

func TestGateRequestPolicyIgnoresUnavailable(t *testing.T) {
	c := NewCoordinator(newTestKeys(t), Platform{})
	g := NewGate(c, NewFallback(&fakeCredential{secure: true, confirm: true}, nil), FallbackRequest, nil)

	o, err := g.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Canceled, o.Kind)
}

func TestGateUnlockerError(t *testing.T) {
	c := NewCoordinator(newTestKeys(t), Platform{})
	g := NewGate(c, NewFallback(&fakeCredential{secure: true, confirm: true}, nil), FallbackAuto, nil)

	boom := errors.New("boom")
	_, err := g.Unlock(context.Background(), &recordingUnlocker{err: boom})
	assert.ErrorIs(t, err, boom)
}
