package auth

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enrolledList = `Using device /net/reactivated/Fprint/Device/0
Fingerprints for user alice on Synaptics Sensors (press):
 - #0: right-index-finger
 - #1: left-index-finger
`

const emptyList = `Using device /net/reactivated/Fprint/Device/0
User alice has no fingers enrolled for Synaptics Sensors.
`

type scriptedRunner struct {
	mu      sync.Mutex
	list    string
	listErr error
	verify  []string
	block   bool
	calls   []string
}

func (r *scriptedRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	switch name {
	case "fprintd-list":
		defer r.mu.Unlock()
		return []byte(r.list), r.listErr
	case "fprintd-verify":
		if r.block {
			r.mu.Unlock()
			<-ctx.Done()
			return nil, ctx.Err()
		}
		defer r.mu.Unlock()
		if len(r.verify) == 0 {
			return nil, fmt.Errorf("unexpected verify call")
		}
		next := r.verify[0]
		r.verify = r.verify[1:]
		return []byte(next), nil
	}
	r.mu.Unlock()
	return nil, exec.ErrNotFound
}

func newScriptedSensor(r *scriptedRunner) *FprintdSensor {
	s := NewFprintdSensor("alice", nil)
	s.run = r.run
	return s
}

func collectEvents(t *testing.T, s *FprintdSensor, tok *CancellationToken, until func(Event) bool) []Event {
	t.Helper()
	ch := make(chan Event, 16)
	s.IssueChallenge(nil, tok, func(ev Event) { ch <- ev })

	var events []Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
			if until(ev) {
				return events
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after events %v", events)
			return nil
		}
	}
}

func terminal(ev Event) bool { return ev.Kind != EventFailed }

func TestParseVerify(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		res  verifyResult
		code ErrorCode
	}{
		{"match", "Verify result: verify-match (done)", nil, verifyMatch, 0},
		{"no match", "Verify result: verify-no-match (done)", nil, verifyNoMatch, 0},
		{"no device", "No devices available", errors.New("exit status 1"), verifyError, ErrorHWNotPresent},
		{"not enrolled", "failed: net.reactivated.Fprint.Error.NoEnrolledPrints", nil, verifyError, ErrorNoBiometrics},
		{"disconnected", "Verify result: verify-disconnected", nil, verifyError, ErrorHWUnavailable},
		{"unknown", "Verify result: verify-unknown-error", nil, verifyError, ErrorUnableToProcess},
		{"garbage", "segfault", errors.New("exit status 139"), verifyError, ErrorVendor},
		{"missing binary", "", exec.ErrNotFound, verifyError, ErrorHWNotPresent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, code := parseVerify(tt.out, tt.err)
			assert.Equal(t, tt.res, res)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestCountEnrolled(t *testing.T) {
	assert.Equal(t, 2, countEnrolled(enrolledList))
	assert.Equal(t, 0, countEnrolled(emptyList))
	assert.Equal(t, 0, countEnrolled(""))
}

func TestFprintdProbe(t *testing.T) {
	s := newScriptedSensor(&scriptedRunner{list: enrolledList})
	assert.True(t, s.HasHardware())
	assert.True(t, s.HasEnrolledCredentials())

	s = newScriptedSensor(&scriptedRunner{list: emptyList})
	assert.True(t, s.HasHardware())
	assert.False(t, s.HasEnrolledCredentials())

	s = newScriptedSensor(&scriptedRunner{list: "No devices available\n", listErr: errors.New("exit status 1")})
	assert.False(t, s.HasHardware())

	s = newScriptedSensor(&scriptedRunner{listErr: exec.ErrNotFound})
	assert.False(t, s.HasHardware())
}

func TestFprintdVerifyRetriesThenMatches(t *testing.T) {
	r := &scriptedRunner{verify: []string{"verify-no-match", "verify-match"}}
	events := collectEvents(t, newScriptedSensor(r), NewCancellationToken(), terminal)

	require.Len(t, events, 2)
	assert.Equal(t, EventFailed, events[0].Kind)
	assert.Equal(t, EventSucceeded, events[1].Kind)
}

func TestFprintdVerifyLockout(t *testing.T) {
	r := &scriptedRunner{verify: []string{"verify-no-match", "verify-no-match", "verify-no-match"}}
	events := collectEvents(t, newScriptedSensor(r), NewCancellationToken(), terminal)

	require.Len(t, events, 4)
	last := events[3]
	assert.Equal(t, EventError, last.Kind)
	assert.Equal(t, ErrorLockout, last.Code)
}

func TestFprintdVerifyCanceled(t *testing.T) {
	r := &scriptedRunner{block: true}
	tok := NewCancellationToken()
	go func() {
		time.Sleep(10 * time.Millisecond)
		tok.Cancel()
	}()

	events := collectEvents(t, newScriptedSensor(r), tok, terminal)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.Equal(t, ErrorCanceled, events[0].Code)
}
