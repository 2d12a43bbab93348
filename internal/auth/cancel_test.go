package auth

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancellationTokenIdempotent(t *testing.T) {
	tok := NewCancellationToken()
	var calls atomic.Int32
	tok.OnCancel(func() { calls.Add(1) })

	assert.False(t, tok.Canceled())
	assert.True(t, tok.Cancel())
	assert.False(t, tok.Cancel())
	assert.True(t, tok.Canceled())
	assert.EqualValues(t, 1, calls.Load())

	select {
	case <-tok.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestCancellationTokenLateHookRunsImmediately(t *testing.T) {
	tok := NewCancellationToken()
	tok.Cancel()

	ran := false
	tok.OnCancel(func() { ran = true })
	assert.True(t, ran)
}

func TestCancellationTokenConcurrentCancel(t *testing.T) {
	tok := NewCancellationToken()
	var hooks, winners atomic.Int32
	tok.OnCancel(func() { hooks.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tok.Cancel() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, hooks.Load())
	assert.EqualValues(t, 1, winners.Load())
}
