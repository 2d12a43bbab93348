package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCancelGrace bounds how long a canceled attempt waits for the
// platform to confirm the cancellation before it resolves on its own.
const DefaultCancelGrace = 2 * time.Second

// Attempt is one outstanding authentication challenge. Its outcome is
// delivered exactly once on the channel returned by Outcome.
type Attempt struct {
	ID string

	token    *CancellationToken
	out      chan Outcome
	done     chan struct{}
	finished atomic.Bool
	grace    time.Duration
	log      *zap.Logger
	onFinish func(Outcome)

	mu    sync.Mutex
	timer *time.Timer
}

func newAttempt(grace time.Duration, logger *zap.Logger, onFinish func(Outcome)) *Attempt {
	id := uuid.NewString()
	return &Attempt{
		ID:       id,
		token:    NewCancellationToken(),
		out:      make(chan Outcome, 1),
		done:     make(chan struct{}),
		grace:    grace,
		log:      logger.With(zap.String("attempt", id)),
		onFinish: onFinish,
	}
}

// Outcome returns the channel that receives the single outcome.
func (a *Attempt) Outcome() <-chan Outcome {
	return a.out
}

// Done is closed once the outcome has been produced.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Token returns the cancellation token handed to the platform.
func (a *Attempt) Token() *CancellationToken {
	return a.token
}

// Cancel asks the platform to abort the challenge. If the platform has not
// reported back within the grace period the attempt resolves as Canceled;
// with no grace period it resolves immediately.
func (a *Attempt) Cancel() {
	if a.finished.Load() {
		return
	}
	if !a.token.Cancel() {
		return
	}
	a.log.Debug("attempt cancel requested")

	if a.grace <= 0 {
		a.finish(Outcome{Kind: Canceled, Code: ErrorCanceled})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		a.timer = time.AfterFunc(a.grace, func() {
			if a.finish(Outcome{Kind: Canceled, Code: ErrorCanceled}) {
				a.log.Warn("platform did not confirm cancellation, resolving attempt")
			}
		})
	}
}

// Wait blocks for the outcome. If ctx ends first the attempt is canceled and
// Wait keeps waiting for the resulting outcome.
func (a *Attempt) Wait(ctx context.Context) Outcome {
	select {
	case o := <-a.out:
		return o
	case <-ctx.Done():
	}
	a.Cancel()
	return <-a.out
}

// finish records the terminal outcome. Only the first call has any effect;
// it reports whether it was that call.
func (a *Attempt) finish(o Outcome) bool {
	if !a.finished.CompareAndSwap(false, true) {
		a.log.Debug("ignoring late resolution", zap.Stringer("outcome", o))
		return false
	}
	o.Attempt = a.ID

	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	if a.onFinish != nil {
		a.onFinish(o)
	}
	a.token.Cancel()
	a.out <- o
	close(a.done)
	a.log.Info("attempt resolved", zap.Stringer("outcome", o))
	return true
}
