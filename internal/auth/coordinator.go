package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/keystore"
)

// DefaultLabel is the keystore label of the key that binds challenges.
const DefaultLabel = "biometric"

// State is the coordinator lifecycle state.
type State int

const (
	StateIdle State = iota
	StateChallenging
	StateAuthenticated
	StateCanceled
	StateFallbackRequested
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChallenging:
		return "challenging"
	case StateAuthenticated:
		return "authenticated"
	case StateCanceled:
		return "canceled"
	case StateFallbackRequested:
		return "fallback-requested"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func stateFor(k Kind) State {
	switch k {
	case Found:
		return StateAuthenticated
	case Canceled:
		return StateCanceled
	case FallbackRequested:
		return StateFallbackRequested
	default:
		return StateErrored
	}
}

// KeyProvider is the keystore surface the coordinator needs.
type KeyProvider interface {
	Generate(label string) error
	EncryptCipher(label string) (*keystore.Cipher, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLabel sets the keystore label used for the binding cipher.
func WithLabel(label string) Option {
	return func(c *Coordinator) { c.label = label }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithCancelGrace sets how long a canceled attempt waits for the platform.
func WithCancelGrace(d time.Duration) Option {
	return func(c *Coordinator) { c.grace = d }
}

// WithStrategy overrides strategy selection.
func WithStrategy(s Strategy) Option {
	return func(c *Coordinator) { c.strategy = s }
}

// Coordinator issues biometric challenges bound to a keystore cipher.
// At most one challenge is outstanding at a time.
type Coordinator struct {
	keys     KeyProvider
	strategy Strategy
	label    string
	grace    time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	state  State
	active *Attempt
}

// NewCoordinator selects a strategy from the platform and returns an idle
// coordinator.
func NewCoordinator(keys KeyProvider, p Platform, opts ...Option) *Coordinator {
	c := &Coordinator{
		keys:  keys,
		label: DefaultLabel,
		grace: DefaultCancelGrace,
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Named("auth")
	if c.strategy == nil {
		c.strategy = SelectStrategy(p, c.log)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Strategy names the selected strategy, or "none".
func (c *Coordinator) Strategy() string {
	if c.strategy == nil {
		return "none"
	}
	return c.strategy.Name()
}

// Start issues a challenge and returns its attempt. The binding key is
// generated on first use. Start fails with ErrAttemptInProgress while a
// previous attempt is unresolved; key preparation failures are returned
// as errors and leave the coordinator idle.
//
// Canceling ctx cancels the attempt.
func (c *Coordinator) Start(ctx context.Context) (*Attempt, error) {
	c.mu.Lock()
	if c.state == StateChallenging {
		c.mu.Unlock()
		return nil, ErrAttemptInProgress
	}

	if c.strategy == nil {
		a := c.begin()
		c.mu.Unlock()
		c.log.Info("no biometric facility available")
		a.finish(Outcome{Kind: Canceled, Code: ErrorHWNotPresent})
		return a, nil
	}

	if err := c.keys.Generate(c.label); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	binding, err := c.keys.EncryptCipher(c.label)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	a := c.begin()
	c.mu.Unlock()

	if ctx.Err() != nil {
		a.finish(Outcome{Kind: Canceled, Code: ErrorCanceled})
		return a, nil
	}
	go func() {
		select {
		case <-ctx.Done():
			a.Cancel()
		case <-a.Done():
		}
	}()

	a.log.Info("starting challenge", zap.String("strategy", c.strategy.Name()), zap.String("label", c.label))
	c.strategy.Begin(binding, a.Token(), func(r Resolution) {
		a.finish(c.verify(binding, r))
	})
	return a, nil
}

// begin creates the attempt and enters Challenging. c.mu must be held.
func (c *Coordinator) begin() *Attempt {
	var a *Attempt
	a = newAttempt(c.grace, c.log, func(o Outcome) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.active == a {
			c.state = stateFor(o.Kind)
			c.active = nil
		}
	})
	c.state = StateChallenging
	c.active = a
	return a
}

// verify checks that a Found resolution carries the attempt's own binding
// and that the binding still works.
func (c *Coordinator) verify(binding *keystore.Cipher, r Resolution) Outcome {
	if r.Kind != Found {
		return Outcome{Kind: r.Kind, Code: r.Code}
	}
	if r.Binding != binding {
		c.log.Warn("challenge succeeded with a foreign or missing binding")
		return Outcome{Kind: Errored, Code: ErrorBindingRejected}
	}
	if _, err := binding.Seal([]byte(c.label)); err != nil {
		c.log.Warn("binding cipher rejected probe", zap.Error(err))
		return Outcome{Kind: Errored, Code: ErrorBindingRejected}
	}
	return Outcome{Kind: Found}
}
