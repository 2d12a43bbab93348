package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fallback runs the device-credential confirmation. Its attempts resolve
// as Found or Canceled only.
type Fallback struct {
	cred  DeviceCredential
	grace time.Duration
	log   *zap.Logger

	mu     sync.Mutex
	active *Attempt
}

// NewFallback wraps a device credential.
func NewFallback(cred DeviceCredential, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{cred: cred, grace: DefaultCancelGrace, log: logger.Named("fallback")}
}

// Available reports whether a device credential is configured.
func (f *Fallback) Available() bool {
	return f.cred != nil && f.cred.IsDeviceSecure()
}

// Start asks the user to confirm with the device credential.
func (f *Fallback) Start(ctx context.Context) (*Attempt, error) {
	f.mu.Lock()
	if f.active != nil {
		f.mu.Unlock()
		return nil, ErrAttemptInProgress
	}
	var a *Attempt
	a = newAttempt(f.grace, f.log, func(Outcome) {
		f.mu.Lock()
		if f.active == a {
			f.active = nil
		}
		f.mu.Unlock()
	})
	f.active = a
	f.mu.Unlock()

	if !f.Available() {
		a.log.Info("no device credential configured")
		a.finish(Outcome{Kind: Canceled, Code: ErrorNoDeviceCredential})
		return a, nil
	}
	if ctx.Err() != nil {
		a.finish(Outcome{Kind: Canceled, Code: ErrorCanceled})
		return a, nil
	}

	cctx, cancel := context.WithCancel(ctx)
	a.Token().OnCancel(cancel)
	go func() {
		select {
		case <-ctx.Done():
			a.Cancel()
		case <-a.Done():
		}
	}()

	a.log.Info("requesting device credential")
	f.cred.IssueConfirmation(cctx, func(confirmed bool) {
		if confirmed {
			a.finish(Outcome{Kind: Found})
			return
		}
		a.finish(Outcome{Kind: Canceled, Code: ErrorUserCanceled})
	})
	return a, nil
}
