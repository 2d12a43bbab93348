// Package auth drives the authentication challenge that moves a secret
// store from locked to unlocked.
//
// A Coordinator issues one biometric challenge per Start, bound to a cipher
// from the keystore, and reports exactly one Outcome through an Attempt. A
// Fallback runs the device-credential confirmation when the user asks for
// it. Gate chains the two.
package auth

import (
	"errors"
	"fmt"
)

// Kind is the variant of an authentication Outcome.
type Kind int

const (
	// Found means the user authenticated.
	Found Kind = iota + 1
	// Canceled means the user or the system canceled, or biometrics are unavailable.
	Canceled
	// FallbackRequested means the user chose the device-credential path.
	FallbackRequested
	// Errored means an unrecoverable platform error; see Outcome.Code.
	Errored
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case Canceled:
		return "canceled"
	case FallbackRequested:
		return "fallback-requested"
	case Errored:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrorCode is a platform authentication error code. Values mirror the
// platform biometric error taxonomy and are surfaced untranslated.
type ErrorCode int

const (
	ErrorHWUnavailable    ErrorCode = 1
	ErrorUnableToProcess  ErrorCode = 2
	ErrorTimeout          ErrorCode = 3
	ErrorNoSpace          ErrorCode = 4
	ErrorCanceled         ErrorCode = 5
	ErrorLockout          ErrorCode = 7
	ErrorVendor           ErrorCode = 8
	ErrorLockoutPermanent ErrorCode = 9
	ErrorUserCanceled     ErrorCode = 10
	ErrorNoBiometrics     ErrorCode = 11
	ErrorHWNotPresent     ErrorCode = 12
	ErrorNegativeButton   ErrorCode = 13

	// Codes below zero originate in this package.

	// ErrorBindingRejected means the platform reported success but the bound
	// cipher was missing, foreign or unusable.
	ErrorBindingRejected ErrorCode = -1
	// ErrorNoDeviceCredential means no device credential is configured.
	ErrorNoDeviceCredential ErrorCode = -2
)

var codeNames = map[ErrorCode]string{
	ErrorHWUnavailable:      "hw-unavailable",
	ErrorUnableToProcess:    "unable-to-process",
	ErrorTimeout:            "timeout",
	ErrorNoSpace:            "no-space",
	ErrorCanceled:           "canceled",
	ErrorLockout:            "lockout",
	ErrorVendor:             "vendor",
	ErrorLockoutPermanent:   "lockout-permanent",
	ErrorUserCanceled:       "user-canceled",
	ErrorNoBiometrics:       "no-biometrics",
	ErrorHWNotPresent:       "hw-not-present",
	ErrorNegativeButton:     "negative-button",
	ErrorBindingRejected:    "binding-rejected",
	ErrorNoDeviceCredential: "no-device-credential",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Unavailable reports whether the code means biometrics cannot be used on
// this device at all, as opposed to a failed or canceled challenge.
func (c ErrorCode) Unavailable() bool {
	return c == ErrorHWNotPresent || c == ErrorNoBiometrics
}

var (
	// ErrCanceled is Outcome.Err for Canceled outcomes.
	ErrCanceled = errors.New("authentication canceled")
	// ErrFallbackRequested is Outcome.Err for FallbackRequested outcomes.
	ErrFallbackRequested = errors.New("device credential fallback requested")
	// ErrAttemptInProgress is returned by Start while a challenge is outstanding.
	ErrAttemptInProgress = errors.New("authentication attempt already in progress")
)

// AuthError carries an unrecoverable platform error code.
type AuthError struct {
	Code ErrorCode
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication error %d (%s)", int(e.Code), e.Code)
}

// Outcome is the single terminal result of one authentication attempt.
type Outcome struct {
	Kind Kind
	// Code is the platform code behind a Canceled or Errored outcome.
	Code ErrorCode
	// Attempt is the ID of the attempt that produced the outcome.
	Attempt string
}

// Err converts the outcome to an error; nil for Found.
func (o Outcome) Err() error {
	switch o.Kind {
	case Found:
		return nil
	case Canceled:
		if o.Code != 0 {
			return fmt.Errorf("%w (%s)", ErrCanceled, o.Code)
		}
		return ErrCanceled
	case FallbackRequested:
		return ErrFallbackRequested
	default:
		return &AuthError{Code: o.Code}
	}
}

func (o Outcome) String() string {
	if o.Code != 0 {
		return fmt.Sprintf("%s(%s)", o.Kind, o.Code)
	}
	return o.Kind.String()
}
