package auth

import (
	"context"

	"github.com/semmy-space/dataprotect/internal/keystore"
)

// EventKind is the type of a platform challenge event.
type EventKind int

const (
	// EventSucceeded carries the authenticated binding cipher.
	EventSucceeded EventKind = iota + 1
	// EventFailed is a non-terminal bad read; the challenge continues.
	EventFailed
	// EventError is terminal and carries a platform ErrorCode.
	EventError
)

// Event is delivered by the platform, from any goroutine, while a challenge
// runs. After the challenge's token is canceled the platform reports an
// EventError with ErrorCanceled.
type Event struct {
	Kind    EventKind
	Code    ErrorCode
	Message string
	Binding *keystore.Cipher
}

// Biometrics is a platform biometric facility.
type Biometrics interface {
	HasHardware() bool
	HasEnrolledCredentials() bool
	// IssueChallenge starts a challenge bound to binding and returns
	// immediately. Events arrive through cb until a terminal one.
	IssueChallenge(binding *keystore.Cipher, token *CancellationToken, cb func(Event))
}

// DialogChoice is a user selection in the legacy prompt dialog.
type DialogChoice int

const (
	ChoiceCancel DialogChoice = iota + 1
	ChoiceFallback
)

// Dialog is the prompt shown next to a legacy sensor challenge. It offers
// cancel and use-device-credential actions.
type Dialog interface {
	Show(choose func(DialogChoice))
	Dismiss()
}

// DeviceCredential is the platform's device-credential confirmation.
type DeviceCredential interface {
	IsDeviceSecure() bool
	// IssueConfirmation asks the user to confirm and calls done once.
	IssueConfirmation(ctx context.Context, done func(confirmed bool))
}

// Platform bundles the facilities a Coordinator selects its strategy from.
// Prompt is a unified system prompt with its own UI; Sensor is a bare
// reader that needs Dialog. Either may be nil.
type Platform struct {
	Prompt Biometrics
	Sensor Biometrics
	Dialog Dialog
}
