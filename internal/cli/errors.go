package cli

import (
	"errors"

	"github.com/99designs/keyring"

	"github.com/semmy-space/dataprotect/internal/auth"
	"github.com/semmy-space/dataprotect/internal/envelope"
	"github.com/semmy-space/dataprotect/internal/keystore"
	"github.com/semmy-space/dataprotect/internal/output"
	"github.com/semmy-space/dataprotect/internal/vault"
)

// Classify maps domain errors onto CLIErrors with exit codes and hints.
// CLIErrors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var authErr *auth.AuthError
	switch {
	case errors.Is(err, vault.ErrLocked):
		return output.Wrap(output.ExitLocked, err).
			WithHint("Reading a secret requires authentication; run it from an interactive terminal")
	case errors.Is(err, vault.ErrNotFound), errors.Is(err, keystore.ErrUnknownLabel):
		return output.Wrap(output.ExitNotFound, err)
	case errors.Is(err, envelope.ErrTagMismatch),
		errors.Is(err, envelope.ErrMalformedEnvelope),
		errors.Is(err, envelope.ErrUnsupportedVersion):
		return output.Wrap(output.ExitIntegrity, err).
			WithHint("The stored ciphertext was modified or written with another key")
	case errors.Is(err, auth.ErrCanceled), errors.Is(err, auth.ErrFallbackRequested):
		return output.Wrap(output.ExitCanceled, err).
			WithHint("Without a fingerprint sensor, set a device PIN: dataprotect auth credential set")
	case errors.As(err, &authErr), errors.Is(err, vault.ErrNotAuthenticated):
		return output.Wrap(output.ExitAuth, err)
	case errors.Is(err, auth.ErrAttemptInProgress):
		return output.Wrap(output.ExitBusy, err)
	case errors.Is(err, keystore.ErrKeyGeneration), errors.Is(err, keyring.ErrNoAvailImpl):
		return output.Wrap(output.ExitKeystore, err).
			WithHint("Try: dataprotect config set backend file")
	default:
		return output.Wrap(output.ExitGeneral, err)
	}
}
