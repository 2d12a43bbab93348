package output

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCLIError(t *testing.T) {
	err := NewCLIError(ExitLocked, "secret store is locked")
	assert.Equal(t, ExitLocked, err.ExitCode)
	assert.Equal(t, "secret store is locked", err.Message)
	assert.Empty(t, err.Hint)
}

func TestCLIErrorError(t *testing.T) {
	err := &CLIError{Message: "something broke"}
	assert.Equal(t, "something broke", err.Error())
}

func TestCLIErrorWithHint(t *testing.T) {
	err := NewCLIError(ExitAuth, "auth failed")
	result := err.WithHint("Run: dataprotect auth check")

	// Fluent builder returns same pointer
	assert.Same(t, err, result)
	assert.Equal(t, "Run: dataprotect auth check", err.Hint)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("tag mismatch")
	err := Wrap(ExitIntegrity, cause)

	assert.Equal(t, "tag mismatch", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(errors.New("plain")))
	assert.Equal(t, ExitCanceled, ExitCode(NewCLIError(ExitCanceled, "canceled")))
	assert.Equal(t, ExitNotFound, ExitCode(fmt.Errorf("wrapped: %w", NewCLIError(ExitNotFound, "x"))))
}

func TestExitWithError(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewWriter("plain", &out, &errOut)

	ExitWithError(f, NewCLIError(ExitLocked, "locked").WithHint("authenticate first"))
	assert.Equal(t, "error: locked\nhint: authenticate first\n", errOut.String())

	errOut.Reset()
	ExitWithError(f, errors.New("boom"))
	assert.Equal(t, "error: error: boom\n", errOut.String())
	assert.Empty(t, out.String())
}
