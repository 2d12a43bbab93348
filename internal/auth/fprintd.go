package auth

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/keystore"
)

// DefaultVerifyTries is how many bad reads the fprintd sensor accepts before
// reporting a lockout.
const DefaultVerifyTries = 3

const probeTimeout = 5 * time.Second

// commandRunner runs a command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FprintdSensor is a legacy sensor backed by the fprintd command line tools.
type FprintdSensor struct {
	user  string
	tries int
	run   commandRunner
	log   *zap.Logger
}

// NewFprintdSensor returns a sensor verifying fingerprints of user.
func NewFprintdSensor(user string, logger *zap.Logger) *FprintdSensor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FprintdSensor{user: user, tries: DefaultVerifyTries, run: execRunner, log: logger.Named("fprintd")}
}

// FprintdInstalled reports whether fprintd-verify is on PATH.
func FprintdInstalled() bool {
	_, err := exec.LookPath("fprintd-verify")
	return err == nil
}

func (s *FprintdSensor) list() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	out, err := s.run(ctx, "fprintd-list", s.user)
	return string(out), err
}

func (s *FprintdSensor) HasHardware() bool {
	out, err := s.list()
	if errors.Is(err, exec.ErrNotFound) {
		return false
	}
	if strings.Contains(out, "No devices available") {
		return false
	}
	return err == nil
}

func (s *FprintdSensor) HasEnrolledCredentials() bool {
	out, err := s.list()
	if err != nil {
		return false
	}
	return countEnrolled(out) > 0
}

func (s *FprintdSensor) IssueChallenge(binding *keystore.Cipher, token *CancellationToken, cb func(Event)) {
	ctx, cancel := context.WithCancel(context.Background())
	token.OnCancel(cancel)

	go func() {
		defer cancel()
		for try := 1; ; try++ {
			out, err := s.run(ctx, "fprintd-verify", s.user)
			if ctx.Err() != nil {
				cb(Event{Kind: EventError, Code: ErrorCanceled})
				return
			}
			res, code := parseVerify(string(out), err)
			switch res {
			case verifyMatch:
				cb(Event{Kind: EventSucceeded, Binding: binding})
				return
			case verifyNoMatch:
				cb(Event{Kind: EventFailed, Message: "no match"})
				if try >= s.tries {
					cb(Event{Kind: EventError, Code: ErrorLockout})
					return
				}
			default:
				s.log.Debug("verify failed", zap.Stringer("code", code), zap.String("output", strings.TrimSpace(string(out))))
				cb(Event{Kind: EventError, Code: code})
				return
			}
		}
	}()
}

type verifyResult int

const (
	verifyMatch verifyResult = iota + 1
	verifyNoMatch
	verifyError
)

// parseVerify interprets fprintd-verify output.
func parseVerify(out string, err error) (verifyResult, ErrorCode) {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return verifyError, ErrorHWNotPresent
	case strings.Contains(out, "verify-match"):
		return verifyMatch, 0
	case strings.Contains(out, "verify-no-match"):
		return verifyNoMatch, 0
	case strings.Contains(out, "No devices available"):
		return verifyError, ErrorHWNotPresent
	case strings.Contains(out, "NoEnrolledPrints"), strings.Contains(out, "no fingers enrolled"):
		return verifyError, ErrorNoBiometrics
	case strings.Contains(out, "verify-disconnected"):
		return verifyError, ErrorHWUnavailable
	case strings.Contains(out, "verify-unknown-error"):
		return verifyError, ErrorUnableToProcess
	default:
		return verifyError, ErrorVendor
	}
}

// countEnrolled counts the finger lines in fprintd-list output, which look
// like " - #0: right-index-finger".
func countEnrolled(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "- #") {
			n++
		}
	}
	return n
}
