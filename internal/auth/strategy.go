package auth

import (
	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/keystore"
)

// Resolution is what a strategy reports when its challenge ends. A strategy
// may report more than once; the attempt keeps the first.
type Resolution struct {
	Kind    Kind
	Code    ErrorCode
	Binding *keystore.Cipher
}

// Strategy runs a biometric challenge on one platform facility.
type Strategy interface {
	Name() string
	Begin(binding *keystore.Cipher, token *CancellationToken, resolve func(Resolution))
}

// SelectStrategy picks the unified prompt when the platform has one, the
// legacy sensor otherwise, and nil when neither is present.
func SelectStrategy(p Platform, logger *zap.Logger) Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case p.Prompt != nil:
		return &UnifiedStrategy{prompt: p.Prompt, log: logger.Named("unified")}
	case p.Sensor != nil:
		return &LegacyStrategy{sensor: p.Sensor, dialog: p.Dialog, log: logger.Named("legacy")}
	default:
		return nil
	}
}

// UnifiedStrategy delegates the whole interaction, UI included, to a system
// prompt.
type UnifiedStrategy struct {
	prompt Biometrics
	log    *zap.Logger
}

func (s *UnifiedStrategy) Name() string { return "unified" }

func (s *UnifiedStrategy) Begin(binding *keystore.Cipher, token *CancellationToken, resolve func(Resolution)) {
	s.prompt.IssueChallenge(binding, token, func(ev Event) {
		switch ev.Kind {
		case EventSucceeded:
			resolve(Resolution{Kind: Found, Binding: ev.Binding})
		case EventFailed:
			s.log.Debug("bad biometric read", zap.String("message", ev.Message))
		case EventError:
			resolve(classifyError(ev.Code))
		}
	})
}

// LegacyStrategy drives a bare sensor and shows its own dialog offering
// cancel and the device-credential fallback.
type LegacyStrategy struct {
	sensor Biometrics
	dialog Dialog
	log    *zap.Logger
}

func (s *LegacyStrategy) Name() string { return "legacy" }

func (s *LegacyStrategy) Begin(binding *keystore.Cipher, token *CancellationToken, resolve func(Resolution)) {
	if !s.sensor.HasHardware() {
		resolve(Resolution{Kind: Canceled, Code: ErrorHWNotPresent})
		return
	}
	if !s.sensor.HasEnrolledCredentials() {
		resolve(Resolution{Kind: Canceled, Code: ErrorNoBiometrics})
		return
	}

	dismiss := func() {
		if s.dialog != nil {
			s.dialog.Dismiss()
		}
	}
	token.OnCancel(dismiss)

	s.sensor.IssueChallenge(binding, token, func(ev Event) {
		switch ev.Kind {
		case EventSucceeded:
			dismiss()
			resolve(Resolution{Kind: Found, Binding: ev.Binding})
		case EventFailed:
			s.log.Info("fingerprint not recognized", zap.String("message", ev.Message))
		case EventError:
			if token.Canceled() {
				s.log.Debug("sensor error after cancellation", zap.Stringer("code", ev.Code))
			}
			dismiss()
			resolve(classifyError(ev.Code))
		}
	})

	if s.dialog == nil {
		return
	}
	s.dialog.Show(func(c DialogChoice) {
		switch c {
		case ChoiceFallback:
			resolve(Resolution{Kind: FallbackRequested})
		case ChoiceCancel:
			resolve(Resolution{Kind: Canceled, Code: ErrorUserCanceled})
		}
	})
}

// classifyError maps a terminal platform code to a resolution. Missing
// hardware or enrollment and every user or system cancellation resolve as
// Canceled with the code kept; the rest are errors.
func classifyError(code ErrorCode) Resolution {
	switch code {
	case ErrorCanceled, ErrorUserCanceled, ErrorNegativeButton, ErrorHWNotPresent, ErrorNoBiometrics:
		return Resolution{Kind: Canceled, Code: code}
	default:
		return Resolution{Kind: Errored, Code: code}
	}
}
