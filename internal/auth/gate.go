package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FallbackPolicy decides when Gate runs the device-credential fallback.
type FallbackPolicy string

const (
	// FallbackAuto runs the fallback when the user asks for it, and when
	// biometrics are unavailable but a device credential is configured.
	FallbackAuto FallbackPolicy = "auto"
	// FallbackRequest runs the fallback only when the user asks for it.
	FallbackRequest FallbackPolicy = "request"
	// FallbackNever never runs the fallback.
	FallbackNever FallbackPolicy = "never"
)

// ParseFallbackPolicy validates a policy name.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(s); p {
	case FallbackAuto, FallbackRequest, FallbackNever:
		return p, nil
	case "":
		return FallbackAuto, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q (valid: auto, request, never)", s)
	}
}

// Unlocker accepts an authentication outcome.
type Unlocker interface {
	Unlock(Outcome) error
}

// Gate runs a biometric challenge and, per policy, the fallback.
type Gate struct {
	coord    *Coordinator
	fallback *Fallback
	policy   FallbackPolicy
	log      *zap.Logger
}

// NewGate chains a coordinator and an optional fallback.
func NewGate(coord *Coordinator, fallback *Fallback, policy FallbackPolicy, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{coord: coord, fallback: fallback, policy: policy, log: logger.Named("gate")}
}

// Authenticate runs attempts until one yields a final outcome.
func (g *Gate) Authenticate(ctx context.Context) (Outcome, error) {
	a, err := g.coord.Start(ctx)
	if err != nil {
		return Outcome{}, err
	}
	o := a.Wait(ctx)
	if !g.wantFallback(o) {
		return o, nil
	}

	g.log.Info("switching to device credential", zap.Stringer("after", o))
	fa, err := g.fallback.Start(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return fa.Wait(ctx), nil
}

// Unlock authenticates and hands a Found outcome to u. Any other outcome
// is returned as its error.
func (g *Gate) Unlock(ctx context.Context, u Unlocker) (Outcome, error) {
	o, err := g.Authenticate(ctx)
	if err != nil {
		return o, err
	}
	if o.Kind != Found {
		return o, o.Err()
	}
	return o, u.Unlock(o)
}

func (g *Gate) wantFallback(o Outcome) bool {
	if g.fallback == nil || g.policy == FallbackNever {
		return false
	}
	switch {
	case o.Kind == FallbackRequested:
		return true
	case o.Kind == Canceled && o.Code.Unavailable():
		return g.policy == FallbackAuto && g.fallback.Available()
	default:
		return false
	}
}
