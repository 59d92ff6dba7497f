package module

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/metrics"
)

// AuthModule evaluates the callee's declared access rule against the
// current auth zone on every invocation, per §4.3's authorization
// evaluator.
type AuthModule struct {
	Base
}

// NewAuthModule returns an auth module.
func NewAuthModule() *AuthModule { return &AuthModule{} }

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) BeforeInvoke(ctx Context, inv *Invocation) error {
	if inv.Callee.Receiver.IsZero() {
		// Function calls have no receiver and therefore no attached
		// access-rules module to check against.
		return nil
	}

	rule, rules, err := ctx.ResolveAccessRule(inv.Callee.Receiver, inv.Callee.Ident)
	if err != nil {
		return fmt.Errorf("auth module: resolve access rule: %w", err)
	}

	cur := ctx.Stack().Current()
	if cur == nil {
		return fmt.Errorf("auth module: no current frame")
	}

	result, err := auth.CheckAuthorization(auth.AtBarrier, cur.AuthZone, rules, rule, ctx.ZoneLoader())
	if err != nil {
		return fmt.Errorf("auth module: %w", err)
	}
	if !result.Authorized {
		metrics.AuthChecksTotal.WithLabelValues("denied").Inc()
		return fmt.Errorf("%w: %s::%s", ErrAuthFailed, inv.Callee.Blueprint, inv.Callee.Ident)
	}
	metrics.AuthChecksTotal.WithLabelValues("authorized").Inc()
	return nil
}
