package auth

// CheckResult is the outcome of evaluating an AccessRule: either
// Authorized, or Failed with the chain of rules that rejected the request,
// innermost first, for diagnostics.
type CheckResult struct {
	Authorized  bool
	FailedStack []AccessRule
}

func authorized() CheckResult { return CheckResult{Authorized: true} }

func failed(stack ...AccessRule) CheckResult {
	return CheckResult{FailedStack: stack}
}

func (r CheckResult) withRule(rule AccessRule) CheckResult {
	if r.Authorized {
		return r
	}
	r.FailedStack = append(append([]AccessRule(nil), r.FailedStack...), rule)
	return r
}
