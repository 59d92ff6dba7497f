package module

import "errors"

// ModuleError-kind failures, raised by a specific module rather than the
// kernel's own invariant checks.
var (
	ErrOutOfGas      = errors.New("module: out of gas")
	ErrAuthFailed    = errors.New("module: assert access rule failed")
	ErrRoyaltyFailed = errors.New("module: royalty reservation failed")
)
