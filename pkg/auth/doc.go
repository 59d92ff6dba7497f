// Package auth implements the Authorization Evaluator: the access-rule
// grammar, the per-frame auth zone, and the barrier-aware proof-stack walk
// that decides whether an invocation satisfies its receiver's declared
// access rule.
package auth
