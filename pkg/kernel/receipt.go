package kernel

import (
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/module"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// Outcome is the four-way classification the receipt distinguishes, per
// the recovery model: a rejected transaction never touches the store, a
// commit-failure still applies fee-locking side effects, a commit-success
// applies everything, and an abort is transient and may be retried.
type Outcome int

const (
	OutcomeCommitSuccess Outcome = iota
	OutcomeCommitFailure
	OutcomeRejection
	OutcomeAbort
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitSuccess:
		return "commit_success"
	case OutcomeCommitFailure:
		return "commit_failure"
	case OutcomeRejection:
		return "rejection"
	case OutcomeAbort:
		return "abort"
	default:
		return "unknown_outcome"
	}
}

// Receipt is the kernel's complete output for one transaction: the
// classified outcome, the root invocation's output (on success), the state
// updates applied (full on success, fee-only on failure, none on
// rejection/abort), and the events the module pipeline collected.
type Receipt struct {
	Outcome Outcome
	Output  frame.Payload
	Updates *substate.StateUpdates
	Events  []module.EventRecord
	Err     error
}
