// Package kernel implements the Kernel Loop: the dispatcher that ties the
// call-frame stack, substate track, authorization evaluator and system
// module pipeline together into one deterministic invocation cycle.
package kernel

import (
	"errors"
	"fmt"

	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/metrics"
	"github.com/ledgerkernel/engine/pkg/module"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// ObjectInfo is the blueprint identity recorded for every node the kernel
// creates, returned by GetObjectInfo. BackingNode is set only on the copy
// recorded at a global address: it is the internal node id GlobalizeNode
// promoted, the same indirection Radix Engine keeps at a global address so
// that substate access against the address still resolves to the node that
// actually carries the data. Zero means nodeID backs its own substates.
type ObjectInfo struct {
	Blueprint   string
	Package     id.NodeID
	Global      bool
	BackingNode id.NodeID
}

// GlobalModuleInit is the set of partition modules a frame may attach
// atomically when it globalizes a node it owns: the named authorities and
// per-method access rules an AuthModule check resolves against, the
// per-method royalty schedule a RoyaltyModule reservation resolves against,
// and the owner rule that gates call_module_method's mutating operations on
// the attached access-rules and royalty modules themselves.
type GlobalModuleInit struct {
	Authorities auth.AccessRulesConfig
	MethodRules map[string]auth.AccessRule
	Royalties   map[string]auth.Decimal
	OwnerRule   auth.AccessRule
}

type nodeAuth struct {
	authorities auth.AccessRulesConfig
	methodRules map[string]auth.AccessRule
	royalties   map[string]auth.Decimal
	ownerRule   auth.AccessRule
	// updateRules holds, per method-rule target, the authority that must be
	// satisfied to call set_group_access_rule/lock_group_access_rule again
	// for that target. Absent entries fall back to ownerRule.
	// lock_group_access_rule "locks" a target by setting its entry here to
	// auth.DenyAll: the lock is enforced by the authority check itself,
	// with no separate locked flag to fall out of sync with it.
	updateRules map[string]auth.AccessRule
}

// Kernel is the transaction-scoped runtime: one Kernel executes exactly one
// root invocation and is then discarded. It implements both ClientAPI (the
// surface the Executor calls back into) and module.Context (the surface
// the system module pipeline observes through).
type Kernel struct {
	stack    *frame.Stack
	track    *substate.Track
	pipeline *module.Pipeline
	idAlloc  *id.Allocator
	executor Executor

	objects map[id.NodeID]ObjectInfo
	auth    map[id.NodeID]nodeAuth
	zones   map[id.NodeID]*auth.Zone
	royaltyVaults map[id.NodeID]auth.Decimal

	feeLock auth.Decimal

	events  *module.EventsModule
	logging *module.LoggingModule
}

// New returns a fresh kernel over db, wired with the given module pipeline
// and executor. feeLock is the amount the transaction's manifest locked
// against execution; it is charged against the store as soon as on_init
// succeeds, before the executor runs, so it survives a later commit-failure
// independently of whatever the executor itself goes on to write (see
// Outcome). txnID, if non-empty, tags every lifecycle line the kernel's
// LoggingModule emits for this one transaction.
//
// The caller is expected to include an EventsModule and may include a
// LoggingModule in pipeline for EmitEvent/Log to have somewhere to go; if
// absent, those calls are no-ops.
func New(db substate.Database, pipeline *module.Pipeline, executor Executor, feeLock auth.Decimal, txnID string) *Kernel {
	k := &Kernel{
		stack:         frame.NewStack(),
		track:         substate.NewTrack(db),
		pipeline:      pipeline,
		idAlloc:       id.NewAllocator(),
		executor:      executor,
		objects:       make(map[id.NodeID]ObjectInfo),
		auth:          make(map[id.NodeID]nodeAuth),
		zones:         make(map[id.NodeID]*auth.Zone),
		royaltyVaults: make(map[id.NodeID]auth.Decimal),
		feeLock:       feeLock,
	}
	for _, m := range pipeline.Modules() {
		if em, ok := m.(*module.EventsModule); ok {
			k.events = em
		}
		if lm, ok := m.(*module.LoggingModule); ok {
			k.logging = lm
		}
	}
	if k.logging != nil && txnID != "" {
		k.logging.Tag(txnID)
	}
	return k
}

// Invoke runs invocation as the transaction's root call: fires on_init,
// pushes the root frame, runs the executor, fires on_teardown unconditionally,
// and classifies the outcome into a Receipt. It never panics on an
// executor or module error; every failure is folded into the returned
// Receipt.
func (k *Kernel) Invoke(rootPackage id.NodeID, blueprint, ident string, input frame.Payload, rootProofs ...auth.Proof) *Receipt {
	if k.logging != nil {
		k.logging.TagPackage(rootPackage.String())
	}
	actor := frame.Actor{
		Kind:      frame.ActorFunction,
		Package:   rootPackage,
		Blueprint: blueprint,
		Ident:     ident,
	}
	return k.invokeRoot(actor, input, nil, rootProofs)
}

// InvokeMethod runs a method call on an already-globalized node as the
// transaction's root call: the manifest's own transaction-processor
// equivalent resolves the global address before any blueprint code runs, so
// the root frame must see receiver as visible from the start rather than
// inheriting it from an ancestor frame that does not exist yet. rootProofs
// stands in for the proofs a transaction processor would already have
// verified and deposited into the root auth zone before handing control to
// the kernel (see §1's scope of the manifest/signature layer).
func (k *Kernel) InvokeMethod(receiver id.NodeID, ident string, input frame.Payload, rootProofs ...auth.Proof) *Receipt {
	info, ok, err := k.loadObjectInfo(receiver)
	if err != nil {
		return &Receipt{Outcome: OutcomeRejection, Err: kernelErr(err)}
	}
	if !ok {
		return &Receipt{Outcome: OutcomeRejection, Err: systemErr(fmt.Errorf("%w: %s", ErrReceiverNotFound, receiver))}
	}
	actor := frame.Actor{
		Kind:      frame.ActorMethod,
		Package:   info.Package,
		Blueprint: info.Blueprint,
		Ident:     ident,
		Receiver:  receiver,
	}
	if info.Global {
		addr := receiver
		actor.GlobalAddress = &addr
	}
	return k.invokeRoot(actor, input, &receiver, rootProofs)
}

// invokeRoot is the shared on_init/run/on_teardown/commit sequence behind
// Invoke and InvokeMethod. makeVisible, if non-nil, is added to the root
// frame's visible set before the executor runs, for a method call whose
// receiver has no ancestor frame to extend a reference down from.
// rootProofs are deposited into the root auth zone before execution starts.
func (k *Kernel) invokeRoot(actor frame.Actor, input frame.Payload, makeVisible *id.NodeID, rootProofs []auth.Proof) *Receipt {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TransactionDuration)

	initTimer := metrics.NewTimer()
	_, initErr := k.pipeline.Forward(func(m module.SystemModule) error {
		return m.OnInit(k)
	})
	initTimer.ObserveDurationVec(metrics.ModuleHookDuration, "on_init")
	if initErr != nil {
		recordOutcome(OutcomeRejection)
		return &Receipt{Outcome: OutcomeRejection, Err: moduleErr(initErr)}
	}

	// The fee is locked immediately after on_init succeeds and before any
	// business logic runs: a rejection (on_init failure) never reaches this
	// line, so it never locks a fee, while everything past this point
	// commits the fee regardless of how execution turns out.
	if err := k.lockFee(k.feeLock); err != nil {
		recordOutcome(OutcomeRejection)
		return &Receipt{Outcome: OutcomeRejection, Err: kernelErr(err)}
	}

	rootZone := k.allocateZone(nil, false)
	for _, p := range rootProofs {
		k.zones[rootZone].PushProof(p)
	}
	k.stack.PushRoot(frame.Actor{Kind: frame.ActorRoot}, rootZone)
	if makeVisible != nil {
		_ = k.stack.AddVisible(*makeVisible)
	}

	output, execErr := k.runInvocation(actor, input)

	teardownTimer := metrics.NewTimer()
	_, teardownErr := k.pipeline.Forward(func(m module.SystemModule) error {
		return m.OnTeardown(k)
	})
	teardownTimer.ObserveDurationVec(metrics.ModuleHookDuration, "on_teardown")

	if execErr != nil {
		outcome := OutcomeCommitFailure
		var updates *substate.StateUpdates
		if isAbort(execErr) {
			// An abort unwinds cleanly but the track itself is discarded:
			// no partial commit, not even the fee.
			outcome = OutcomeAbort
		} else {
			updates = k.track.FeeUpdates()
		}
		recordOutcome(outcome)
		return &Receipt{Outcome: outcome, Err: execErr, Updates: updates}
	}
	if teardownErr != nil {
		recordOutcome(OutcomeCommitFailure)
		return &Receipt{Outcome: OutcomeCommitFailure, Err: teardownErr, Updates: k.track.FeeUpdates()}
	}

	if k.stack.Depth() != 1 {
		recordOutcome(OutcomeCommitFailure)
		return &Receipt{Outcome: OutcomeCommitFailure, Err: kernelErr(fmt.Errorf("root frame not balanced: depth %d", k.stack.Depth())), Updates: k.track.FeeUpdates()}
	}
	if root := k.stack.Current(); root != nil && root.OutstandingLocks() > 0 {
		recordOutcome(OutcomeCommitFailure)
		return &Receipt{Outcome: OutcomeCommitFailure, Err: kernelErr(frame.ErrUnbalancedLocks), Updates: k.track.FeeUpdates()}
	}

	commitTimer := metrics.NewTimer()
	updates := k.track.Commit()
	commitTimer.ObserveDuration(metrics.SubstateCommitDuration)

	var ev []module.EventRecord
	if k.events != nil {
		ev = k.events.Events()
	}
	recordOutcome(OutcomeCommitSuccess)
	return &Receipt{
		Outcome: OutcomeCommitSuccess,
		Output:  output,
		Updates: updates,
		Events:  ev,
	}
}

// recordOutcome feeds both the transaction counter and the health checker's
// rolling abort-rate window with the same classified outcome.
func recordOutcome(outcome Outcome) {
	metrics.TransactionsTotal.WithLabelValues(outcome.String()).Inc()
	metrics.RecordTransactionOutcome(outcome.String())
}

// isAbort reports whether err represents a transient, retryable failure.
// Only costing's out-of-gas signal qualifies: AuthError and RoyaltyError are
// also KindModuleError but are policy failures, not resource exhaustion, so
// they classify as commit-failure instead.
func isAbort(err error) bool {
	kerr, ok := err.(*Error)
	if !ok {
		return false
	}
	return kerr.Kind == KindModuleError && errors.Is(kerr.Err, module.ErrOutOfGas)
}

// runInvocation implements the before_invoke -> before_push_frame ->
// on_execution_start -> [executor] -> on_execution_finish -> after_pop_frame
// -> after_invoke event sequence for one call, including the root call. An
// error from any module short-circuits the remaining "before" hooks for
// that stage; the matching "after" hook still fires, in reverse order, for
// every module that had already fired its "before" counterpart, so cleanup
// (releasing reservations, flushing counters) always happens symmetrically.
func (k *Kernel) runInvocation(actor frame.Actor, input frame.Payload) (frame.Payload, error) {
	caller := k.stack.Current()

	inv := &module.Invocation{Callee: actor, Input: input}
	firedInvoke, err := k.pipeline.Forward(func(m module.SystemModule) error {
		return m.BeforeInvoke(k, inv)
	})
	if err != nil {
		k.pipeline.Reverse(firedInvoke, func(m module.SystemModule) error {
			return m.AfterInvoke(k, 0, false)
		})
		return frame.Payload{}, moduleErr(err)
	}

	firedPush, err := k.pipeline.Forward(func(m module.SystemModule) error {
		return m.BeforePushFrame(k, actor, &input)
	})
	if err != nil {
		k.pipeline.Reverse(firedPush, func(m module.SystemModule) error {
			return m.AfterPopFrame(k, false)
		})
		k.pipeline.Reverse(firedInvoke, func(m module.SystemModule) error {
			return m.AfterInvoke(k, 0, false)
		})
		return frame.Payload{}, moduleErr(err)
	}

	childZone := k.allocateZone(&caller.AuthZone, false)
	if _, err := k.stack.PushFrame(actor, input, childZone); err != nil {
		k.pipeline.Reverse(firedPush, func(m module.SystemModule) error {
			return m.AfterPopFrame(k, false)
		})
		k.pipeline.Reverse(firedInvoke, func(m module.SystemModule) error {
			return m.AfterInvoke(k, 0, false)
		})
		return frame.Payload{}, kernelErr(err)
	}
	if !actor.Receiver.IsZero() {
		_ = k.stack.AddVisible(actor.Receiver)
	}
	metrics.FramesPushedTotal.Inc()
	metrics.FrameDepth.Observe(float64(k.stack.Depth()))

	var callerActor *frame.Actor
	if caller != nil {
		a := caller.Actor
		callerActor = &a
	}
	firedStart, startErr := k.pipeline.Forward(func(m module.SystemModule) error {
		return m.OnExecutionStart(k, callerActor)
	})

	var output frame.Payload
	var execErr error
	if startErr != nil {
		k.pipeline.Reverse(firedStart, func(m module.SystemModule) error {
			return m.OnExecutionFinish(k, callerActor, &output)
		})
		execErr = moduleErr(startErr)
	} else {
		output, execErr = k.executor.Invoke(actor, input, k)
		if _, err := k.pipeline.Forward(func(m module.SystemModule) error {
			return m.OnExecutionFinish(k, callerActor, &output)
		}); err != nil && execErr == nil {
			execErr = moduleErr(err)
		}
	}

	ok := execErr == nil
	if _, popErr := k.stack.Pop(output); popErr != nil && ok {
		execErr = kernelErr(popErr)
		ok = false
	}

	k.pipeline.Reverse(len(k.pipeline.Modules()), func(m module.SystemModule) error {
		return m.AfterPopFrame(k, ok)
	})
	k.pipeline.Reverse(len(k.pipeline.Modules()), func(m module.SystemModule) error {
		return m.AfterInvoke(k, len(output.Bytes), ok)
	})

	if execErr != nil {
		return frame.Payload{}, execErr
	}
	return output, nil
}

func (k *Kernel) allocateZone(parent *id.NodeID, isBarrier bool) id.NodeID {
	zoneID, _ := k.idAlloc.Allocate(id.EntityTypeInternalAuthZone)
	z := auth.NewZone(zoneID)
	z.IsBarrier = isBarrier
	z.Parent = parent
	k.zones[zoneID] = z
	return zoneID
}

// Stack implements module.Context.
func (k *Kernel) Stack() *frame.Stack { return k.stack }

// Track implements module.Context.
func (k *Kernel) Track() *substate.Track { return k.track }

// ZoneLoader implements module.Context.
func (k *Kernel) ZoneLoader() auth.ZoneLoader { return k }

// LoadZone implements auth.ZoneLoader.
func (k *Kernel) LoadZone(zoneID id.NodeID) (*auth.Zone, error) {
	z, ok := k.zones[zoneID]
	if !ok {
		return nil, fmt.Errorf("kernel: unknown auth zone %s", zoneID)
	}
	return z, nil
}

// ResolveAccessRule implements module.Context.
func (k *Kernel) ResolveAccessRule(receiver id.NodeID, ident string) (auth.AccessRule, auth.AccessRulesConfig, error) {
	na, ok := k.auth[receiver]
	if !ok {
		return auth.AllowAll, auth.AccessRulesConfig{}, nil
	}
	if rule, ok := na.methodRules[ident]; ok {
		return rule, na.authorities, nil
	}
	return auth.AllowAll, na.authorities, nil
}

// ResolveRoyalty implements module.Context.
func (k *Kernel) ResolveRoyalty(receiver id.NodeID, ident string) (auth.Decimal, bool, error) {
	na, ok := k.auth[receiver]
	if !ok {
		return 0, false, nil
	}
	amount, ok := na.royalties[ident]
	return amount, ok, nil
}

// CreditRoyalty implements module.Context.
func (k *Kernel) CreditRoyalty(receiver id.NodeID, amount auth.Decimal) error {
	k.royaltyVaults[receiver] += amount
	return nil
}

// RoyaltyBalance returns the accumulated royalty credited to receiver, for
// tests and diagnostics.
func (k *Kernel) RoyaltyBalance(receiver id.NodeID) auth.Decimal {
	return k.royaltyVaults[receiver]
}
