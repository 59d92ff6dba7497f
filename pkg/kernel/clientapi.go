package kernel

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/log"
	"github.com/ledgerkernel/engine/pkg/metrics"
	"github.com/ledgerkernel/engine/pkg/module"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// ClientAPI is the complete surface the kernel exposes to executor code, §6
// "Kernel -> Caller". The executor never touches the frame stack, the
// track, or the module pipeline directly; every operation is mediated
// here so the module pipeline observes it and the ownership/visibility
// rules are enforced uniformly.
type ClientAPI interface {
	ActorInfo() frame.Actor

	AllocateNodeID(entityType id.EntityType) (id.NodeID, error)
	CreateNode(nodeID id.NodeID, blueprint string, pkg id.NodeID, init substate.NodeInit) error
	DropNode(nodeID id.NodeID) error
	GetObjectInfo(nodeID id.NodeID) (ObjectInfo, error)

	LockSubstate(node id.NodeID, partition substate.PartitionNumber, key []byte, flags substate.LockFlags) (substate.LockHandle, error)
	ReadSubstate(handle substate.LockHandle) ([]byte, error)
	WriteSubstate(handle substate.LockHandle, value []byte) error
	ReleaseLock(handle substate.LockHandle) error

	CallMethod(receiver id.NodeID, ident string, args frame.Payload) (frame.Payload, error)
	CallFunction(pkg id.NodeID, blueprint, ident string, args frame.Payload) (frame.Payload, error)

	// CallModuleMethod dispatches ident to one of receiver's attached
	// partition modules (access-rules or royalty) rather than its blueprint
	// method table, per §3's "partition modules ... may be attached
	// atomically" and §6's call_module_method op.
	CallModuleMethod(receiver id.NodeID, mod ModuleID, ident string, args ModuleMethodArgs) error

	// GlobalizeNode promotes node (owned by the current frame) to a
	// world-visible global at addr, atomically attaching init's access
	// rules and royalty schedule.
	GlobalizeNode(node id.NodeID, addr id.NodeID, init GlobalModuleInit) error

	GetGlobalAddress() (id.NodeID, error)
	EmitEvent(schema string, payload []byte) error
	Log(level log.Level, msg string)
}

// ModuleID names one of the partition modules a globalized node may have
// attached (§3): access-rules or royalty. Metadata is read-only from the
// kernel's perspective and has no mutating call_module_method idents.
type ModuleID string

const (
	ModuleAccessRules ModuleID = "access_rules"
	ModuleRoyalty     ModuleID = "royalty"
)

// ModuleMethodArgs is call_module_method's argument. A module method never
// runs through the Executor, so there is no decoded Payload boundary here
// the way CallMethod/CallFunction have: the kernel mutates its own
// bookkeeping directly from the typed fields supplied.
type ModuleMethodArgs struct {
	// Target names the method (for access-rules) or royalty-bearing ident
	// (for royalty) the call applies to.
	Target    string
	Rule      auth.AccessRule
	Royalties map[string]auth.Decimal
}

// ActorInfo returns the current frame's actor identity.
func (k *Kernel) ActorInfo() frame.Actor {
	cur := k.stack.Current()
	if cur == nil {
		return frame.Actor{}
	}
	return cur.Actor
}

// AllocateNodeID reserves a fresh id; the node has no substates until
// CreateNode materializes it.
func (k *Kernel) AllocateNodeID(entityType id.EntityType) (id.NodeID, error) {
	nodeID, err := k.idAlloc.Allocate(entityType)
	if err != nil {
		return id.Zero, kernelErr(err)
	}
	for _, m := range k.pipeline.Modules() {
		if err := m.OnAllocateNodeID(k, entityType); err != nil {
			return id.Zero, moduleErr(err)
		}
	}
	return nodeID, nil
}

// CreateNode materializes init's partitions for nodeID into the current
// frame's owned-set. nodeID must have been reserved by AllocateNodeID and
// not already materialized.
func (k *Kernel) CreateNode(nodeID id.NodeID, blueprint string, pkg id.NodeID, init substate.NodeInit) error {
	if _, ok := k.objects[nodeID]; ok {
		return systemErr(fmt.Errorf("%w: %s", ErrNodeAlreadyExists, nodeID))
	}

	for _, m := range k.pipeline.Modules() {
		if err := m.BeforeCreateNode(k, nodeID, init); err != nil {
			return moduleErr(err)
		}
	}

	for partition, entries := range init.Partitions {
		for key, value := range entries {
			k.track.Insert(substate.Address{Node: nodeID, Partition: partition, Key: key}, value)
		}
	}
	if err := k.stack.AddOwned(nodeID); err != nil {
		return kernelErr(err)
	}
	k.persistObjectInfo(nodeID, ObjectInfo{Blueprint: blueprint, Package: pkg})

	for _, m := range k.pipeline.Modules() {
		if err := m.AfterCreateNode(k, nodeID, true); err != nil {
			return moduleErr(err)
		}
	}
	return nil
}

// DropNode removes nodeID from the current frame's owned-set and discards
// its substates. nodeID must be owned by the current frame and must not be
// referenced elsewhere.
func (k *Kernel) DropNode(nodeID id.NodeID) error {
	for _, m := range k.pipeline.Modules() {
		if err := m.BeforeDropNode(k, nodeID); err != nil {
			return moduleErr(err)
		}
	}

	if err := k.stack.RemoveOwned(nodeID); err != nil {
		for _, m := range k.pipeline.Modules() {
			_ = m.AfterDropNode(k, false)
		}
		return kernelErr(err)
	}

	delete(k.objects, nodeID)
	k.track.Remove(typeInfoAddress(nodeID))
	for partition := range k.nodePartitions(nodeID) {
		for _, key := range k.mustScan(nodeID, partition) {
			k.track.Remove(substate.Address{Node: nodeID, Partition: partition, Key: string(key)})
		}
	}

	for _, m := range k.pipeline.Modules() {
		if err := m.AfterDropNode(k, true); err != nil {
			return moduleErr(err)
		}
	}
	return nil
}

// nodePartitions is a placeholder enumerator: this kernel does not track a
// node's partition numbers independently of the track, so callers that
// need an exhaustive partition sweep (DropNode) fall back to the small,
// fixed set of partitions this system ever assigns.
func (k *Kernel) nodePartitions(id.NodeID) map[substate.PartitionNumber]struct{} {
	out := make(map[substate.PartitionNumber]struct{})
	for p := substate.PartitionNumber(0); p < 8; p++ {
		out[p] = struct{}{}
	}
	return out
}

func (k *Kernel) mustScan(nodeID id.NodeID, partition substate.PartitionNumber) [][]byte {
	keys, err := k.track.ScanSorted(nodeID, partition)
	if err != nil {
		return nil
	}
	return keys
}

// GetObjectInfo returns the blueprint identity recorded for nodeID at
// CreateNode time.
func (k *Kernel) GetObjectInfo(nodeID id.NodeID) (ObjectInfo, error) {
	info, ok, err := k.loadObjectInfo(nodeID)
	if err != nil {
		return ObjectInfo{}, kernelErr(err)
	}
	if !ok {
		return ObjectInfo{}, systemErr(fmt.Errorf("kernel: %s has no object info", nodeID))
	}
	return info, nil
}

// LockSubstate acquires a lock on (node, partition, key) on behalf of the
// current frame. node must be visible to the current frame.
func (k *Kernel) LockSubstate(node id.NodeID, partition substate.PartitionNumber, key []byte, flags substate.LockFlags) (substate.LockHandle, error) {
	cur := k.stack.Current()
	if cur == nil {
		return 0, kernelErr(frame.ErrEmptyStack)
	}
	if !cur.Visible(node) {
		return 0, kernelErr(fmt.Errorf("%w: %s", frame.ErrNotVisible, node))
	}

	addr := substate.Address{Node: k.resolveNode(node), Partition: partition, Key: string(key)}
	for _, m := range k.pipeline.Modules() {
		if err := m.BeforeLockSubstate(k, addr, flags); err != nil {
			return 0, moduleErr(err)
		}
	}

	handle, err := k.track.AcquireLock(addr, flags, cur.Depth)
	ok := err == nil
	for _, m := range k.pipeline.Modules() {
		_ = m.AfterLockSubstate(k, handle, 0, ok)
	}
	if err != nil {
		metrics.SubstateLockContentionTotal.Inc()
		return 0, kernelErr(err)
	}
	if err := k.stack.TrackLock(handle); err != nil {
		return 0, kernelErr(err)
	}
	metrics.SubstateLocksHeld.Inc()
	return handle, nil
}

// ReadSubstate returns the value currently visible through handle.
func (k *Kernel) ReadSubstate(handle substate.LockHandle) ([]byte, error) {
	v, err := k.track.Read(handle)
	if err != nil {
		return nil, kernelErr(err)
	}
	for _, m := range k.pipeline.Modules() {
		if err := m.OnReadSubstate(k, handle, len(v)); err != nil {
			return nil, moduleErr(err)
		}
	}
	return v, nil
}

// WriteSubstate buffers value at handle's address; handle must be a
// mutable or force-write lock.
func (k *Kernel) WriteSubstate(handle substate.LockHandle, value []byte) error {
	if err := k.track.Write(handle, value); err != nil {
		return kernelErr(err)
	}
	for _, m := range k.pipeline.Modules() {
		if err := m.OnWriteSubstate(k, handle, len(value)); err != nil {
			return moduleErr(err)
		}
	}
	return nil
}

// ReleaseLock releases handle, untracking it from the current frame.
func (k *Kernel) ReleaseLock(handle substate.LockHandle) error {
	for _, m := range k.pipeline.Modules() {
		if err := m.OnDropLock(k, handle); err != nil {
			return moduleErr(err)
		}
	}
	if err := k.track.ReleaseLock(handle); err != nil {
		return kernelErr(err)
	}
	metrics.SubstateLocksHeld.Dec()
	return k.stack.UntrackLock(handle)
}

// CallMethod dispatches a nested method invocation against receiver,
// pushing a new frame and running the executor recursively.
func (k *Kernel) CallMethod(receiver id.NodeID, ident string, args frame.Payload) (frame.Payload, error) {
	cur := k.stack.Current()
	if cur == nil || !cur.Visible(receiver) {
		return frame.Payload{}, systemErr(fmt.Errorf("%w: %s", ErrReceiverNotFound, receiver))
	}
	info, err := k.GetObjectInfo(receiver)
	if err != nil {
		return frame.Payload{}, err
	}

	var global *id.NodeID
	if info.Global {
		addr := receiver
		global = &addr
	}

	actor := frame.Actor{
		Kind:          frame.ActorMethod,
		Package:       info.Package,
		Blueprint:     info.Blueprint,
		Ident:         ident,
		Receiver:      receiver,
		GlobalAddress: global,
	}
	return k.runInvocation(actor, args)
}

// CallFunction dispatches a nested package-scoped function call with no
// receiver.
func (k *Kernel) CallFunction(pkg id.NodeID, blueprint, ident string, args frame.Payload) (frame.Payload, error) {
	actor := frame.Actor{
		Kind:      frame.ActorFunction,
		Package:   pkg,
		Blueprint: blueprint,
		Ident:     ident,
	}
	return k.runInvocation(actor, args)
}

// CallModuleMethod dispatches to receiver's attached access-rules or
// royalty module. Unlike CallMethod/CallFunction it never pushes a frame or
// reaches the Executor: a module method is the kernel's own globalization
// bookkeeping, not sandboxed blueprint code, so there is no before/after
// module-pipeline lifecycle around it. Every mutating ident is instead
// gated inline against the node's owner rule (or a target's own update
// authority once locked), mirroring AuthModule's own check but evaluated at
// the acting frame's barrier directly.
func (k *Kernel) CallModuleMethod(receiver id.NodeID, mod ModuleID, ident string, args ModuleMethodArgs) error {
	cur := k.stack.Current()
	if cur == nil || !cur.Visible(receiver) {
		return systemErr(fmt.Errorf("%w: %s", ErrReceiverNotFound, receiver))
	}
	na := k.auth[receiver]

	switch mod {
	case ModuleAccessRules:
		return k.callAccessRulesModule(receiver, na, ident, args)
	case ModuleRoyalty:
		return k.callRoyaltyModule(receiver, na, ident, args)
	default:
		return systemErr(fmt.Errorf("kernel: unknown module %q", mod))
	}
}

// checkOwnerAuth evaluates rule against the current frame's auth zone, the
// same AtBarrier check AuthModule runs for an ordinary method call, and
// records the result in AuthChecksTotal alongside it.
func (k *Kernel) checkOwnerAuth(rule auth.AccessRule, rules auth.AccessRulesConfig) error {
	cur := k.stack.Current()
	if cur == nil {
		return kernelErr(frame.ErrEmptyStack)
	}
	result, err := auth.CheckAuthorization(auth.AtBarrier, cur.AuthZone, rules, rule, k)
	if err != nil {
		return kernelErr(err)
	}
	if !result.Authorized {
		metrics.AuthChecksTotal.WithLabelValues("denied").Inc()
		return moduleErr(module.ErrAuthFailed)
	}
	metrics.AuthChecksTotal.WithLabelValues("authorized").Inc()
	return nil
}

// updateAuthorityFor returns the access rule that must be satisfied to
// mutate target's method rule: its own update authority if one has been
// recorded (set by an earlier lock_group_access_rule), else the node's
// owner rule.
func (na nodeAuth) updateAuthorityFor(target string) auth.AccessRule {
	if rule, ok := na.updateRules[target]; ok {
		return rule
	}
	return na.ownerRule
}

func (k *Kernel) callAccessRulesModule(receiver id.NodeID, na nodeAuth, ident string, args ModuleMethodArgs) error {
	switch ident {
	case "set_group_access_rule":
		if err := k.checkOwnerAuth(na.updateAuthorityFor(args.Target), na.authorities); err != nil {
			return err
		}
		if na.methodRules == nil {
			na.methodRules = make(map[string]auth.AccessRule)
		}
		na.methodRules[args.Target] = args.Rule
		k.auth[receiver] = na
		return nil
	case "lock_group_access_rule":
		if err := k.checkOwnerAuth(na.updateAuthorityFor(args.Target), na.authorities); err != nil {
			return err
		}
		if na.updateRules == nil {
			na.updateRules = make(map[string]auth.AccessRule)
		}
		na.updateRules[args.Target] = auth.DenyAll
		k.auth[receiver] = na
		return nil
	default:
		return systemErr(fmt.Errorf("kernel: unknown access_rules method %q", ident))
	}
}

func (k *Kernel) callRoyaltyModule(receiver id.NodeID, na nodeAuth, ident string, args ModuleMethodArgs) error {
	switch ident {
	case "set_royalty_config":
		if err := k.checkOwnerAuth(na.ownerRule, na.authorities); err != nil {
			return err
		}
		na.royalties = args.Royalties
		k.auth[receiver] = na
		return nil
	default:
		return systemErr(fmt.Errorf("kernel: unknown royalty method %q", ident))
	}
}

// GlobalizeNode promotes node to a world-visible global address, attaching
// its access-rules and royalty configuration atomically.
func (k *Kernel) GlobalizeNode(node id.NodeID, addr id.NodeID, init GlobalModuleInit) error {
	if existing, ok, err := k.loadObjectInfo(addr); err != nil {
		return kernelErr(err)
	} else if ok && existing.Global {
		return systemErr(fmt.Errorf("%w: %s", ErrNodeAlreadyExists, addr))
	}
	if err := k.stack.Globalize(node); err != nil {
		return kernelErr(err)
	}
	info, _, err := k.loadObjectInfo(node)
	if err != nil {
		return kernelErr(err)
	}
	info.Global = true
	k.persistObjectInfo(node, info)

	// The address gets its own ObjectInfo copy, not node's: it must carry
	// BackingNode so resolveNode routes field/KV substate access against
	// addr back to the node id CreateNode actually wrote them under -
	// globalization attaches a world-visible pointer, it does not relocate
	// any substate data.
	globalInfo := info
	globalInfo.BackingNode = node
	k.persistObjectInfo(addr, globalInfo)

	k.auth[addr] = nodeAuth{
		authorities: init.Authorities,
		methodRules: init.MethodRules,
		royalties:   init.Royalties,
		ownerRule:   init.OwnerRule,
	}

	if cur := k.stack.Current(); cur != nil {
		a := cur.Actor
		a.GlobalAddress = &addr
		cur.Actor = a
	}
	return k.stack.AddVisible(addr)
}

// GetGlobalAddress implements get_global_address: the innermost enclosing
// global frame's address, or GlobalAddressDoesNotExist.
func (k *Kernel) GetGlobalAddress() (id.NodeID, error) {
	addr, ok := k.stack.InnermostGlobalAddress()
	if !ok {
		return id.Zero, systemErr(frame.ErrGlobalAddressDoesNotExist)
	}
	return addr, nil
}

// EmitEvent records a user-emitted event keyed by the current actor.
func (k *Kernel) EmitEvent(schema string, payload []byte) error {
	if k.events == nil {
		return nil
	}
	k.events.RecordUserEvent(k.ActorInfo(), schema, payload)
	return nil
}

// Log serves the log(level, msg) op.
func (k *Kernel) Log(level log.Level, msg string) {
	if k.logging == nil {
		return
	}
	k.logging.Log(level, msg)
}

var _ auth.ZoneLoader = (*Kernel)(nil)
