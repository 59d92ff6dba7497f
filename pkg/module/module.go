// Package module implements the System Module Pipeline: an ordered set of
// observers — costing, authorization, royalty, node-move bookkeeping, event
// collection, logging — invoked by the kernel at each point in its
// lifecycle, with costing always first for "before" events and last for
// "after" events.
package module

import (
	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// Invocation describes one call the kernel is about to dispatch, passed to
// BeforeInvoke/AfterInvoke.
type Invocation struct {
	Callee frame.Actor
	Input  frame.Payload
}

// Context is the narrow surface a module needs from the kernel to do its
// job: the frame stack and substate track it is observing, an auth-zone
// loader for authorization checks, and access-rule/royalty resolution
// against the receiver's attached modules. Modules never get the full
// kernel or client API, only this.
type Context interface {
	Stack() *frame.Stack
	Track() *substate.Track
	ZoneLoader() auth.ZoneLoader

	// ResolveAccessRule looks up the access rule and access-rules config
	// attached to receiver for the method named ident.
	ResolveAccessRule(receiver id.NodeID, ident string) (auth.AccessRule, auth.AccessRulesConfig, error)
	// ResolveRoyalty returns the configured royalty amount for a method, if
	// any.
	ResolveRoyalty(receiver id.NodeID, ident string) (amount auth.Decimal, configured bool, err error)
	// CreditRoyalty transfers amount to receiver's royalty vault.
	CreditRoyalty(receiver id.NodeID, amount auth.Decimal) error
}

// SystemModule is the full kernel lifecycle event vocabulary. Every method
// has a no-op default via Base, matching the Rust trait's blanket default
// implementations; concrete modules embed Base and override only the
// events they care about.
//
// Every "after"/cleanup hook below carries an explicit ok parameter, unlike
// the upstream trait (which relies on the call site to decide whether an
// after-hook represents normal completion or error unwinding): Go has no
// implicit try/catch to infer that distinction from, so it is made explicit
// here.
type SystemModule interface {
	OnInit(ctx Context) error
	OnTeardown(ctx Context) error

	BeforeInvoke(ctx Context, inv *Invocation) error
	BeforePushFrame(ctx Context, callee frame.Actor, payload *frame.Payload) error
	OnExecutionStart(ctx Context, caller *frame.Actor) error
	OnExecutionFinish(ctx Context, caller *frame.Actor, payload *frame.Payload) error
	AfterPopFrame(ctx Context, ok bool) error
	AfterInvoke(ctx Context, outputSize int, ok bool) error

	OnAllocateNodeID(ctx Context, entityType id.EntityType) error
	BeforeCreateNode(ctx Context, node id.NodeID, init substate.NodeInit) error
	AfterCreateNode(ctx Context, node id.NodeID, ok bool) error
	BeforeDropNode(ctx Context, node id.NodeID) error
	AfterDropNode(ctx Context, ok bool) error

	BeforeLockSubstate(ctx Context, addr substate.Address, flags substate.LockFlags) error
	AfterLockSubstate(ctx Context, handle substate.LockHandle, size int, ok bool) error
	OnReadSubstate(ctx Context, handle substate.LockHandle, size int) error
	OnWriteSubstate(ctx Context, handle substate.LockHandle, size int) error
	OnDropLock(ctx Context, handle substate.LockHandle) error

	// Name identifies the module for diagnostics and error attribution.
	Name() string
}

// Base implements every SystemModule method as a no-op. Concrete modules
// embed Base by value and override the handful of methods they need.
type Base struct{}

func (Base) OnInit(Context) error     { return nil }
func (Base) OnTeardown(Context) error { return nil }

func (Base) BeforeInvoke(Context, *Invocation) error                 { return nil }
func (Base) BeforePushFrame(Context, frame.Actor, *frame.Payload) error { return nil }
func (Base) OnExecutionStart(Context, *frame.Actor) error            { return nil }
func (Base) OnExecutionFinish(Context, *frame.Actor, *frame.Payload) error {
	return nil
}
func (Base) AfterPopFrame(Context, bool) error      { return nil }
func (Base) AfterInvoke(Context, int, bool) error   { return nil }

func (Base) OnAllocateNodeID(Context, id.EntityType) error             { return nil }
func (Base) BeforeCreateNode(Context, id.NodeID, substate.NodeInit) error { return nil }
func (Base) AfterCreateNode(Context, id.NodeID, bool) error             { return nil }
func (Base) BeforeDropNode(Context, id.NodeID) error                    { return nil }
func (Base) AfterDropNode(Context, bool) error                          { return nil }

func (Base) BeforeLockSubstate(Context, substate.Address, substate.LockFlags) error { return nil }
func (Base) AfterLockSubstate(Context, substate.LockHandle, int, bool) error         { return nil }
func (Base) OnReadSubstate(Context, substate.LockHandle, int) error                  { return nil }
func (Base) OnWriteSubstate(Context, substate.LockHandle, int) error                 { return nil }
func (Base) OnDropLock(Context, substate.LockHandle) error                           { return nil }
