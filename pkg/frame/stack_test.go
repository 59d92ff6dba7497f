package frame

import (
	"testing"

	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/stretchr/testify/require"
)

func newID(et id.EntityType, seq byte) id.NodeID {
	var n id.NodeID
	n[0] = byte(et)
	n[len(n)-1] = seq
	return n
}

func TestGlobalAddressInLocalFails(t *testing.T) {
	s := NewStack()
	root := s.PushRoot(Actor{Kind: ActorRoot}, newID(id.EntityTypeInternalAuthZone, 1))

	pkg := newID(id.EntityTypeGlobalPackage, 1)
	_ = root
	_, err := s.PushFrame(Actor{
		Kind:      ActorFunction,
		Package:   pkg,
		Blueprint: "MyComponent",
		Ident:     "get_global_address_in_local",
	}, Payload{}, newID(id.EntityTypeInternalAuthZone, 2))
	require.NoError(t, err)

	_, ok := s.InnermostGlobalAddress()
	require.False(t, ok, "a function-only invocation must have no enclosing global frame")
}

func TestGlobalAddressInParentSucceeds(t *testing.T) {
	s := NewStack()
	s.PushRoot(Actor{Kind: ActorRoot}, newID(id.EntityTypeInternalAuthZone, 1))

	global := newID(id.EntityTypeGlobalGenericComponent, 1)
	_, err := s.PushFrame(Actor{
		Kind:          ActorMethod,
		Receiver:      global,
		Blueprint:     "MyComponent",
		Ident:         "get_global_address_in_parent",
		GlobalAddress: &global,
	}, Payload{}, newID(id.EntityTypeInternalAuthZone, 2))
	require.NoError(t, err)

	addr, ok := s.InnermostGlobalAddress()
	require.True(t, ok)
	require.Equal(t, global, addr)
}

func TestOwnershipTransfersOnPushAndPop(t *testing.T) {
	s := NewStack()
	root := s.PushRoot(Actor{Kind: ActorRoot}, newID(id.EntityTypeInternalAuthZone, 1))

	vault := newID(id.EntityTypeInternalVault, 1)
	root.addOwned(vault)
	require.True(t, root.Owns(vault))

	child, err := s.PushFrame(Actor{Kind: ActorFunction}, Payload{OwnedNodes: []id.NodeID{vault}}, newID(id.EntityTypeInternalAuthZone, 2))
	require.NoError(t, err)
	require.False(t, root.Owns(vault))
	require.True(t, child.Owns(vault))

	popped, err := s.Pop(Payload{OwnedNodes: []id.NodeID{vault}})
	require.NoError(t, err)
	require.Equal(t, child, popped)
	require.True(t, root.Owns(vault))
}

func TestPushFrameRejectsUnownedNode(t *testing.T) {
	s := NewStack()
	s.PushRoot(Actor{Kind: ActorRoot}, newID(id.EntityTypeInternalAuthZone, 1))

	notOwned := newID(id.EntityTypeInternalVault, 9)
	_, err := s.PushFrame(Actor{Kind: ActorFunction}, Payload{OwnedNodes: []id.NodeID{notOwned}}, newID(id.EntityTypeInternalAuthZone, 2))
	require.ErrorIs(t, err, ErrNotOwned)
}

func TestPopRejectsUnbalancedLocks(t *testing.T) {
	s := NewStack()
	s.PushRoot(Actor{Kind: ActorRoot}, newID(id.EntityTypeInternalAuthZone, 1))
	_, err := s.PushFrame(Actor{Kind: ActorFunction}, Payload{}, newID(id.EntityTypeInternalAuthZone, 2))
	require.NoError(t, err)

	require.NoError(t, s.TrackLock(42))
	_, err = s.Pop(Payload{})
	require.ErrorIs(t, err, ErrUnbalancedLocks)

	require.NoError(t, s.UntrackLock(42))
	_, err = s.Pop(Payload{})
	require.NoError(t, err)
}

func TestReferenceNotPassedBackUp(t *testing.T) {
	s := NewStack()
	root := s.PushRoot(Actor{Kind: ActorRoot}, newID(id.EntityTypeInternalAuthZone, 1))
	global := newID(id.EntityTypeGlobalGenericComponent, 7)
	root.addVisible(global, false)

	child, err := s.PushFrame(Actor{Kind: ActorFunction}, Payload{Refs: []id.NodeID{global}}, newID(id.EntityTypeInternalAuthZone, 2))
	require.NoError(t, err)
	require.True(t, child.Visible(global))

	unrelated := newID(id.EntityTypeGlobalGenericComponent, 8)
	child.addVisible(unrelated, true)

	_, err = s.Pop(Payload{Refs: []id.NodeID{unrelated}})
	require.NoError(t, err)
	require.False(t, root.Visible(unrelated), "a reference the parent never had must be dropped on return")
}
