package auth

import "github.com/ledgerkernel/engine/pkg/id"

// Zone is the substate carried by a transient auth-zone node: an ordered
// proof stack, the virtual sets that let certain entities authorize without
// holding a physical proof, the barrier flag, and the parent zone this
// zone's owning frame was pushed from.
type Zone struct {
	ID id.NodeID

	Proofs []Proof

	// VirtualResources lets any proof-of-presence check for this resource
	// succeed without a proof, at any depth (used e.g. for a package's own
	// authority over its blueprints).
	VirtualResources map[id.NodeID]struct{}
	// VirtualNonFungibles matches at any depth.
	VirtualNonFungibles map[ResourceOrNonFungible]struct{}
	// VirtualNonFungiblesNonExtending matches only when this zone is the
	// walk's starting zone (rev_index == 0).
	VirtualNonFungiblesNonExtending map[ResourceOrNonFungible]struct{}
	// VirtualNonFungiblesNonExtendingBarrier matches only on the first
	// barrier the walk crosses.
	VirtualNonFungiblesNonExtendingBarrier map[ResourceOrNonFungible]struct{}

	IsBarrier bool
	Parent    *id.NodeID
}

// NewZone returns an empty, non-barrier zone with no parent.
func NewZone(zoneID id.NodeID) *Zone {
	return &Zone{
		ID:                              zoneID,
		VirtualResources:                make(map[id.NodeID]struct{}),
		VirtualNonFungibles:             make(map[ResourceOrNonFungible]struct{}),
		VirtualNonFungiblesNonExtending: make(map[ResourceOrNonFungible]struct{}),
		VirtualNonFungiblesNonExtendingBarrier: make(map[ResourceOrNonFungible]struct{}),
	}
}

// PushProof appends a proof to the zone's stack.
func (z *Zone) PushProof(p Proof) {
	z.Proofs = append(z.Proofs, p)
}

// ZoneLoader loads an auth zone substate by node id. It is implemented by
// the kernel's client API so this package never depends on the kernel or
// substate packages directly, avoiding an import cycle; the kernel is the
// only thing that knows how an auth zone is actually stored.
type ZoneLoader interface {
	LoadZone(zoneID id.NodeID) (*Zone, error)
}
