package kernel

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// typeInfoPartition is a reserved partition every node carries alongside its
// blueprint's own partitions, holding the ObjectInfo CreateNode/GlobalizeNode
// recorded for it. A real deployment's blueprints never allocate into it
// (conventionally partitions 0-7 are theirs); it exists so a fresh Kernel
// opened against an already-committed substate database can resolve
// GetObjectInfo/CallMethod for a node created by an earlier transaction,
// since the in-memory k.objects cache does not survive past one Kernel's
// lifetime.
const typeInfoPartition substate.PartitionNumber = 255

func typeInfoAddress(node id.NodeID) substate.Address {
	return substate.Address{Node: node, Partition: typeInfoPartition}
}

// encodeObjectInfo serializes info as [1 global-flag byte][17 package
// bytes][17 backing-node bytes][blueprint name]. It is a kernel-internal
// bookkeeping record, never decoded by executor code, so it stays on a
// fixed-width prefix rather than a general serialization format.
func encodeObjectInfo(info ObjectInfo) []byte {
	out := make([]byte, 0, 1+2*id.NodeIDLength+len(info.Blueprint))
	if info.Global {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = append(out, info.Package[:]...)
	out = append(out, info.BackingNode[:]...)
	out = append(out, []byte(info.Blueprint)...)
	return out
}

func decodeObjectInfo(raw []byte) (ObjectInfo, error) {
	if len(raw) < 1+2*id.NodeIDLength {
		return ObjectInfo{}, fmt.Errorf("kernel: malformed type info record (%d bytes)", len(raw))
	}
	var info ObjectInfo
	info.Global = raw[0] != 0
	copy(info.Package[:], raw[1:1+id.NodeIDLength])
	copy(info.BackingNode[:], raw[1+id.NodeIDLength:1+2*id.NodeIDLength])
	info.Blueprint = string(raw[1+2*id.NodeIDLength:])
	return info, nil
}

// persistObjectInfo records info for nodeID both in the in-memory cache and
// in the substate track, so a later transaction against the same database
// can recover it.
func (k *Kernel) persistObjectInfo(nodeID id.NodeID, info ObjectInfo) {
	k.objects[nodeID] = info
	k.track.Insert(typeInfoAddress(nodeID), encodeObjectInfo(info))
}

// loadObjectInfo resolves nodeID's ObjectInfo, checking the in-memory cache
// before falling back to the track/database.
func (k *Kernel) loadObjectInfo(nodeID id.NodeID) (ObjectInfo, bool, error) {
	if info, ok := k.objects[nodeID]; ok {
		return info, true, nil
	}
	raw, ok, err := k.track.Peek(typeInfoAddress(nodeID))
	if err != nil {
		return ObjectInfo{}, false, err
	}
	if !ok {
		return ObjectInfo{}, false, nil
	}
	info, err := decodeObjectInfo(raw)
	if err != nil {
		return ObjectInfo{}, false, err
	}
	k.objects[nodeID] = info
	return info, true, nil
}

// resolveNode returns the node id whose substates actually hold the data for
// nodeID. A global address never carries its own field/KV substates -
// GlobalizeNode leaves those under the internal node id it promoted and
// records that id as BackingNode on the address's own ObjectInfo - so every
// substate access against a node id must be routed through this first.
// Anything that is not a recorded global address (an internal node id, or a
// node id this kernel has never heard of) resolves to itself.
func (k *Kernel) resolveNode(nodeID id.NodeID) id.NodeID {
	info, ok, err := k.loadObjectInfo(nodeID)
	if err != nil || !ok || info.BackingNode.IsZero() {
		return nodeID
	}
	return info.BackingNode
}
