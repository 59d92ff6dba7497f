// Package substate implements the transactional overlay between the kernel
// and the backing SubstateDatabase: a per-transaction read set, write set,
// lock table and deferred commit, adapted from the bucket-per-namespace
// bbolt store this repository's storage layer was originally built around.
package substate

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/id"
)

// PartitionNumber identifies one of a node's fixed set of numbered
// partitions.
type PartitionNumber uint8

// PartitionKind classifies how a partition's keys are organized.
type PartitionKind int

const (
	// PartitionKindField holds a small, schema-defined set of named offsets,
	// one substate value each.
	PartitionKindField PartitionKind = iota
	// PartitionKindKeyValue is an open map from arbitrary byte keys to an
	// optional substate value.
	PartitionKindKeyValue
	// PartitionKindIndex is a sorted map whose entries are iterable in key
	// order, used for secondary indexes.
	PartitionKindIndex
)

// Value is the opaque binary payload stored at one (node, partition, key).
// It is decoded by the consumer against a schema the track itself never
// inspects.
type Value []byte

// Address names one substate: (node, partition, key).
type Address struct {
	Node      id.NodeID
	Partition PartitionNumber
	Key       string
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d/%x", a.Node, a.Partition, a.Key)
}

// NodeInit describes the substates a CreateNode call materializes, grouped
// by partition. Map keys within a partition are raw substate keys encoded as
// strings for map-key friendliness; field partitions conventionally use a
// single-byte offset as the key.
type NodeInit struct {
	Partitions map[PartitionNumber]map[string]Value
}

// NewNodeInit returns an empty initializer ready to have partitions added.
func NewNodeInit() NodeInit {
	return NodeInit{Partitions: make(map[PartitionNumber]map[string]Value)}
}

// WithField sets a single field-partition entry and returns the receiver,
// for chaining during node construction.
func (n NodeInit) WithField(partition PartitionNumber, offset byte, value Value) NodeInit {
	n.ensure(partition)[string([]byte{offset})] = value
	return n
}

// WithEntry sets a single key-value or index partition entry.
func (n NodeInit) WithEntry(partition PartitionNumber, key []byte, value Value) NodeInit {
	n.ensure(partition)[string(key)] = value
	return n
}

func (n NodeInit) ensure(partition PartitionNumber) map[string]Value {
	m, ok := n.Partitions[partition]
	if !ok {
		m = make(map[string]Value)
		n.Partitions[partition] = m
	}
	return m
}
