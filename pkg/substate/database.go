package substate

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ledgerkernel/engine/pkg/id"
	bolt "go.etcd.io/bbolt"
)

// Database is the durable store a transaction's receipt updates are
// committed into; the Track only reads from it, and the kernel's caller
// applies the Receipt's StateUpdates through Commit. It knows nothing about locks, overlays or
// transactions; it is a flat, ordered key space keyed by (node, partition,
// key). Implementations must return ListKeys results in ascending
// lexicographic key order, since PartitionKindIndex partitions rely on
// that ordering for deterministic iteration.
type Database interface {
	GetSubstate(node id.NodeID, partition PartitionNumber, key []byte) ([]byte, bool, error)
	ListKeys(node id.NodeID, partition PartitionNumber) ([][]byte, error)
	Commit(updates *StateUpdates) error
	Close() error
}

// StateUpdates is the deterministically-ordered batch of writes a Track
// produces at commit time. Order records insertion order so that Commit can
// apply upserts and deletes in the same sequence on every replay, even
// though Upserts/Deletes are maps.
type StateUpdates struct {
	Upserts map[Address]Value
	Deletes map[Address]struct{}
	Order   []Address
}

// NewStateUpdates returns an empty update batch.
func NewStateUpdates() *StateUpdates {
	return &StateUpdates{
		Upserts: make(map[Address]Value),
		Deletes: make(map[Address]struct{}),
	}
}

func (u *StateUpdates) put(addr Address, value Value) {
	if _, ok := u.Upserts[addr]; !ok {
		if _, ok := u.Deletes[addr]; !ok {
			u.Order = append(u.Order, addr)
		}
	}
	delete(u.Deletes, addr)
	u.Upserts[addr] = value
}

func (u *StateUpdates) remove(addr Address) {
	if _, ok := u.Deletes[addr]; !ok {
		if _, ok := u.Upserts[addr]; !ok {
			u.Order = append(u.Order, addr)
		}
	}
	delete(u.Upserts, addr)
	u.Deletes[addr] = struct{}{}
}

// BoltSubstateDatabase is a Database backed by a single bbolt file. It
// generalizes the bucket-per-domain-type layout this repository's storage
// layer used (one top-level bucket per type, JSON blobs keyed by id) into a
// three-level nesting: one top-level bucket per node, one nested bucket per
// partition within it, and raw substate keys within that. Values are opaque
// bytes the track already serialized; BoltSubstateDatabase never decodes
// them.
type BoltSubstateDatabase struct {
	mu sync.Mutex
	db *bolt.DB
}

// OpenBoltSubstateDatabase opens (creating if absent) a bbolt file at path.
func OpenBoltSubstateDatabase(path string) (*BoltSubstateDatabase, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("substate: open bolt database: %w", err)
	}
	return &BoltSubstateDatabase{db: db}, nil
}

func nodeBucketName(node id.NodeID) []byte {
	b := make([]byte, len(node))
	copy(b, node[:])
	return b
}

func partitionBucketName(partition PartitionNumber) []byte {
	return []byte{byte(partition)}
}

func (d *BoltSubstateDatabase) GetSubstate(node id.NodeID, partition PartitionNumber, key []byte) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var value []byte
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		nb := tx.Bucket(nodeBucketName(node))
		if nb == nil {
			return nil
		}
		pb := nb.Bucket(partitionBucketName(partition))
		if pb == nil {
			return nil
		}
		raw := pb.Get(key)
		if raw == nil {
			return nil
		}
		value = append([]byte(nil), raw...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("substate: get %x/%d/%x: %w", node, partition, key, err)
	}
	return value, found, nil
}

func (d *BoltSubstateDatabase) ListKeys(node id.NodeID, partition PartitionNumber) ([][]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var keys [][]byte
	err := d.db.View(func(tx *bolt.Tx) error {
		nb := tx.Bucket(nodeBucketName(node))
		if nb == nil {
			return nil
		}
		pb := nb.Bucket(partitionBucketName(partition))
		if pb == nil {
			return nil
		}
		return pb.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("substate: list keys %x/%d: %w", node, partition, err)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i]) < string(keys[j])
	})
	return keys, nil
}

func (d *BoltSubstateDatabase) Commit(updates *StateUpdates) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.db.Update(func(tx *bolt.Tx) error {
		for _, addr := range updates.Order {
			nb, err := tx.CreateBucketIfNotExists(nodeBucketName(addr.Node))
			if err != nil {
				return fmt.Errorf("substate: node bucket %s: %w", addr.Node, err)
			}
			pb, err := nb.CreateBucketIfNotExists(partitionBucketName(addr.Partition))
			if err != nil {
				return fmt.Errorf("substate: partition bucket %s/%d: %w", addr.Node, addr.Partition, err)
			}
			if v, ok := updates.Upserts[addr]; ok {
				if err := pb.Put([]byte(addr.Key), v); err != nil {
					return fmt.Errorf("substate: put %s: %w", addr, err)
				}
				continue
			}
			if _, ok := updates.Deletes[addr]; ok {
				if err := pb.Delete([]byte(addr.Key)); err != nil {
					return fmt.Errorf("substate: delete %s: %w", addr, err)
				}
			}
		}
		return nil
	})
}

func (d *BoltSubstateDatabase) Close() error {
	return d.db.Close()
}

// MemoryDatabase is a Database backed by an in-process map, used by unit
// tests where no durable store is wanted. The CLI always opens a
// BoltSubstateDatabase.
type MemoryDatabase struct {
	mu   sync.Mutex
	data map[Address][]byte
}

// NewMemoryDatabase returns an empty in-memory database.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{data: make(map[Address][]byte)}
}

func (d *MemoryDatabase) GetSubstate(node id.NodeID, partition PartitionNumber, key []byte) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[Address{Node: node, Partition: partition, Key: string(key)}]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (d *MemoryDatabase) ListKeys(node id.NodeID, partition PartitionNumber) ([][]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var keys [][]byte
	for addr := range d.data {
		if addr.Node == node && addr.Partition == partition {
			keys = append(keys, []byte(addr.Key))
		}
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i]) < string(keys[j]) })
	return keys, nil
}

func (d *MemoryDatabase) Commit(updates *StateUpdates) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, addr := range updates.Order {
		if v, ok := updates.Upserts[addr]; ok {
			d.data[addr] = append([]byte(nil), v...)
			continue
		}
		if _, ok := updates.Deletes[addr]; ok {
			delete(d.data, addr)
		}
	}
	return nil
}

func (d *MemoryDatabase) Close() error { return nil }
