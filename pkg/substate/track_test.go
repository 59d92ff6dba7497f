package substate

import (
	"testing"

	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/stretchr/testify/require"
)

func testNode(et id.EntityType) id.NodeID {
	var n id.NodeID
	n[0] = byte(et)
	n[len(n)-1] = 1
	return n
}

func TestTrackInsertReadWriteCommit(t *testing.T) {
	db := NewMemoryDatabase()
	tr := NewTrack(db)

	addr := Address{Node: testNode(id.EntityTypeGlobalAccount), Partition: 0, Key: "\x00"}
	tr.Insert(addr, Value("hello"))

	h, err := tr.AcquireLock(addr, Mutable().Exists(), 0)
	require.NoError(t, err)

	v, err := tr.Read(h)
	require.NoError(t, err)
	require.Equal(t, Value("hello"), v)

	require.NoError(t, tr.Write(h, Value("world")))
	require.NoError(t, tr.ReleaseLock(h))

	require.NoError(t, db.Commit(tr.Commit()))

	raw, ok, err := db.GetSubstate(addr.Node, addr.Partition, []byte(addr.Key))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("world"), raw)
}

func TestTrackMutableLockIsExclusive(t *testing.T) {
	db := NewMemoryDatabase()
	tr := NewTrack(db)
	addr := Address{Node: testNode(id.EntityTypeGlobalAccount), Partition: 0, Key: "\x00"}
	tr.Insert(addr, Value("x"))

	h1, err := tr.AcquireLock(addr, Mutable(), 0)
	require.NoError(t, err)
	require.NotZero(t, h1)

	_, err = tr.AcquireLock(addr, Mutable(), 0)
	require.ErrorIs(t, err, ErrSubstateLocked)

	require.NoError(t, tr.ReleaseLock(h1))

	h2, err := tr.AcquireLock(addr, Mutable(), 0)
	require.NoError(t, err)
	require.NotZero(t, h2)
}

func TestTrackReadOnlyLocksCoexist(t *testing.T) {
	db := NewMemoryDatabase()
	tr := NewTrack(db)
	addr := Address{Node: testNode(id.EntityTypeGlobalAccount), Partition: 0, Key: "\x00"}
	tr.Insert(addr, Value("x"))

	h1, err := tr.AcquireLock(addr, ReadOnly(), 0)
	require.NoError(t, err)
	h2, err := tr.AcquireLock(addr, ReadOnly(), 0)
	require.NoError(t, err)

	_, err = tr.AcquireLock(addr, Mutable(), 0)
	require.ErrorIs(t, err, ErrSubstateLocked)

	require.NoError(t, tr.ReleaseLock(h1))
	require.NoError(t, tr.ReleaseLock(h2))

	h3, err := tr.AcquireLock(addr, Mutable(), 0)
	require.NoError(t, err)
	require.NotZero(t, h3)
}

func TestTrackMustExistFailsOnMissing(t *testing.T) {
	db := NewMemoryDatabase()
	tr := NewTrack(db)
	addr := Address{Node: testNode(id.EntityTypeGlobalAccount), Partition: 0, Key: "\x00"}

	_, err := tr.AcquireLock(addr, Mutable().Exists(), 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTrackScanSortedMergesOverlayAndDatabase(t *testing.T) {
	db := NewMemoryDatabase()
	node := testNode(id.EntityTypeInternalKeyValueStore)
	require.NoError(t, db.Commit(&StateUpdates{
		Upserts: map[Address]Value{
			{Node: node, Partition: 1, Key: "b"}: Value("1"),
			{Node: node, Partition: 1, Key: "d"}: Value("1"),
		},
		Order: []Address{
			{Node: node, Partition: 1, Key: "b"},
			{Node: node, Partition: 1, Key: "d"},
		},
	}))

	tr := NewTrack(db)
	tr.Insert(Address{Node: node, Partition: 1, Key: "a"}, Value("1"))
	tr.Remove(Address{Node: node, Partition: 1, Key: "d"})

	keys, err := tr.ScanSorted(node, 1)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, "a", string(keys[0]))
	require.Equal(t, "b", string(keys[1]))
}

func TestTrackRemoveThenCommitDeletes(t *testing.T) {
	db := NewMemoryDatabase()
	node := testNode(id.EntityTypeGlobalAccount)
	addr := Address{Node: node, Partition: 0, Key: "\x00"}
	require.NoError(t, db.Commit(&StateUpdates{
		Upserts: map[Address]Value{addr: Value("x")},
		Order:   []Address{addr},
	}))

	tr := NewTrack(db)
	tr.Remove(addr)
	require.NoError(t, db.Commit(tr.Commit()))

	_, ok, err := db.GetSubstate(node, 0, []byte("\x00"))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestTrackFeeUpdatesIsolatesForceWrites verifies FeeUpdates only returns
// the addresses written through a ForceWrite lock, so a caller that
// discards the rest of the overlay (a commit-failure outcome) still applies
// the fee escrow write.
func TestTrackFeeUpdatesIsolatesForceWrites(t *testing.T) {
	db := NewMemoryDatabase()
	tr := NewTrack(db)

	node := testNode(id.EntityTypeGlobalAccount)
	feeAddr := Address{Node: id.Zero, Partition: 254, Key: "locked"}
	appAddr := Address{Node: node, Partition: 0, Key: "\x00"}

	feeHandle, err := tr.AcquireLock(feeAddr, ForceWrite(), 0)
	require.NoError(t, err)
	require.NoError(t, tr.Write(feeHandle, Value("10")))
	require.NoError(t, tr.ReleaseLock(feeHandle))

	tr.Insert(appAddr, Value("should not survive a commit-failure"))

	feeOnly := tr.FeeUpdates()
	require.Len(t, feeOnly.Order, 1)
	require.Equal(t, Value("10"), feeOnly.Upserts[feeAddr])

	full := tr.Commit()
	require.Len(t, full.Order, 2)
}
