package blueprint

import (
	"testing"

	"github.com/ledgerkernel/engine/pkg/events"
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/kernel"
	"github.com/ledgerkernel/engine/pkg/module"
	"github.com/ledgerkernel/engine/pkg/substate"
	"github.com/stretchr/testify/require"
)

func newKernelOver(db substate.Database) *kernel.Kernel {
	pipeline := module.NewPipeline(
		module.NewCostingModule(1_000_000),
		module.NewAuthModule(),
		module.NewNodeMoveModule(),
		module.NewRoyaltyModule(),
		module.NewEventsModule(events.NewBroker()),
	)
	return kernel.New(db, pipeline, NewRegistry(), 0, "")
}

// mustCommit applies receipt.Updates to db, standing in for the caller on
// the other side of the kernel boundary: the kernel itself never writes to
// db, only assembles the batch a commit-success or commit-failure receipt
// carries.
func mustCommit(t *testing.T, db substate.Database, receipt *kernel.Receipt) {
	t.Helper()
	if receipt.Updates == nil {
		return
	}
	require.NoError(t, db.Commit(receipt.Updates))
}

func packageID(seq byte) id.NodeID {
	var n id.NodeID
	n[0] = byte(id.EntityTypeGlobalPackage)
	n[len(n)-1] = seq
	return n
}

// TestCounterInstantiateThenIncrementAcrossTransactions drives the Counter
// blueprint through two separate root transactions sharing one database,
// the shape cmd/ledgerkernel's run command actually exercises: instantiate
// commits a global address in transaction one, and a later transaction
// resolves that address's blueprint identity from the database rather than
// from any in-memory state left over from the first Kernel.
func TestCounterInstantiateThenIncrementAcrossTransactions(t *testing.T) {
	db := substate.NewMemoryDatabase()
	pkg := packageID(1)

	instantiateReceipt := newKernelOver(db).Invoke(pkg, "Counter", "instantiate", frame.Payload{Bytes: encodeAmount(10)})
	require.Equal(t, kernel.OutcomeCommitSuccess, instantiateReceipt.Outcome)
	require.Len(t, instantiateReceipt.Output.Bytes, id.NodeIDLength)
	mustCommit(t, db, instantiateReceipt)

	var addr id.NodeID
	copy(addr[:], instantiateReceipt.Output.Bytes)

	incrementReceipt := newKernelOver(db).InvokeMethod(addr, "increment", frame.Payload{Bytes: encodeAmount(5)})
	require.Equal(t, kernel.OutcomeCommitSuccess, incrementReceipt.Outcome)
	require.Equal(t, int64(15), decodeAmount(incrementReceipt.Output.Bytes))
	mustCommit(t, db, incrementReceipt)

	getReceipt := newKernelOver(db).InvokeMethod(addr, "get", frame.Payload{})
	require.Equal(t, kernel.OutcomeCommitSuccess, getReceipt.Outcome)
	require.Equal(t, int64(15), decodeAmount(getReceipt.Output.Bytes))
}

// TestVaultWithdrawInsufficientBalanceIsApplicationError exercises the
// blueprint-level error path: withdrawing more than the balance never
// reaches the auth or costing modules' failure paths, it is the blueprint's
// own ApplicationError.
func TestVaultWithdrawInsufficientBalanceIsApplicationError(t *testing.T) {
	db := substate.NewMemoryDatabase()
	pkg := packageID(2)

	instantiateReceipt := newKernelOver(db).Invoke(pkg, "Vault", "instantiate", frame.Payload{Bytes: encodeAmount(5)})
	require.Equal(t, kernel.OutcomeCommitSuccess, instantiateReceipt.Outcome)
	mustCommit(t, db, instantiateReceipt)

	var addr id.NodeID
	copy(addr[:], instantiateReceipt.Output.Bytes)

	withdrawReceipt := newKernelOver(db).InvokeMethod(addr, "withdraw", frame.Payload{Bytes: encodeAmount(100)})
	require.Equal(t, kernel.OutcomeCommitFailure, withdrawReceipt.Outcome)
	require.ErrorIs(t, withdrawReceipt.Err, ErrInsufficientBalance)
}
