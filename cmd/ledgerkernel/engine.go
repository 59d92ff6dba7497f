package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/blueprint"
	"github.com/ledgerkernel/engine/pkg/events"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/kernel"
	"github.com/ledgerkernel/engine/pkg/log"
	"github.com/ledgerkernel/engine/pkg/module"
	"github.com/ledgerkernel/engine/pkg/substate"
)

const substateFileName = "substates.db"

// openDatabase opens (creating if absent) the bbolt-backed substate database
// under dataDir, the on-disk store every command in this binary reads from
// and, on a successful transaction, commits into.
func openDatabase(dataDir string) (*substate.BoltSubstateDatabase, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return substate.OpenBoltSubstateDatabase(filepath.Join(dataDir, substateFileName))
}

// newPipeline wires the fixed system module pipeline every transaction runs
// through: costing first (it must charge before anything else runs),
// authorization and node-move checks, royalty reservation, an events
// recorder, and a logging module for lifecycle tracing.
func newPipeline(gasLimit uint64) *module.Pipeline {
	return module.NewPipeline(
		module.NewCostingModule(gasLimit),
		module.NewAuthModule(),
		module.NewNodeMoveModule(),
		module.NewRoyaltyModule(),
		module.NewEventsModule(events.NewBroker()),
		module.NewLoggingModule(log.WithComponent("kernel")),
	)
}

// newKernel returns a fresh, single-transaction Kernel over db, running the
// built-in blueprint registry. feeLock and txnID are threaded straight
// through to kernel.New: feeLock is the amount the caller's manifest (or
// --fee-lock flag) locked for this transaction, and txnID correlates this
// one transaction's lifecycle log lines.
func newKernel(db substate.Database, gasLimit uint64, feeLock auth.Decimal, txnID string) *kernel.Kernel {
	return kernel.New(db, newPipeline(gasLimit), blueprint.NewRegistry(), feeLock, txnID)
}

// commitReceipt applies receipt.Updates to db: the CLI sits on the other
// side of the kernel's transaction boundary, so it is the one responsible
// for turning a receipt's proposed update batch into an actual store
// mutation, whether that batch is a full commit-success or a fee-only
// commit-failure. A rejected or aborted transaction carries no Updates and
// there is nothing to apply.
func commitReceipt(db substate.Database, receipt *kernel.Receipt) error {
	if receipt.Updates == nil {
		return nil
	}
	if err := db.Commit(receipt.Updates); err != nil {
		return fmt.Errorf("commit substate updates: %w", err)
	}
	return nil
}

func decodeNodeID(s string) (id.NodeID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id.Zero, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	if len(raw) != id.NodeIDLength {
		return id.Zero, fmt.Errorf("node id %q must decode to %d bytes, got %d", s, id.NodeIDLength, len(raw))
	}
	var n id.NodeID
	copy(n[:], raw)
	return n, nil
}

func decodeArgs(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex args %q: %w", s, err)
	}
	return raw, nil
}

func printReceipt(label string, receipt *kernel.Receipt) {
	fmt.Printf("%s: %s\n", label, receipt.Outcome)
	if receipt.Err != nil {
		fmt.Printf("  error: %v\n", receipt.Err)
		return
	}
	if len(receipt.Output.Bytes) > 0 {
		fmt.Printf("  output: %s\n", hex.EncodeToString(receipt.Output.Bytes))
	}
	if receipt.Updates != nil {
		fmt.Printf("  substate writes: %d\n", len(receipt.Updates.Order))
	}
	for _, ev := range receipt.Events {
		fmt.Printf("  event: %s\n", ev.Type)
	}
}
