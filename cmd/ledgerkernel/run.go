package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/kernel"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single invocation against the substate database",
	Long: `Run executes one function or method call as a root transaction and
prints the resulting receipt.

Examples:
  # Instantiate a Counter starting at 10
  ledgerkernel run --package 01... --blueprint Counter --function instantiate --args 000000000000000a

  # Call a method on an already-globalized component
  ledgerkernel run --receiver 02... --method increment --args 0000000000000001`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("package", "", "Hex-encoded package node id (function calls only)")
	runCmd.Flags().String("blueprint", "", "Blueprint name (function calls only)")
	runCmd.Flags().String("function", "", "Function ident to call (mutually exclusive with --receiver/--method)")
	runCmd.Flags().String("receiver", "", "Hex-encoded receiver node id (method calls only)")
	runCmd.Flags().String("method", "", "Method ident to call (requires --receiver)")
	runCmd.Flags().String("args", "", "Hex-encoded input payload")
	runCmd.Flags().Uint64("fee-lock", 0, "Fee amount to lock against this transaction before it runs")
}

func runRun(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	gasLimit, _ := cmd.Flags().GetUint64("gas-limit")
	pkgHex, _ := cmd.Flags().GetString("package")
	blueprintName, _ := cmd.Flags().GetString("blueprint")
	function, _ := cmd.Flags().GetString("function")
	receiverHex, _ := cmd.Flags().GetString("receiver")
	method, _ := cmd.Flags().GetString("method")
	argsHex, _ := cmd.Flags().GetString("args")
	feeLock, _ := cmd.Flags().GetUint64("fee-lock")

	input, err := decodeArgs(argsHex)
	if err != nil {
		return err
	}

	db, err := openDatabase(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	k := newKernel(db, gasLimit, auth.Decimal(feeLock), uuid.NewString())

	var receipt *kernel.Receipt
	switch {
	case receiverHex != "":
		if method == "" {
			return fmt.Errorf("--method is required with --receiver")
		}
		receiver, err := decodeNodeID(receiverHex)
		if err != nil {
			return err
		}
		receipt = k.InvokeMethod(receiver, method, frame.Payload{Bytes: input})
	case pkgHex != "":
		if blueprintName == "" || function == "" {
			return fmt.Errorf("--blueprint and --function are required with --package")
		}
		pkg, err := decodeNodeID(pkgHex)
		if err != nil {
			return err
		}
		receipt = k.Invoke(pkg, blueprintName, function, frame.Payload{Bytes: input})
	default:
		return fmt.Errorf("either --package or --receiver must be given")
	}

	printReceipt("run", receipt)
	if err := commitReceipt(db, receipt); err != nil {
		return err
	}
	if receipt.Err != nil {
		return fmt.Errorf("transaction did not commit-success: %s", receipt.Outcome)
	}
	return nil
}
