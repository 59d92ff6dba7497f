package main

import (
	"encoding/hex"
	"fmt"

	"github.com/ledgerkernel/engine/pkg/substate"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Read a single substate directly from the database",
	Long: `Inspect opens the substate database (creating it if absent) and, without
writing to it, prints the value
stored at (node, partition, key), or lists every key in a partition if
--key is omitted. It never touches the call-frame stack, track or module
pipeline: this is a raw read against the committed store, for debugging a
manifest's effects after ledgerkernel apply or run.

Examples:
  # List every key in partition 0 of a node
  ledgerkernel inspect --node 01... --partition 0

  # Read one field
  ledgerkernel inspect --node 01... --partition 0 --key 00`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("node", "", "Hex-encoded node id (required)")
	inspectCmd.Flags().Uint8("partition", 0, "Partition number")
	inspectCmd.Flags().String("key", "", "Hex-encoded key; if omitted, lists all keys in the partition")
	_ = inspectCmd.MarkFlagRequired("node")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	nodeHex, _ := cmd.Flags().GetString("node")
	partition, _ := cmd.Flags().GetUint8("partition")
	keyHex, _ := cmd.Flags().GetString("key")

	node, err := decodeNodeID(nodeHex)
	if err != nil {
		return err
	}

	db, err := openDatabase(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	if keyHex == "" {
		keys, err := db.ListKeys(node, substate.PartitionNumber(partition))
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		fmt.Printf("%s/%d: %d key(s)\n", node, partition, len(keys))
		for _, k := range keys {
			fmt.Printf("  %s\n", hex.EncodeToString(k))
		}
		return nil
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("invalid hex key %q: %w", keyHex, err)
	}
	value, found, err := db.GetSubstate(node, substate.PartitionNumber(partition), key)
	if err != nil {
		return fmt.Errorf("get substate: %w", err)
	}
	if !found {
		fmt.Printf("%s/%d/%s: not found\n", node, partition, keyHex)
		return nil
	}
	fmt.Printf("%s/%d/%s: %s\n", node, partition, keyHex, hex.EncodeToString(value))
	return nil
}
