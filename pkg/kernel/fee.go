package kernel

import (
	"encoding/binary"

	"github.com/ledgerkernel/engine/pkg/auth"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// feeVaultPartition is a reserved partition on the sentinel zero node,
// holding the transaction's locked fee escrow. Like typeInfoPartition, no
// blueprint ever allocates into it.
const feeVaultPartition substate.PartitionNumber = 254

const feeVaultKey = "locked"

func feeVaultAddress() substate.Address {
	return substate.Address{Node: id.Zero, Partition: feeVaultPartition, Key: feeVaultKey}
}

// FeeVaultAddress is feeVaultAddress exported for tests and diagnostics
// that need to assert on the fee-lock write independent of a full commit.
func FeeVaultAddress() substate.Address {
	return feeVaultAddress()
}

func encodeFeeLock(amount auth.Decimal) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(amount))
	return b
}

// EncodeFeeLock is encodeFeeLock exported so callers outside this package
// (tests, the CLI) can compute the expected fee-vault value without
// duplicating the encoding.
func EncodeFeeLock(amount auth.Decimal) []byte {
	return encodeFeeLock(amount)
}

// lockFee writes the transaction's fee-lock amount through a ForceWrite
// lock, before any business logic runs. A ForceWrite is recorded by the
// track independently of the ordinary overlay, so the write survives even
// when a later execution failure discards everything else (commit-failure,
// per the receipt's outcome semantics); a zero amount locks nothing.
func (k *Kernel) lockFee(amount auth.Decimal) error {
	if amount == 0 {
		return nil
	}
	h, err := k.track.AcquireLock(feeVaultAddress(), substate.ForceWrite(), 0)
	if err != nil {
		return err
	}
	if err := k.track.Write(h, encodeFeeLock(amount)); err != nil {
		return err
	}
	return k.track.ReleaseLock(h)
}
