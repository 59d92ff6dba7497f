package blueprint

import (
	"errors"

	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/kernel"
	"github.com/ledgerkernel/engine/pkg/substate"
)

const vaultFieldBalance byte = 0

// ErrInsufficientBalance is the blueprint-level application error withdraw
// returns when the requested amount exceeds the vault's balance.
var ErrInsufficientBalance = errors.New("vault: insufficient balance")

// vaultBlueprint is a single-resource balance holder, exercising a
// non-trivial method body (the withdraw guard) and the ApplicationError
// surface alongside Counter's simpler field-only flow.
func vaultBlueprint() Blueprint {
	return Blueprint{Handlers: map[string]Handler{
		"instantiate": vaultInstantiate,
		"deposit":     vaultDeposit,
		"withdraw":    vaultWithdraw,
		"get_balance": vaultGetBalance,
	}}
}

func vaultInstantiate(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	start := decodeAmount(input.Bytes)

	node, err := api.AllocateNodeID(id.EntityTypeInternalVault)
	if err != nil {
		return frame.Payload{}, err
	}
	init := substate.NewNodeInit().WithField(0, vaultFieldBalance, encodeAmount(start))
	if err := api.CreateNode(node, "Vault", actor.Package, init); err != nil {
		return frame.Payload{}, err
	}

	global, err := api.AllocateNodeID(id.EntityTypeGlobalFungibleResource)
	if err != nil {
		return frame.Payload{}, err
	}
	if err := api.GlobalizeNode(node, global, kernel.GlobalModuleInit{}); err != nil {
		return frame.Payload{}, err
	}
	return frame.Payload{Bytes: global[:]}, nil
}

func vaultDeposit(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	amount := decodeAmount(input.Bytes)

	handle, err := api.LockSubstate(actor.Receiver, 0, []byte{vaultFieldBalance}, substate.Mutable())
	if err != nil {
		return frame.Payload{}, err
	}
	raw, err := api.ReadSubstate(handle)
	if err != nil {
		return frame.Payload{}, err
	}
	balance := decodeAmount(raw) + amount
	if err := api.WriteSubstate(handle, encodeAmount(balance)); err != nil {
		return frame.Payload{}, err
	}
	if err := api.ReleaseLock(handle); err != nil {
		return frame.Payload{}, err
	}
	return frame.Payload{Bytes: encodeAmount(balance)}, nil
}

func vaultWithdraw(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	amount := decodeAmount(input.Bytes)

	handle, err := api.LockSubstate(actor.Receiver, 0, []byte{vaultFieldBalance}, substate.Mutable())
	if err != nil {
		return frame.Payload{}, err
	}
	raw, err := api.ReadSubstate(handle)
	if err != nil {
		return frame.Payload{}, err
	}
	balance := decodeAmount(raw)
	if amount > balance {
		_ = api.ReleaseLock(handle)
		return frame.Payload{}, kernel.WrapApplicationError(ErrInsufficientBalance)
	}
	balance -= amount
	if err := api.WriteSubstate(handle, encodeAmount(balance)); err != nil {
		return frame.Payload{}, err
	}
	if err := api.ReleaseLock(handle); err != nil {
		return frame.Payload{}, err
	}
	return frame.Payload{Bytes: encodeAmount(amount)}, nil
}

func vaultGetBalance(actor frame.Actor, _ frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	handle, err := api.LockSubstate(actor.Receiver, 0, []byte{vaultFieldBalance}, substate.ReadOnly())
	if err != nil {
		return frame.Payload{}, err
	}
	raw, err := api.ReadSubstate(handle)
	if err != nil {
		return frame.Payload{}, err
	}
	if err := api.ReleaseLock(handle); err != nil {
		return frame.Payload{}, err
	}
	return frame.Payload{Bytes: raw}, nil
}
