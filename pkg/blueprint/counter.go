package blueprint

import (
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/kernel"
	"github.com/ledgerkernel/engine/pkg/substate"
)

const counterFieldValue byte = 0

// counterBlueprint is a component holding one mutable integer field,
// exercising the instantiate/globalize/method-call path with the minimum
// state a test or CLI manifest needs to watch.
func counterBlueprint() Blueprint {
	return Blueprint{Handlers: map[string]Handler{
		"instantiate": counterInstantiate,
		"increment":   counterIncrement,
		"get":         counterGet,
	}}
}

func counterInstantiate(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	start := decodeAmount(input.Bytes)

	node, err := api.AllocateNodeID(id.EntityTypeInternalGenericComponent)
	if err != nil {
		return frame.Payload{}, err
	}
	init := substate.NewNodeInit().WithField(0, counterFieldValue, encodeAmount(start))
	if err := api.CreateNode(node, "Counter", actor.Package, init); err != nil {
		return frame.Payload{}, err
	}

	global, err := api.AllocateNodeID(id.EntityTypeGlobalGenericComponent)
	if err != nil {
		return frame.Payload{}, err
	}
	if err := api.GlobalizeNode(node, global, kernel.GlobalModuleInit{}); err != nil {
		return frame.Payload{}, err
	}
	return frame.Payload{Bytes: global[:]}, nil
}

func counterIncrement(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	delta := decodeAmount(input.Bytes)
	if delta == 0 {
		delta = 1
	}

	handle, err := api.LockSubstate(actor.Receiver, 0, []byte{counterFieldValue}, substate.Mutable())
	if err != nil {
		return frame.Payload{}, err
	}
	raw, err := api.ReadSubstate(handle)
	if err != nil {
		return frame.Payload{}, err
	}
	next := decodeAmount(raw) + delta
	if err := api.WriteSubstate(handle, encodeAmount(next)); err != nil {
		return frame.Payload{}, err
	}
	if err := api.ReleaseLock(handle); err != nil {
		return frame.Payload{}, err
	}
	return frame.Payload{Bytes: encodeAmount(next)}, nil
}

func counterGet(actor frame.Actor, _ frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	handle, err := api.LockSubstate(actor.Receiver, 0, []byte{counterFieldValue}, substate.ReadOnly())
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
