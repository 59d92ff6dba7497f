// Package blueprint provides a table-lookup Executor: an invocation is
// resolved to Go code by its (blueprint name, function/method ident) pair
// through a plain map rather than inheritance, per the dynamic-dispatch rule
// kept from the original design. The actor's package address is not part of
// the lookup: a blueprint name resolves to the same Go code whatever package
// the actor names. It ships a small set
// of built-in blueprints (Counter, Vault) that cmd/ledgerkernel manifests can
// instantiate and call, standing in for the WASM/Scrypto blueprints a real
// deployment would load from a package.
package blueprint

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/kernel"
)

// Handler implements one function or method body.
type Handler func(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error)

// Blueprint is the set of callable idents a blueprint name exposes. Function
// and method idents share one namespace, matching how the kernel resolves
// actor.Ident without distinguishing the call kind at dispatch time.
type Blueprint struct {
	Handlers map[string]Handler
}

// Registry is a kernel.Executor that dispatches by (actor.Blueprint,
// actor.Ident), the table lookup spec.md calls for instead of inheritance.
type Registry struct {
	blueprints map[string]Blueprint
}

// NewRegistry returns a registry preloaded with the built-in Counter and
// Vault blueprints.
func NewRegistry() *Registry {
	r := &Registry{blueprints: make(map[string]Blueprint)}
	r.Register("Counter", counterBlueprint())
	r.Register("Vault", vaultBlueprint())
	return r
}

// Register adds or replaces a blueprint's handler table.
func (r *Registry) Register(name string, bp Blueprint) {
	r.blueprints[name] = bp
}

// Invoke implements kernel.Executor.
func (r *Registry) Invoke(actor frame.Actor, input frame.Payload, api kernel.ClientAPI) (frame.Payload, error) {
	bp, ok := r.blueprints[actor.Blueprint]
	if !ok {
		return frame.Payload{}, kernel.WrapApplicationError(fmt.Errorf("blueprint: unknown blueprint %q", actor.Blueprint))
	}
	handler, ok := bp.Handlers[actor.Ident]
	if !ok {
		return frame.Payload{}, kernel.WrapApplicationError(fmt.Errorf("blueprint: %s has no ident %q", actor.Blueprint, actor.Ident))
	}
	return handler(actor, input, api)
}
