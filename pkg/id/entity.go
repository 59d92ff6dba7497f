// Package id implements the node identifier and address model: typed node
// ids, entity-type tagging, and the partition/key encoding that the substate
// track and call-frame stack build on top of.
package id

import "fmt"

// EntityType is encoded in the first byte of every NodeID. It distinguishes
// globally-addressed nodes (world-visible once globalized) from
// internally-addressed nodes (visible only through a parent reference) and
// from transient runtime nodes that never leave the kernel.
type EntityType byte

const (
	EntityTypeUnspecified EntityType = iota

	// Global, world-visible entity types.
	EntityTypeGlobalPackage
	EntityTypeGlobalGenericComponent
	EntityTypeGlobalAccount
	EntityTypeGlobalValidator
	EntityTypeGlobalEpochManager
	EntityTypeGlobalFungibleResource
	EntityTypeGlobalNonFungibleResource

	// Internally-addressed entity types, visible only through a parent.
	EntityTypeInternalGenericComponent
	EntityTypeInternalKeyValueStore
	EntityTypeInternalIndex
	EntityTypeInternalVault
	EntityTypeInternalProof

	// Transient runtime entity types. Never globalized, never persisted
	// beyond the transaction that created them.
	EntityTypeInternalAuthZone
)

var entityTypeNames = map[EntityType]string{
	EntityTypeUnspecified:               "unspecified",
	EntityTypeGlobalPackage:             "global_package",
	EntityTypeGlobalGenericComponent:    "global_component",
	EntityTypeGlobalAccount:             "global_account",
	EntityTypeGlobalValidator:           "global_validator",
	EntityTypeGlobalEpochManager:        "global_epoch_manager",
	EntityTypeGlobalFungibleResource:    "global_fungible_resource",
	EntityTypeGlobalNonFungibleResource: "global_non_fungible_resource",
	EntityTypeInternalGenericComponent:  "internal_component",
	EntityTypeInternalKeyValueStore:     "internal_kv_store",
	EntityTypeInternalIndex:             "internal_index",
	EntityTypeInternalVault:             "internal_vault",
	EntityTypeInternalProof:             "internal_proof",
	EntityTypeInternalAuthZone:          "internal_auth_zone",
}

func (e EntityType) String() string {
	if name, ok := entityTypeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("entity_type(%d)", byte(e))
}

// IsGlobal reports whether nodes of this type are world-visible once
// globalized, as opposed to only reachable through a parent reference.
func (e EntityType) IsGlobal() bool {
	switch e {
	case EntityTypeGlobalPackage,
		EntityTypeGlobalGenericComponent,
		EntityTypeGlobalAccount,
		EntityTypeGlobalValidator,
		EntityTypeGlobalEpochManager,
		EntityTypeGlobalFungibleResource,
		EntityTypeGlobalNonFungibleResource:
		return true
	default:
		return false
	}
}

// IsTransient reports whether nodes of this type are runtime-only and never
// eligible for globalization (e.g. auth zones).
func (e EntityType) IsTransient() bool {
	return e == EntityTypeInternalAuthZone
}
