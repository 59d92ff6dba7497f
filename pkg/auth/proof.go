package auth

import "github.com/ledgerkernel/engine/pkg/id"

// Proof is evidence of a locked resource amount (fungible) or a locked set
// of non-fungible local ids, held in an auth zone's proof stack.
type Proof struct {
	Resource id.NodeID
	Amount   Decimal
	LocalIDs map[string]struct{}
}

// NewFungibleProof returns a proof of a locked fungible amount.
func NewFungibleProof(resource id.NodeID, amount Decimal) Proof {
	return Proof{Resource: resource, Amount: amount}
}

// NewNonFungibleProof returns a proof of a locked set of non-fungible local
// ids.
func NewNonFungibleProof(resource id.NodeID, localIDs ...string) Proof {
	set := make(map[string]struct{}, len(localIDs))
	for _, id := range localIDs {
		set[id] = struct{}{}
	}
	return Proof{Resource: resource, LocalIDs: set}
}

// Matches implements the grammar's proof-matching rule: a proof matches a
// Resource rule iff its resource address equals r, and matches a
// NonFungible rule iff its resource address equals the rule's resource and
// its locked local-id set contains the rule's local id.
func (p Proof) Matches(rule ResourceOrNonFungible) bool {
	if p.Resource != rule.Resource {
		return false
	}
	if !rule.NonFungible {
		return true
	}
	_, ok := p.LocalIDs[rule.LocalID]
	return ok
}
