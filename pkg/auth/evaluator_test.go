package auth

import (
	"errors"
	"testing"

	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/stretchr/testify/require"
)

var errZoneNotFound = errors.New("zone not found")

type mapLoader map[id.NodeID]*Zone

func (m mapLoader) LoadZone(zoneID id.NodeID) (*Zone, error) {
	z, ok := m[zoneID]
	if !ok {
		return nil, errZoneNotFound
	}
	return z, nil
}

func zoneID(seq byte) id.NodeID {
	var n id.NodeID
	n[0] = byte(id.EntityTypeInternalAuthZone)
	n[len(n)-1] = seq
	return n
}

func resourceID(seq byte) id.NodeID {
	var n id.NodeID
	n[0] = byte(id.EntityTypeGlobalFungibleResource)
	n[len(n)-1] = seq
	return n
}

func TestRequireSatisfiedByMatchingProof(t *testing.T) {
	z := zoneID(1)
	resource := resourceID(1)
	zone := NewZone(z)
	zone.PushProof(NewFungibleProof(resource, 1))
	loader := mapLoader{z: zone}

	ok, err := VerifyProofRule(AtBarrier, z, Require(Resource(resource)), loader)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRequireFailsWithoutMatchingProof(t *testing.T) {
	z := zoneID(1)
	zone := NewZone(z)
	loader := mapLoader{z: zone}

	ok, err := VerifyProofRule(AtBarrier, z, Require(Resource(resourceID(9))), loader)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAmountOfRequiresSufficientLockedAmount(t *testing.T) {
	z := zoneID(1)
	resource := resourceID(1)
	zone := NewZone(z)
	zone.PushProof(NewFungibleProof(resource, 5))
	loader := mapLoader{z: zone}

	ok, err := VerifyProofRule(AtBarrier, z, AmountOf(10, Resource(resource)), loader)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = VerifyProofRule(AtBarrier, z, AmountOf(5, Resource(resource)), loader)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBarrierStopsWalkAtBarrier(t *testing.T) {
	child := zoneID(1)
	parent := zoneID(2)
	resource := resourceID(1)

	childZone := NewZone(child)
	childZone.IsBarrier = true
	p := parent
	childZone.Parent = &p

	parentZone := NewZone(parent)
	parentZone.PushProof(NewFungibleProof(resource, 1))

	loader := mapLoader{child: childZone, parent: parentZone}

	ok, err := VerifyProofRule(AtBarrier, child, Require(Resource(resource)), loader)
	require.NoError(t, err)
	require.False(t, ok, "AtBarrier allows zero crossings, so the parent's proof must be unreachable")

	ok, err = VerifyProofRule(AtLocalBarrier, child, Require(Resource(resource)), loader)
	require.NoError(t, err)
	require.True(t, ok, "AtLocalBarrier allows one crossing")
}

func TestAuthorityIndirectionAndCycleDetection(t *testing.T) {
	z := zoneID(1)
	resource := resourceID(1)
	zone := NewZone(z)
	zone.PushProof(NewFungibleProof(resource, 1))
	loader := mapLoader{z: zone}

	rules := AccessRulesConfig{Rules: map[string]AccessRule{
		"mint": Protected(Authority("mint")),
	}}

	res, err := CheckAuthorization(AtBarrier, z, rules, Protected(Authority("mint")), loader)
	require.NoError(t, err)
	require.True(t, res.Authorized, "a self-referential authority must short-circuit to Authorized rather than loop forever")
}

func TestAbsentAuthorityFails(t *testing.T) {
	z := zoneID(1)
	zone := NewZone(z)
	loader := mapLoader{z: zone}

	rules := AccessRulesConfig{Rules: map[string]AccessRule{}}
	res, err := CheckAuthorization(AtBarrier, z, rules, Protected(Authority("missing")), loader)
	require.NoError(t, err)
	require.False(t, res.Authorized)
}

func TestMonotoneInProofs(t *testing.T) {
	z := zoneID(1)
	resourceA := resourceID(1)
	resourceB := resourceID(2)
	zone := NewZone(z)
	loader := mapLoader{z: zone}

	rule := Protected(AllOf(FromProofRule(Require(Resource(resourceA))), FromProofRule(Require(Resource(resourceB)))))

	res, err := CheckAuthorization(AtBarrier, z, AccessRulesConfig{}, rule, loader)
	require.NoError(t, err)
	require.False(t, res.Authorized)

	zone.PushProof(NewFungibleProof(resourceA, 1))
	res, err = CheckAuthorization(AtBarrier, z, AccessRulesConfig{}, rule, loader)
	require.NoError(t, err)
	require.False(t, res.Authorized)

	zone.PushProof(NewFungibleProof(resourceB, 1))
	res, err = CheckAuthorization(AtBarrier, z, AccessRulesConfig{}, rule, loader)
	require.NoError(t, err)
	require.True(t, res.Authorized, "adding a proof must never turn Authorized into Failed")
}
