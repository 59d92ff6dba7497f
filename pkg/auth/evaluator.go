package auth

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/id"
)

// ActingLocation determines the initial barrier-walk counters for a check,
// depending on whether the system call originated at the receiver itself,
// from the receiver's own code, or from a frame the receiver called.
type ActingLocation int

const (
	// AtBarrier is used when the check originates at the receiver: the
	// first zone is itself a first-barrier zone and no barrier crossings
	// are permitted.
	AtBarrier ActingLocation = iota
	// AtLocalBarrier is used when the check originates from the receiver's
	// own code: one zone is skipped waiting for the next barrier, and one
	// crossing is then allowed.
	AtLocalBarrier
	// InCallFrame is used when the check originates from a frame the
	// receiver called: like AtLocalBarrier but the top zone itself is also
	// skipped.
	InCallFrame
)

func (a ActingLocation) counters() (isFirstBarrier bool, waitingForBarrier, remainingCrossings, skip int) {
	switch a {
	case AtBarrier:
		return true, 0, 0, 0
	case AtLocalBarrier:
		return false, 1, 1, 0
	case InCallFrame:
		return false, 1, 1, 1
	default:
		return false, 0, 0, 0
	}
}

// matchFn is evaluated against each zone visited during the walk; rev_index
// is the number of zones already checked before this one (not counting
// skipped zones), isFirstBarrier reports whether this zone is the first
// barrier crossed.
type matchFn func(zone *Zone, revIndex int, isFirstBarrier bool) (bool, error)

// authZoneStackMatches ports the Rust auth_zone_stack_matches walk: it
// ascends the auth-zone parent chain from zoneID, applying check to every
// zone not skipped by the acting location's initial counters, stopping once
// check returns true, the chain ends, or the allowed barrier crossings are
// exhausted.
func authZoneStackMatches(loc ActingLocation, zoneID id.NodeID, loader ZoneLoader, check matchFn) (bool, error) {
	isFirstBarrier, waitingForBarrier, remainingCrossings, skip := loc.counters()

	current := zoneID
	revIndex := 0
	for {
		zone, err := loader.LoadZone(current)
		if err != nil {
			return false, fmt.Errorf("auth: load zone %s: %w", current, err)
		}

		if skip > 0 {
			skip--
		} else {
			ok, err := check(zone, revIndex, isFirstBarrier)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
			revIndex++
		}

		isFirstBarrier = false
		if zone.IsBarrier {
			if remainingCrossings == 0 {
				return false, nil
			}
			remainingCrossings--

			if waitingForBarrier > 0 {
				waitingForBarrier--
				if waitingForBarrier == 0 {
					isFirstBarrier = true
				}
			}
		}

		if zone.Parent == nil {
			return false, nil
		}
		current = *zone.Parent
	}
}

func authZoneStackMatchesRule(loc ActingLocation, zoneID id.NodeID, rule ResourceOrNonFungible, loader ZoneLoader) (bool, error) {
	return authZoneStackMatches(loc, zoneID, loader, func(zone *Zone, revIndex int, isFirstBarrier bool) (bool, error) {
		if rule.NonFungible {
			if isFirstBarrier {
				if _, ok := zone.VirtualNonFungiblesNonExtendingBarrier[rule]; ok {
					return true, nil
				}
			}
			if revIndex == 0 {
				if _, ok := zone.VirtualNonFungiblesNonExtending[rule]; ok {
					return true, nil
				}
			}
			if _, ok := zone.VirtualNonFungibles[rule]; ok {
				return true, nil
			}
		}
		if _, ok := zone.VirtualResources[rule.Resource]; ok {
			return true, nil
		}

		for _, p := range zone.Proofs {
			if p.Matches(rule) {
				return true, nil
			}
		}
		return false, nil
	})
}

func authZoneStackHasAmount(loc ActingLocation, zoneID id.NodeID, resource id.NodeID, amount Decimal, loader ZoneLoader) (bool, error) {
	return authZoneStackMatches(loc, zoneID, loader, func(zone *Zone, _ int, _ bool) (bool, error) {
		// The composite-max amount across multiple proofs is left open
		// (see the design notes); this checks each proof individually.
		for _, p := range zone.Proofs {
			if p.Resource == resource && p.Amount >= amount {
				return true, nil
			}
		}
		return false, nil
	})
}

// VerifyProofRule evaluates a leaf ProofRule against the auth-zone chain
// rooted at zoneID.
func VerifyProofRule(loc ActingLocation, zoneID id.NodeID, rule ProofRule, loader ZoneLoader) (bool, error) {
	switch rule.Kind {
	case ProofRuleRequire:
		return authZoneStackMatchesRule(loc, zoneID, rule.Single, loader)
	case ProofRuleAmountOf:
		return authZoneStackHasAmount(loc, zoneID, rule.Single.Resource, rule.Amount, loader)
	case ProofRuleAllOf:
		for _, r := range rule.Set {
			ok, err := authZoneStackMatchesRule(loc, zoneID, r, loader)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case ProofRuleAnyOf:
		for _, r := range rule.Set {
			ok, err := authZoneStackMatchesRule(loc, zoneID, r, loader)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case ProofRuleCountOf:
		left := int(rule.Count)
		for _, r := range rule.Set {
			ok, err := authZoneStackMatchesRule(loc, zoneID, r, loader)
			if err != nil {
				return false, err
			}
			if ok {
				left--
				if left == 0 {
					return true, nil
				}
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("auth: unknown proof rule kind %d", rule.Kind)
	}
}

// VerifyAuthRule evaluates a RuleNode, recursing through AnyOf/AllOf
// combinators and resolving Authority indirection against accessRules.
// alreadyVerified accumulates authority names verified earlier in this same
// check so that a cycle back to an authority already on the path
// short-circuits to Authorized rather than looping forever, per "a set of
// already-verified authorities short-circuits to Authorized."
func VerifyAuthRule(loc ActingLocation, zoneID id.NodeID, accessRules AccessRulesConfig, rule RuleNode, alreadyVerified map[string]struct{}, loader ZoneLoader) (CheckResult, error) {
	switch rule.Kind {
	case RuleNodeAuthority:
		if _, ok := alreadyVerified[rule.Authority]; ok {
			return authorized(), nil
		}
		authorityRule, ok := accessRules.Rules[rule.Authority]
		if !ok {
			return failed(), nil
		}
		alreadyVerified[rule.Authority] = struct{}{}
		return checkAuthorizationInternal(loc, zoneID, accessRules, authorityRule, alreadyVerified, loader)

	case RuleNodeProofRule:
		ok, err := VerifyProofRule(loc, zoneID, rule.Proof, loader)
		if err != nil {
			return CheckResult{}, err
		}
		if ok {
			return authorized(), nil
		}
		return failed(), nil

	case RuleNodeAnyOf:
		for _, child := range rule.Children {
			res, err := VerifyAuthRule(loc, zoneID, accessRules, child, alreadyVerified, loader)
			if err != nil {
				return CheckResult{}, err
			}
			if res.Authorized {
				return res, nil
			}
		}
		return failed(), nil

	case RuleNodeAllOf:
		for _, child := range rule.Children {
			res, err := VerifyAuthRule(loc, zoneID, accessRules, child, alreadyVerified, loader)
			if err != nil {
				return CheckResult{}, err
			}
			if !res.Authorized {
				return res, nil
			}
		}
		return authorized(), nil

	default:
		return CheckResult{}, fmt.Errorf("auth: unknown rule node kind %d", rule.Kind)
	}
}

func checkAuthorizationInternal(loc ActingLocation, zoneID id.NodeID, accessRules AccessRulesConfig, rule AccessRule, alreadyVerified map[string]struct{}, loader ZoneLoader) (CheckResult, error) {
	switch rule.Kind {
	case AccessRuleAllowAll:
		return authorized(), nil
	case AccessRuleDenyAll:
		return failed(rule), nil
	case AccessRuleProtected:
		res, err := VerifyAuthRule(loc, zoneID, accessRules, rule.Node, alreadyVerified, loader)
		if err != nil {
			return CheckResult{}, err
		}
		return res.withRule(rule), nil
	default:
		return CheckResult{}, fmt.Errorf("auth: unknown access rule kind %d", rule.Kind)
	}
}

// CheckAuthorization evaluates rule against the auth-zone chain rooted at
// zoneID, with a fresh cycle-detection set.
func CheckAuthorization(loc ActingLocation, zoneID id.NodeID, accessRules AccessRulesConfig, rule AccessRule, loader ZoneLoader) (CheckResult, error) {
	return checkAuthorizationInternal(loc, zoneID, accessRules, rule, make(map[string]struct{}), loader)
}
