package auth

import "github.com/ledgerkernel/engine/pkg/id"

// ResourceOrNonFungible names either an entire resource or one specific
// non-fungible within a resource, the atom a ProofRule checks a proof
// against.
type ResourceOrNonFungible struct {
	// Resource is set when this names an entire fungible or non-fungible
	// resource.
	Resource id.NodeID
	// NonFungible, when true, means LocalID additionally pins one local id
	// within Resource.
	NonFungible bool
	LocalID     string
}

// Resource returns a ResourceOrNonFungible naming an entire resource.
func Resource(addr id.NodeID) ResourceOrNonFungible {
	return ResourceOrNonFungible{Resource: addr}
}

// NonFungibleGlobalID returns a ResourceOrNonFungible naming one specific
// non-fungible unit.
func NonFungibleGlobalID(resource id.NodeID, localID string) ResourceOrNonFungible {
	return ResourceOrNonFungible{Resource: resource, NonFungible: true, LocalID: localID}
}

// Decimal is a fixed-point amount. The authorization grammar's Decimal
// operands are carried as plain int64-scaled values here; resolving a
// schema-path operand against the invocation's argument payload is the
// caller's job before a ProofRule is constructed (see AmountOf).
type Decimal int64

// ProofRuleKind tags the variant a ProofRule carries.
type ProofRuleKind int

const (
	ProofRuleRequire ProofRuleKind = iota
	ProofRuleAmountOf
	ProofRuleAllOf
	ProofRuleAnyOf
	ProofRuleCountOf
)

// ProofRule is one leaf of the access-rule grammar's ProofRule production.
type ProofRule struct {
	Kind ProofRuleKind

	// Require, AmountOf
	Single ResourceOrNonFungible
	Amount Decimal

	// AllOf, AnyOf, CountOf
	Set   []ResourceOrNonFungible
	Count uint8
}

func Require(r ResourceOrNonFungible) ProofRule {
	return ProofRule{Kind: ProofRuleRequire, Single: r}
}

func AmountOf(amount Decimal, r ResourceOrNonFungible) ProofRule {
	return ProofRule{Kind: ProofRuleAmountOf, Single: r, Amount: amount}
}

func AllOfResources(rs ...ResourceOrNonFungible) ProofRule {
	return ProofRule{Kind: ProofRuleAllOf, Set: rs}
}

func AnyOfResources(rs ...ResourceOrNonFungible) ProofRule {
	return ProofRule{Kind: ProofRuleAnyOf, Set: rs}
}

func CountOf(count uint8, rs ...ResourceOrNonFungible) ProofRule {
	return ProofRule{Kind: ProofRuleCountOf, Set: rs, Count: count}
}

// RuleNodeKind tags the variant a RuleNode carries.
type RuleNodeKind int

const (
	RuleNodeProofRule RuleNodeKind = iota
	RuleNodeAnyOf
	RuleNodeAllOf
	RuleNodeAuthority
)

// RuleNode is one node of the access-rule grammar's RuleNode production: a
// leaf ProofRule, a boolean combinator over child RuleNodes, or an indirect
// reference to a named authority resolved against the receiver's
// access-rules module.
type RuleNode struct {
	Kind      RuleNodeKind
	Proof     ProofRule
	Children  []RuleNode
	Authority string
}

func FromProofRule(p ProofRule) RuleNode { return RuleNode{Kind: RuleNodeProofRule, Proof: p} }
func AnyOf(children ...RuleNode) RuleNode {
	return RuleNode{Kind: RuleNodeAnyOf, Children: children}
}
func AllOf(children ...RuleNode) RuleNode {
	return RuleNode{Kind: RuleNodeAllOf, Children: children}
}
func Authority(name string) RuleNode { return RuleNode{Kind: RuleNodeAuthority, Authority: name} }

// AccessRuleKind tags the variant an AccessRule carries.
type AccessRuleKind int

const (
	AccessRuleAllowAll AccessRuleKind = iota
	AccessRuleDenyAll
	AccessRuleProtected
)

// AccessRule is the grammar's top-level production, attached to a method,
// an authority name, or a partition/module.
type AccessRule struct {
	Kind AccessRuleKind
	Node RuleNode
}

var (
	AllowAll = AccessRule{Kind: AccessRuleAllowAll}
	DenyAll  = AccessRule{Kind: AccessRuleDenyAll}
)

func Protected(node RuleNode) AccessRule {
	return AccessRule{Kind: AccessRuleProtected, Node: node}
}

// AccessRulesConfig is the receiver's attached access-rules module: a
// mapping from authority name to the AccessRule authorities resolve to,
// looked up during authority indirection.
type AccessRulesConfig struct {
	Rules map[string]AccessRule
}
