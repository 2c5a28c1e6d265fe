package engine

import "fmt"

// Kind enumerates the node shapes a pattern can describe.
type Kind int

const (
	// KindMarker is an annotation without arguments, e.g. @Ignore.
	KindMarker Kind = iota
	// KindKeyedSingleValue is an annotation carrying one unnamed value, e.g. @Ignore("why").
	KindKeyedSingleValue
	// KindKeyedMultiValue is an annotation carrying key=value pairs, e.g. @Test(timeout=10).
	KindKeyedMultiValue
	// KindCall is a method invocation with a qualifier and positional arguments.
	KindCall
	// KindTypeDecl is a class declaration with a resolvable supertype.
	KindTypeDecl
	// KindFieldDecl is a field declaration with a resolvable declared type.
	KindFieldDecl
)

var kindNames = [...]string{
	KindMarker:           "marker",
	KindKeyedSingleValue: "keyed-single",
	KindKeyedMultiValue:  "keyed-multi",
	KindCall:             "call",
	KindTypeDecl:         "type-decl",
	KindFieldDecl:        "field-decl",
}

// String returns the kind name
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	return k >= KindMarker && int(k) < len(kindNames)
}

// Tier records how a name was resolved to a qualified symbol.
type Tier int

const (
	// TierUnresolved means neither binding nor heuristics produced a symbol.
	TierUnresolved Tier = iota
	// TierHeuristic means the symbol was inferred from simple-name and namespace checks.
	TierHeuristic
	// TierBound means the symbol came from an import, a local declaration or full qualification.
	TierBound
)

// String returns the tier name
func (t Tier) String() string {
	switch t {
	case TierBound:
		return "bound"
	case TierHeuristic:
		return "heuristic"
	default:
		return "unresolved"
	}
}
