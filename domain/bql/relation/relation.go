// Package relation defines the four primitive relation types BQL traverses
// and the hop-range specifier attached to a relationship pattern.
package relation

import "fmt"

// Kind is a closed enum of the graph's four primitive relation types, each
// with a stable integer code (§3 Data Model).
type Kind int

const (
	Child Kind = iota + 1
	Parent
	Jump
	Sibling
)

// IsValid reports whether k is one of the four known relation kinds.
func (k Kind) IsValid() bool {
	switch k {
	case Child, Parent, Jump, Sibling:
		return true
	default:
		return false
	}
}

// String renders the canonical uppercase BQL spelling of k.
func (k Kind) String() string {
	switch k {
	case Child:
		return "CHILD"
	case Parent:
		return "PARENT"
	case Jump:
		return "JUMP"
	case Sibling:
		return "SIBLING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// ParseKind maps a BQL relation keyword to its Kind. It accepts the
// upper-case, lower-case, and title-case spellings only; the parser
// upper-cases the keyword before calling it.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "CHILD", "child", "Child":
		return Child, true
	case "PARENT", "parent", "Parent":
		return Parent, true
	case "JUMP", "jump", "Jump":
		return Jump, true
	case "SIBLING", "sibling", "Sibling":
		return Sibling, true
	default:
		return 0, false
	}
}

// Forward is the set of relation kinds a wildcard relation-set expands to.
// Parent is deliberately excluded: personal graphs have hub parents with
// enormous fan-out, and expanding wildcards through them would enumerate an
// uber-node (§9 Design Notes).
var Forward = []Kind{Child, Jump, Sibling}

// HopSpec is the hop-range specifier of a relationship pattern: `*N` expands
// to Min==Max==N; `*N..M` sets both; the default (no `*` at all) is (1,1).
type HopSpec struct {
	Min int
	Max int
}

// DefaultHop is the implicit range for a relationship pattern written
// without a `*` specifier.
var DefaultHop = HopSpec{Min: 1, Max: 1}

// MaxUpperBound is the hard ceiling on HopSpec.Max (§3 invariant 2, §5).
const MaxUpperBound = 5

// HasFiniteUpperBound reports whether h was given an explicit, bounded
// upper limit. Bare `*` and unbounded `*N..` parse to Max == 0, which this
// rejects — the semantic validator surfaces that as a SemanticError.
func (h HopSpec) HasFiniteUpperBound() bool {
	return h.Max > 0
}

// WithinCap reports whether h.Max respects the ≤5 hard bound.
func (h HopSpec) WithinCap() bool {
	return h.HasFiniteUpperBound() && h.Max <= MaxUpperBound
}
