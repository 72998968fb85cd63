// Package plan assigns a resolution strategy to every MATCH pattern
// variable (§4.4), mirroring the teacher's BadWolf-style planner: a single
// pass over an already-validated AST that decides, for each variable, how
// the node resolver must turn it into a candidate set, and routes each
// WHERE atom to the one variable it constrains.
package plan

import (
	"bql/domain/bql/ast"
	apperrors "bql/pkg/errors"
)

// StrategyKind is the resolution driver assigned to a pattern variable.
type StrategyKind int

const (
	// StrategyName is a strict exact-name lookup, driven by an inline
	// {name: "..."} constraint or a `WHERE v.name = "..."` atom.
	StrategyName StrategyKind = iota
	// StrategySearch is full-text search with a substring post-filter,
	// driven by CONTAINS/STARTS WITH/ENDS WITH.
	StrategySearch
	// StrategyFuzzy is strict exact-name first, falling back to ranked
	// full-text search, driven by `=~`.
	StrategyFuzzy
	// StrategyType looks up the type node itself via list-types; it never
	// expands to the type's instances.
	StrategyType
	// StrategyTraversal defers resolution entirely to the traversal
	// executor: the variable is the right-hand endpoint of a relationship.
	StrategyTraversal
)

// VarPlan is the resolution plan for one pattern variable.
type VarPlan struct {
	Var          string
	Strategy     StrategyKind
	TypeLabel    string     // set for StrategyType, and carried as a post-resolution filter for StrategyName/Search/Fuzzy when also present
	NameLiteral  string     // the driving name literal for Name/Search/Fuzzy strategies
	CompareOp    ast.CompareOp
	PostFilters  []ast.Expr // every WHERE conjunct touching this variable, applied by predicate.Eval after resolution/traversal
	IsDownstream bool
}

// Plan is the per-variable strategy assignment for one query.
type Plan struct {
	Vars map[string]*VarPlan
	// Order lists variables in left-to-right pattern order, the order the
	// resolver and traversal executor must walk them in (§5 Ordering).
	Order []string
}

// Build assigns a VarPlan to every variable introduced by q.Match's
// patterns. Variables that appear only in CREATE/MERGE patterns are not
// planned here — the mutation executor resolves or creates them directly
// (§4.8).
func Build(q *ast.Query) (*Plan, error) {
	p := &Plan{Vars: make(map[string]*VarPlan)}
	if q.Match == nil {
		return p, nil
	}

	downstream := downstreamVars(q.Match.Patterns)
	typeLabels := make(map[string]string)
	nameConstraints := make(map[string]string)

	for _, pat := range q.Match.Patterns {
		for _, n := range pat.Nodes {
			if _, seen := p.Vars[n.Variable]; seen {
				continue
			}
			p.Order = append(p.Order, n.Variable)
			p.Vars[n.Variable] = &VarPlan{Var: n.Variable, IsDownstream: downstream[n.Variable]}
			if n.TypeLabel != "" {
				typeLabels[n.Variable] = n.TypeLabel
			}
			if n.NameConstraint != nil {
				nameConstraints[n.Variable] = *n.NameConstraint
			}
		}
	}

	atomsByVar := make(map[string][]ast.Expr)
	if q.Match.Where != nil {
		for _, conjunct := range flattenAnd(q.Match.Where) {
			v := soleVariable(conjunct)
			atomsByVar[v] = append(atomsByVar[v], conjunct)
		}
	}

	for v, vp := range p.Vars {
		vp.TypeLabel = typeLabels[v]
		vp.PostFilters = atomsByVar[v]

		driver := firstNameCompare(atomsByVar[v])
		switch {
		case nameConstraints[v] != "":
			vp.Strategy = StrategyName
			vp.NameLiteral = nameConstraints[v]
		case driver != nil && driver.Op == ast.Eq:
			vp.Strategy = StrategyName
			vp.NameLiteral = driver.Literal
		case driver != nil && driver.Op == ast.Fuzzy:
			vp.Strategy = StrategyFuzzy
			vp.NameLiteral = driver.Literal
		case driver != nil:
			vp.Strategy = StrategySearch
			vp.NameLiteral = driver.Literal
			vp.CompareOp = driver.Op
		case vp.TypeLabel != "":
			vp.Strategy = StrategyType
		case vp.IsDownstream:
			vp.Strategy = StrategyTraversal
		default:
			return nil, apperrors.NewResolution("variable " + v + " is under-constrained: no name, type, or traversal driver")
		}
	}

	return p, nil
}

func downstreamVars(patterns []ast.Pattern) map[string]bool {
	out := make(map[string]bool)
	for _, pat := range patterns {
		for i, n := range pat.Nodes {
			if i > 0 && i-1 < len(pat.Rels) {
				out[n.Variable] = true
			}
		}
	}
	return out
}

// flattenAnd splits the top-level AND spine of e into its conjuncts,
// leaving OR/XOR/NOT subtrees intact (they are validated to reference a
// single variable as a whole).
func flattenAnd(e ast.Expr) []ast.Expr {
	if a, ok := e.(ast.And); ok {
		return append(flattenAnd(a.Left), flattenAnd(a.Right)...)
	}
	return []ast.Expr{e}
}

// soleVariable returns the one variable referenced by e (validated by
// domain/bql/validate to be exactly one for any OR/XOR subtree).
func soleVariable(e ast.Expr) string {
	switch v := e.(type) {
	case ast.Or:
		return soleVariable(v.Left)
	case ast.Xor:
		return soleVariable(v.Left)
	case ast.And:
		return soleVariable(v.Left)
	case ast.Not:
		return soleVariable(v.Operand)
	case ast.NameCompare:
		return v.Var
	case ast.IsNull:
		return v.Var
	case ast.IsNotNull:
		return v.Var
	default:
		return ""
	}
}

// firstNameCompare returns the first NameCompare atom among atoms, if any,
// to drive resolution strategy selection.
func firstNameCompare(atoms []ast.Expr) *ast.NameCompare {
	for _, a := range atoms {
		if nc := findNameCompare(a); nc != nil {
			return nc
		}
	}
	return nil
}

// findNameCompare looks for a NameCompare atom that can drive resolution
// strategy selection. It does not recurse into Not: a negated NameCompare
// is a filter, not a positive driver — domain/bql/validate rejects any
// query where such an atom is the sole resolution driver for its variable,
// so the planner must never treat one as if it were (§4.3, §4.4, §4.5).
func findNameCompare(e ast.Expr) *ast.NameCompare {
	switch v := e.(type) {
	case ast.NameCompare:
		return &v
	case ast.And:
		if nc := findNameCompare(v.Left); nc != nil {
			return nc
		}
		return findNameCompare(v.Right)
	case ast.Or:
		if nc := findNameCompare(v.Left); nc != nil {
			return nc
		}
		return findNameCompare(v.Right)
	case ast.Xor:
		if nc := findNameCompare(v.Left); nc != nil {
			return nc
		}
		return findNameCompare(v.Right)
	default:
		return nil
	}
}
