// Package validate implements the semantic validator of §4.3: the pass that
// walks an already-parsed AST looking for static rule violations the parser
// itself doesn't (and shouldn't) enforce, the way the reference backend's
// domain/specifications composes rule checks and
// domain/services/graph_validation_service.go walks a tree collecting
// violations.
package validate

import (
	"bql/domain/bql/ast"
	"bql/domain/bql/relation"
	apperrors "bql/pkg/errors"
)

// Validate walks q and returns the first SemanticError found, or nil.
// maxHopUpper is the effective, possibly hot-reloaded hop cap (never above
// relation.MaxUpperBound); it is supplied by the caller rather than hardcoded
// so config changes (infrastructure/config) take effect without a rebuild.
func Validate(q *ast.Query, maxHopUpper int) error {
	if maxHopUpper > relation.MaxUpperBound {
		maxHopUpper = relation.MaxUpperBound
	}

	if err := validateHops(q, maxHopUpper); err != nil {
		return err
	}
	if err := validateWhere(q); err != nil {
		return err
	}
	if err := validateSet(q); err != nil {
		return err
	}
	return nil
}

func allPatterns(q *ast.Query) []ast.Pattern {
	var patterns []ast.Pattern
	if q.Match != nil {
		patterns = append(patterns, q.Match.Patterns...)
	}
	if q.Write != nil {
		if q.Write.Create != nil {
			patterns = append(patterns, q.Write.Create.Patterns...)
		}
		if q.Write.Merge != nil {
			patterns = append(patterns, q.Write.Merge.Patterns...)
		}
	}
	return patterns
}

func validateHops(q *ast.Query, maxHopUpper int) error {
	for _, pat := range allPatterns(q) {
		for _, rel := range pat.Rels {
			if !rel.Hop.HasFiniteUpperBound() {
				return apperrors.NewSemantic("relationship pattern has no explicit upper hop bound; bare \"*\" and unbounded \"*N..\" are rejected")
			}
			if rel.Hop.Max > maxHopUpper {
				return apperrors.NewSemantic("relationship pattern hop upper bound exceeds the configured maximum")
			}
		}
	}
	return nil
}

// downstreamVars returns the set of variables that are the right-hand
// (non-first) endpoint of some relationship pattern — they have a
// traversal-driven resolution path independent of any WHERE atom.
func downstreamVars(q *ast.Query) map[string]bool {
	out := make(map[string]bool)
	for _, pat := range allPatterns(q) {
		for i, n := range pat.Nodes {
			if i > 0 && i-1 < len(pat.Rels) {
				out[n.Variable] = true
			}
		}
	}
	return out
}

func validateWhere(q *ast.Query) error {
	if q.Match == nil || q.Match.Where == nil {
		return nil
	}

	if err := rejectCrossVariableOrXor(q.Match.Where); err != nil {
		return err
	}

	nameVars := make(map[string]bool)
	nullVars := make(map[string]string) // var -> property, for the error message
	collectWhereAtoms(q.Match.Where, false, nameVars, nullVars)

	downstream := downstreamVars(q)
	for v, prop := range nullVars {
		if nameVars[v] || downstream[v] {
			continue
		}
		_ = prop
		return apperrors.NewSemantic("IS NULL/IS NOT NULL cannot be the sole resolution driver for variable " + v)
	}

	return nil
}

// collectWhereAtoms walks e collecting which variables a NameCompare atom
// can drive resolution for, and which variables have a null-check atom.
// negated tracks whether e sits under an odd number of enclosing NOTs: a
// NameCompare found there is a negative constraint, not a positive
// resolution driver, and must not mark nameVars (§4.3, §4.5).
func collectWhereAtoms(e ast.Expr, negated bool, nameVars map[string]bool, nullVars map[string]string) {
	switch v := e.(type) {
	case ast.Or:
		collectWhereAtoms(v.Left, negated, nameVars, nullVars)
		collectWhereAtoms(v.Right, negated, nameVars, nullVars)
	case ast.Xor:
		collectWhereAtoms(v.Left, negated, nameVars, nullVars)
		collectWhereAtoms(v.Right, negated, nameVars, nullVars)
	case ast.And:
		collectWhereAtoms(v.Left, negated, nameVars, nullVars)
		collectWhereAtoms(v.Right, negated, nameVars, nullVars)
	case ast.Not:
		collectWhereAtoms(v.Operand, !negated, nameVars, nullVars)
	case ast.NameCompare:
		if !negated {
			nameVars[v.Var] = true
		}
	case ast.IsNull:
		nullVars[v.Var] = v.Property
	case ast.IsNotNull:
		nullVars[v.Var] = v.Property
	}
}

// rejectCrossVariableOrXor enforces: AND across variables is allowed (the
// planner splits it per variable), but OR/XOR spanning more than one
// variable is rejected, because evaluating it would require synthesizing a
// joint candidate set without a defining relationship (§9 Design Notes).
func rejectCrossVariableOrXor(e ast.Expr) error {
	switch v := e.(type) {
	case ast.Or:
		if crossesVariables(v) {
			return apperrors.NewSemantic("OR cannot span multiple pattern variables")
		}
	case ast.Xor:
		if crossesVariables(v) {
			return apperrors.NewSemantic("XOR cannot span multiple pattern variables")
		}
	case ast.And:
		if err := rejectCrossVariableOrXor(v.Left); err != nil {
			return err
		}
		return rejectCrossVariableOrXor(v.Right)
	case ast.Not:
		return rejectCrossVariableOrXor(v.Operand)
	}
	return nil
}

func crossesVariables(e ast.Expr) bool {
	vars := make(map[string]bool)
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch v := e.(type) {
		case ast.Or:
			walk(v.Left)
			walk(v.Right)
		case ast.Xor:
			walk(v.Left)
			walk(v.Right)
		case ast.And:
			walk(v.Left)
			walk(v.Right)
		case ast.Not:
			walk(v.Operand)
		case ast.NameCompare:
			vars[v.Var] = true
		case ast.IsNull:
			vars[v.Var] = true
		case ast.IsNotNull:
			vars[v.Var] = true
		}
	}
	walk(e)
	return len(vars) > 1
}

// validateSet enforces: SET p:TypeName cannot appear alongside
// SET p.typeId = ... for the same variable within one SET list. The
// property-assign side of this is already unreachable through the parser
// (ast.SettableProperties excludes typeId), so this check also catches a
// pattern list carrying more than one TypeAssign for the same variable.
func validateSet(q *ast.Query) error {
	lists := setItemLists(q)
	for _, items := range lists {
		typeAssigned := make(map[string]bool)
		for _, it := range items {
			switch s := it.(type) {
			case ast.TypeAssign:
				if typeAssigned[s.Var] {
					return apperrors.NewSemantic("variable " + s.Var + " has conflicting type assignments in the same SET clause")
				}
				typeAssigned[s.Var] = true
			case ast.PropertyAssign:
				if s.Property == "typeId" && typeAssigned[s.Var] {
					return apperrors.NewSemantic("SET " + s.Var + ":Type cannot appear alongside SET " + s.Var + ".typeId")
				}
			}
		}
	}
	return nil
}

func setItemLists(q *ast.Query) [][]ast.SetItem {
	var lists [][]ast.SetItem
	if q.Match != nil && len(q.Match.Set) > 0 {
		lists = append(lists, q.Match.Set)
	}
	if q.Write != nil && q.Write.Merge != nil {
		if len(q.Write.Merge.OnCreate) > 0 {
			lists = append(lists, q.Write.Merge.OnCreate)
		}
		if len(q.Write.Merge.OnMatch) > 0 {
			lists = append(lists, q.Write.Merge.OnMatch)
		}
	}
	return lists
}
