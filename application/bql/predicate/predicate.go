// Package predicate evaluates the WHERE boolean tree against already-bound
// candidates (§4.7). Unlike the teacher's generic domain/specifications
// Specification[T] composition, BQL's tree is a fixed four-node shape
// (Or/Xor/And/Not) over three atom kinds, so it is evaluated directly by a
// small recursive switch rather than through a composable interface — the
// extra abstraction layer would have no second implementation to justify it.
package predicate

import (
	"strings"

	"bql/application/ports"
	"bql/domain/bql/ast"
)

// EvalAll reports whether node satisfies every atom in atoms (their
// implicit AND), the per-variable post-filter the planner assembled.
func EvalAll(atoms []ast.Expr, node ports.NodeRecord) bool {
	for _, a := range atoms {
		if !Eval(a, node) {
			return false
		}
	}
	return true
}

// Eval evaluates one WHERE (sub)tree against node.
func Eval(e ast.Expr, node ports.NodeRecord) bool {
	switch v := e.(type) {
	case ast.Or:
		return Eval(v.Left, node) || Eval(v.Right, node)
	case ast.Xor:
		return Eval(v.Left, node) != Eval(v.Right, node)
	case ast.And:
		return Eval(v.Left, node) && Eval(v.Right, node)
	case ast.Not:
		return !Eval(v.Operand, node)
	case ast.NameCompare:
		return evalNameCompare(v, node)
	case ast.IsNull:
		return isNullProperty(v.Property, node)
	case ast.IsNotNull:
		return !isNullProperty(v.Property, node)
	default:
		return false
	}
}

func evalNameCompare(nc ast.NameCompare, node ports.NodeRecord) bool {
	name := strings.ToLower(node.Name)
	lit := strings.ToLower(nc.Literal)
	switch nc.Op {
	case ast.Eq:
		return node.Name == nc.Literal
	case ast.Contains:
		return strings.Contains(name, lit)
	case ast.StartsWith:
		return strings.HasPrefix(name, lit)
	case ast.EndsWith:
		return strings.HasSuffix(name, lit)
	case ast.Fuzzy:
		// The resolver already performed the exact-then-ranked-search
		// pipeline for this variable (§4.4); every candidate reaching
		// evaluation already satisfied `=~` (exact name or top similarity
		// rank), so this reduces to a pass rather than a name-equality test.
		return true
	default:
		return false
	}
}

// isNullProperty reports whether property is absent on node. name, id, and
// kind are never null (§4.7); label is null when empty; the remaining
// nullable properties are null when their backing field is the zero value.
func isNullProperty(property string, node ports.NodeRecord) bool {
	switch property {
	case "name", "id", "kind":
		return false
	case "label":
		return node.Label == ""
	case "typeId":
		return node.TypeID == ""
	case "foregroundColor":
		return node.ForegroundColor == ""
	case "backgroundColor":
		return node.BackgroundColor == ""
	default:
		return true
	}
}
