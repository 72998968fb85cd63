package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bql/application/ports"
	"bql/domain/bql/ast"
)

func node(name, label, typeID string) ports.NodeRecord {
	return ports.NodeRecord{Name: name, Label: label, TypeID: typeID}
}

func TestEval_NameCompareEq(t *testing.T) {
	n := node("Apple", "", "")
	assert.True(t, Eval(ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Apple"}, n))
	assert.False(t, Eval(ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "apple"}, n))
}

func TestEval_NameCompareContainsIsCaseInsensitive(t *testing.T) {
	n := node("Granny Smith Apple", "", "")
	assert.True(t, Eval(ast.NameCompare{Var: "n", Op: ast.Contains, Literal: "smith"}, n))
}

func TestEval_NameCompareStartsAndEndsWith(t *testing.T) {
	n := node("Granny Smith", "", "")
	assert.True(t, Eval(ast.NameCompare{Var: "n", Op: ast.StartsWith, Literal: "granny"}, n))
	assert.True(t, Eval(ast.NameCompare{Var: "n", Op: ast.EndsWith, Literal: "SMITH"}, n))
	assert.False(t, Eval(ast.NameCompare{Var: "n", Op: ast.EndsWith, Literal: "apple"}, n))
}

func TestEval_FuzzyAlwaysPassesAtEvaluationTime(t *testing.T) {
	n := node("Anything", "", "")
	assert.True(t, Eval(ast.NameCompare{Var: "n", Op: ast.Fuzzy, Literal: "whatever"}, n))
}

func TestEval_IsNullAndIsNotNull(t *testing.T) {
	withLabel := node("Apple", "fruit", "")
	withoutLabel := node("Apple", "", "")

	assert.False(t, Eval(ast.IsNull{Var: "n", Property: "label"}, withLabel))
	assert.True(t, Eval(ast.IsNull{Var: "n", Property: "label"}, withoutLabel))
	assert.True(t, Eval(ast.IsNotNull{Var: "n", Property: "label"}, withLabel))
}

func TestEval_NameIDKindAreNeverNull(t *testing.T) {
	n := node("", "", "")
	assert.False(t, Eval(ast.IsNull{Var: "n", Property: "name"}, n))
	assert.False(t, Eval(ast.IsNull{Var: "n", Property: "id"}, n))
	assert.False(t, Eval(ast.IsNull{Var: "n", Property: "kind"}, n))
}

func TestEval_BooleanCombinators(t *testing.T) {
	n := node("Apple", "fruit", "")
	and := ast.And{
		Left:  ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Apple"},
		Right: ast.IsNotNull{Var: "n", Property: "label"},
	}
	assert.True(t, Eval(and, n))

	not := ast.Not{Operand: ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Apple"}}
	assert.False(t, Eval(not, n))

	xor := ast.Xor{
		Left:  ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Apple"},
		Right: ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Apple"},
	}
	assert.False(t, Eval(xor, n))
}

func TestEvalAll_IsAnImplicitAND(t *testing.T) {
	n := node("Apple", "fruit", "")
	atoms := []ast.Expr{
		ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Apple"},
		ast.IsNotNull{Var: "n", Property: "label"},
	}
	assert.True(t, EvalAll(atoms, n))

	atoms = append(atoms, ast.NameCompare{Var: "n", Op: ast.Eq, Literal: "Orange"})
	assert.False(t, EvalAll(atoms, n))
}

func TestEvalAll_EmptyIsVacuouslyTrue(t *testing.T) {
	n := node("Apple", "", "")
	assert.True(t, EvalAll(nil, n))
}
