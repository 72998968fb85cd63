// Package ast defines the BQL abstract syntax tree. It is a discriminated
// union per node kind — never a string-tagged record — so that a later
// addition (e.g. UNWIND) is a localized change (§9 Design Notes).
package ast

import "bql/domain/bql/relation"

// QueryKind names one of the six accepted top-level query shapes (§3 Data
// Model). It is derived from which parts a Query carries, not carried as an
// independent field the parser could set inconsistently — see Query.Kind.
type QueryKind int

const (
	ReadQuery QueryKind = iota
	WriteStandalone
	ReadWrite
	UpsertQuery
	ReadUpsert
	ReadDelete
)

func (k QueryKind) String() string {
	switch k {
	case ReadQuery:
		return "ReadQuery"
	case WriteStandalone:
		return "WriteStandalone"
	case ReadWrite:
		return "ReadWrite"
	case UpsertQuery:
		return "UpsertQuery"
	case ReadUpsert:
		return "ReadUpsert"
	case ReadDelete:
		return "ReadDelete"
	default:
		return "Unknown"
	}
}

// Query is the root of one BQL statement, per the grammar:
//
//	query := match_part? write_part? return_part? delete_part?
type Query struct {
	Match  *MatchPart
	Write  *WritePart
	Return *ReturnPart
	Delete *DeletePart
}

// Kind classifies q by which parts are present. The parser is responsible
// for rejecting combinations that don't correspond to one of the six named
// variants (e.g. a Delete with no Match) before this is ever called.
func (q *Query) Kind() QueryKind {
	switch {
	case q.Delete != nil:
		return ReadDelete
	case q.Write != nil && q.Write.Merge != nil && q.Match != nil:
		return ReadUpsert
	case q.Write != nil && q.Write.Merge != nil:
		return UpsertQuery
	case q.Write != nil && q.Match != nil:
		return ReadWrite
	case q.Write != nil:
		return WriteStandalone
	default:
		return ReadQuery
	}
}

// MatchPart is `MATCH pattern (, pattern)* where_clause? set_clause?`.
type MatchPart struct {
	Patterns []Pattern
	Where    Expr // nil if no WHERE clause
	Set      []SetItem
}

// WritePart is the write_part production: exactly one of Create or Merge is
// set, never both.
type WritePart struct {
	Create *CreatePart
	Merge  *MergePart
}

// CreatePart is `CREATE pattern (, pattern)*`.
type CreatePart struct {
	Patterns []Pattern
}

// MergePart is `MERGE pattern (, pattern)* on_create? on_match?`.
type MergePart struct {
	Patterns []Pattern
	OnCreate []SetItem
	OnMatch  []SetItem
}

// ReturnPart is the RETURN list.
type ReturnPart struct {
	Items []ReturnItem
}

// ReturnItem is one RETURN projection: `RETURN v` (Property == "") or
// `RETURN v.name` / `RETURN v.id` (Property set).
type ReturnItem struct {
	Var      string
	Property string
}

// DeletePart is `DETACH? DELETE var (, var)*`.
type DeletePart struct {
	Detach bool
	Vars   []string
}

// Pattern is an alternating sequence of node and relationship patterns,
// beginning and ending with a node pattern: len(Nodes) == len(Rels)+1.
type Pattern struct {
	Nodes []NodePattern
	Rels  []RelationshipPattern
}

// NodePattern is `(variable :type_label? {name: "..."}?)`.
type NodePattern struct {
	Variable       string
	TypeLabel      string  // "" if no type label
	NameConstraint *string // nil if no inline {name: "..."}
}

// RelationshipPattern is `-[relation_variable?:relation_set hop?]->`.
type RelationshipPattern struct {
	Variable string // "" if unbound
	Set      RelationSet
	Hop      relation.HopSpec
}

// RelationSet is the relation-kind alternative of a relationship pattern: a
// single type, a `|`-separated union, or a wildcard (all forward kinds).
type RelationSet struct {
	Kinds    []relation.Kind
	Wildcard bool
}

// IsUnion reports whether the relation-set lists more than one concrete
// kind (neither a single type nor a wildcard).
func (rs RelationSet) IsUnion() bool {
	return !rs.Wildcard && len(rs.Kinds) > 1
}

// Expand returns the concrete set of relation kinds this relation-set
// matches during traversal (§4.6).
func (rs RelationSet) Expand() []relation.Kind {
	if rs.Wildcard {
		return relation.Forward
	}
	return rs.Kinds
}

// CompareOp enumerates the NameCompare operators of §3/§4.7.
type CompareOp int

const (
	Eq CompareOp = iota
	Contains
	StartsWith
	EndsWith
	Fuzzy // =~
)

func (op CompareOp) String() string {
	switch op {
	case Eq:
		return "="
	case Contains:
		return "CONTAINS"
	case StartsWith:
		return "STARTS WITH"
	case EndsWith:
		return "ENDS WITH"
	case Fuzzy:
		return "=~"
	default:
		return "?"
	}
}

// Expr is the WHERE-tree sum type: Or, Xor, And, Not, or one of the three
// atom leaves.
type Expr interface {
	exprNode()
}

// Or is a disjunction; across pattern variables it is rejected by the
// validator (§4.3).
type Or struct{ Left, Right Expr }

// Xor is an exclusive disjunction; same cross-variable restriction as Or.
type Xor struct{ Left, Right Expr }

// And is a conjunction; across variables it is allowed and is split
// per-variable by the planner (§4.4).
type And struct{ Left, Right Expr }

// Not negates a single operand.
type Not struct{ Operand Expr }

// NameCompare is `var.name OP "literal"` (or the inline-equivalent form).
type NameCompare struct {
	Var     string
	Op      CompareOp
	Literal string
}

// IsNull is `var.property IS NULL`.
type IsNull struct {
	Var      string
	Property string
}

// IsNotNull is `var.property IS NOT NULL`.
type IsNotNull struct {
	Var      string
	Property string
}

func (Or) exprNode()          {}
func (Xor) exprNode()         {}
func (And) exprNode()         {}
func (Not) exprNode()         {}
func (NameCompare) exprNode() {}
func (IsNull) exprNode()      {}
func (IsNotNull) exprNode()   {}

// SetItem is the SET-item sum type: PropertyAssign or TypeAssign.
type SetItem interface {
	setItemNode()
}

// PropertyAssign is `var.property = value` or `var.property = NULL`
// (Value == nil means NULL, clearing the property).
type PropertyAssign struct {
	Var      string
	Property string
	Value    *string
}

// TypeAssign is `SET var:TypeName`, a type change (§4.8).
type TypeAssign struct {
	Var       string
	TypeLabel string
}

func (PropertyAssign) setItemNode() {}
func (TypeAssign) setItemNode()     {}

// SettableProperties is the closed list of properties assignable via
// PropertyAssign. `id`, `typeId`, and `kind` are never assignable this way
// (§3 Data Model) — typeId changes go through TypeAssign instead.
var SettableProperties = map[string]bool{
	"name":            true,
	"label":           true,
	"foregroundColor": true,
	"backgroundColor": true,
}

// Variables returns every variable name appearing anywhere in p, in
// left-to-right order, for the "previously bound" checks of §4.2.
func (p Pattern) Variables() []string {
	vars := make([]string, 0, len(p.Nodes)+len(p.Rels))
	for i, n := range p.Nodes {
		vars = append(vars, n.Variable)
		if i < len(p.Rels) && p.Rels[i].Variable != "" {
			vars = append(vars, p.Rels[i].Variable)
		}
	}
	return vars
}
