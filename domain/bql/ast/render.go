package ast

import (
	"fmt"
	"strconv"
	"strings"

	"bql/domain/bql/relation"
)

// Render produces a canonical BQL rendering of q. It exists purely to
// support the round-trip testable property of §8
// (parse(render(parse(Q))) == parse(Q)); it is test infrastructure, not a
// BQL feature.
func Render(q *Query) string {
	var b strings.Builder

	if q.Match != nil {
		b.WriteString("MATCH ")
		renderPatterns(&b, q.Match.Patterns)
		if q.Match.Where != nil {
			b.WriteString(" WHERE ")
			renderExpr(&b, q.Match.Where)
		}
		if len(q.Match.Set) > 0 {
			b.WriteString(" SET ")
			renderSetItems(&b, q.Match.Set)
		}
	}

	if q.Write != nil {
		if q.Match != nil {
			b.WriteString(" ")
		}
		switch {
		case q.Write.Create != nil:
			b.WriteString("CREATE ")
			renderPatterns(&b, q.Write.Create.Patterns)
		case q.Write.Merge != nil:
			b.WriteString("MERGE ")
			renderPatterns(&b, q.Write.Merge.Patterns)
			if len(q.Write.Merge.OnCreate) > 0 {
				b.WriteString(" ON CREATE SET ")
				renderSetItems(&b, q.Write.Merge.OnCreate)
			}
			if len(q.Write.Merge.OnMatch) > 0 {
				b.WriteString(" ON MATCH SET ")
				renderSetItems(&b, q.Write.Merge.OnMatch)
			}
		}
	}

	if q.Return != nil {
		if q.Match != nil || q.Write != nil {
			b.WriteString(" ")
		}
		b.WriteString("RETURN ")
		items := make([]string, len(q.Return.Items))
		for i, it := range q.Return.Items {
			if it.Property == "" {
				items[i] = it.Var
			} else {
				items[i] = it.Var + "." + it.Property
			}
		}
		b.WriteString(strings.Join(items, ", "))
	}

	if q.Delete != nil {
		if q.Match != nil || q.Write != nil || q.Return != nil {
			b.WriteString(" ")
		}
		if q.Delete.Detach {
			b.WriteString("DETACH ")
		}
		b.WriteString("DELETE ")
		b.WriteString(strings.Join(q.Delete.Vars, ", "))
	}

	return b.String()
}

func renderPatterns(b *strings.Builder, patterns []Pattern) {
	parts := make([]string, len(patterns))
	for i, p := range patterns {
		parts[i] = renderPattern(p)
	}
	b.WriteString(strings.Join(parts, ", "))
}

func renderPattern(p Pattern) string {
	var b strings.Builder
	for i, n := range p.Nodes {
		b.WriteString(renderNode(n))
		if i < len(p.Rels) {
			b.WriteString(renderRel(p.Rels[i]))
		}
	}
	return b.String()
}

func renderNode(n NodePattern) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(n.Variable)
	if n.TypeLabel != "" {
		b.WriteString(":")
		b.WriteString(n.TypeLabel)
	}
	if n.NameConstraint != nil {
		fmt.Fprintf(&b, " {name: %s}", quote(*n.NameConstraint))
	}
	b.WriteString(")")
	return b.String()
}

func renderRel(r RelationshipPattern) string {
	var b strings.Builder
	b.WriteString("-[")
	if r.Variable != "" {
		b.WriteString(r.Variable)
	}
	b.WriteString(":")
	if r.Set.Wildcard {
		b.WriteString("*")
	} else {
		names := make([]string, len(r.Set.Kinds))
		for i, k := range r.Set.Kinds {
			names[i] = k.String()
		}
		b.WriteString(strings.Join(names, "|"))
	}
	b.WriteString(renderHop(r.Hop))
	b.WriteString("]->")
	return b.String()
}

func renderHop(h relation.HopSpec) string {
	if h == relation.DefaultHop {
		return ""
	}
	if h.Min == h.Max {
		return "*" + strconv.Itoa(h.Min)
	}
	return "*" + strconv.Itoa(h.Min) + ".." + strconv.Itoa(h.Max)
}

func renderSetItems(b *strings.Builder, items []SetItem) {
	parts := make([]string, len(items))
	for i, it := range items {
		switch v := it.(type) {
		case PropertyAssign:
			if v.Value == nil {
				parts[i] = fmt.Sprintf("%s.%s = NULL", v.Var, v.Property)
			} else {
				parts[i] = fmt.Sprintf("%s.%s = %s", v.Var, v.Property, quote(*v.Value))
			}
		case TypeAssign:
			parts[i] = fmt.Sprintf("%s:%s", v.Var, v.TypeLabel)
		}
	}
	b.WriteString(strings.Join(parts, ", "))
}

func renderExpr(b *strings.Builder, e Expr) {
	switch v := e.(type) {
	case Or:
		b.WriteString("(")
		renderExpr(b, v.Left)
		b.WriteString(" OR ")
		renderExpr(b, v.Right)
		b.WriteString(")")
	case Xor:
		b.WriteString("(")
		renderExpr(b, v.Left)
		b.WriteString(" XOR ")
		renderExpr(b, v.Right)
		b.WriteString(")")
	case And:
		b.WriteString("(")
		renderExpr(b, v.Left)
		b.WriteString(" AND ")
		renderExpr(b, v.Right)
		b.WriteString(")")
	case Not:
		b.WriteString("NOT ")
		renderExpr(b, v.Operand)
	case NameCompare:
		fmt.Fprintf(b, "%s.name %s %s", v.Var, v.Op, quote(v.Literal))
	case IsNull:
		fmt.Fprintf(b, "%s.%s IS NULL", v.Var, v.Property)
	case IsNotNull:
		fmt.Fprintf(b, "%s.%s IS NOT NULL", v.Var, v.Property)
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
