package parser

import (
	"strconv"

	"bql/domain/bql/ast"
	"bql/domain/bql/lexer"
	"bql/domain/bql/relation"
)

// parsePatternList parses `pattern ("," pattern)*`. isWrite gates the
// wildcard/union-relation rejection rule for CREATE/MERGE patterns (§4.2).
func (p *Parser) parsePatternList(isWrite bool) ([]ast.Pattern, error) {
	return p.parsePatternListTracking(isWrite, make(map[string]bool))
}

// parsePatternListTracking is parsePatternList but also records, in
// newlyBound, which variables this pattern list itself introduced for the
// first time — used by parseMergePart to enforce the name-constraint rule
// only against freshly-introduced variables.
func (p *Parser) parsePatternListTracking(isWrite bool, newlyBound map[string]bool) ([]ast.Pattern, error) {
	var patterns []ast.Pattern
	for {
		pat, err := p.parsePattern(isWrite, newlyBound)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pat)

		if p.cur.Kind == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return patterns, nil
}

func (p *Parser) parsePattern(isWrite bool, newlyBound map[string]bool) (ast.Pattern, error) {
	var pat ast.Pattern

	first, err := p.parseNodePattern(newlyBound)
	if err != nil {
		return pat, err
	}
	pat.Nodes = append(pat.Nodes, first)

	for p.cur.Kind == lexer.ARROW || p.cur.Kind == lexer.LREL {
		rel, err := p.parseRelationshipPattern()
		if err != nil {
			return pat, err
		}
		if isWrite && (rel.Set.Wildcard || rel.Set.IsUnion()) {
			return pat, p.errorf(nil, "write patterns cannot use wildcard or union relations")
		}
		if rel.Variable != "" {
			p.bindVariable(rel.Variable, false, newlyBound)
		}
		pat.Rels = append(pat.Rels, rel)

		node, err := p.parseNodePattern(newlyBound)
		if err != nil {
			return pat, err
		}
		pat.Nodes = append(pat.Nodes, node)
	}

	return pat, nil
}

// parseNodePattern implements `(variable :type_label? {name: "..."}?)` and
// enforces invariant 1 (first appearance defines; a later appearance with
// new constraints is a parse error).
func (p *Parser) parseNodePattern(newlyBound map[string]bool) (ast.NodePattern, error) {
	var n ast.NodePattern

	if _, err := p.expect(lexer.LPAREN); err != nil {
		return n, err
	}

	v, err := p.expect(lexer.IDENT)
	if err != nil {
		return n, err
	}
	n.Variable = v.Literal

	if p.cur.Kind == lexer.COLON {
		p.advance()
		t, err := p.expect(lexer.IDENT)
		if err != nil {
			return n, err
		}
		n.TypeLabel = t.Literal
	}

	if p.cur.Kind == lexer.LBRACE {
		p.advance()
		key, err := p.expect(lexer.IDENT)
		if err != nil {
			return n, err
		}
		if key.Literal != "name" {
			return n, p.errorf([]string{"name"}, "inline node constraint only supports {name: \"...\"}, got %q", key.Literal)
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return n, err
		}
		str, err := p.expect(lexer.STRING)
		if err != nil {
			return n, err
		}
		val := str.Literal
		n.NameConstraint = &val
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return n, err
		}
	}

	hasConstraint := n.TypeLabel != "" || n.NameConstraint != nil
	if p.bound[n.Variable] {
		if hasConstraint {
			return n, p.errorf(nil, "variable %q redefined with new constraints in the same scope", n.Variable)
		}
	} else {
		p.bindVariable(n.Variable, true, newlyBound)
	}

	if _, err := p.expect(lexer.RPAREN); err != nil {
		return n, err
	}

	return n, nil
}

func (p *Parser) bindVariable(name string, isFirstSight bool, newlyBound map[string]bool) {
	if p.bound == nil {
		p.bound = make(map[string]bool)
	}
	if !p.bound[name] {
		p.bound[name] = true
		newlyBound[name] = true
	}
}

// parseRelationshipPattern implements `-->` (anonymous wildcard, default
// hop) or `-[relation_variable? : relation_set hop?]->`.
func (p *Parser) parseRelationshipPattern() (ast.RelationshipPattern, error) {
	var r ast.RelationshipPattern

	if p.cur.Kind == lexer.ARROW {
		p.advance()
		r.Set = ast.RelationSet{Wildcard: true}
		r.Hop = relation.DefaultHop
		return r, nil
	}

	if _, err := p.expect(lexer.LREL); err != nil {
		return r, err
	}

	if p.cur.Kind == lexer.IDENT {
		r.Variable = p.cur.Literal
		p.advance()
	}

	if _, err := p.expect(lexer.COLON); err != nil {
		return r, err
	}

	set, err := p.parseRelationSet()
	if err != nil {
		return r, err
	}
	r.Set = set

	hop := relation.DefaultHop
	if p.cur.Kind == lexer.STAR {
		p.advance()
		hop, err = p.parseHopSpec()
		if err != nil {
			return r, err
		}
	}
	r.Hop = hop

	if _, err := p.expect(lexer.RREL); err != nil {
		return r, err
	}

	return r, nil
}

func (p *Parser) parseRelationSet() (ast.RelationSet, error) {
	if p.cur.Kind == lexer.STAR {
		p.advance()
		return ast.RelationSet{Wildcard: true}, nil
	}

	var kinds []relation.Kind
	for {
		ident, err := p.expect(lexer.IDENT)
		if err != nil {
			return ast.RelationSet{}, err
		}
		kind, ok := relation.ParseKind(upper(ident.Literal))
		if !ok {
			return ast.RelationSet{}, p.errorf([]string{"CHILD", "PARENT", "JUMP", "SIBLING"}, "unknown relation type %q", ident.Literal)
		}
		kinds = append(kinds, kind)

		if p.cur.Kind == lexer.PIPE {
			p.advance()
			continue
		}
		break
	}

	return ast.RelationSet{Kinds: kinds}, nil
}

// parseHopSpec parses the tail of a hop specifier after `*` has been
// consumed: `N`, `N..M`, or a bare/unbounded form whose Max is left at 0 so
// the semantic validator can reject it (§4.3).
func (p *Parser) parseHopSpec() (relation.HopSpec, error) {
	if p.cur.Kind != lexer.INT {
		// bare "*": no bound at all.
		return relation.HopSpec{Min: 1, Max: 0}, nil
	}

	n, err := p.parseInt()
	if err != nil {
		return relation.HopSpec{}, err
	}

	if p.cur.Kind == lexer.DOTDOT {
		p.advance()
		if p.cur.Kind != lexer.INT {
			// "*N..": unbounded upper end.
			return relation.HopSpec{Min: n, Max: 0}, nil
		}
		m, err := p.parseInt()
		if err != nil {
			return relation.HopSpec{}, err
		}
		return relation.HopSpec{Min: n, Max: m}, nil
	}

	return relation.HopSpec{Min: n, Max: n}, nil
}

func (p *Parser) parseInt() (int, error) {
	tok, err := p.expect(lexer.INT)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(tok.Literal)
	if convErr != nil {
		return 0, p.errorf([]string{"integer"}, "invalid integer literal %q", tok.Literal)
	}
	return n, nil
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// parseSetClause implements `"SET" set_item ("," set_item)*` and checks the
// variables it references are already bound.
func (p *Parser) parseSetClause() ([]ast.SetItem, error) {
	if _, err := p.expect(lexer.SET); err != nil {
		return nil, err
	}
	items, err := p.parseSetItemList()
	if err != nil {
		return nil, err
	}
	if err := p.checkSetVars(items); err != nil {
		return nil, err
	}
	return items, nil
}

// parseSetItemList parses `set_item ("," set_item)*` without the leading
// "SET" keyword, shared by match_part's SET and ON CREATE/MATCH SET.
func (p *Parser) parseSetItemList() ([]ast.SetItem, error) {
	var items []ast.SetItem
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.cur.Kind == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSetItem() (ast.SetItem, error) {
	v, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	if p.cur.Kind == lexer.COLON {
		p.advance()
		t, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		return ast.TypeAssign{Var: v.Literal, TypeLabel: t.Literal}, nil
	}

	if _, err := p.expect(lexer.DOT); err != nil {
		return nil, err
	}
	prop, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if !ast.SettableProperties[prop.Literal] {
		return nil, p.errorf(nil, "property %q is not settable via SET", prop.Literal)
	}

	if _, err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}

	if p.cur.Kind == lexer.NULLTOK {
		p.advance()
		return ast.PropertyAssign{Var: v.Literal, Property: prop.Literal, Value: nil}, nil
	}

	str, err := p.expect(lexer.STRING)
	if err != nil {
		return nil, err
	}
	val := str.Literal
	return ast.PropertyAssign{Var: v.Literal, Property: prop.Literal, Value: &val}, nil
}
