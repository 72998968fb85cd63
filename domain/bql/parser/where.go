package parser

import (
	"bql/domain/bql/ast"
	"bql/domain/bql/lexer"
)

// parseWhereExpr implements the WHERE-tree grammar at precedence lowest to
// highest: OR < XOR < AND < NOT (§3 Data Model).
func (p *Parser) parseWhereExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.OR {
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = ast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.XOR {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Xor{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.AND {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind == lexer.NOT {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Not{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	if p.cur.Kind == lexer.LPAREN {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}

	return p.parseAtom()
}

// parseAtom implements the leaf atoms: NameCompare(var, op, literal),
// IsNull(var, property), IsNotNull(var, property).
func (p *Parser) parseAtom() (ast.Expr, error) {
	v, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.DOT); err != nil {
		return nil, err
	}
	prop, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	if p.cur.Kind == lexer.IS {
		p.advance()
		negate := false
		if p.cur.Kind == lexer.NOT {
			negate = true
			p.advance()
		}
		if _, err := p.expect(lexer.NULLTOK); err != nil {
			return nil, err
		}
		if negate {
			return ast.IsNotNull{Var: v.Literal, Property: prop.Literal}, nil
		}
		return ast.IsNull{Var: v.Literal, Property: prop.Literal}, nil
	}

	if prop.Literal != "name" {
		return nil, p.errorf([]string{"IS"}, "value comparisons are only supported on the name property, got %q", prop.Literal)
	}

	op, literal, err := p.parseCompareTail()
	if err != nil {
		return nil, err
	}

	return ast.NameCompare{Var: v.Literal, Op: op, Literal: literal}, nil
}

func (p *Parser) parseCompareTail() (ast.CompareOp, string, error) {
	switch p.cur.Kind {
	case lexer.EQ:
		p.advance()
		lit, err := p.expect(lexer.STRING)
		if err != nil {
			return 0, "", err
		}
		return ast.Eq, lit.Literal, nil
	case lexer.FUZZY:
		p.advance()
		lit, err := p.expect(lexer.STRING)
		if err != nil {
			return 0, "", err
		}
		return ast.Fuzzy, lit.Literal, nil
	case lexer.CONTAINS:
		p.advance()
		lit, err := p.expect(lexer.STRING)
		if err != nil {
			return 0, "", err
		}
		return ast.Contains, lit.Literal, nil
	case lexer.STARTS:
		p.advance()
		if _, err := p.expect(lexer.WITH); err != nil {
			return 0, "", err
		}
		lit, err := p.expect(lexer.STRING)
		if err != nil {
			return 0, "", err
		}
		return ast.StartsWith, lit.Literal, nil
	case lexer.ENDS:
		p.advance()
		if _, err := p.expect(lexer.WITH); err != nil {
			return 0, "", err
		}
		lit, err := p.expect(lexer.STRING)
		if err != nil {
			return 0, "", err
		}
		return ast.EndsWith, lit.Literal, nil
	default:
		return 0, "", p.errorf([]string{"=", "=~", "CONTAINS", "STARTS WITH", "ENDS WITH", "IS"}, "unexpected %s %q in predicate", p.cur.Kind, p.cur.Literal)
	}
}
