package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allTokens(input string) []Token {
	l := New(input)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func TestLexer_Punctuation(t *testing.T) {
	toks := allTokens("(){}:,|*..=~=")
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{LPAREN, RPAREN, LBRACE, RBRACE, COLON, COMMA, PIPE, STAR, DOTDOT, FUZZY, EQ, EOF}, kinds)
}

func TestLexer_RelationArrows(t *testing.T) {
	toks := allTokens("-[:CHILD]->")
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{LREL, COLON, IDENT, RREL, EOF}, kinds)
}

func TestLexer_PlainArrow(t *testing.T) {
	toks := allTokens("-->")
	assert.Equal(t, ARROW, toks[0].Kind)
}

func TestLexer_KeywordsAreCaseInsensitive(t *testing.T) {
	for _, variant := range []string{"MATCH", "match", "Match"} {
		toks := allTokens(variant)
		assert.Equal(t, MATCH, toks[0].Kind, variant)
	}
}

func TestLexer_IdentifierIsCaseSensitive(t *testing.T) {
	toks := allTokens("n")
	assert.Equal(t, IDENT, toks[0].Kind)
	assert.Equal(t, "n", toks[0].Literal)
}

func TestLexer_StringLiteral(t *testing.T) {
	toks := allTokens(`"hello world"`)
	assert.Equal(t, STRING, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Literal)
}

func TestLexer_StringLiteralWithEscapes(t *testing.T) {
	toks := allTokens(`"say \"hi\""`)
	assert.Equal(t, STRING, toks[0].Kind)
	assert.Equal(t, `say "hi"`, toks[0].Literal)
}

func TestLexer_IntLiteral(t *testing.T) {
	toks := allTokens("42")
	assert.Equal(t, INT, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Literal)
}

func TestLexer_SkipsLineComments(t *testing.T) {
	toks := allTokens("MATCH -- a comment\nRETURN")
	assert.Equal(t, MATCH, toks[0].Kind)
	assert.Equal(t, RETURN, toks[1].Kind)
}

func TestLexer_DoubleHyphenBeforeArrowIsNotAComment(t *testing.T) {
	toks := allTokens("-->")
	assert.Equal(t, ARROW, toks[0].Kind)
}

func TestLexer_PositionTracksLineAndColumn(t *testing.T) {
	toks := allTokens("MATCH\nRETURN")
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 2, toks[1].Pos.Line)
}

func TestLexer_EOFIsStableAfterExhaustion(t *testing.T) {
	l := New("")
	first := l.Next()
	second := l.Next()
	assert.Equal(t, EOF, first.Kind)
	assert.Equal(t, EOF, second.Kind)
}

func TestLookupIdent_KnownAndUnknown(t *testing.T) {
	assert.Equal(t, WHERE, LookupIdent("WHERE"))
	assert.Equal(t, IDENT, LookupIdent("FROBNICATE"))
}
