// Package lexer tokenizes BQL query text (§4.1). Keywords are
// case-insensitive; identifiers and type labels are case-sensitive.
package lexer

import "fmt"

// Kind is a closed enum of token kinds, iota-numbered the way the pack's
// hand-rolled lexers (freeeve-machparse/token, BadWolf bql/lexer) lay out
// their token tables.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	literalBeg
	IDENT
	STRING
	INT
	literalEnd

	punctBeg
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	COLON  // :
	COMMA  // ,
	DOT    // .
	DOTDOT // ..
	EQ     // =
	FUZZY  // =~
	PIPE   // |
	STAR   // *
	ARROW  // -->
	LREL   // -[
	RREL   // ]->
	punctEnd

	keywordBeg
	MATCH
	CREATE
	MERGE
	SET
	DELETE
	DETACH
	RETURN
	WHERE
	ON
	AND
	OR
	NOT
	XOR
	IS
	NULLTOK
	CONTAINS
	STARTS
	ENDS
	WITH
	keywordEnd
)

var keywords = map[string]Kind{
	"MATCH":    MATCH,
	"CREATE":   CREATE,
	"MERGE":    MERGE,
	"SET":      SET,
	"DELETE":   DELETE,
	"DETACH":   DETACH,
	"RETURN":   RETURN,
	"WHERE":    WHERE,
	"ON":       ON,
	"AND":      AND,
	"OR":       OR,
	"NOT":      NOT,
	"XOR":      XOR,
	"IS":       IS,
	"NULL":     NULLTOK,
	"CONTAINS": CONTAINS,
	"STARTS":   STARTS,
	"ENDS":     ENDS,
	"WITH":     WITH,
}

// LookupIdent returns the keyword Kind for an upper-cased identifier, or
// IDENT if it isn't reserved.
func LookupIdent(upper string) Kind {
	if k, ok := keywords[upper]; ok {
		return k
	}
	return IDENT
}

func (k Kind) IsKeyword() bool {
	return k > keywordBeg && k < keywordEnd
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "IDENT", STRING: "STRING", INT: "INT",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	COLON: ":", COMMA: ",", DOT: ".", DOTDOT: "..",
	EQ: "=", FUZZY: "=~", PIPE: "|", STAR: "*",
	ARROW: "-->", LREL: "-[", RREL: "]->",
	MATCH: "MATCH", CREATE: "CREATE", MERGE: "MERGE", SET: "SET",
	DELETE: "DELETE", DETACH: "DETACH", RETURN: "RETURN", WHERE: "WHERE",
	ON: "ON", AND: "AND", OR: "OR", NOT: "NOT", XOR: "XOR", IS: "IS",
	NULLTOK: "NULL", CONTAINS: "CONTAINS", STARTS: "STARTS", ENDS: "ENDS",
	WITH: "WITH",
}

// Position locates a token within the source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is one lexical unit. Literal holds the raw identifier/string/int
// text (already unescaped for STRING); Kind classifies it.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
}
