// Package token defines the lexical tokens of the surface language.
//
// The fixed wire syntax (command keywords, the ::= and |- separators,
// brackets) is closed and defined here as constants. Everything inside a
// user-declared notation is lexed as NAME, STRING, NUMBER or SYMBOL and
// matched against grammar rules at parse time instead.
package token

import "fmt"

// Type represents the type of a lexical token.
type Type int32

const (
	// Special tokens
	EOF Type = iota
	ILLEGAL

	// Literals
	NAME   // identifier or notation word
	NUMBER // 600, 42
	STRING // "lit"
	SYMBOL // run of operator characters, e.g. =, ¬, ∨, →

	// Punctuation
	LBRACKET  // [
	RBRACKET  // ]
	LPAREN    // (
	RPAREN    // )
	COLON     // :
	SEMI      // ;
	COMMA     // ,
	AT        // @
	DEFINE    // ::=
	TURNSTILE // |-

	// Keywords
	MODULE
	CATEGORY
	SYNTAX
	NOTATION
	DEFINITION
	AXIOM
	THEOREM
	PROOF
	QED
	END
	WHERE
	ASSUME
	DISMISS
	HAVE
	BY
	TODO
	LEFT
	RIGHT
	BINDING
	VARIABLE
)

// String returns a human-readable representation of the token type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var typeNames = map[Type]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	NAME:   "NAME",
	NUMBER: "NUMBER",
	STRING: "STRING",
	SYMBOL: "SYMBOL",

	LBRACKET:  "[",
	RBRACKET:  "]",
	LPAREN:    "(",
	RPAREN:    ")",
	COLON:     ":",
	SEMI:      ";",
	COMMA:     ",",
	AT:        "@",
	DEFINE:    "::=",
	TURNSTILE: "|-",

	MODULE:     "module",
	CATEGORY:   "category",
	SYNTAX:     "syntax",
	NOTATION:   "notation",
	DEFINITION: "definition",
	AXIOM:      "axiom",
	THEOREM:    "theorem",
	PROOF:      "proof",
	QED:        "qed",
	END:        "end",
	WHERE:      "where",
	ASSUME:     "assume",
	DISMISS:    "dismiss",
	HAVE:       "have",
	BY:         "by",
	TODO:       "todo",
	LEFT:       "left",
	RIGHT:      "right",
	BINDING:    "binding",
	VARIABLE:   "variable",
}

// keywords maps keyword spellings to their token types.
var keywords = map[string]Type{
	"module":     MODULE,
	"category":   CATEGORY,
	"syntax":     SYNTAX,
	"notation":   NOTATION,
	"definition": DEFINITION,
	"axiom":      AXIOM,
	"theorem":    THEOREM,
	"proof":      PROOF,
	"qed":        QED,
	"end":        END,
	"where":      WHERE,
	"assume":     ASSUME,
	"dismiss":    DISMISS,
	"have":       HAVE,
	"by":         BY,
	"todo":       TODO,
	"left":       LEFT,
	"right":      RIGHT,
	"binding":    BINDING,
	"variable":   VARIABLE,
}

// LookupName returns the token type for the given identifier: the keyword
// type if the spelling is reserved, NAME otherwise.
func LookupName(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// IsKeyword returns true if the token type is a reserved keyword.
func IsKeyword(t Type) bool {
	return t >= MODULE && t <= VARIABLE
}

// IsCommandStart reports whether a token type can open a top-level command.
func IsCommandStart(t Type) bool {
	switch t {
	case MODULE, CATEGORY, SYNTAX, NOTATION, DEFINITION, AXIOM, THEOREM:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

// Span returns the source span covered by the token.
func (t Token) Span() Span {
	end := t.Pos
	end.Column += len([]rune(t.Literal))
	end.Offset += len(t.Literal)
	return Span{Start: t.Pos, End: end}
}

func (t Token) String() string {
	if t.Literal == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
