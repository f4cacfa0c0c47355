// Package parser implements the dynamic Earley parser. Because grammar
// rules accumulate while a source unit is processed, every command is
// parsed from scratch against the grammar snapshot left by the commands
// before it; no parser state survives between commands.
package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/sequent/pkg/token"
)

// Lexer tokenizes source text. User notation is lexed generically: names,
// numbers, strings and maximal runs of symbol characters. The grammar
// decides what the tokens mean.
type Lexer struct {
	file  string
	input string
	pos   int // byte offset of current rune
	line  int
	col   int // rune column, 1-based
}

// NewLexer creates a Lexer over the given input.
func NewLexer(file, input string) *Lexer {
	return &Lexer{file: file, input: input, line: 1, col: 1}
}

// Tokenize consumes the whole input and returns its tokens, ending with
// a single EOF token.
func Tokenize(file, input string) []token.Token {
	l := NewLexer(file, input)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) current() (rune, int) {
	if l.pos >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

func (l *Lexer) advance() {
	r, size := l.current()
	if size == 0 {
		return
	}
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{File: l.file, Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		r, size := l.current()
		if size == 0 {
			return
		}
		if unicode.IsSpace(r) {
			l.advance()
			continue
		}
		if strings.HasPrefix(l.input[l.pos:], "--") {
			for {
				r, size := l.current()
				if size == 0 || r == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		return
	}
}

// Next returns the next token.
func (l *Lexer) Next() token.Token {
	l.skipSpaceAndComments()

	pos := l.position()
	r, size := l.current()
	if size == 0 {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	// Fixed multi-rune separators come before symbol runs so that "::=" and
	// "|-" never dissolve into user symbols.
	if strings.HasPrefix(l.input[l.pos:], "::=") {
		return l.emit(token.DEFINE, 3, pos)
	}
	if strings.HasPrefix(l.input[l.pos:], "|-") {
		return l.emit(token.TURNSTILE, 2, pos)
	}

	switch r {
	case '[':
		return l.emit(token.LBRACKET, 1, pos)
	case ']':
		return l.emit(token.RBRACKET, 1, pos)
	case '(':
		return l.emit(token.LPAREN, 1, pos)
	case ')':
		return l.emit(token.RPAREN, 1, pos)
	case ':':
		return l.emit(token.COLON, 1, pos)
	case ';':
		return l.emit(token.SEMI, 1, pos)
	case ',':
		return l.emit(token.COMMA, 1, pos)
	case '@':
		return l.emit(token.AT, 1, pos)
	case '"':
		return l.readString(pos)
	}

	if isNameStart(r) {
		return l.readName(pos)
	}
	if unicode.IsDigit(r) {
		return l.readNumber(pos)
	}
	if isSymbolRune(r) {
		return l.readSymbol(pos)
	}

	l.advance()
	return token.Token{Type: token.ILLEGAL, Literal: string(r), Pos: pos}
}

// emit consumes n bytes and returns a token of the given type with the
// consumed text as literal.
func (l *Lexer) emit(t token.Type, n int, pos token.Position) token.Token {
	lit := l.input[l.pos : l.pos+n]
	for i := 0; i < n; {
		_, size := l.current()
		l.advance()
		i += size
	}
	return token.Token{Type: t, Literal: lit, Pos: pos}
}

func (l *Lexer) readName(pos token.Position) token.Token {
	start := l.pos
	for {
		r, size := l.current()
		if size == 0 || !isNamePart(r) {
			break
		}
		l.advance()
	}
	lit := l.input[start:l.pos]
	return token.Token{Type: token.LookupName(lit), Literal: lit, Pos: pos}
}

func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	for {
		r, size := l.current()
		if size == 0 || !unicode.IsDigit(r) {
			break
		}
		l.advance()
	}
	return token.Token{Type: token.NUMBER, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readString(pos token.Position) token.Token {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		r, size := l.current()
		if size == 0 || r == '\n' {
			return token.Token{Type: token.ILLEGAL, Literal: sb.String(), Pos: pos}
		}
		if r == '"' {
			l.advance()
			return token.Token{Type: token.STRING, Literal: sb.String(), Pos: pos}
		}
		if r == '\\' {
			l.advance()
			esc, escSize := l.current()
			if escSize == 0 {
				return token.Token{Type: token.ILLEGAL, Literal: sb.String(), Pos: pos}
			}
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(esc)
			}
			l.advance()
			continue
		}
		sb.WriteRune(r)
		l.advance()
	}
}

// readSymbol consumes a symbol token. ASCII symbol runes glue into
// maximal runs ("==", "<="); non-ASCII symbol runes stand alone, so
// "¬¬a" lexes as SYMBOL("¬") SYMBOL("¬") NAME("a").
func (l *Lexer) readSymbol(pos token.Position) token.Token {
	start := l.pos
	first, _ := l.current()
	l.advance()
	if first < utf8.RuneSelf {
		for {
			r, size := l.current()
			if size == 0 || !isSymbolRune(r) || r >= utf8.RuneSelf {
				break
			}
			// Stop before a separator prefix so "=|-" cannot swallow it.
			if strings.HasPrefix(l.input[l.pos:], "::=") || strings.HasPrefix(l.input[l.pos:], "|-") {
				break
			}
			l.advance()
		}
	}
	return token.Token{Type: token.SYMBOL, Literal: l.input[start:l.pos], Pos: pos}
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isSymbolRune(r rune) bool {
	if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	switch r {
	case '[', ']', '(', ')', ':', ';', ',', '@', '"', '_', '\'':
		return false
	}
	return true
}
