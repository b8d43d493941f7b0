package querydoc

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pos is a 1-based line and column. Columns count runes.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokInteger
	tokFloat
	tokParam
	tokSymbol
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokInteger:
		return "integer"
	case tokFloat:
		return "float"
	case tokParam:
		return "parameter"
	default:
		return "symbol"
	}
}

type token struct {
	kind tokenKind
	text string // identifier/param name, unquoted string, number or symbol
	pos  Pos
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	case tokParam:
		return "$" + t.text
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// is reports whether t is the given symbol, or the given keyword compared
// case-insensitively.
func (t token) is(text string) bool {
	switch t.kind {
	case tokSymbol:
		return t.text == text
	case tokIdent:
		return strings.EqualFold(t.text, text)
	}
	return false
}

// twoCharSymbols are matched before single characters.
var twoCharSymbols = []string{"<>", "<=", ">=", ".."}

const singleCharSymbols = "()[]{}:,.|*+-/%=<>"

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

// tokenize splits src into tokens, ending with tokEOF.
func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var out []token
	for {
		lx.skipSpaceAndComments()
		pos := Pos{Line: lx.line, Column: lx.col}
		if lx.off >= len(lx.src) {
			return append(out, token{kind: tokEOF, pos: pos}), nil
		}
		r, _ := utf8.DecodeRuneInString(lx.src[lx.off:])
		var (
			tok token
			err error
		)
		switch {
		case isIdentStart(r):
			tok = token{kind: tokIdent, text: lx.ident()}
		case r == '`':
			tok.kind = tokIdent
			tok.text, err = lx.quoted('`')
		case r == '$':
			lx.advance()
			name := lx.ident()
			if name == "" {
				return nil, errorAt(pos, "expected parameter name after $")
			}
			tok = token{kind: tokParam, text: name}
		case r == '\'' || r == '"':
			tok.kind = tokString
			tok.text, err = lx.quoted(r)
		case unicode.IsDigit(r):
			tok = lx.number()
		default:
			tok, err = lx.symbol()
		}
		if err != nil {
			if pe, ok := err.(*ParseError); ok && pe.Line == 0 {
				pe.Line, pe.Column = pos.Line, pos.Column
			}
			return nil, err
		}
		tok.pos = pos
		out = append(out, tok)
	}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func (lx *lexer) peekRune(ahead int) rune {
	off := lx.off
	for i := 0; i < ahead; i++ {
		if off >= len(lx.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(lx.src[off:])
		off += size
	}
	if off >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[off:])
	return r
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.off < len(lx.src) {
		r := lx.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == '/' && lx.peekRune(1) == '/':
			for lx.off < len(lx.src) && lx.peekRune(0) != '\n' {
				lx.advance()
			}
		default:
			return
		}
	}
}

func (lx *lexer) ident() string {
	start := lx.off
	for lx.off < len(lx.src) && isIdentPart(lx.peekRune(0)) {
		lx.advance()
	}
	return lx.src[start:lx.off]
}

func (lx *lexer) quoted(quote rune) (string, error) {
	lx.advance()
	var b strings.Builder
	for {
		if lx.off >= len(lx.src) {
			return "", &ParseError{Message: "unterminated quoted text"}
		}
		r := lx.advance()
		switch {
		case r == quote:
			return b.String(), nil
		case r == '\\' && quote != '`':
			if lx.off >= len(lx.src) {
				return "", &ParseError{Message: "unterminated quoted text"}
			}
			esc := lx.advance()
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '\\', '\'', '"':
				b.WriteRune(esc)
			default:
				return "", errorAt(Pos{Line: lx.line, Column: lx.col - 2}, "unknown escape sequence \\%c", esc)
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (lx *lexer) number() token {
	start := lx.off
	for lx.off < len(lx.src) && unicode.IsDigit(lx.peekRune(0)) {
		lx.advance()
	}
	kind := tokInteger
	// "1..2" is a range, not a float.
	if lx.peekRune(0) == '.' && unicode.IsDigit(lx.peekRune(1)) {
		kind = tokFloat
		lx.advance()
		for lx.off < len(lx.src) && unicode.IsDigit(lx.peekRune(0)) {
			lx.advance()
		}
	}
	if r := lx.peekRune(0); r == 'e' || r == 'E' {
		next := lx.peekRune(1)
		if unicode.IsDigit(next) || ((next == '-' || next == '+') && unicode.IsDigit(lx.peekRune(2))) {
			kind = tokFloat
			lx.advance()
			lx.advance()
			for lx.off < len(lx.src) && unicode.IsDigit(lx.peekRune(0)) {
				lx.advance()
			}
		}
	}
	return token{kind: kind, text: lx.src[start:lx.off]}
}

func (lx *lexer) symbol() (token, error) {
	for _, s := range twoCharSymbols {
		if strings.HasPrefix(lx.src[lx.off:], s) {
			lx.advance()
			lx.advance()
			return token{kind: tokSymbol, text: s}, nil
		}
	}
	r := lx.peekRune(0)
	if strings.ContainsRune(singleCharSymbols, r) {
		lx.advance()
		return token{kind: tokSymbol, text: string(r)}, nil
	}
	return token{}, &ParseError{Message: fmt.Sprintf("unexpected character %q", r)}
}
