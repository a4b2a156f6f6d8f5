package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer splits query text into tokens. It works on runes: identifiers are
// maximal runs of letters, digits and underscores, so a keyword only ever
// matches a whole word.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

// Tokenize lexes the whole input. The final token is always TokenEOF.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) peekRune(ahead int) rune {
	pos := l.pos
	for i := 0; ; i++ {
		if pos >= len(l.input) {
			return 0
		}
		r, size := utf8.DecodeRuneInString(l.input[pos:])
		if i == ahead {
			return r
		}
		pos += size
	}
}

func (l *Lexer) readRune() rune {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) errorAt(offset, line, column int, msg string) *ParseError {
	return &ParseError{
		Message:   msg,
		Offset:    offset,
		Line:      line,
		Column:    column,
		Remainder: l.input[offset:],
	}
}

// skipWhitespaceAndComments skips blanks and // comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		r := l.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			l.readRune()
		case r == '/' && l.peekRune(1) == '/':
			for l.pos < len(l.input) && l.peekRune(0) != '\n' {
				l.readRune()
			}
		default:
			return
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()

	tok := Token{Offset: l.pos, Line: l.line, Column: l.column}
	if l.pos >= len(l.input) {
		tok.Type = TokenEOF
		return tok, nil
	}

	r := l.peekRune(0)
	switch {
	case isIdentStart(r):
		tok.Type = TokenIdent
		tok.Text = l.readIdentifier()
		tok.Keyword = lookupKeyword(tok.Text)
		return tok, nil
	case isDigit(r):
		tok.Type = TokenNumber
		tok.Text = l.readNumber()
		return tok, nil
	case r == '"':
		text, err := l.readString(tok)
		if err != nil {
			return tok, err
		}
		tok.Type = TokenString
		tok.Text = text
		return tok, nil
	case r == '&':
		l.readRune()
		if !isIdentStart(l.peekRune(0)) {
			return tok, l.errorAt(tok.Offset, tok.Line, tok.Column, "expected parameter name after '&'")
		}
		tok.Type = TokenParam
		tok.Text = l.readIdentifier()
		return tok, nil
	}

	l.readRune()
	switch r {
	case ',':
		tok.Type = TokenComma
	case '.':
		tok.Type = TokenDot
	case '(':
		tok.Type = TokenLParen
	case ')':
		tok.Type = TokenRParen
	case ';':
		tok.Type = TokenSemicolon
	case '=':
		tok.Type = TokenEq
	case '+':
		tok.Type = TokenPlus
	case '-':
		tok.Type = TokenMinus
	case '*':
		tok.Type = TokenStar
	case '/':
		tok.Type = TokenSlash
	case '<':
		switch l.peekRune(0) {
		case '>':
			l.readRune()
			tok.Type = TokenNe
		case '=':
			l.readRune()
			tok.Type = TokenLe
		default:
			tok.Type = TokenLt
		}
	case '>':
		if l.peekRune(0) == '=' {
			l.readRune()
			tok.Type = TokenGe
		} else {
			tok.Type = TokenGt
		}
	default:
		return tok, l.errorAt(tok.Offset, tok.Line, tok.Column, "unexpected character "+string(r))
	}
	tok.Text = l.input[tok.Offset:l.pos]
	return tok, nil
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.peekRune(0)) {
		l.readRune()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.peekRune(0)) {
		l.readRune()
	}
	if l.peekRune(0) == '.' && isDigit(l.peekRune(1)) {
		l.readRune()
		for isDigit(l.peekRune(0)) {
			l.readRune()
		}
	}
	return l.input[start:l.pos]
}

// readString reads a double-quoted literal; "" inside it stands for one quote.
func (l *Lexer) readString(start Token) (string, error) {
	l.readRune()
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return "", l.errorAt(start.Offset, start.Line, start.Column, "unterminated string literal")
		}
		r := l.readRune()
		if r == '"' {
			if l.peekRune(0) == '"' {
				l.readRune()
				sb.WriteRune('"')
				continue
			}
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
