package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestTokenizeBasic(t *testing.T) {
	tokens, err := Tokenize(`ВЫБРАТЬ Т.Код, &Дата >= 10.5 ИЗ Т`)
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		TokenIdent, TokenIdent, TokenDot, TokenIdent, TokenComma,
		TokenParam, TokenGe, TokenNumber, TokenIdent, TokenIdent, TokenEOF,
	}, tokenTypes(tokens))
	assert.Equal(t, kwSelect, tokens[0].Keyword)
	assert.Equal(t, "Дата", tokens[5].Text)
	assert.Equal(t, "10.5", tokens[7].Text)
	assert.Equal(t, kwFrom, tokens[8].Keyword)
}

func TestTokenizeKeywordsMatchWholeWordsOnly(t *testing.T) {
	tokens, err := Tokenize("И Издержки В ВидНоменклатуры ИЗ")
	require.NoError(t, err)
	require.Len(t, tokens, 6)

	assert.Equal(t, kwAnd, tokens[0].Keyword)
	assert.Equal(t, kwNone, tokens[1].Keyword)
	assert.Equal(t, "Издержки", tokens[1].Text)
	assert.Equal(t, kwIn, tokens[2].Keyword)
	assert.Equal(t, kwNone, tokens[3].Keyword)
	assert.Equal(t, kwFrom, tokens[4].Keyword)
}

func TestTokenizeKeywordsCaseInsensitive(t *testing.T) {
	tokens, err := Tokenize("выбрать Select ГдЕ")
	require.NoError(t, err)

	assert.Equal(t, kwSelect, tokens[0].Keyword)
	assert.Equal(t, kwSelect, tokens[1].Keyword)
	assert.Equal(t, kwWhere, tokens[2].Keyword)
}

func TestTokenizeStrings(t *testing.T) {
	tokens, err := Tokenize(`"say ""hi""; // not a comment"`)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, TokenString, tokens[0].Type)
	assert.Equal(t, `say "hi"; // not a comment`, tokens[0].Text)
}

func TestTokenizeSkipsComments(t *testing.T) {
	tokens, err := Tokenize("ВЫБРАТЬ // comment\nКод")
	require.NoError(t, err)

	assert.Equal(t, []TokenType{TokenIdent, TokenIdent, TokenEOF}, tokenTypes(tokens))
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 1, tokens[1].Column)
}

func TestTokenizeOperators(t *testing.T) {
	tokens, err := Tokenize("= <> < <= > >= + - * / ( ) ;")
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe,
		TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenLParen, TokenRParen, TokenSemicolon, TokenEOF,
	}, tokenTypes(tokens))
}

func TestTokenizeIdentifierWithDigitsAndLatin(t *testing.T) {
	tokens, err := Tokenize("ЕСТЬNULL ВТ_Товары2")
	require.NoError(t, err)

	assert.Equal(t, "ЕСТЬNULL", tokens[0].Text)
	assert.Equal(t, kwNone, tokens[0].Keyword)
	assert.Equal(t, "ВТ_Товары2", tokens[1].Text)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"unterminated string", `ВЫБРАТЬ "abc`, "unterminated string literal"},
		{"bad character", "ВЫБРАТЬ #", "unexpected character #"},
		{"empty parameter", "ВЫБРАТЬ & ", "expected parameter name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			require.Error(t, err)
			pe, ok := AsParseError(err)
			require.True(t, ok)
			assert.Contains(t, pe.Message, tt.msg)
			assert.Equal(t, 1, pe.Line)
			assert.Equal(t, 9, pe.Column)
			assert.Equal(t, tt.input[pe.Offset:], pe.Remainder)
		})
	}
}
