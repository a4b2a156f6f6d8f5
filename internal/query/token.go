package query

import "github.com/roach88/bslq/internal/ir"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenString
	TokenParam
	TokenComma
	TokenDot
	TokenLParen
	TokenRParen
	TokenSemicolon
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "end of input",
	TokenIdent:     "identifier",
	TokenNumber:    "number",
	TokenString:    "string",
	TokenParam:     "parameter",
	TokenComma:     "','",
	TokenDot:       "'.'",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenSemicolon: "';'",
	TokenEq:        "'='",
	TokenNe:        "'<>'",
	TokenLt:        "'<'",
	TokenLe:        "'<='",
	TokenGt:        "'>'",
	TokenGe:        "'>='",
	TokenPlus:      "'+'",
	TokenMinus:     "'-'",
	TokenStar:      "'*'",
	TokenSlash:     "'/'",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "token(?)"
}

// Token is a lexeme with its position in the source. Text holds the
// unescaped content for strings and the name without '&' for parameters.
type Token struct {
	Type    TokenType
	Text    string
	Keyword Keyword
	Offset  int
	Line    int
	Column  int
}

// Keyword identifies a keyword independent of its spelling.
type Keyword int

const (
	kwNone Keyword = iota

	// Reserved words: never accepted as identifiers.
	kwSelect
	kwFrom
	kwWhere
	kwAnd
	kwOr
	kwNot
	kwAs
	kwBy
	kwOn
	kwGroup
	kwHaving
	kwOrder
	kwTotals
	kwUnion
	kwLeft
	kwRight
	kwFull
	kwInner
	kwJoin
	kwInto
	kwBetween
	kwIn
	kwLike
	kwIs
	kwCase
	kwWhen
	kwThen
	kwElse
	kwEnd
	kwCast
	kwDistinct
	kwAllowed
	kwTop
	kwTrue
	kwFalse
	kwNull
	kwUndefined
	kwAsc
	kwDesc
	kwAutoOrder

	// Contextual words: keywords only where the grammar expects them.
	kwAll
	kwOuter
	kwOverall
	kwIndex
	kwValue
	kwDateTime
)

// Reserved reports whether the keyword can never be used as an identifier.
func (k Keyword) Reserved() bool {
	return k > kwNone && k < kwAll
}

var keywordSpellings = map[Keyword][]string{
	kwSelect:    {"ВЫБРАТЬ", "SELECT"},
	kwFrom:      {"ИЗ", "FROM"},
	kwWhere:     {"ГДЕ", "WHERE"},
	kwAnd:       {"И", "AND"},
	kwOr:        {"ИЛИ", "OR"},
	kwNot:       {"НЕ", "NOT"},
	kwAs:        {"КАК", "AS"},
	kwBy:        {"ПО", "BY"},
	kwOn:        {"ON"},
	kwGroup:     {"СГРУППИРОВАТЬ", "GROUP"},
	kwHaving:    {"ИМЕЮЩИЕ", "HAVING"},
	kwOrder:     {"УПОРЯДОЧИТЬ", "ORDER"},
	kwTotals:    {"ИТОГИ", "TOTALS"},
	kwUnion:     {"ОБЪЕДИНИТЬ", "UNION"},
	kwLeft:      {"ЛЕВОЕ", "LEFT"},
	kwRight:     {"ПРАВОЕ", "RIGHT"},
	kwFull:      {"ПОЛНОЕ", "FULL"},
	kwInner:     {"ВНУТРЕННЕЕ", "INNER"},
	kwJoin:      {"СОЕДИНЕНИЕ", "JOIN"},
	kwInto:      {"ПОМЕСТИТЬ", "INTO"},
	kwBetween:   {"МЕЖДУ", "BETWEEN"},
	kwIn:        {"В", "IN"},
	kwLike:      {"ПОДОБНО", "LIKE"},
	kwIs:        {"ЕСТЬ", "IS"},
	kwCase:      {"ВЫБОР", "CASE"},
	kwWhen:      {"КОГДА", "WHEN"},
	kwThen:      {"ТОГДА", "THEN"},
	kwElse:      {"ИНАЧЕ", "ELSE"},
	kwEnd:       {"КОНЕЦ", "END"},
	kwCast:      {"ВЫРАЗИТЬ", "CAST"},
	kwDistinct:  {"РАЗЛИЧНЫЕ", "DISTINCT"},
	kwAllowed:   {"РАЗРЕШЕННЫЕ", "ALLOWED"},
	kwTop:       {"ПЕРВЫЕ", "TOP"},
	kwTrue:      {"ИСТИНА", "TRUE"},
	kwFalse:     {"ЛОЖЬ", "FALSE"},
	kwNull:      {"NULL"},
	kwUndefined: {"НЕОПРЕДЕЛЕНО", "UNDEFINED"},
	kwAsc:       {"ВОЗР", "ASC"},
	kwDesc:      {"УБЫВ", "DESC"},
	kwAutoOrder: {"АВТОУПОРЯДОЧИВАНИЕ", "AUTOORDER"},
	kwAll:       {"ВСЕ", "ALL"},
	kwOuter:     {"ВНЕШНЕЕ", "OUTER"},
	kwOverall:   {"ОБЩИЕ", "OVERALL"},
	kwIndex:     {"ИНДЕКСИРОВАТЬ", "INDEX"},
	kwValue:     {"ЗНАЧЕНИЕ", "VALUE"},
	kwDateTime:  {"ДАТАВРЕМЯ", "DATETIME"},
}

// keywords maps the folded spelling to its keyword.
var keywords = buildKeywordTable()

func buildKeywordTable() map[string]Keyword {
	table := make(map[string]Keyword)
	for kw, spellings := range keywordSpellings {
		for _, s := range spellings {
			table[ir.Fold(s)] = kw
		}
	}
	return table
}

// lookupKeyword returns the keyword for an identifier, or kwNone.
func lookupKeyword(ident string) Keyword {
	return keywords[ir.Fold(ident)]
}

// Object-kind prefixes of dotted table names.
var (
	catalogPrefixes  = []string{"Справочник", "Catalog"}
	documentPrefixes = []string{"Документ", "Document"}
	registerPrefixes = map[ir.MetadataKind][]string{
		ir.KindInformationRegister:  {"РегистрСведений", "InformationRegister"},
		ir.KindAccumulationRegister: {"РегистрНакопления", "AccumulationRegister"},
		ir.KindAccountingRegister:   {"РегистрБухгалтерии", "AccountingRegister"},
		ir.KindCalculationRegister:  {"РегистрРасчета", "CalculationRegister"},
	}
	enumPrefixes = []string{"Перечисление", "Enum"}
)

func matchesAny(word string, spellings []string) bool {
	for _, s := range spellings {
		if ir.SameName(word, s) {
			return true
		}
	}
	return false
}

// registerKind returns the register kind named by a table-name prefix.
func registerKind(prefix string) (ir.MetadataKind, bool) {
	for _, kind := range ir.RegisterKinds {
		if matchesAny(prefix, registerPrefixes[kind]) {
			return kind, true
		}
	}
	return "", false
}

// RegisterPrefix returns the canonical table-name prefix of a register kind.
func RegisterPrefix(kind ir.MetadataKind) string {
	if p, ok := registerPrefixes[kind]; ok {
		return p[0]
	}
	return string(kind)
}

// ReferenceKind maps the first segment of a dotted object name such as
// "Справочник.Контрагенты" to its metadata kind.
func ReferenceKind(prefix string) (ir.MetadataKind, bool) {
	switch {
	case matchesAny(prefix, catalogPrefixes):
		return ir.KindCatalog, true
	case matchesAny(prefix, documentPrefixes):
		return ir.KindDocument, true
	case matchesAny(prefix, enumPrefixes):
		return ir.KindEnum, true
	}
	return registerKind(prefix)
}
