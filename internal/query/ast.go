package query

import "github.com/roach88/bslq/internal/ir"

// Query is one SELECT statement. Unions hold the further statements
// combined with it; ORDER BY and ИТОГИ belong to the whole union.
type Query struct {
	Select  SelectClause   `json:"select"`
	From    FromClause     `json:"from"`
	Where   Expression     `json:"where,omitempty"`
	GroupBy []Expression   `json:"group_by,omitempty"`
	Having  Expression     `json:"having,omitempty"`
	OrderBy *OrderByClause `json:"order_by,omitempty"`
	Totals  *TotalsClause  `json:"totals,omitempty"`
	Unions  []Union        `json:"unions,omitempty"`
}

// SelectClause is the ВЫБРАТЬ list and its modifiers.
type SelectClause struct {
	Distinct      bool          `json:"distinct,omitempty"`
	Allowed       bool          `json:"allowed,omitempty"`
	Top           *int          `json:"top,omitempty"`
	Fields        []SelectField `json:"fields"`
	IntoTempTable string        `json:"into_temp_table,omitempty"`
	IndexBy       []Expression  `json:"index_by,omitempty"`
}

// SelectField is one item of a select list.
type SelectField struct {
	Expr  Expression `json:"expr"`
	Alias string     `json:"alias,omitempty"`
}

// FromClause lists the comma-separated table sources.
type FromClause struct {
	Sources []TableSource `json:"sources,omitempty"`
}

// TableSource is a table reference with its alias and the joins hanging off it.
type TableSource struct {
	Table TableReference `json:"table"`
	Alias string         `json:"alias,omitempty"`
	Joins []Join         `json:"joins,omitempty"`
}

// JoinType enumerates the join flavours.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

// Join attaches a further source. On is nil when no condition was written.
type Join struct {
	Type   JoinType    `json:"type"`
	Source TableSource `json:"source"`
	On     Expression  `json:"on,omitempty"`
}

// SortDirection is the ordering of an ORDER BY item.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// OrderByClause holds ORDER BY items and the АВТОУПОРЯДОЧИВАНИЕ flag.
type OrderByClause struct {
	Items     []OrderItem `json:"items,omitempty"`
	AutoOrder bool        `json:"auto_order,omitempty"`
}

// OrderItem is one ORDER BY expression.
type OrderItem struct {
	Expr      Expression    `json:"expr"`
	Direction SortDirection `json:"direction"`
}

// TotalsClause is ИТОГИ [aggregates] ПО [ОБЩИЕ] fields.
type TotalsClause struct {
	Aggregates []SelectField `json:"aggregates,omitempty"`
	Overall    bool          `json:"overall,omitempty"`
	By         []string      `json:"by,omitempty"`
}

// Union is a further statement combined with ОБЪЕДИНИТЬ [ВСЕ].
type Union struct {
	All   bool   `json:"all,omitempty"`
	Query *Query `json:"query"`
}

// TableReference is a sealed interface over the things a FROM clause can name.
type TableReference interface {
	tableReference()
}

// Table is a bare name, normally a temporary table.
type Table struct {
	Name string `json:"name"`
}

// Catalog is Справочник.Name, or Справочник.Name.Section for a tabular section.
type Catalog struct {
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
}

// Document is Документ.Name, or Документ.Name.Section for a tabular section.
type Document struct {
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
}

// Register is a register of one of the register kinds.
type Register struct {
	Kind ir.MetadataKind `json:"kind"`
	Name string          `json:"name"`
}

// VirtualTable is a parameterized projection of a register, such as
// РегистрНакопления.Товары.Остатки(&Период).
type VirtualTable struct {
	Base   Register            `json:"base"`
	Name   string              `json:"name"`
	Params []VirtualTableParam `json:"params,omitempty"`
}

// VirtualTableParam is a named (Name = Value) or positional parameter.
// A positional parameter left empty has a nil Value.
type VirtualTableParam struct {
	Name  string     `json:"name,omitempty"`
	Value Expression `json:"value,omitempty"`
}

// SubqueryTable is a nested query used as a source.
type SubqueryTable struct {
	Query *Query `json:"query"`
}

func (Table) tableReference()         {}
func (Catalog) tableReference()       {}
func (Document) tableReference()      {}
func (Register) tableReference()      {}
func (VirtualTable) tableReference()  {}
func (SubqueryTable) tableReference() {}

// Expression is a sealed interface over expression nodes.
type Expression interface {
	expression()
}

// Field is an unqualified column reference.
type Field struct {
	Name string `json:"name"`
}

// QualifiedField is Table.Field, optionally dereferenced further through Path.
type QualifiedField struct {
	Table string   `json:"table"`
	Field string   `json:"field"`
	Path  []string `json:"path,omitempty"`
}

// Segments returns the full dotted name.
func (f QualifiedField) Segments() []string {
	segs := make([]string, 0, 2+len(f.Path))
	segs = append(segs, f.Table, f.Field)
	return append(segs, f.Path...)
}

// Wildcard is * or Table.* in a select list, or * as a function argument.
type Wildcard struct {
	Table string `json:"table,omitempty"`
}

// LiteralKind classifies literals.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBoolean
	LiteralDate
	LiteralNull
	LiteralUndefined
	LiteralEmptyReference
	LiteralPredefined
)

// Literal is a constant. Value holds the normalized text: the number as
// written, the unescaped string, ИСТИНА or ЛОЖЬ, comma-joined date parts,
// or the dotted path of a ЗНАЧЕНИЕ(...) reference.
type Literal struct {
	Kind  LiteralKind `json:"kind"`
	Value string      `json:"value,omitempty"`
}

// FunctionCall is Name([РАЗЛИЧНЫЕ] args).
type FunctionCall struct {
	Name     string       `json:"name"`
	Args     []Expression `json:"args,omitempty"`
	Distinct bool         `json:"distinct,omitempty"`
}

// BinaryOperator enumerates binary operators.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpLike
	OpIs
)

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLike, OpIs:
		return true
	}
	return false
}

// IsLogical reports whether op is И or ИЛИ.
func (op BinaryOperator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// BinaryOp is Left Op Right.
type BinaryOp struct {
	Left  Expression     `json:"left"`
	Op    BinaryOperator `json:"op"`
	Right Expression     `json:"right"`
}

// UnaryOperator enumerates unary operators.
type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpNeg
)

// UnaryOp is НЕ operand or -operand.
type UnaryOp struct {
	Op      UnaryOperator `json:"op"`
	Operand Expression    `json:"operand"`
}

// Between is Expr МЕЖДУ Low И High.
type Between struct {
	Expr Expression `json:"expr"`
	Low  Expression `json:"low"`
	High Expression `json:"high"`
}

// In is Expr В (List). A subquery list is a single Subquery element.
type In struct {
	Expr Expression   `json:"expr"`
	List []Expression `json:"list"`
}

// Case is ВЫБОР КОГДА .. ТОГДА .. [ИНАЧЕ ..] КОНЕЦ.
type Case struct {
	Whens []When     `json:"whens"`
	Else  Expression `json:"else,omitempty"`
}

// When is one КОГДА branch.
type When struct {
	Condition Expression `json:"condition"`
	Result    Expression `json:"result"`
}

// Cast is ВЫРАЗИТЬ(Expr КАК Type).
type Cast struct {
	Expr Expression `json:"expr"`
	Type DataType   `json:"type"`
}

// DataTypeKind enumerates cast targets.
type DataTypeKind int

const (
	TypeNumber DataTypeKind = iota
	TypeString
	TypeDate
	TypeBoolean
	TypeReference
)

// DataType is a cast target. Zero Precision or Length means unqualified.
// Reference holds the dotted object name for TypeReference.
type DataType struct {
	Kind      DataTypeKind `json:"kind"`
	Precision int          `json:"precision,omitempty"`
	Scale     int          `json:"scale,omitempty"`
	Length    int          `json:"length,omitempty"`
	Reference string       `json:"reference,omitempty"`
}

// Parameter is &Name.
type Parameter struct {
	Name string `json:"name"`
}

// Subquery is a nested query used as an expression.
type Subquery struct {
	Query *Query `json:"query"`
}

func (Field) expression()          {}
func (QualifiedField) expression() {}
func (Wildcard) expression()       {}
func (Literal) expression()        {}
func (FunctionCall) expression()   {}
func (BinaryOp) expression()       {}
func (UnaryOp) expression()        {}
func (Between) expression()        {}
func (In) expression()             {}
func (Case) expression()           {}
func (Cast) expression()           {}
func (Parameter) expression()      {}
func (Subquery) expression()       {}
