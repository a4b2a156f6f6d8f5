package query

import (
	"strconv"
	"strings"

	"github.com/roach88/bslq/internal/ir"
)

// Format renders a query as canonical text. Parsing the result yields a
// query equal to q.
func Format(q *Query) string {
	f := formatter{}
	f.query(q)
	return f.sb.String()
}

// FormatExpression renders an expression as canonical text.
func FormatExpression(e Expression) string {
	f := formatter{}
	f.expr(e)
	return f.sb.String()
}

// CanonicalExpression renders an expression with folded identifiers, so
// two expressions that differ only in identifier case render identically.
func CanonicalExpression(e Expression) string {
	f := formatter{fold: true}
	f.expr(e)
	return f.sb.String()
}

// TableName returns the canonical name of a table reference:
// "Справочник.X", "Документ.X", "РегистрНакопления.X", "РегистрНакопления.X.Остатки",
// "Subquery", or the bare name.
func TableName(ref TableReference) string {
	switch t := ref.(type) {
	case Table:
		return t.Name
	case Catalog:
		return joinName(catalogPrefixes[0], t.Name, t.Section)
	case Document:
		return joinName(documentPrefixes[0], t.Name, t.Section)
	case Register:
		return RegisterPrefix(t.Kind) + "." + t.Name
	case VirtualTable:
		return TableName(t.Base) + "." + t.Name
	case SubqueryTable:
		return "Subquery"
	}
	return ""
}

func joinName(prefix, name, section string) string {
	if section == "" {
		return prefix + "." + name
	}
	return prefix + "." + name + "." + section
}

type formatter struct {
	sb   strings.Builder
	fold bool
}

func (f *formatter) write(parts ...string) {
	for _, s := range parts {
		f.sb.WriteString(s)
	}
}

func (f *formatter) name(s string) {
	if f.fold {
		s = ir.Fold(s)
	}
	f.sb.WriteString(s)
}

func (f *formatter) query(q *Query) {
	f.core(q)
	for _, u := range q.Unions {
		f.write("\nОБЪЕДИНИТЬ")
		if u.All {
			f.write(" ВСЕ")
		}
		f.write("\n")
		f.core(u.Query)
	}
	if q.OrderBy != nil {
		if len(q.OrderBy.Items) > 0 {
			f.write("\nУПОРЯДОЧИТЬ ПО ")
			for i, item := range q.OrderBy.Items {
				if i > 0 {
					f.write(", ")
				}
				f.expr(item.Expr)
				if item.Direction == Descending {
					f.write(" УБЫВ")
				}
			}
		}
		if q.OrderBy.AutoOrder {
			f.write("\nАВТОУПОРЯДОЧИВАНИЕ")
		}
	}
	if q.Totals != nil {
		f.write("\nИТОГИ")
		if len(q.Totals.Aggregates) > 0 {
			f.write(" ")
			f.selectFields(q.Totals.Aggregates)
		}
		f.write(" ПО ")
		if q.Totals.Overall {
			f.write("ОБЩИЕ")
			if len(q.Totals.By) > 0 {
				f.write(", ")
			}
		}
		for i, by := range q.Totals.By {
			if i > 0 {
				f.write(", ")
			}
			f.name(by)
		}
	}
}

func (f *formatter) core(q *Query) {
	f.write("ВЫБРАТЬ")
	if q.Select.Allowed {
		f.write(" РАЗРЕШЕННЫЕ")
	}
	if q.Select.Distinct {
		f.write(" РАЗЛИЧНЫЕ")
	}
	if q.Select.Top != nil {
		f.write(" ПЕРВЫЕ ", strconv.Itoa(*q.Select.Top))
	}
	f.write("\n\t")
	f.selectFields(q.Select.Fields)

	if q.Select.IntoTempTable != "" {
		f.write("\nПОМЕСТИТЬ ")
		f.name(q.Select.IntoTempTable)
		if len(q.Select.IndexBy) > 0 {
			f.write("\nИНДЕКСИРОВАТЬ ПО ")
			f.exprList(q.Select.IndexBy)
		}
	}

	if len(q.From.Sources) > 0 {
		f.write("\nИЗ ")
		for i, src := range q.From.Sources {
			if i > 0 {
				f.write(",\n\t")
			}
			f.source(src)
			for _, j := range src.Joins {
				f.write("\n\t", joinKeywords[j.Type], " ")
				f.source(j.Source)
				if j.On != nil {
					f.write("\n\tПО ")
					f.expr(j.On)
				}
			}
		}
	}

	if q.Where != nil {
		f.write("\nГДЕ ")
		f.expr(q.Where)
	}
	if len(q.GroupBy) > 0 {
		f.write("\nСГРУППИРОВАТЬ ПО ")
		f.exprList(q.GroupBy)
	}
	if q.Having != nil {
		f.write("\nИМЕЮЩИЕ ")
		f.expr(q.Having)
	}
}

var joinKeywords = map[JoinType]string{
	InnerJoin: "ВНУТРЕННЕЕ СОЕДИНЕНИЕ",
	LeftJoin:  "ЛЕВОЕ СОЕДИНЕНИЕ",
	RightJoin: "ПРАВОЕ СОЕДИНЕНИЕ",
	FullJoin:  "ПОЛНОЕ СОЕДИНЕНИЕ",
}

func (f *formatter) selectFields(fields []SelectField) {
	for i, field := range fields {
		if i > 0 {
			f.write(",\n\t")
		}
		f.expr(field.Expr)
		if field.Alias != "" {
			f.write(" КАК ")
			f.name(field.Alias)
		}
	}
}

func (f *formatter) source(src TableSource) {
	switch t := src.Table.(type) {
	case SubqueryTable:
		f.write("(")
		f.query(t.Query)
		f.write(")")
	case VirtualTable:
		f.name(TableName(t))
		f.write("(")
		for i, param := range t.Params {
			if i > 0 {
				f.write(", ")
			}
			if param.Name != "" {
				f.name(param.Name)
				f.write(" = ")
			}
			if param.Value != nil {
				f.expr(param.Value)
			}
		}
		f.write(")")
	default:
		f.name(TableName(src.Table))
	}
	if src.Alias != "" {
		f.write(" КАК ")
		f.name(src.Alias)
	}
}

func (f *formatter) exprList(exprs []Expression) {
	for i, e := range exprs {
		if i > 0 {
			f.write(", ")
		}
		f.expr(e)
	}
}

var binaryOpText = map[BinaryOperator]string{
	OpAdd:  "+",
	OpSub:  "-",
	OpMul:  "*",
	OpDiv:  "/",
	OpEq:   "=",
	OpNe:   "<>",
	OpLt:   "<",
	OpLe:   "<=",
	OpGt:   ">",
	OpGe:   ">=",
	OpAnd:  "И",
	OpOr:   "ИЛИ",
	OpLike: "ПОДОБНО",
	OpIs:   "ЕСТЬ",
}

// String returns the operator as written in canonical text.
func (op BinaryOperator) String() string {
	return binaryOpText[op]
}

func (f *formatter) expr(e Expression) {
	switch x := e.(type) {
	case Field:
		f.name(x.Name)
	case QualifiedField:
		for i, seg := range x.Segments() {
			if i > 0 {
				f.write(".")
			}
			f.name(seg)
		}
	case Wildcard:
		if x.Table != "" {
			f.name(x.Table)
			f.write(".")
		}
		f.write("*")
	case Literal:
		f.literal(x)
	case FunctionCall:
		if f.fold {
			f.name(x.Name)
		} else {
			f.write(x.Name)
		}
		f.write("(")
		if x.Distinct {
			f.write("РАЗЛИЧНЫЕ ")
		}
		f.exprList(x.Args)
		f.write(")")
	case BinaryOp:
		// Every binary operation is parenthesized so precedence never has
		// to be reconstructed.
		f.write("(")
		f.expr(x.Left)
		f.write(" ", binaryOpText[x.Op], " ")
		f.expr(x.Right)
		f.write(")")
	case UnaryOp:
		if x.Op == OpNot {
			f.write("НЕ (")
		} else {
			f.write("-(")
		}
		f.expr(x.Operand)
		f.write(")")
	case Between:
		f.write("(")
		f.expr(x.Expr)
		f.write(" МЕЖДУ ")
		f.expr(x.Low)
		f.write(" И ")
		f.expr(x.High)
		f.write(")")
	case In:
		f.write("(")
		f.expr(x.Expr)
		f.write(" В ")
		if len(x.List) == 1 {
			if sub, ok := x.List[0].(Subquery); ok {
				f.expr(sub)
				f.write(")")
				return
			}
		}
		f.write("(")
		f.exprList(x.List)
		f.write("))")
	case Case:
		f.write("ВЫБОР")
		for _, w := range x.Whens {
			f.write(" КОГДА ")
			f.expr(w.Condition)
			f.write(" ТОГДА ")
			f.expr(w.Result)
		}
		if x.Else != nil {
			f.write(" ИНАЧЕ ")
			f.expr(x.Else)
		}
		f.write(" КОНЕЦ")
	case Cast:
		f.write("ВЫРАЗИТЬ(")
		f.expr(x.Expr)
		f.write(" КАК ")
		f.dataType(x.Type)
		f.write(")")
	case Parameter:
		f.write("&")
		f.name(x.Name)
	case Subquery:
		f.write("(")
		f.query(x.Query)
		f.write(")")
	}
}

func (f *formatter) literal(l Literal) {
	switch l.Kind {
	case LiteralNumber, LiteralBoolean:
		f.write(l.Value)
	case LiteralString:
		f.write(`"`, strings.ReplaceAll(l.Value, `"`, `""`), `"`)
	case LiteralDate:
		f.write("ДАТАВРЕМЯ(", strings.ReplaceAll(l.Value, ",", ", "), ")")
	case LiteralNull:
		f.write("NULL")
	case LiteralUndefined:
		f.write("НЕОПРЕДЕЛЕНО")
	case LiteralEmptyReference, LiteralPredefined:
		f.write("ЗНАЧЕНИЕ(")
		f.name(l.Value)
		f.write(")")
	}
}

func (f *formatter) dataType(dt DataType) {
	switch dt.Kind {
	case TypeNumber:
		f.write("ЧИСЛО")
		if dt.Precision > 0 {
			f.write("(", strconv.Itoa(dt.Precision), ", ", strconv.Itoa(dt.Scale), ")")
		}
	case TypeString:
		f.write("СТРОКА")
		if dt.Length > 0 {
			f.write("(", strconv.Itoa(dt.Length), ")")
		}
	case TypeDate:
		f.write("ДАТА")
	case TypeBoolean:
		f.write("БУЛЕВО")
	case TypeReference:
		f.name(dt.Reference)
	}
}
