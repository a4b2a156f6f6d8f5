package checker

import (
	"github.com/roach88/bslq/internal/ir"
)

type funcKind int

const (
	funcNumber funcKind = iota + 1
	funcString
	funcDate
	funcBoolean
	funcCoalesce // type of the second argument
)

// functions maps folded function names to their result kind.
var functions = map[string]funcKind{}

// aggregates holds the folded names of aggregate functions.
var aggregates = map[string]bool{}

func init() {
	add := func(kind funcKind, aggregate bool, names ...string) {
		for _, n := range names {
			functions[ir.Fold(n)] = kind
			if aggregate {
				aggregates[ir.Fold(n)] = true
			}
		}
	}

	add(funcNumber, true,
		"СУММА", "SUM",
		"СРЕДНЕЕ", "AVG",
		"МИНИМУМ", "MIN",
		"МАКСИМУМ", "MAX",
		"КОЛИЧЕСТВО", "COUNT",
	)
	add(funcNumber, false,
		"ГОД", "YEAR",
		"КВАРТАЛ", "QUARTER",
		"МЕСЯЦ", "MONTH",
		"ДЕНЬГОДА", "DAYOFYEAR",
		"ДЕНЬ", "DAY",
		"НЕДЕЛЯ", "WEEK",
		"ДЕНЬНЕДЕЛИ", "WEEKDAY",
		"ЧАС", "HOUR",
		"МИНУТА", "MINUTE",
		"СЕКУНДА", "SECOND",
		"РАЗНОСТЬДАТ", "DATEDIFF",
		"ДЛИНАСТРОКИ", "STRINGLENGTH",
	)
	add(funcString, false,
		"СТРОКА", "STRING",
		"ПОДСТРОКА", "SUBSTRING",
		"ПРЕДСТАВЛЕНИЕ", "PRESENTATION",
		"ПРЕДСТАВЛЕНИЕССЫЛКИ", "REFPRESENTATION",
		"ВРЕГ", "UPPER",
		"НРЕГ", "LOWER",
		"СОКРЛ", "TRIML",
		"СОКРП", "TRIMR",
		"СОКРЛП", "TRIMALL",
		"ЛЕВ", "LEFT",
		"ПРАВ", "RIGHT",
		"СТРЗАМЕНИТЬ", "STRREPLACE",
	)
	add(funcDate, false,
		"ДАТАВРЕМЯ", "DATETIME",
		"НАЧАЛОПЕРИОДА", "BEGINOFPERIOD",
		"КОНЕЦПЕРИОДА", "ENDOFPERIOD",
		"ДОБАВИТЬКДАТЕ", "DATEADD",
		"ТЕКУЩАЯДАТА", "CURRENTDATE",
	)
	add(funcBoolean, false,
		"ЗНАЧЕНИЕЗАПОЛНЕНО", "VALUEISFILLED",
	)
	add(funcCoalesce, false, "ЕСТЬNULL", "ISNULL")
}

// IsAggregate reports whether name is an aggregate function.
func IsAggregate(name string) bool {
	return aggregates[ir.Fold(name)]
}

func (k funcKind) result() ir.TypeResolution {
	switch k {
	case funcNumber:
		return ir.Known(ir.Number)
	case funcString:
		return ir.Known(ir.String)
	case funcDate:
		return ir.Known(ir.Date)
	case funcBoolean:
		return ir.Known(ir.Boolean)
	}
	return ir.Unknown()
}
