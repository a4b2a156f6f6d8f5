package query

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roundTripQueries = []string{
	"ВЫБРАТЬ Номер, Дата ИЗ Документ.Заказ",
	"ВЫБРАТЬ * ИЗ A ПОМЕСТИТЬ Temp",
	"ВЫБРАТЬ РАЗРЕШЕННЫЕ РАЗЛИЧНЫЕ ПЕРВЫЕ 3 Т.* ИЗ Т",
	"ВЫБРАТЬ Код ПОМЕСТИТЬ ВТ ИНДЕКСИРОВАТЬ ПО Код, Наименование ИЗ Справочник.Номенклатура",
	"ВЫБРАТЬ А + Б * -Ц - 1 КАК Х",
	"ВЫБРАТЬ 1 ИЗ Т ГДЕ А = 1 ИЛИ Б = 2 И НЕ Ц = 3",
	`ВЫБРАТЬ 1 ИЗ Т ГДЕ Наименование ПОДОБНО "%""кавычки""%" И Сумма НЕ МЕЖДУ 1 И 10`,
	"ВЫБРАТЬ 1 ИЗ Т ГДЕ Код НЕ В (1, 2, 3) И Ссылка ЕСТЬ НЕ NULL",
	"ВЫБРАТЬ Т.Код ИЗ Справочник.Номенклатура КАК Т ЛЕВОЕ СОЕДИНЕНИЕ Справочник.Контрагенты КАК К ПО Т.Владелец = К.Ссылка ПОЛНОЕ СОЕДИНЕНИЕ ВТ",
	"ВЫБРАТЬ 1 ИЗ РегистрНакопления.Т.Остатки(&Дата, , Склад = &Склад) КАК О, РегистрСведений.Курсы",
	"ВЫБРАТЬ 1 ИЗ РегистрБухгалтерии.Хозрасчетный.Обороты()",
	"ВЫБРАТЬ Номенклатура, СУММА(Количество) ИЗ Документ.Реализация.Товары СГРУППИРОВАТЬ ПО Номенклатура ИМЕЮЩИЕ СУММА(Количество) > 0",
	"ВЫБРАТЬ А ИЗ Т1 ОБЪЕДИНИТЬ ВСЕ ВЫБРАТЬ А ИЗ Т2 ОБЪЕДИНИТЬ ВЫБРАТЬ А ИЗ Т3 УПОРЯДОЧИТЬ ПО А УБЫВ АВТОУПОРЯДОЧИВАНИЕ",
	"ВЫБРАТЬ А ИЗ Т АВТОУПОРЯДОЧИВАНИЕ ИТОГИ ПО ОБЩИЕ",
	"ВЫБРАТЬ А, Б ИЗ Т ИТОГИ СУММА(Б) КАК Б ПО ОБЩИЕ, А, Т.Склад",
	`ВЫБРАТЬ ВЫБОР КОГДА А > 0 ТОГДА "плюс" КОГДА А < 0 ТОГДА "минус" КОНЕЦ ИЗ Т`,
	"ВЫБРАТЬ ВЫРАЗИТЬ(А КАК ЧИСЛО(15, 2)), ВЫРАЗИТЬ(А КАК ЧИСЛО), ВЫРАЗИТЬ(Б КАК СТРОКА(10)), ВЫРАЗИТЬ(В1 КАК ДАТА), ВЫРАЗИТЬ(Г КАК БУЛЕВО), ВЫРАЗИТЬ(Д КАК Справочник.Контрагенты)",
	"ВЫБРАТЬ ЗНАЧЕНИЕ(Справочник.Номенклатура.ПустаяСсылка), ЗНАЧЕНИЕ(Перечисление.Ставки.НДС20), ДАТАВРЕМЯ(2024, 1, 31, 23, 59, 59), ДАТАВРЕМЯ(20240101)",
	"ВЫБРАТЬ ИСТИНА, ЛОЖЬ, NULL, НЕОПРЕДЕЛЕНО, 1.50, -2, &Параметр",
	"ВЫБРАТЬ КОЛИЧЕСТВО(*), КОЛИЧЕСТВО(РАЗЛИЧНЫЕ Ссылка), ЕСТЬNULL(Сумма, 0), ТЕКУЩАЯДАТА()",
	"ВЫБРАТЬ Вл.Код, (ВЫБРАТЬ МАКСИМУМ(Цена) ИЗ Цены) ИЗ (ВЫБРАТЬ Код ИЗ Справочник.Номенклатура) КАК Вл ГДЕ Вл.Код В (ВЫБРАТЬ Код ИЗ ВТ)",
	"ВЫБРАТЬ Док.Контрагент.Наименование ИЗ Документ.Заказ КАК Док",
	"SELECT TOP 5 P.Code AS C FROM Catalog.Products AS P LEFT OUTER JOIN Document.Orders AS O ON P.Ref = O.Product ORDER BY C DESC",
}

func TestFormatRoundTrip(t *testing.T) {
	for _, text := range roundTripQueries {
		t.Run(text, func(t *testing.T) {
			original, err := Parse(text)
			require.NoError(t, err)

			formatted := Format(original)
			reparsed, err := Parse(formatted)
			require.NoError(t, err, "formatted text should parse:\n%s", formatted)

			assert.Equal(t, original, reparsed)
			assert.Equal(t, formatted, Format(reparsed), "formatting should be stable")
		})
	}
}

func TestFormatExpression(t *testing.T) {
	q := mustParse(t, "ВЫБРАТЬ Т.Сумма * 2 + ЕСТЬNULL(Т.Скидка, 0) ИЗ Т")
	assert.Equal(t, "((Т.Сумма * 2) + ЕСТЬNULL(Т.Скидка, 0))", FormatExpression(q.Select.Fields[0].Expr))
}

func TestCanonicalExpressionFoldsIdentifiers(t *testing.T) {
	a := mustParse(t, "ВЫБРАТЬ Т.НОМЕНКЛАТУРА ИЗ Т").Select.Fields[0].Expr
	b := mustParse(t, "ВЫБРАТЬ т.номенклатура ИЗ Т").Select.Fields[0].Expr
	c := mustParse(t, "ВЫБРАТЬ т.Склад ИЗ Т").Select.Fields[0].Expr

	assert.Equal(t, CanonicalExpression(a), CanonicalExpression(b))
	assert.NotEqual(t, CanonicalExpression(a), CanonicalExpression(c))
	assert.NotEqual(t, FormatExpression(a), FormatExpression(b))
}

func TestTableName(t *testing.T) {
	q := mustParse(t, `ВЫБРАТЬ 1 ИЗ Справочник.Номенклатура, Документ.Заказ.Товары, Catalog.Products,
		РегистрНакопления.Товары.Остатки(), (ВЫБРАТЬ 1) КАК П, ВТ`)

	var names []string
	for _, src := range q.From.Sources {
		names = append(names, TableName(src.Table))
	}
	assert.Equal(t, []string{
		"Справочник.Номенклатура",
		"Документ.Заказ.Товары",
		"Справочник.Products",
		"РегистрНакопления.Товары.Остатки",
		"Subquery",
		"ВТ",
	}, names)
}

func TestFormatGolden(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "format_join",
			text: `ВЫБРАТЬ Т.Код КАК Код, СУММА(Т.Количество * Т.Цена) КАК Сумма
				ИЗ Документ.Реализация.Товары КАК Т
				ЛЕВОЕ СОЕДИНЕНИЕ Справочник.Номенклатура КАК Н ПО Т.Номенклатура = Н.Ссылка
				ГДЕ Т.Ссылка.Проведен = ИСТИНА И Т.Количество > 0
				СГРУППИРОВАТЬ ПО Т.Код
				УПОРЯДОЧИТЬ ПО Сумма УБЫВ`,
		},
		{
			name: "format_union",
			text: `ВЫБРАТЬ РАЗЛИЧНЫЕ ПЕРВЫЕ 100 Остатки.Номенклатура, Остатки.КоличествоОстаток
				ПОМЕСТИТЬ ВТ_Остатки
				ИНДЕКСИРОВАТЬ ПО Номенклатура
				ИЗ РегистрНакопления.ТоварыНаСкладах.Остатки(&Дата, Склад В (&Склады)) КАК Остатки
				ОБЪЕДИНИТЬ ВСЕ
				ВЫБРАТЬ Н.Ссылка, 0 ИЗ Справочник.Номенклатура КАК Н ГДЕ НЕ Н.ПометкаУдаления
				ИТОГИ СУММА(КоличествоОстаток) ПО ОБЩИЕ`,
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mustParse(t, tt.text)
			g.Assert(t, tt.name, []byte(Format(q)))
		})
	}
}
