package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/query"
)

func mustParse(t *testing.T, text string) *Batch {
	t.Helper()
	b, err := Parse(text)
	require.NoError(t, err)
	return b
}

func TestIndependentStatements(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ Код ИЗ Справочник.Номенклатура;
		ВЫБРАТЬ Код ИЗ Справочник.Контрагенты`)

	require.Len(t, b.Parts, 2)
	assert.False(t, b.Connected)
	assert.True(t, b.CanParallelize())
	assert.Empty(t, b.TempTables)
	assert.Equal(t, [][]int{{0}, {1}}, b.ParallelGroups())
	assert.Equal(t, []int{0, 1}, b.ExecutionOrder())
	assert.Empty(t, b.Warnings)
}

func TestSingleStatementCannotParallelize(t *testing.T) {
	b := mustParse(t, "ВЫБРАТЬ Код ИЗ Справочник.Номенклатура")
	assert.False(t, b.Connected)
	assert.False(t, b.CanParallelize())
	assert.Equal(t, [][]int{{0}}, b.ParallelGroups())
}

func TestConnectedBatch(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ Код ПОМЕСТИТЬ ВТ_Товары ИЗ Справочник.Номенклатура;
		ВЫБРАТЬ Код ИЗ ВТ_Товары`)

	assert.True(t, b.Connected)
	assert.False(t, b.CanParallelize())
	assert.Equal(t, map[string]int{"ВТ_Товары": 0}, b.TempTables)
	assert.Equal(t, []int{0, 1}, b.ExecutionOrder())
	assert.Equal(t, [][]int{{0, 1}}, b.ParallelGroups())

	assert.Equal(t, []string{"ВТ_Товары"}, b.Parts[0].Creates)
	assert.Empty(t, b.Parts[0].Uses)
	assert.Equal(t, []string{"ВТ_Товары"}, b.Parts[1].Uses)
	assert.Equal(t, []int{0}, b.Parts[1].DependsOn)
	assert.Nil(t, b.Parts[1].Drops)
}

func TestTempTableHandoff(t *testing.T) {
	b := mustParse(t, "ВЫБРАТЬ * ИЗ A ПОМЕСТИТЬ Temp; ВЫБРАТЬ * ИЗ Temp")

	assert.Equal(t, map[string]int{"Temp": 0}, b.TempTables)
	assert.True(t, b.Connected)
	assert.Equal(t, []int{0, 1}, b.ExecutionOrder())
	assert.Equal(t, [][]int{{0, 1}}, b.ParallelGroups())
}

func TestUsesAnywhereInStatement(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ 1 ПОМЕСТИТЬ ВТ_А;
		ВЫБРАТЬ 1 ПОМЕСТИТЬ ВТ_Б;
		ВЫБРАТЬ 1 ПОМЕСТИТЬ ВТ_В;
		ВЫБРАТЬ 1 ПОМЕСТИТЬ ВТ_Г;
		ВЫБРАТЬ Т.Код
		ИЗ Справочник.Номенклатура КАК Т
		ЛЕВОЕ СОЕДИНЕНИЕ ВТ_А КАК А ПО Т.Ссылка = А.Ссылка
		ГДЕ Т.Ссылка В (ВЫБРАТЬ Ссылка ИЗ ВТ_Б)
		ОБЪЕДИНИТЬ ВСЕ
		ВЫБРАТЬ Код ИЗ (ВЫБРАТЬ Код ИЗ ВТ_В) КАК П`)

	assert.Equal(t, []string{"ВТ_А", "ВТ_Б", "ВТ_В"}, b.Parts[4].Uses)
	assert.Equal(t, []int{0, 1, 2}, b.Parts[4].DependsOn)
}

func TestSelfReferenceIsNotAUse(t *testing.T) {
	b := mustParse(t, "ВЫБРАТЬ Код ПОМЕСТИТЬ ВТ ИЗ ВТ")
	assert.False(t, b.Connected)
	assert.Empty(t, b.Parts[0].Uses)
	assert.Equal(t, map[string]int{"ВТ": 0}, b.TempTables)
}

func TestCaseInsensitiveMatching(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ_Товары;
		ВЫБРАТЬ Х ИЗ вт_товары`)

	assert.True(t, b.Connected)
	assert.Equal(t, []string{"вт_товары"}, b.Parts[1].Uses)
	assert.Equal(t, map[string]int{"ВТ_Товары": 0}, b.TempTables)
}

func TestDuplicateCreationLastWriterWins(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ;
		ВЫБРАТЬ 2 КАК Х ПОМЕСТИТЬ вт;
		ВЫБРАТЬ Х ИЗ ВТ`)

	assert.Equal(t, map[string]int{"вт": 1}, b.TempTables)
	assert.Equal(t, []int{1}, b.Parts[2].DependsOn)

	require.Len(t, b.Warnings, 1)
	assert.Equal(t, WarnDuplicateTempTable, b.Warnings[0].Code)
	assert.Equal(t, 1, b.Warnings[0].Index)
	assert.Equal(t, "вт", b.Warnings[0].Table)
	assert.Equal(t, "temp table вт is already created by statement 0", b.Warnings[0].Message)
}

func TestUseBeforeCreateWarning(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ Х ИЗ ВТ_Поздняя;
		ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ_Поздняя`)

	assert.False(t, b.Connected)
	assert.Empty(t, b.Parts[0].Uses)
	require.Len(t, b.Warnings, 1)
	assert.Equal(t, Warning{
		Code:    WarnUseBeforeCreate,
		Index:   0,
		Table:   "ВТ_Поздняя",
		Message: "statement 0 reads ВТ_Поздняя before statement 1 creates it",
	}, b.Warnings[0])
}

func TestParallelGroups(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ_А;
		ВЫБРАТЬ 2 КАК Х ПОМЕСТИТЬ ВТ_Б;
		ВЫБРАТЬ А.Х ИЗ ВТ_А КАК А, ВТ_Б КАК Б;
		ВЫБРАТЬ 3 КАК Х ПОМЕСТИТЬ ВТ_В;
		ВЫБРАТЬ Х ИЗ ВТ_В`)

	// Every use is created earlier, so each table is available in time.
	assert.Equal(t, [][]int{{0, 1, 2, 3, 4}}, b.ParallelGroups())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, b.ExecutionOrder())
}

func TestParallelGroupsRedefinition(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ;
		ВЫБРАТЬ Х ИЗ ВТ;
		ВЫБРАТЬ 2 КАК Х ПОМЕСТИТЬ ВТ`)

	assert.Equal(t, [][]int{{0, 1, 2}}, b.ParallelGroups())
}

func TestParallelGroupsSplitOnUnavailableTable(t *testing.T) {
	b := &Batch{
		Parts: []Part{
			{Index: 0, Creates: []string{"ВТ_А"}},
			{Index: 1, Uses: []string{"вт_б"}},
			{Index: 2, Creates: []string{"ВТ_Б"}},
			{Index: 3, Uses: []string{"ВТ_А", "ВТ_Б"}},
		},
		Connected: true,
	}
	assert.Equal(t, [][]int{{0}, {1, 2, 3}}, b.ParallelGroups())
}

func TestParallelGroupsCoverEveryStatementOnce(t *testing.T) {
	b := mustParse(t, `
		ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ_А;
		ВЫБРАТЬ Х ИЗ ВТ_А;
		ВЫБРАТЬ Х ПОМЕСТИТЬ ВТ_Б ИЗ ВТ_А;
		ВЫБРАТЬ Х ИЗ ВТ_Б;
		ВЫБРАТЬ 5`)

	var seen []int
	for _, g := range b.ParallelGroups() {
		seen = append(seen, g...)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestExecutionOrderHandBuilt(t *testing.T) {
	b := &Batch{
		Parts: []Part{
			{Index: 0, DependsOn: []int{}},
			{Index: 1, DependsOn: []int{}},
			{Index: 2, DependsOn: []int{1}},
			{Index: 3, DependsOn: []int{2, 0}},
		},
		Connected: true,
	}
	assert.Equal(t, []int{0, 1, 2, 3}, b.ExecutionOrder())
}

func TestFromQueriesEmpty(t *testing.T) {
	b := FromQueries(nil)
	assert.Empty(t, b.Parts)
	assert.NotNil(t, b.TempTables)
	assert.False(t, b.CanParallelize())
	assert.Empty(t, b.ParallelGroups())
	assert.Empty(t, b.ExecutionOrder())
}

func TestParseEmbedded(t *testing.T) {
	b, err := ParseEmbedded(`
		|ВЫБРАТЬ Код ПОМЕСТИТЬ ВТ_Коды ИЗ Справочник.Номенклатура // исходные коды
		|;
		|ВЫБРАТЬ Код ИЗ ВТ_Коды`)
	require.NoError(t, err)
	assert.True(t, b.Connected)
	assert.Equal(t, []int{0}, b.Parts[1].DependsOn)
}

func TestParseError(t *testing.T) {
	_, err := Parse("ВЫБРАТЬ 1; ВЫБРАТЬ ИЗ")
	require.Error(t, err)
	assert.True(t, query.IsParseError(err))
}

func TestPlanFingerprintIsStable(t *testing.T) {
	text := `
		ВЫБРАТЬ Код ПОМЕСТИТЬ ВТ_Товары ИЗ Справочник.Номенклатура;
		ВЫБРАТЬ Код ИЗ ВТ_Товары;
		ВЫБРАТЬ Код ИЗ Справочник.Контрагенты`

	first := mustParse(t, text).Plan()
	second := mustParse(t, text).Plan()

	assert.Equal(t, 3, first.Statements)
	assert.Equal(t, [][]int{{0, 1, 2}}, first.Groups)

	h1, err := first.Fingerprint()
	require.NoError(t, err)
	h2, err := second.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	other, err := mustParse(t, "ВЫБРАТЬ 1").Plan().Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, h1, other)
}

func TestPlanCanonicalMarshals(t *testing.T) {
	p := mustParse(t, "ВЫБРАТЬ 1 КАК Х ПОМЕСТИТЬ ВТ; ВЫБРАТЬ Х ИЗ ВТ").Plan()
	data, err := ir.MarshalCanonical(p.Canonical())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"execution_order":[0,1]`)
	assert.Contains(t, string(data), `"temp_tables":{"ВТ":0}`)
}
