package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
)

func catalog() *metadata.Object {
	return &metadata.Object{
		Kind: ir.KindCatalog,
		Name: "Номенклатура",
		Attributes: []ir.Attribute{
			{Name: "Артикул", Type: "Строка(25)"},
			{Name: "Вес", Type: "Число(15,3)"},
		},
		TabularSections: []ir.TabularSection{
			{Name: "Штрихкоды", Attributes: []ir.Attribute{{Name: "Штрихкод", Type: "Строка(200)"}}},
			{Name: "Пустая", Attributes: []ir.Attribute{}},
		},
	}
}

func register() *metadata.Object {
	return &metadata.Object{
		Kind:       ir.KindAccumulationRegister,
		Name:       "ТоварыНаСкладах",
		Attributes: []ir.Attribute{{Name: "Комментарий", Type: "Строка"}},
		Dimensions: []ir.Attribute{
			{Name: "Номенклатура", Type: "СправочникСсылка.Номенклатура"},
			{Name: "Склад", Type: "СправочникСсылка.Склады"},
		},
		Resources: []ir.Attribute{{Name: "Количество", Type: "Число(15,3)"}},
	}
}

func TestPutObjectRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	changed, err := s.PutObject(ctx, catalog())
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := s.Object(ctx, ir.KindCatalog, "номенклатура")
	require.NoError(t, err)
	assert.Equal(t, catalog(), got)

	_, err = s.PutObject(ctx, register())
	require.NoError(t, err)
	reg, err := s.GetRegister(ir.KindAccumulationRegister, "ТоварыНаСкладах")
	require.NoError(t, err)
	assert.Equal(t, register(), reg)
}

func TestPutObjectUnchangedIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutObject(ctx, catalog())
	require.NoError(t, err)

	changed, err := s.PutObject(ctx, catalog())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestPutObjectReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.PutObject(ctx, catalog())
	require.NoError(t, err)

	replacement := &metadata.Object{
		Kind:       ir.KindCatalog,
		Name:       "НОМЕНКЛАТУРА",
		Attributes: []ir.Attribute{{Name: "Код2", Type: "Строка(5)"}},
	}
	changed, err := s.PutObject(ctx, replacement)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := s.GetCatalog("Номенклатура")
	require.NoError(t, err)
	assert.Equal(t, replacement, got)

	var attrs int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM attributes`).Scan(&attrs))
	assert.Equal(t, 1, attrs)
}

func TestPutObjectRequiresName(t *testing.T) {
	s := createTestStore(t)
	_, err := s.PutObject(context.Background(), &metadata.Object{Kind: ir.KindCatalog})
	assert.Error(t, err)
}

func TestObjectNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetDocument("Заказ")
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	_, err = metadata.Get(s, ir.KindCatalog, "Заказ")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestObjectsOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.Objects(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, obj := range []*metadata.Object{
		{Kind: ir.KindDocument, Name: "Заказ", Attributes: []ir.Attribute{}},
		catalog(),
		register(),
		{Kind: ir.KindCatalog, Name: "Валюты", Attributes: []ir.Attribute{}},
	} {
		_, err := s.PutObject(ctx, obj)
		require.NoError(t, err)
	}

	objs, err := s.Objects(ctx)
	require.NoError(t, err)
	var names []string
	for _, obj := range objs {
		names = append(names, string(obj.Kind)+":"+obj.Name)
	}
	assert.Equal(t, []string{
		"accumulation_register:ТоварыНаСкладах",
		"catalog:Валюты",
		"catalog:Номенклатура",
		"document:Заказ",
	}, names)
	assert.Equal(t, catalog(), objs[2])
}

func TestImport(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Import(ctx, "testdata/config", []*metadata.Object{catalog(), register()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, 2, first.Objects)
	assert.Equal(t, 2, first.Changed)

	id, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	second, err := s.Import(ctx, "testdata/config", []*metadata.Object{catalog()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, 0, second.Changed)

	records, err := s.Imports(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0])
	assert.Equal(t, second, records[1])
}

func TestImportIsAtomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Import(ctx, "bad", []*metadata.Object{catalog(), {Kind: ir.KindDocument}})
	require.Error(t, err)

	objs, err := s.Objects(ctx)
	require.NoError(t, err)
	assert.Empty(t, objs)

	records, err := s.Imports(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestImportFromCUE(t *testing.T) {
	static, errs := metadata.LoadCUE("../metadata/testdata/config")
	require.Empty(t, errs)

	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.Import(ctx, "config", static.Objects())
	require.NoError(t, err)

	stored, err := s.Objects(ctx)
	require.NoError(t, err)
	assert.Equal(t, static.Objects(), stored)
}
