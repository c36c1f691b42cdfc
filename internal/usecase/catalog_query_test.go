package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/storage"
)

func names(rows []entity.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Field(entity.FieldName))
	}
	return out
}

func TestDestroyCategoriesForCrop(t *testing.T) {
	rows := fixtureTable().Rows
	assert.Equal(t, []string{"Двудольные Сорняки", "Однодольные Сорняки"}, DestroyCategoriesForCrop(rows, "соя"))
	assert.Equal(t, []string{"Болезни", "Вредители"}, DestroyCategoriesForCrop(rows, "Озимая пшеница"))
	assert.Equal(t, []string{"Болезни"}, DestroyCategoriesForCrop(rows, "Ячмень яровой"))
	assert.Empty(t, DestroyCategoriesForCrop(rows, "Кукуруза"))
}

func TestProductTypesFor(t *testing.T) {
	rows := fixtureTable().Rows
	assert.Equal(t, []string{"Фунгицид"}, ProductTypesFor(rows, "Пшеница озимая", "болезни"))
	assert.Equal(t, []string{"Гербицид"}, ProductTypesFor(rows, "Соя", "ДВУДОЛЬНЫЕ СОРНЯКИ"))
	assert.Empty(t, ProductTypesFor(rows, "Соя", "Болезни"))
}

func TestFilterProducts(t *testing.T) {
	rows := fixtureTable().Rows
	assert.Equal(t, []string{"Тебу"}, names(FilterProducts(rows, "Пшеница озимая", "фунгиц", "Болезни")))
	assert.Equal(t, []string{"Миура", "Корсар"}, names(FilterProducts(rows, "Соя", "Гербицид", "Двудольные сорняки")))
	assert.Empty(t, FilterProducts(rows, "Соя", "Инсектицид", "Двудольные сорняки"))
}

func TestPesticidesForCropAndMode(t *testing.T) {
	rows := fixtureTable().Rows
	assert.Equal(t, []string{"Тебу"}, names(PesticidesForCropAndMode(rows, "Пшеница озимая", entity.ModeSeed)))
	assert.Equal(t, []string{"Борей"}, names(PesticidesForCropAndMode(rows, "Пшеница озимая", entity.ModeArea)))
	assert.Equal(t, []string{"Миура"}, names(PesticidesForCropAndMode(rows, "Соя", entity.ModeTank)), "unparseable rates are not offered")
}

func TestCropsAvailableForMode(t *testing.T) {
	rows := fixtureTable().Rows
	assert.Equal(t, []string{"Пшеница озимая", "Пшеница яровая"}, CropsAvailableForMode(rows, entity.ModeSeed))
	assert.Equal(t,
		[]string{"Пшеница озимая", "Свекла сахарная", "Соя", "Ячмень яровой"},
		CropsAvailableForMode(rows, entity.ModeArea),
	)
}

func TestCatalogSearch(t *testing.T) {
	cat := buildCatalog(fixtureTable(), 1)
	require.Len(t, cat.Products(), 4)

	tebu, ok := cat.ProductByName("ТЕБУ")
	require.True(t, ok)
	assert.Len(t, tebu.Rows, 2, "filled-down rows belong to the same product")

	found := cat.SearchByName("Vbehf")
	require.NotEmpty(t, found)
	assert.Equal(t, "Миура", found[0].Name)

	active := cat.SearchByActive("хизалафоп")
	require.Len(t, active, 1)
	assert.Equal(t, "Миура", active[0].Name)

	assert.Empty(t, cat.SearchByActive("ab"))
	assert.False(t, ActiveQueryUsable("д в"))
	assert.False(t, ActiveQueryUsable(" .,- "))
	assert.True(t, ActiveQueryUsable("д.в. бентазон"))
	assert.True(t, ActiveQueryUsable("2,4-Д"))

	crop, ok := cat.Crops().ByLabel("Ячмень яровой")
	require.True(t, ok)
	row, ok := tebu.RowForCrop(crop)
	require.True(t, ok)
	assert.Equal(t, "0,5-1 л/га", row.Field(entity.FieldRate))
}

func TestCatalogService_RebuildsOnNewGeneration(t *testing.T) {
	repo := newStubCatalogRepo(fixtureTable())
	svc := NewCatalogService(repo)

	first := svc.Current(t.Context())
	assert.Same(t, first, svc.Current(t.Context()))

	reloaded, _ := svc.Reload(t.Context())
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, 1, repo.forced)
	assert.Same(t, reloaded, svc.Current(t.Context()))
}

func TestSearchByActive_ShortTokensMatchCompacted(t *testing.T) {
	table := storage.BuildTable([][]string{
		{"Вид препарата", "Наименование препарата", "Действующее вещество", "Культура", "Норма расхода"},
		{"Гербицид", "Чисталан", "2,4-Д кислоты, 600 г/л", "Пшеница озимая", "0,6-0,8 л/га"},
		{"Гербицид", "Корсар", "бентазон, 480 г/л", "Соя", "2 л/га"},
	}, fixtureTime)
	cat := buildCatalog(table, 1)

	for _, q := range []string{"2,4-Д", "2.4 д", "д.в. 2,4-д", "24Д"} {
		found := cat.SearchByActive(q)
		require.Len(t, found, 1, q)
		assert.Equal(t, "Чисталан", found[0].Name, q)
	}
	assert.Empty(t, cat.SearchByActive("д.в."))
	assert.Empty(t, cat.SearchByActive("2,4-ДМ"))
}

func TestDrillDown_SkipsRowsWithoutCropsOrCategories(t *testing.T) {
	table := storage.BuildTable([][]string{
		{"Вид препарата", "Вид объекта", "Наименование препарата", "Культура", "Норма расхода"},
		{"Гербицид", "", "Старт", "Кукуруза", "1 л/га"},
		{"Гербицид", "Сорняки", "Финиш", "Рапс", "1 л/га"},
		{"Гербицид", ";", "Ноль", "Лён", "1 л/га"},
		{"Гербицид", "Сорняки", "Пусто", " , ", "1 л/га"},
	}, fixtureTime)

	for name, rows := range map[string][]entity.Row{
		"raw":     table.Rows,
		"indexed": IndexRows(table.Rows),
	} {
		assert.Empty(t, DestroyCategoriesForCrop(rows, "Кукуруза"), name)
		assert.Empty(t, DestroyCategoriesForCrop(rows, "Лён"), name)
		assert.Equal(t, []string{"Сорняки"}, DestroyCategoriesForCrop(rows, "Рапс"), name)
	}

	cat := buildCatalog(table, 1)
	var drill []string
	for _, crop := range cat.Crops().Entries() {
		if cat.Crops().HasDrillDown(crop) {
			drill = append(drill, crop.Label)
		}
	}
	assert.Equal(t, []string{"Рапс"}, drill)
}

func TestBuildCatalog_IndexesRowsOnce(t *testing.T) {
	cat := buildCatalog(storage.BuildTable(generatedGrid(50, 20), fixtureTime), 1)
	for _, row := range cat.Rows() {
		require.True(t, row.Indexed)
	}
	for _, p := range cat.Products() {
		for _, row := range p.Rows {
			require.True(t, row.Indexed)
		}
	}
	first := cat.Rows()[0]
	assert.Equal(t, []string{"Культура 000", "Культура 001", "Культура 002"}, first.CropLabels)
	assert.Len(t, first.CropKeys, 3)
	assert.Equal(t, []string{"Сорняки 0"}, first.Categories)
	assert.True(t, first.Rate.OK())
}

func TestCatalogQueries_LargeCatalog(t *testing.T) {
	table := storage.BuildTable(generatedGrid(3000, 400), fixtureTime)
	started := time.Now()
	cat := buildCatalog(table, 1)
	require.Equal(t, 400, cat.Crops().Len())

	for _, crop := range cat.Crops().Entries() {
		require.True(t, cat.Crops().HasDrillDown(crop), crop.Label)
	}
	crop := cat.Crops().Entries()[0]
	categories := DestroyCategoriesForCrop(cat.Rows(), crop.Label)
	require.NotEmpty(t, categories)
	require.NotEmpty(t, ProductTypesFor(cat.Rows(), crop.Label, categories[0]))
	require.NotEmpty(t, FilterProducts(cat.Rows(), crop.Label, "Гербицид", categories[0]))
	assert.Len(t, CropsAvailableForMode(cat.Rows(), entity.ModeArea), 400)
	assert.NotEmpty(t, PesticidesForCropAndMode(cat.Rows(), crop.Label, entity.ModeSeed))
	assert.Less(t, time.Since(started), 10*time.Second)
}

func BenchmarkPickCrops(b *testing.B) {
	repo := newStubCatalogRepo(storage.BuildTable(generatedGrid(2000, 360), fixtureTime))
	e := NewEngine(NewCatalogService(repo), storage.NewMemorySessionRepository())
	ctx := context.Background()
	e.HandleText(ctx, testUser, MenuPick)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.HandleText(ctx, testUser, MenuPick)
	}
}
