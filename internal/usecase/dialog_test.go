package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/storage"
)

const testUser int64 = 42

func newTestEngine(t *testing.T, table entity.Table) (*Engine, *stubCatalogRepo) {
	t.Helper()
	repo := newStubCatalogRepo(table)
	engine := NewEngine(NewCatalogService(repo), storage.NewMemorySessionRepository(), WithClock(func() time.Time { return fixtureTime }))
	return engine, repo
}

func buttonData(t *testing.T, r Reply, caption string) string {
	t.Helper()
	for _, b := range r.Buttons {
		if b.Text == caption {
			return b.Data
		}
	}
	require.Failf(t, "button not found", "%q in %+v", caption, r.Buttons)
	return ""
}

func TestEngine_MenuWinsOverAnyStep(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	states := []entity.State{
		entity.AwaitingActiveIngredient{},
		entity.CalcModeSelected{Mode: entity.ModeSeed},
		entity.CalcAwaitingAmount{Mode: entity.ModeArea, Product: entity.CalcProduct{Name: "Борей"}, WaterRate: 10},
		entity.CalcResultShown{Mode: entity.ModeTank, Amount: 5},
	}
	for _, st := range states {
		e.put(testUser, st)
		reply := e.HandleText(ctx, testUser, "🔎 Поиск препарата по названию")
		assert.Equal(t, entity.AwaitingProductName{}, e.State(testUser), "from %s", st.Step())
		assert.True(t, reply.ShowMenu)
	}

	e.put(testUser, entity.CalcAwaitingWaterRate{Mode: entity.ModeTank})
	e.HandleText(ctx, testUser, "поиск по д.в")
	assert.Equal(t, entity.AwaitingActiveIngredient{}, e.State(testUser))

	e.HandleText(ctx, testUser, "ℹ️ Помощь")
	assert.Equal(t, entity.Idle{}, e.State(testUser))
}

func TestEngine_AmountStepRejectsText(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	st := entity.CalcAwaitingAmount{
		Mode:    entity.ModeArea,
		Product: entity.CalcProduct{Name: "Миура", Components: ParseRate("0,4-0,8 л/га").Components},
	}
	e.put(testUser, st)

	first := e.HandleText(t.Context(), testUser, "много")
	assert.Equal(t, st, e.State(testUser))
	second := e.HandleText(t.Context(), testUser, "-3")
	assert.Equal(t, st, e.State(testUser))
	assert.Equal(t, first.Text, second.Text)
	assert.Contains(t, first.Text, amountPrompt(entity.ModeArea))
}

func TestEngine_AreaFlowWithCustomRate(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	modes := e.HandleText(ctx, testUser, "🧮 Калькулятор расхода препарата")
	crops := e.HandleAction(ctx, testUser, buttonData(t, modes, modeCaptions[entity.ModeArea]))
	assert.IsType(t, entity.CalcModeSelected{}, e.State(testUser))
	assert.Equal(t, 2, crops.Columns)

	products := e.HandleAction(ctx, testUser, buttonData(t, crops, "Пшеница озимая"))
	require.IsType(t, entity.CalcCropSelected{}, e.State(testUser))

	ask := e.HandleAction(ctx, testUser, buttonData(t, products, "Борей"))
	assert.Contains(t, ask.Text, "0,1–0,12 л/га")
	require.IsType(t, entity.CalcAwaitingAmount{}, e.State(testUser))

	result := e.HandleText(ctx, testUser, "100")
	assert.Contains(t, result.Text, "Препарат: 10–12 л")
	assert.Contains(t, result.Text, "ПАВ Контур: 10 л")
	shown, ok := e.State(testUser).(entity.CalcResultShown)
	require.True(t, ok)
	assert.Equal(t, 100.0, shown.Amount)

	e.HandleAction(ctx, testUser, buttonData(t, result, "✏️ Изменить норму"))
	require.IsType(t, entity.CalcAwaitingCustomRate{}, e.State(testUser))

	e.HandleText(ctx, testUser, "0,3")
	amount, ok := e.State(testUser).(entity.CalcAwaitingAmount)
	require.True(t, ok)
	assert.Equal(t, 0.3, amount.Product.Components[0].Min)
	assert.InDelta(t, 0.1, amount.Product.Components[1].Min, 1e-9)

	again := e.HandleText(ctx, testUser, "10")
	assert.Contains(t, again.Text, "Препарат: 3 л")
	assert.Contains(t, again.Text, "ПАВ Контур: 1 л")

	e.HandleAction(ctx, testUser, buttonData(t, again, "🔁 Другое количество"))
	assert.IsType(t, entity.CalcAwaitingAmount{}, e.State(testUser))

	e.HandleAction(ctx, testUser, callback(actMenu))
	assert.Equal(t, entity.Idle{}, e.State(testUser))
}

func TestEngine_TankFlow(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	crops := e.HandleAction(ctx, testUser, callback(actMode, string(entity.ModeTank)))
	products := e.HandleAction(ctx, testUser, buttonData(t, crops, "Пшеница озимая"))
	e.HandleAction(ctx, testUser, buttonData(t, products, "Борей"))
	require.IsType(t, entity.CalcAwaitingWaterRate{}, e.State(testUser))

	e.HandleText(ctx, testUser, "ноль")
	require.IsType(t, entity.CalcAwaitingWaterRate{}, e.State(testUser))

	e.HandleText(ctx, testUser, "200")
	st, ok := e.State(testUser).(entity.CalcAwaitingAmount)
	require.True(t, ok)
	assert.Equal(t, 200.0, st.WaterRate)

	result := e.HandleText(ctx, testUser, "3000")
	assert.Contains(t, result.Text, "Один бак обрабатывает: 15 га")
	assert.Contains(t, result.Text, "Препарат: 1,5–1,8 л")
}

func TestEngine_SeedFlow(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	crops := e.HandleAction(ctx, testUser, callback(actMode, string(entity.ModeSeed)))
	assert.Len(t, crops.Buttons, 2)
	products := e.HandleAction(ctx, testUser, buttonData(t, crops, "Пшеница яровая"))
	e.HandleAction(ctx, testUser, buttonData(t, products, "Тебу"))
	result := e.HandleText(ctx, testUser, "20")
	assert.Contains(t, result.Text, "Семена: 20 т")
	assert.Contains(t, result.Text, "Препарат: 10 л")
}

func TestEngine_NameSearch(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	e.HandleText(ctx, testUser, "🔎 Поиск препарата по названию")
	card := e.HandleText(ctx, testUser, "Vbehf")
	assert.Contains(t, card.Text, "<b>Миура</b>")
	assert.Contains(t, card.Text, "Д.в.: хизалофоп-П-этил, 125 г/л")
	assert.Equal(t, entity.Idle{}, e.State(testUser), "search is terminal")
	require.Len(t, card.Buttons, 1)
	assert.True(t, strings.HasPrefix(card.Buttons[0].Data, actCardCalc+":"))

	idle := e.HandleText(ctx, testUser, "тебу")
	assert.Contains(t, idle.Text, "<b>Тебу</b>")
	assert.Contains(t, idle.Text, "Ячмень яровой")

	none := e.HandleText(ctx, testUser, "абракадабра")
	assert.Contains(t, none.Text, "Ничего не найдено")
}

func TestEngine_ActiveIngredientSearch(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	e.HandleText(ctx, testUser, "🧪 Поиск по д.в.")
	short := e.HandleText(ctx, testUser, "д.в")
	assert.Equal(t, entity.AwaitingActiveIngredient{}, e.State(testUser))
	assert.Contains(t, short.Text, "Введите название действующего вещества")

	card := e.HandleText(ctx, testUser, "бентазон")
	assert.Contains(t, card.Text, "<b>Корсар</b>")
	assert.Equal(t, entity.Idle{}, e.State(testUser))
}

func TestEngine_DrillDown(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	crops := e.HandleText(ctx, testUser, "📋 Подбор пестицида")
	assert.Equal(t, 2, crops.Columns)
	categories := e.HandleAction(ctx, testUser, buttonData(t, crops, "Соя"))
	types := e.HandleAction(ctx, testUser, buttonData(t, categories, "Двудольные Сорняки"))
	list := e.HandleAction(ctx, testUser, buttonData(t, types, "Гербицид"))
	assert.Contains(t, list.Text, "Найдено препаратов: 2")

	card := e.HandleAction(ctx, testUser, buttonData(t, list, "Корсар"))
	assert.Contains(t, card.Text, "по рекомендации")
}

func TestEngine_ManualRateFromCard(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	card := e.HandleText(ctx, testUser, "Корсар")
	ask := e.HandleAction(ctx, testUser, card.Buttons[0].Data)
	assert.Contains(t, ask.Text, "по рекомендации")
	st, ok := e.State(testUser).(entity.CalcAwaitingManualRate)
	require.True(t, ok)
	assert.Equal(t, "Соя", st.Crop.Label)

	e.HandleText(ctx, testUser, "как обычно")
	assert.Equal(t, st, e.State(testUser))

	e.HandleText(ctx, testUser, "2 л/т")
	assert.Equal(t, st, e.State(testUser), "per-ton rate does not fit area mode")

	e.HandleText(ctx, testUser, "1,5-2 л/га")
	amount, ok := e.State(testUser).(entity.CalcAwaitingAmount)
	require.True(t, ok)
	assert.Equal(t, 2.0, amount.Product.Components[0].Max)

	result := e.HandleText(ctx, testUser, "4")
	assert.Contains(t, result.Text, "Препарат: 6–8 л")
}

func TestEngine_CardCalcPicksCrop(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	card := e.HandleText(ctx, testUser, "Тебу")
	crops := e.HandleAction(ctx, testUser, card.Buttons[0].Data)
	require.Len(t, crops.Buttons, 3)

	e.HandleAction(ctx, testUser, buttonData(t, crops, "Пшеница озимая"))
	st, ok := e.State(testUser).(entity.CalcAwaitingAmount)
	require.True(t, ok)
	assert.Equal(t, entity.ModeSeed, st.Mode)

	e.HandleAction(ctx, testUser, card.Buttons[0].Data)
	e.HandleAction(ctx, testUser, buttonData(t, crops, "Ячмень яровой"))
	st, ok = e.State(testUser).(entity.CalcAwaitingAmount)
	require.True(t, ok)
	assert.Equal(t, entity.ModeArea, st.Mode)
}

func TestEngine_StaleActions(t *testing.T) {
	e, _ := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	for _, data := range []string{"dc:ffffffff", "dp", "cm:rocket", "cc:area", "cp:area:x:y", "zz:1", "", callback(actCustomRate), callback(actAnotherAmount)} {
		e.put(testUser, entity.AwaitingProductName{})
		reply := e.HandleAction(ctx, testUser, data)
		assert.Equal(t, textStale, reply.Text, data)
		if !strings.HasPrefix(data, "d") {
			assert.Equal(t, entity.Idle{}, e.State(testUser), data)
		}
	}
}

func TestEngine_EmptyCatalog(t *testing.T) {
	e, _ := newTestEngine(t, entity.Table{})
	ctx := t.Context()

	assert.Equal(t, textUnavailable, e.HandleText(ctx, testUser, "раундап").Text)
	assert.Equal(t, textUnavailable, e.HandleText(ctx, testUser, "📋 Подбор пестицида").Text)
	assert.Equal(t, textUnavailable, e.HandleAction(ctx, testUser, callback(actMode, "area")).Text)
	assert.Equal(t, entity.Idle{}, e.State(testUser))
}

func TestEngine_CommandsClearState(t *testing.T) {
	e, repo := newTestEngine(t, fixtureTable())
	ctx := t.Context()

	e.put(testUser, entity.AwaitingProductName{})
	assert.True(t, e.Start(testUser).ShowMenu)
	assert.Equal(t, entity.Idle{}, e.State(testUser))

	e.put(testUser, entity.AwaitingProductName{})
	reply := e.Reload(ctx, testUser)
	assert.Equal(t, entity.Idle{}, e.State(testUser))
	assert.Equal(t, 1, repo.forced)
	assert.Contains(t, reply.Text, "препаратов: 4")
}

func TestEngine_ContactsList(t *testing.T) {
	e, repo := newTestEngine(t, fixtureTable())
	repo.contacts = storage.FilterRequired(storage.BuildTable([][]string{
		{"Филиал", "ФИО", "Телефон", "Адрес"},
		{"Краснодар", "Иванов И.И.", "+7 900 000-00-00", "ул. Северная, 1"},
	}, fixtureTime), entity.FieldBranch)

	reply := e.HandleText(t.Context(), testUser, "📞 Контакты")
	assert.Contains(t, reply.Text, "🏢 <b>Краснодар</b>")
	assert.Contains(t, reply.Text, "📞 +7 900 000-00-00")
	assert.Contains(t, reply.Text, "📍 ул. Северная, 1")
}

func TestEngine_ActiveIngredientShortName(t *testing.T) {
	table := storage.BuildTable([][]string{
		{"Вид препарата", "Наименование препарата", "Действующее вещество", "Культура", "Норма расхода"},
		{"Гербицид", "Чисталан", "2,4-Д кислоты, 600 г/л", "Пшеница озимая", "0,6-0,8 л/га"},
		{"Гербицид", "Корсар", "бентазон, 480 г/л", "Соя", "2 л/га"},
	}, fixtureTime)
	e, _ := newTestEngine(t, table)
	ctx := t.Context()

	e.HandleText(ctx, testUser, MenuSearchActive)
	card := e.HandleText(ctx, testUser, "2,4-Д")
	assert.Contains(t, card.Text, "<b>Чисталан</b>")
	assert.Equal(t, entity.Idle{}, e.State(testUser))

	e.HandleText(ctx, testUser, MenuSearchActive)
	card = e.HandleText(ctx, testUser, "д.в. 2,4-д")
	assert.Contains(t, card.Text, "<b>Чисталан</b>")
}

func TestEngine_LargeCatalogMenus(t *testing.T) {
	e, _ := newTestEngine(t, storage.BuildTable(generatedGrid(3000, 400), fixtureTime))
	ctx := t.Context()
	started := time.Now()

	crops := e.HandleText(ctx, testUser, MenuPick)
	require.Len(t, crops.Buttons, 400)
	categories := e.HandleAction(ctx, testUser, buttonData(t, crops, "Культура 000"))
	require.NotEmpty(t, categories.Buttons)
	types := e.HandleAction(ctx, testUser, categories.Buttons[0].Data)
	require.NotEmpty(t, types.Buttons)
	list := e.HandleAction(ctx, testUser, buttonData(t, types, "Гербицид"))
	require.NotEmpty(t, list.Buttons)

	calcCrops := e.HandleAction(ctx, testUser, callback(actMode, string(entity.ModeArea)))
	require.Len(t, calcCrops.Buttons, 400)
	products := e.HandleAction(ctx, testUser, buttonData(t, calcCrops, "Культура 000"))
	require.NotEmpty(t, products.Buttons)

	for i := 0; i < 20; i++ {
		e.HandleText(ctx, testUser, MenuPick)
	}
	assert.Less(t, time.Since(started), 10*time.Second)
}
