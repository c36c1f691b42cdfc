package usecase

import (
	"context"
	"strings"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
)

var modeCaptions = map[entity.CalcMode]string{
	entity.ModeArea: "🌾 На площадь (га)",
	entity.ModeTank: "🚜 На бак опрыскивателя",
	entity.ModeSeed: "🌱 Протравливание семян (т)",
}

func calcModes() Reply {
	modes := []entity.CalcMode{entity.ModeArea, entity.ModeTank, entity.ModeSeed}
	buttons := make([]Button, 0, len(modes))
	for _, m := range modes {
		buttons = append(buttons, Button{Text: modeCaptions[m], Data: callback(actMode, string(m))})
	}
	return Reply{Text: "🧮 <b>Калькулятор расхода</b>\nВыберите, что рассчитать:", HTML: true, Buttons: buttons}
}

func amountPrompt(mode entity.CalcMode) string {
	switch mode {
	case entity.ModeTank:
		return "🚜 Введите объём бака опрыскивателя, л (например: 3000)"
	case entity.ModeSeed:
		return "🌱 Введите массу семян, т (например: 20)"
	}
	return "🌾 Введите площадь обработки, га (например: 100)"
}

const waterRatePrompt = "💧 Введите норму расхода рабочего раствора, л/га (например: 200)"

func perUnit(mode entity.CalcMode) string {
	if mode.Family() == entity.FamilyMass {
		return "т"
	}
	return "га"
}

func (e *Engine) onMode(ctx context.Context, userID int64, args []string) Reply {
	if len(args) != 1 || !entity.CalcMode(args[0]).Valid() {
		return e.stale(userID)
	}
	return e.calcCrops(ctx, userID, entity.CalcMode(args[0]))
}

// calcCrops crops that have products usable in mode; enters CalcModeSelected.
func (e *Engine) calcCrops(ctx context.Context, userID int64, mode entity.CalcMode) Reply {
	e.Reset(userID)
	cat := e.catalog.Current(ctx)
	if cat.Empty() {
		return Reply{Text: textUnavailable, ShowMenu: true}
	}
	var buttons []Button
	for _, label := range CropsAvailableForMode(cat.Rows(), mode) {
		crop, ok := cat.Crops().ByLabel(label)
		if !ok {
			continue
		}
		buttons = append(buttons, Button{Text: crop.Label, Data: callback(actCalcCrop, string(mode), crop.ID)})
	}
	if len(buttons) == 0 {
		return Reply{Text: "❌ Нет препаратов с нормой на " + perUnit(mode) + ".", ShowMenu: true}
	}
	e.put(userID, entity.CalcModeSelected{Mode: mode})
	return Reply{
		Text:    modeCaptions[mode] + "\nВыберите культуру:",
		Buttons: buttons,
		Columns: 2,
	}
}

func (e *Engine) onCalcCrop(ctx context.Context, userID int64, args []string) Reply {
	if len(args) != 2 || !entity.CalcMode(args[0]).Valid() {
		return e.stale(userID)
	}
	cat := e.catalog.Current(ctx)
	crop, ok := cat.Crops().ByID(args[1])
	if !ok {
		return e.stale(userID)
	}
	return e.calcProducts(ctx, userID, entity.CalcMode(args[0]), crop)
}

// calcProducts products for crop usable in mode; enters CalcCropSelected.
func (e *Engine) calcProducts(ctx context.Context, userID int64, mode entity.CalcMode, crop entity.CropEntry) Reply {
	e.Reset(userID)
	cat := e.catalog.Current(ctx)
	if cat.Empty() {
		return Reply{Text: textUnavailable, ShowMenu: true}
	}
	var buttons []Button
	seen := make(map[string]struct{})
	for _, row := range PesticidesForCropAndMode(cat.Rows(), crop.Label, mode) {
		p, ok := cat.ProductByName(row.Field(entity.FieldName))
		if !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		buttons = append(buttons, Button{Text: p.Name, Data: callback(actCalcProduct, string(mode), crop.ID, p.ID)})
	}
	if len(buttons) == 0 {
		return Reply{Text: "❌ Для культуры «" + crop.Label + "» нет препаратов с нормой на " + perUnit(mode) + ".", ShowMenu: true}
	}
	e.put(userID, entity.CalcCropSelected{Mode: mode, Crop: crop})
	return Reply{
		Text:    "🌾 <b>" + esc(crop.Label) + "</b>\nВыберите препарат:",
		HTML:    true,
		Buttons: buttons,
	}
}

func (e *Engine) onCalcProduct(ctx context.Context, userID int64, args []string) Reply {
	if len(args) != 3 || !entity.CalcMode(args[0]).Valid() {
		return e.stale(userID)
	}
	mode := entity.CalcMode(args[0])
	cat := e.catalog.Current(ctx)
	crop, ok := cat.Crops().ByID(args[1])
	if !ok {
		return e.stale(userID)
	}
	p, ok := cat.Product(args[2])
	if !ok {
		return e.stale(userID)
	}
	row, ok := rowForMode(p, crop, mode)
	if !ok {
		return e.stale(userID)
	}
	return e.selectProduct(userID, mode, crop, p, row)
}

// rowForMode row of p for crop whose first component suits mode.
func rowForMode(p *Product, crop entity.CropEntry, mode entity.CalcMode) (entity.Row, bool) {
	for _, row := range p.Rows {
		if hasCrop(row, crop.Key) && rowFitsMode(row, mode) {
			return row, true
		}
	}
	return entity.Row{}, false
}

// onCardCalc "calculate" on a product card: pick the crop first unless there is one.
func (e *Engine) onCardCalc(ctx context.Context, userID int64, args []string) Reply {
	if len(args) != 1 {
		return e.stale(userID)
	}
	e.Reset(userID)
	cat := e.catalog.Current(ctx)
	p, ok := cat.Product(args[0])
	if !ok {
		return e.stale(userID)
	}

	var crops []entity.CropEntry
	seen := make(map[string]struct{})
	for _, row := range p.Rows {
		_, keys := rowCrops(row)
		for _, key := range keys {
			crop, ok := cat.Crops().ByKey(key)
			if !ok {
				continue
			}
			if _, dup := seen[crop.ID]; dup {
				continue
			}
			seen[crop.ID] = struct{}{}
			crops = append(crops, crop)
		}
	}
	switch len(crops) {
	case 0:
		return Reply{Text: "❌ Для препарата не указаны культуры.", ShowMenu: true}
	case 1:
		return e.cardCrop(userID, p, crops[0])
	}
	sortCropEntries(crops)
	buttons := make([]Button, 0, len(crops))
	for _, crop := range crops {
		buttons = append(buttons, Button{Text: crop.Label, Data: callback(actCardCrop, p.ID, crop.ID)})
	}
	return Reply{
		Text:    "🧮 <b>" + esc(p.Name) + "</b>\nВыберите культуру:",
		HTML:    true,
		Buttons: buttons,
		Columns: 2,
	}
}

func (e *Engine) onCardCrop(ctx context.Context, userID int64, args []string) Reply {
	if len(args) != 2 {
		return e.stale(userID)
	}
	cat := e.catalog.Current(ctx)
	p, ok := cat.Product(args[0])
	if !ok {
		return e.stale(userID)
	}
	crop, ok := cat.Crops().ByID(args[1])
	if !ok {
		return e.stale(userID)
	}
	return e.cardCrop(userID, p, crop)
}

// cardCrop mode follows the rate: per ton means seed treatment, otherwise area.
func (e *Engine) cardCrop(userID int64, p *Product, crop entity.CropEntry) Reply {
	row, ok := p.RowForCrop(crop)
	if !ok {
		return e.stale(userID)
	}
	mode := entity.ModeArea
	if parsed := rowRate(row); parsed.OK() && parsed.Components[0].Family == entity.FamilyMass {
		mode = entity.ModeSeed
	}
	return e.selectProduct(userID, mode, crop, p, row)
}

func describeRate(components []entity.RateComponent) string {
	parts := make([]string, 0, len(components))
	for _, c := range components {
		s := FormatRate(c)
		if !c.IsProduct() {
			s = c.Name + " " + s
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " + ")
}

func (e *Engine) selectProduct(userID int64, mode entity.CalcMode, crop entity.CropEntry, p *Product, row entity.Row) Reply {
	rateText := strings.TrimSpace(row.Field(entity.FieldRate))
	parsed := ParseRate(rateText)
	product := entity.CalcProduct{ID: p.ID, Name: p.Name, RateText: rateText, Components: parsed.Components}
	header := "🧮 <b>" + esc(p.Name) + "</b> · " + esc(crop.Label) + "\n"

	if !parsed.OK() {
		e.put(userID, entity.CalcAwaitingManualRate{Mode: mode, Crop: crop, Product: product})
		shown := rateText
		if shown == "" {
			shown = "не указана"
		}
		return Reply{
			Text: header + "Не удалось разобрать норму из каталога: «" + esc(shown) + "».\n" +
				"✏️ Введите норму вручную, например: 0,5 л/" + perUnit(mode),
			HTML: true,
		}
	}

	text := header + "Норма: " + esc(describeRate(parsed.Components))
	if parsed.Partial() {
		text += "\n⚠️ Не распознано: " + esc(strings.Join(parsed.Skipped, "; "))
	}
	return e.askNext(userID, mode, crop, product, text)
}

// askNext tank mode needs the working-solution rate before the amount.
func (e *Engine) askNext(userID int64, mode entity.CalcMode, crop entity.CropEntry, product entity.CalcProduct, text string) Reply {
	if mode == entity.ModeTank {
		e.put(userID, entity.CalcAwaitingWaterRate{Mode: mode, Crop: crop, Product: product})
		return Reply{Text: text + "\n\n" + waterRatePrompt, HTML: true}
	}
	e.put(userID, entity.CalcAwaitingAmount{Mode: mode, Crop: crop, Product: product})
	return Reply{Text: text + "\n\n" + amountPrompt(mode), HTML: true}
}

func (e *Engine) onManualRate(userID int64, st entity.CalcAwaitingManualRate, text string) Reply {
	parsed := ParseRate(text)
	if !parsed.OK() {
		e.put(userID, st)
		return Reply{Text: "⚠️ Не понял норму. Введите, например: 0,5 л/" + perUnit(st.Mode) + " или 0,2-0,3 кг/" + perUnit(st.Mode)}
	}
	if parsed.Components[0].Family != st.Mode.Family() {
		e.put(userID, st)
		return Reply{Text: "⚠️ Для этого расчёта нужна норма на " + perUnit(st.Mode) + ", например: 0,5 л/" + perUnit(st.Mode)}
	}
	product := st.Product
	product.RateText = text
	product.Components = parsed.Components
	return e.askNext(userID, st.Mode, st.Crop, product, "Норма: "+esc(describeRate(parsed.Components)))
}

func (e *Engine) onWaterRate(userID int64, st entity.CalcAwaitingWaterRate, text string) Reply {
	v, err := ParseNumber(text)
	if err != nil {
		e.put(userID, st)
		return Reply{Text: "⚠️ Нужно положительное число.\n" + waterRatePrompt}
	}
	e.put(userID, entity.CalcAwaitingAmount{Mode: st.Mode, Crop: st.Crop, Product: st.Product, WaterRate: v})
	return Reply{Text: amountPrompt(st.Mode)}
}

func (e *Engine) onAmount(userID int64, st entity.CalcAwaitingAmount, text string) Reply {
	amount, err := ParseNumber(text)
	if err != nil {
		e.put(userID, st)
		return Reply{Text: "⚠️ Нужно положительное число.\n" + amountPrompt(st.Mode)}
	}

	var (
		totals  []entity.ComponentTotal
		subject string
	)
	switch st.Mode {
	case entity.ModeTank:
		res, err := CalculateForTank(st.Product.Components, st.WaterRate, amount)
		if err != nil {
			e.put(userID, entity.CalcAwaitingWaterRate{Mode: st.Mode, Crop: st.Crop, Product: st.Product})
			return Reply{Text: "⚠️ Норма рабочего раствора должна быть больше нуля.\n" + waterRatePrompt}
		}
		totals = res.Totals
		subject = "Бак: " + FormatNumber(amount, 0) + " л, рабочий раствор " + FormatNumber(st.WaterRate, 0) +
			" л/га\nОдин бак обрабатывает: " + FormatNumber(res.HectaresPerTank, 2) + " га"
	case entity.ModeSeed:
		totals = CalculateForSeed(st.Product.Components, amount)
		subject = "Семена: " + FormatNumber(amount, 0) + " т"
	default:
		totals = CalculateForArea(st.Product.Components, amount)
		subject = "Площадь: " + FormatNumber(amount, 0) + " га"
	}

	if len(totals) == 0 {
		e.Reset(userID)
		return Reply{Text: "❌ У препарата нет нормы, подходящей для этого расчёта. Начните заново через меню.", ShowMenu: true}
	}

	var b strings.Builder
	b.WriteString("🧮 <b>Расчёт: " + esc(st.Product.Name) + "</b>\n")
	b.WriteString("Культура: " + esc(st.Crop.Label) + "\n")
	b.WriteString(subject + "\n")
	b.WriteString("Норма: " + esc(describeRate(st.Product.Components)) + "\n\n")
	b.WriteString("<b>Потребуется:</b>")
	for _, t := range totals {
		name := t.Name
		if name == entity.ProductComponentName {
			name = "Препарат"
		}
		b.WriteString("\n• " + esc(name) + ": " + FormatTotal(t))
	}

	e.put(userID, entity.CalcResultShown{
		Mode:      st.Mode,
		Crop:      st.Crop,
		Product:   st.Product,
		WaterRate: st.WaterRate,
		Amount:    amount,
	})
	return Reply{
		Text: b.String(),
		HTML: true,
		Buttons: []Button{
			{Text: "✏️ Изменить норму", Data: callback(actCustomRate)},
			{Text: "🔁 Другое количество", Data: callback(actAnotherAmount)},
			{Text: "📋 Главное меню", Data: callback(actMenu)},
		},
	}
}

func customRatePrompt(product entity.CalcProduct) string {
	unit := "л"
	per := "га"
	if len(product.Components) > 0 {
		unit, per = product.Components[0].Unit, product.Components[0].Per
	}
	return "✏️ Введите свою норму для «" + esc(product.Name) + "» в " + unit + "/" + per + " (например: 0,3)"
}

func (e *Engine) onCustomRateAction(userID int64) Reply {
	st, ok := e.State(userID).(entity.CalcResultShown)
	if !ok {
		return e.stale(userID)
	}
	e.put(userID, entity.CalcAwaitingCustomRate{Mode: st.Mode, Crop: st.Crop, Product: st.Product, WaterRate: st.WaterRate})
	return Reply{Text: customRatePrompt(st.Product), HTML: true}
}

func (e *Engine) onAnotherAmount(userID int64) Reply {
	st, ok := e.State(userID).(entity.CalcResultShown)
	if !ok {
		return e.stale(userID)
	}
	e.put(userID, entity.CalcAwaitingAmount{Mode: st.Mode, Crop: st.Crop, Product: st.Product, WaterRate: st.WaterRate})
	return Reply{Text: amountPrompt(st.Mode)}
}

func (e *Engine) onCustomRate(userID int64, st entity.CalcAwaitingCustomRate, text string) Reply {
	v, err := ParseNumber(text)
	if err != nil {
		e.put(userID, st)
		return Reply{Text: "⚠️ Нужно положительное число.\n" + customRatePrompt(st.Product), HTML: true}
	}
	product := st.Product
	product.Components = ApplyCustomRate(st.Product.Components, v)
	e.put(userID, entity.CalcAwaitingAmount{Mode: st.Mode, Crop: st.Crop, Product: product, WaterRate: st.WaterRate})
	return Reply{
		Text: "Норма изменена: " + esc(describeRate(product.Components)) + "\n\n" + amountPrompt(st.Mode),
		HTML: true,
	}
}
