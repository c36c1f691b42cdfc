package usecase

import (
	"context"
	"html"
	"strings"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func productButtons(products []*Product) []Button {
	buttons := make([]Button, 0, len(products))
	for _, p := range products {
		buttons = append(buttons, Button{Text: p.Name, Data: callback(actProduct, p.ID)})
	}
	return buttons
}

func (e *Engine) searchByName(ctx context.Context, query string) Reply {
	if textnorm.Normalize(query) == "" {
		return Reply{Text: "✏️ Введите название препарата.", ShowMenu: true}
	}
	cat := e.catalog.Current(ctx)
	if cat.Empty() {
		return Reply{Text: textUnavailable, ShowMenu: true}
	}

	found := cat.SearchByName(query)
	switch {
	case len(found) == 0:
		return Reply{Text: "❌ Ничего не найдено. Проверьте написание названия или воспользуйтесь «Подбором пестицида».", ShowMenu: true}
	case len(found) == 1 || textnorm.Normalize(found[0].Name) == textnorm.Normalize(query):
		return productCard(found[0])
	}
	return Reply{
		Text:    "🔎 Похожие препараты по запросу «" + esc(query) + "». Выберите нужный:",
		HTML:    true,
		Buttons: productButtons(found),
	}
}

func (e *Engine) searchByActive(ctx context.Context, query string) Reply {
	cat := e.catalog.Current(ctx)
	if cat.Empty() {
		return Reply{Text: textUnavailable, ShowMenu: true}
	}
	found := cat.SearchByActive(query)
	switch len(found) {
	case 0:
		return Reply{Text: "❌ Препараты с таким действующим веществом не найдены.", ShowMenu: true}
	case 1:
		return productCard(found[0])
	}

	var b strings.Builder
	b.WriteString("🧪 Препараты с д.в. «" + esc(query) + "»:\n")
	for _, p := range found {
		b.WriteString("\n• <b>" + esc(p.Name) + "</b>")
		if ai := p.Field(entity.FieldActiveIngredient); ai != "" {
			b.WriteString(": " + esc(ai))
		}
	}
	return Reply{Text: b.String(), HTML: true, Buttons: productButtons(found)}
}

func (e *Engine) pickCrops(ctx context.Context) Reply {
	cat := e.catalog.Current(ctx)
	if cat.Empty() {
		return Reply{Text: textUnavailable, ShowMenu: true}
	}
	var buttons []Button
	for _, crop := range cat.Crops().Entries() {
		if !cat.Crops().HasDrillDown(crop) {
			continue
		}
		buttons = append(buttons, Button{Text: crop.Label, Data: callback(actCrop, crop.ID)})
	}
	if len(buttons) == 0 {
		return Reply{Text: "❌ В каталоге нет культур с заполненным видом объекта.", ShowMenu: true}
	}
	return Reply{
		Text:    "📋 <b>Выберите культуру/цели обработки</b>",
		HTML:    true,
		Buttons: buttons,
		Columns: 2,
	}
}

// findLabel label among candidates whose id is id.
func findLabel(candidates []string, id string) (string, bool) {
	for _, c := range candidates {
		if LabelID(c) == id {
			return c, true
		}
	}
	return "", false
}

func (e *Engine) onDrillDown(ctx context.Context, kind string, args []string) Reply {
	cat := e.catalog.Current(ctx)
	if cat.Empty() {
		return Reply{Text: textUnavailable, ShowMenu: true}
	}
	if kind == actProduct {
		if len(args) != 1 {
			return Reply{Text: textStale, ShowMenu: true}
		}
		p, ok := cat.Product(args[0])
		if !ok {
			return Reply{Text: textStale, ShowMenu: true}
		}
		return productCard(p)
	}

	if len(args) == 0 {
		return Reply{Text: textStale, ShowMenu: true}
	}
	crop, ok := cat.Crops().ByID(args[0])
	if !ok {
		return Reply{Text: textStale, ShowMenu: true}
	}
	rows := cat.Rows()

	categories := DestroyCategoriesForCrop(rows, crop.Label)
	if kind == actCrop {
		if len(categories) == 0 {
			return Reply{Text: "❌ Для культуры «" + crop.Label + "» нет данных.", ShowMenu: true}
		}
		buttons := make([]Button, 0, len(categories))
		for _, c := range categories {
			buttons = append(buttons, Button{Text: c, Data: callback(actCategory, crop.ID, LabelID(c))})
		}
		return Reply{
			Text:    "🌾 <b>" + esc(crop.Label) + "</b>\nВыберите вид объекта:",
			HTML:    true,
			Buttons: buttons,
		}
	}

	if len(args) < 2 {
		return Reply{Text: textStale, ShowMenu: true}
	}
	category, ok := findLabel(categories, args[1])
	if !ok {
		return Reply{Text: textStale, ShowMenu: true}
	}
	types := ProductTypesFor(rows, crop.Label, category)
	path := esc(crop.Label) + " → " + esc(category)

	if kind == actCategory {
		if len(types) == 0 {
			return Reply{Text: "❌ Препараты не найдены.", ShowMenu: true}
		}
		buttons := make([]Button, 0, len(types))
		for _, t := range types {
			buttons = append(buttons, Button{Text: t, Data: callback(actType, crop.ID, LabelID(category), LabelID(t))})
		}
		return Reply{
			Text:    "🌾 <b>" + path + "</b>\nВыберите вид препарата:",
			HTML:    true,
			Buttons: buttons,
		}
	}

	if len(args) < 3 {
		return Reply{Text: textStale, ShowMenu: true}
	}
	productType, ok := findLabel(types, args[2])
	if !ok {
		return Reply{Text: textStale, ShowMenu: true}
	}
	var products []*Product
	seen := make(map[string]struct{})
	for _, row := range FilterProducts(rows, crop.Label, productType, category) {
		p, ok := cat.ProductByName(row.Field(entity.FieldName))
		if !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	if len(products) == 0 {
		return Reply{Text: "❌ Препараты не найдены.", ShowMenu: true}
	}
	return Reply{
		Text:    "🌾 <b>" + path + " → " + esc(productType) + "</b>\nНайдено препаратов: " + itoa(len(products)),
		HTML:    true,
		Buttons: productButtons(products),
	}
}

// productCard every row of the product folded into one message.
func productCard(p *Product) Reply {
	var b strings.Builder
	b.WriteString("🧪 <b>" + esc(p.Name) + "</b>\n")
	if v := p.Field(entity.FieldType); v != "" {
		b.WriteString("Вид препарата: " + esc(v) + "\n")
	}
	if v := p.Field(entity.FieldActiveIngredient); v != "" {
		b.WriteString("Д.в.: " + esc(v) + "\n")
	}

	categories := newLabelSet()
	for _, row := range p.Rows {
		for _, c := range rowCategories(row) {
			categories.add(c)
		}
	}
	if len(categories.labels) > 0 {
		b.WriteString("Вид объекта: " + esc(strings.Join(categories.labels, ", ")) + "\n")
	}

	seen := make(map[string]struct{})
	var lines []string
	for _, row := range p.Rows {
		crops := textnorm.CollapseSpaces(row.Field(entity.FieldCrops))
		pests := textnorm.CollapseSpaces(row.Field(entity.FieldPests))
		rate := textnorm.CollapseSpaces(row.Field(entity.FieldRate))
		if crops == "" && pests == "" && rate == "" {
			continue
		}
		line := "• <b>" + esc(crops) + "</b>"
		if pests != "" {
			line += ": " + esc(pests)
		}
		if rate != "" {
			line += " — " + esc(rate)
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		b.WriteString("\n<b>Культуры, вредные объекты и нормы:</b>\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	reply := Reply{Text: strings.TrimRight(b.String(), "\n"), HTML: true}
	for _, row := range p.Rows {
		if strings.TrimSpace(row.Field(entity.FieldCrops)) != "" {
			reply.Buttons = []Button{{Text: "🧮 Рассчитать расход", Data: callback(actCardCalc, p.ID)}}
			break
		}
	}
	return reply
}

func (e *Engine) contacts(ctx context.Context) Reply {
	table := e.catalog.Contacts(ctx)
	if table.Empty() {
		return Reply{Text: "❌ Контакты не найдены", ShowMenu: true}
	}
	blocks := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		var b strings.Builder
		b.WriteString("🏢 <b>" + esc(row.Field(entity.FieldBranch)) + "</b>")
		fields := []struct {
			icon string
			kind entity.FieldKind
		}{
			{"👤", entity.FieldPerson},
			{"📞", entity.FieldPhone},
			{"✉️", entity.FieldEmail},
			{"📍", entity.FieldAddress},
		}
		for _, f := range fields {
			if v := strings.TrimSpace(row.Field(f.kind)); v != "" {
				b.WriteString("\n" + f.icon + " " + esc(v))
			}
		}
		blocks = append(blocks, b.String())
	}
	return Reply{Text: "📞 <b>Контакты</b>\n\n" + strings.Join(blocks, "\n\n"), HTML: true, ShowMenu: true}
}
