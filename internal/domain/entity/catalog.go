package entity

import (
	"sort"
	"time"

	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

// FieldKind canonical column kind
type FieldKind string

const (
	FieldType             FieldKind = "type"
	FieldDestroyCategory  FieldKind = "destroy_category"
	FieldName             FieldKind = "name"
	FieldActiveIngredient FieldKind = "active_ingredient"
	FieldCrops            FieldKind = "crops"
	FieldPests            FieldKind = "pests"
	FieldRate             FieldKind = "rate"

	FieldBranch  FieldKind = "branch"
	FieldPerson  FieldKind = "person"
	FieldPhone   FieldKind = "phone"
	FieldEmail   FieldKind = "email"
	FieldAddress FieldKind = "address"
)

// FieldAliases accepted header spellings per field, most specific first.
var FieldAliases = map[FieldKind][]string{
	FieldType:             {"Вид препарата", "Тип препарата", "Тип", "Вид"},
	FieldDestroyCategory:  {"Вид объекта", "Категория объекта", "Вид вредного объекта", "Категория"},
	FieldName:             {"Наименование препарата", "Название препарата", "Препарат", "Наименование", "Название"},
	FieldActiveIngredient: {"Действующее вещество", "Д.в.", "ДВ", "Действующие вещества"},
	FieldCrops:            {"Культура", "Культуры", "Культура/цели обработки", "Культура, цели обработки"},
	FieldPests:            {"Вредный объект", "Вредные объекты", "Вредный объект/назначение"},
	FieldRate:             {"Норма расхода", "Норма применения", "Норма расхода препарата", "Норма"},

	FieldBranch:  {"Филиал", "Подразделение", "Офис", "Регион"},
	FieldPerson:  {"ФИО", "Контактное лицо", "Менеджер"},
	FieldPhone:   {"Телефон", "Тел.", "Телефоны"},
	FieldEmail:   {"Email", "E-mail", "Почта"},
	FieldAddress: {"Адрес"},
}

// Row one catalog line keyed by its original header text.
// Unmodelled columns are kept as-is.
type Row struct {
	Cells map[string]string

	// ActiveTokens normalized active-ingredient tokens of at least 3 runes.
	ActiveTokens []string
	// ActiveCompact active-ingredient cell without spaces and punctuation ("2,4-Д" -> "24д").
	ActiveCompact string

	// Derived once per catalog snapshot; Indexed is false on rows that
	// have not been through it.
	Indexed bool
	// CropLabels split crops cell, CropKeys their dedup keys (same order).
	CropLabels []string
	CropKeys   []string
	CropSet    map[string]struct{}
	// Categories title-cased destroy categories; CategoryKeys their normalized forms.
	Categories   []string
	CategoryKeys map[string]struct{}
	Rate         RateParse

	byCompactHeader map[string]string
}

// NewRow builds a row and its header lookup table. columns gives the header
// order; when two headers compact to the same key the earlier one wins.
func NewRow(columns []string, cells map[string]string) Row {
	compact := make(map[string]string, len(cells))
	add := func(header string) {
		key := textnorm.Compact(header)
		if key == "" {
			return
		}
		if _, exists := compact[key]; !exists {
			compact[key] = cells[header]
		}
	}
	for _, header := range columns {
		if _, ok := cells[header]; ok {
			add(header)
		}
	}
	if len(columns) < len(cells) {
		rest := make([]string, 0, len(cells))
		for header := range cells {
			rest = append(rest, header)
		}
		sort.Strings(rest)
		for _, header := range rest {
			add(header)
		}
	}
	return Row{Cells: cells, byCompactHeader: compact}
}

// Field resolves kind through its aliases: exact header first, then the
// header with case, punctuation and whitespace stripped. Empty if unresolved.
func (r Row) Field(kind FieldKind) string {
	aliases := FieldAliases[kind]
	for _, alias := range aliases {
		if v, ok := r.Cells[alias]; ok && v != "" {
			return v
		}
	}
	for _, alias := range aliases {
		if v, ok := r.byCompactHeader[textnorm.Compact(alias)]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Table loaded sheet: header order plus rows.
type Table struct {
	Columns  []string
	Rows     []Row
	LoadedAt time.Time
}

// Empty reports a table with no rows (no data yet).
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}
