package usecase

import (
	"regexp"
	"strings"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

var categorySepRe = regexp.MustCompile(`[,;]+`)

// categoryLabels title-cased category tokens of a destroy-category cell.
func categoryLabels(raw string) []string {
	var out []string
	for _, part := range categorySepRe.Split(raw, -1) {
		if label := textnorm.Title(part); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// IndexRows fills the derived fields of every row: split crops and their
// keys, destroy categories, parsed rate. Done once per catalog snapshot.
func IndexRows(rows []entity.Row) []entity.Row {
	out := make([]entity.Row, len(rows))
	for i, row := range rows {
		out[i] = indexRow(row)
	}
	return out
}

func indexRow(row entity.Row) entity.Row {
	if row.Indexed {
		return row
	}
	row.CropLabels = SplitCropField(row.Field(entity.FieldCrops))
	row.CropKeys = make([]string, len(row.CropLabels))
	row.CropSet = make(map[string]struct{}, len(row.CropLabels))
	for i, label := range row.CropLabels {
		row.CropKeys[i] = CropKey(label)
		row.CropSet[row.CropKeys[i]] = struct{}{}
	}
	row.Categories = categoryLabels(row.Field(entity.FieldDestroyCategory))
	row.CategoryKeys = make(map[string]struct{}, len(row.Categories))
	for _, label := range row.Categories {
		row.CategoryKeys[textnorm.Normalize(label)] = struct{}{}
	}
	row.Rate = ParseRate(row.Field(entity.FieldRate))
	row.Indexed = true
	return row
}

// rowCrops split crop labels and their dedup keys.
func rowCrops(row entity.Row) (labels, keys []string) {
	if row.Indexed {
		return row.CropLabels, row.CropKeys
	}
	labels = SplitCropField(row.Field(entity.FieldCrops))
	keys = make([]string, len(labels))
	for i, label := range labels {
		keys[i] = CropKey(label)
	}
	return labels, keys
}

func rowCategories(row entity.Row) []string {
	if row.Indexed {
		return row.Categories
	}
	return categoryLabels(row.Field(entity.FieldDestroyCategory))
}

func rowRate(row entity.Row) entity.RateParse {
	if row.Indexed {
		return row.Rate
	}
	return ParseRate(row.Field(entity.FieldRate))
}

// hasCategory categoryKey is already normalized.
func hasCategory(row entity.Row, categoryKey string) bool {
	if categoryKey == "" {
		return false
	}
	if row.Indexed {
		_, ok := row.CategoryKeys[categoryKey]
		return ok
	}
	for _, label := range rowCategories(row) {
		if textnorm.Normalize(label) == categoryKey {
			return true
		}
	}
	return false
}

func hasCrop(row entity.Row, cropKey string) bool {
	if row.Indexed {
		_, ok := row.CropSet[cropKey]
		return ok
	}
	_, ok := cropKeySet(row.Field(entity.FieldCrops))[cropKey]
	return ok
}

// drillDownRow usable rows carry both a destroy category and crops.
func drillDownRow(row entity.Row) bool {
	return strings.TrimSpace(row.Field(entity.FieldDestroyCategory)) != "" &&
		strings.TrimSpace(row.Field(entity.FieldCrops)) != ""
}

// labelSet keeps the first spelling per normalized value.
type labelSet struct {
	seen   map[string]struct{}
	labels []string
}

func newLabelSet() *labelSet {
	return &labelSet{seen: make(map[string]struct{})}
}

func (s *labelSet) add(label string) {
	key := textnorm.Normalize(label)
	if key == "" {
		return
	}
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.labels = append(s.labels, label)
}

func (s *labelSet) sorted() []string {
	sortLabels(s.labels)
	return s.labels
}

// DestroyCategoriesForCrop categories of rows grown on crop.
func DestroyCategoriesForCrop(rows []entity.Row, crop string) []string {
	key := CropKey(crop)
	set := newLabelSet()
	for _, row := range rows {
		if !drillDownRow(row) || !hasCrop(row, key) {
			continue
		}
		for _, label := range rowCategories(row) {
			set.add(label)
		}
	}
	return set.sorted()
}

// ProductTypesFor product types for crop and category.
func ProductTypesFor(rows []entity.Row, crop, category string) []string {
	key, catKey := CropKey(crop), textnorm.Normalize(category)
	set := newLabelSet()
	for _, row := range rows {
		if !drillDownRow(row) || !hasCrop(row, key) || !hasCategory(row, catKey) {
			continue
		}
		set.add(textnorm.Title(row.Field(entity.FieldType)))
	}
	return set.sorted()
}

// FilterProducts rows for crop and category whose type contains productType.
func FilterProducts(rows []entity.Row, crop, productType, category string) []entity.Row {
	key, catKey := CropKey(crop), textnorm.Normalize(category)
	want := textnorm.Normalize(productType)
	var out []entity.Row
	for _, row := range rows {
		if !drillDownRow(row) || !hasCrop(row, key) || !hasCategory(row, catKey) {
			continue
		}
		if !strings.Contains(textnorm.Normalize(row.Field(entity.FieldType)), want) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// rowFitsMode the first rate component has the family the mode needs.
func rowFitsMode(row entity.Row, mode entity.CalcMode) bool {
	parsed := rowRate(row)
	if !parsed.OK() {
		return false
	}
	return parsed.Components[0].Family == mode.Family()
}

// PesticidesForCropAndMode rows for crop whose rate can be used in mode.
func PesticidesForCropAndMode(rows []entity.Row, crop string, mode entity.CalcMode) []entity.Row {
	key := CropKey(crop)
	var out []entity.Row
	for _, row := range rows {
		if hasCrop(row, key) && rowFitsMode(row, mode) {
			out = append(out, row)
		}
	}
	return out
}

// CropsAvailableForMode crop labels that have at least one product usable in mode.
func CropsAvailableForMode(rows []entity.Row, mode entity.CalcMode) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		if !rowFitsMode(row, mode) {
			continue
		}
		labels, keys := rowCrops(row)
		for i, label := range labels {
			if _, ok := seen[keys[i]]; ok {
				continue
			}
			seen[keys[i]] = struct{}{}
			out = append(out, label)
		}
	}
	sortLabels(out)
	return out
}
