package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
)

var (
	// ErrZeroWaterRate tank mode needs a positive working-solution rate.
	ErrZeroWaterRate = eris.New("water rate must be positive")
	// ErrNoComponents rate expression has no recognisable component.
	ErrNoComponents = eris.New("rate has no components")
	// ErrInvalidNumber user input is not a usable positive number.
	ErrInvalidNumber = eris.New("invalid number")
)

// name, min, optional max, unit, per-unit
var rateComponentRe = regexp.MustCompile(
	`(?i)^(.*?)(\d+(?:[.,]\d+)?)\s*(?:[-–—]\s*(\d+(?:[.,]\d+)?))?\s*(мл|л|кг|г)\s*/\s*(га|т)(?:[^\p{L}]|$)`,
)

var numberRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

func parseDecimal(s string) (float64, int, error) {
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, err
	}
	precision := 0
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		precision = len(s) - dot - 1
	}
	return v, precision, nil
}

func componentName(raw string) string {
	name := strings.Trim(strings.TrimSpace(raw), ":-–—()")
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.ProductComponentName
	}
	return strings.Join(strings.Fields(name), " ")
}

func parseComponent(clause string) (entity.RateComponent, bool) {
	m := rateComponentRe.FindStringSubmatch(clause)
	if m == nil {
		return entity.RateComponent{}, false
	}
	lo, precision, err := parseDecimal(m[2])
	if err != nil {
		return entity.RateComponent{}, false
	}
	hi := lo
	if m[3] != "" {
		if hi, _, err = parseDecimal(m[3]); err != nil {
			return entity.RateComponent{}, false
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	per := strings.ToLower(m[5])
	family := entity.FamilyArea
	if per == "т" {
		family = entity.FamilyMass
	}
	return entity.RateComponent{
		Name:      componentName(m[1]),
		Min:       lo,
		Max:       hi,
		Unit:      strings.ToLower(m[4]),
		Per:       per,
		Family:    family,
		Precision: precision,
	}, true
}

// ParseRate splits a rate expression on "+" and parses each additive clause.
// Clauses that do not fit the grammar are reported in Skipped.
func ParseRate(text string) entity.RateParse {
	var out entity.RateParse
	for _, clause := range strings.Split(text, "+") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if c, ok := parseComponent(clause); ok {
			out.Components = append(out.Components, c)
			continue
		}
		out.Skipped = append(out.Skipped, clause)
	}
	return out
}

// ParseNumber positive number typed by the user: comma or dot decimals,
// spaces as thousand separators.
func ParseNumber(text string) (float64, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, strings.TrimSpace(text))
	if !numberRe.MatchString(s) {
		return 0, eris.Wrapf(ErrInvalidNumber, "%q", text)
	}
	v, _, err := parseDecimal(s)
	if err != nil || v <= 0 || v > constants.MaxAmount {
		return 0, eris.Wrapf(ErrInvalidNumber, "%q", text)
	}
	return v, nil
}

var largeUnit = map[string]string{
	"мл": "л",
	"г":  "кг",
}

// SmartConvert moves ≥1000 ml or g to the large unit.
func SmartConvert(value float64, unit string) (float64, string) {
	if big, ok := largeUnit[unit]; ok && value >= 1000 {
		return value / 1000, big
	}
	return value, unit
}

func scaleComponents(components []entity.RateComponent, quantity float64, family entity.UnitFamily) []entity.ComponentTotal {
	var totals []entity.ComponentTotal
	for _, c := range components {
		if c.Family != family {
			continue
		}
		lo, hi := c.Min*quantity, c.Max*quantity
		// The max side picks the unit; min is scaled by the same factor.
		hiConv, unit := SmartConvert(hi, c.Unit)
		if unit != c.Unit {
			lo = lo * hiConv / hi
		}
		totals = append(totals, entity.ComponentTotal{
			Name:      c.Name,
			Min:       lo,
			Max:       hiConv,
			Unit:      unit,
			Precision: c.Precision,
		})
	}
	return totals
}

// CalculateForArea totals of per-hectare components for the given area.
func CalculateForArea(components []entity.RateComponent, hectares float64) []entity.ComponentTotal {
	return scaleComponents(components, hectares, entity.FamilyArea)
}

// CalculateForSeed totals of per-ton components for the given seed mass.
func CalculateForSeed(components []entity.RateComponent, tons float64) []entity.ComponentTotal {
	return scaleComponents(components, tons, entity.FamilyMass)
}

// CalculateForTank area one tank covers and the product amounts for it.
func CalculateForTank(components []entity.RateComponent, waterRatePerHa, tankVolume float64) (entity.TankResult, error) {
	if waterRatePerHa <= 0 {
		return entity.TankResult{}, ErrZeroWaterRate
	}
	hectares := tankVolume / waterRatePerHa
	return entity.TankResult{
		HectaresPerTank: hectares,
		Totals:          CalculateForArea(components, hectares),
	}, nil
}

// ApplyCustomRate copy of components with the first one's min and max set to value.
func ApplyCustomRate(components []entity.RateComponent, value float64) []entity.RateComponent {
	out := make([]entity.RateComponent, len(components))
	copy(out, components)
	if len(out) > 0 {
		out[0].Min = value
		out[0].Max = value
		out[0].Precision = fractionDigits(value)
	}
	return out
}

func fractionDigits(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		return len(s) - dot - 1
	}
	return 0
}

// FormatNumber decimal comma, at most max(precision, 2) fraction digits, no trailing zeros.
func FormatNumber(v float64, precision int) string {
	if precision < 2 {
		precision = 2
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return strings.Replace(s, ".", ",", 1)
}

// FormatTotal "min–max unit" or "value unit" when both ends print the same.
func FormatTotal(t entity.ComponentTotal) string {
	lo := FormatNumber(t.Min, t.Precision)
	hi := FormatNumber(t.Max, t.Precision)
	if lo == hi {
		return lo + " " + t.Unit
	}
	return lo + "–" + hi + " " + t.Unit
}

// FormatRate rate component as written in a catalog: "0,5–0,7 л/га".
func FormatRate(c entity.RateComponent) string {
	return FormatTotal(entity.ComponentTotal{
		Min: c.Min, Max: c.Max, Unit: c.Unit, Precision: c.Precision,
	}) + "/" + c.Per
}
