package entity

// UnitFamily whether a rate is per hectare or per ton of seed.
type UnitFamily string

const (
	FamilyArea UnitFamily = "area"
	FamilyMass UnitFamily = "mass"
)

// ProductComponentName is the name of an unnamed rate component: the product itself.
const ProductComponentName = "препарат"

// RateComponent one additive term of a dosage expression.
type RateComponent struct {
	Name string
	Min  float64
	Max  float64
	// Unit volume or mass token: "мл", "л", "г", "кг".
	Unit string
	// Per denominator token as written: "га" or "т".
	Per    string
	Family UnitFamily
	// Precision fractional digits of the minimum as written in the source.
	Precision int
}

// IsProduct reports whether the component is the product rather than an additive.
func (c RateComponent) IsProduct() bool {
	return c.Name == ProductComponentName
}

// RateParse outcome of parsing a rate expression. Skipped holds additive
// clauses that did not match the grammar, so a partial parse is visible.
type RateParse struct {
	Components []RateComponent
	Skipped    []string
}

// OK at least one component was recognised.
func (p RateParse) OK() bool {
	return len(p.Components) > 0
}

// Partial some clauses were recognised and some were not.
func (p RateParse) Partial() bool {
	return len(p.Components) > 0 && len(p.Skipped) > 0
}

// ComponentTotal computed amount for one component, already in display units.
type ComponentTotal struct {
	Name      string
	Min       float64
	Max       float64
	Unit      string
	Precision int
}

// TankResult area covered by one tank and the product amounts for it.
type TankResult struct {
	HectaresPerTank float64
	Totals          []ComponentTotal
}

// CalcMode calculator scenario.
type CalcMode string

const (
	ModeArea CalcMode = "area"
	ModeTank CalcMode = "tank"
	ModeSeed CalcMode = "seed"
)

// Family unit family a product must have to be used in this mode.
func (m CalcMode) Family() UnitFamily {
	if m == ModeSeed {
		return FamilyMass
	}
	return FamilyArea
}

// Valid known mode.
func (m CalcMode) Valid() bool {
	switch m {
	case ModeArea, ModeTank, ModeSeed:
		return true
	}
	return false
}
