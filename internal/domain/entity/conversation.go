package entity

import "time"

// Step name of a conversation state, used for logging and tests.
type Step string

const (
	StepIdle                     Step = "idle"
	StepAwaitingProductName      Step = "awaiting_product_name"
	StepAwaitingActiveIngredient Step = "awaiting_active_ingredient"
	StepCalcModeSelected         Step = "calc_mode_selected"
	StepCalcCropSelected         Step = "calc_crop_selected"
	StepCalcManualRate           Step = "calc_manual_rate"
	StepCalcWaterRate            Step = "calc_water_rate"
	StepCalcAmount               Step = "calc_amount"
	StepCalcCustomRate           Step = "calc_custom_rate"
	StepCalcResult               Step = "calc_result"
)

// State is a closed set of conversation stages. Each variant carries
// exactly the data valid at that stage.
type State interface {
	Step() Step
	isState()
}

// CalcProduct product picked for calculation with its parsed rate.
type CalcProduct struct {
	ID         string
	Name       string
	RateText   string
	Components []RateComponent
}

type Idle struct{}

type AwaitingProductName struct{}

type AwaitingActiveIngredient struct{}

// CalcModeSelected mode chosen, crop list shown.
type CalcModeSelected struct {
	Mode CalcMode
}

// CalcCropSelected crop chosen, product list shown.
type CalcCropSelected struct {
	Mode CalcMode
	Crop CropEntry
}

// CalcAwaitingManualRate catalog rate could not be parsed; user types one.
type CalcAwaitingManualRate struct {
	Mode    CalcMode
	Crop    CropEntry
	Product CalcProduct
}

// CalcAwaitingWaterRate tank mode: working solution l/ha expected.
type CalcAwaitingWaterRate struct {
	Mode    CalcMode
	Crop    CropEntry
	Product CalcProduct
}

// CalcAwaitingAmount hectares, tank litres or seed tons expected.
type CalcAwaitingAmount struct {
	Mode      CalcMode
	Crop      CropEntry
	Product   CalcProduct
	WaterRate float64
}

// CalcAwaitingCustomRate user replaces the first component's rate.
type CalcAwaitingCustomRate struct {
	Mode      CalcMode
	Crop      CropEntry
	Product   CalcProduct
	WaterRate float64
}

// CalcResultShown totals were sent; rate override or another amount may follow.
type CalcResultShown struct {
	Mode      CalcMode
	Crop      CropEntry
	Product   CalcProduct
	WaterRate float64
	Amount    float64
}

func (Idle) Step() Step                     { return StepIdle }
func (AwaitingProductName) Step() Step      { return StepAwaitingProductName }
func (AwaitingActiveIngredient) Step() Step { return StepAwaitingActiveIngredient }
func (CalcModeSelected) Step() Step         { return StepCalcModeSelected }
func (CalcCropSelected) Step() Step         { return StepCalcCropSelected }
func (CalcAwaitingManualRate) Step() Step   { return StepCalcManualRate }
func (CalcAwaitingWaterRate) Step() Step    { return StepCalcWaterRate }
func (CalcAwaitingAmount) Step() Step       { return StepCalcAmount }
func (CalcAwaitingCustomRate) Step() Step   { return StepCalcCustomRate }
func (CalcResultShown) Step() Step          { return StepCalcResult }

func (Idle) isState()                     {}
func (AwaitingProductName) isState()      {}
func (AwaitingActiveIngredient) isState() {}
func (CalcModeSelected) isState()         {}
func (CalcCropSelected) isState()         {}
func (CalcAwaitingManualRate) isState()   {}
func (CalcAwaitingWaterRate) isState()    {}
func (CalcAwaitingAmount) isState()       {}
func (CalcAwaitingCustomRate) isState()   {}
func (CalcResultShown) isState()          {}

// Session per-user conversation record.
type Session struct {
	UserID    int64
	State     State
	UpdatedAt time.Time
}
