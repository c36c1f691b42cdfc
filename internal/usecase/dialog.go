package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/domain/repository"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

// Button inline button: caption and callback payload.
type Button struct {
	Text string
	Data string
}

// Reply what the transport should render for one user input.
type Reply struct {
	Text string
	HTML bool
	// Buttons rendered as a paged inline keyboard.
	Buttons []Button
	// Columns per keyboard row; 0 means one.
	Columns int
	// ShowMenu attaches the main reply keyboard.
	ShowMenu bool
}

// Main menu captions.
const (
	MenuSearchName   = "🔎 Поиск препарата по названию"
	MenuSearchActive = "🧪 Поиск по д.в."
	MenuPick         = "📋 Подбор пестицида"
	MenuCalculator   = "🧮 Калькулятор расхода препарата"
	MenuHelp         = "ℹ️ Помощь"
	MenuContacts     = "📞 Контакты"
)

// MenuLayout reply keyboard rows.
var MenuLayout = [][]string{
	{MenuSearchName, MenuSearchActive},
	{MenuPick, MenuCalculator},
	{MenuHelp, MenuContacts},
}

// MenuPlaceholder input field hint under the reply keyboard.
const MenuPlaceholder = "Выберите действие или введите название..."

type menuAction int

const (
	menuNone menuAction = iota
	menuName
	menuActive
	menuPick
	menuCalc
	menuHelp
	menuContacts
)

var menuActions = map[string]menuAction{
	textnorm.CleanLabel(MenuSearchName):   menuName,
	textnorm.CleanLabel(MenuSearchActive): menuActive,
	textnorm.CleanLabel(MenuPick):         menuPick,
	textnorm.CleanLabel(MenuCalculator):   menuCalc,
	textnorm.CleanLabel(MenuHelp):         menuHelp,
	textnorm.CleanLabel(MenuContacts):     menuContacts,
}

func menuActionOf(text string) menuAction {
	return menuActions[textnorm.CleanLabel(text)]
}

// IsMenuButton text is one of the main menu captions, decorations ignored.
func IsMenuButton(text string) bool {
	return menuActionOf(text) != menuNone
}

const (
	textWelcome = "👋 <b>Добро пожаловать!</b>\nЭтот бот поможет быстро подобрать пестицид по вашей культуре и вредному объекту, " +
		"найти препарат по названию и рассчитать расход. Выберите действие на клавиатуре ниже."
	textMenu = "📋 Главное меню"
	textHelp = "ℹ️ <b>Как пользоваться</b>\n" +
		"• Нажмите «Подбор пестицида» → выберите культуру/цели обработки → вид объекта → вид препарата.\n" +
		"• Или отправьте название препарата: я подберу ближайшие совпадения, учитывая опечатки и раскладку.\n" +
		"• «Поиск по д.в.»: введите действующее вещество и получите список препаратов.\n" +
		"• «Калькулятор расхода»: выберите режим, культуру и препарат, затем введите площадь, объём бака или массу семян."
	textUnavailable = "⚠️ Данные временно недоступны. Попробуйте позже или отправьте /reload."
	textStale       = "⚠️ Эта кнопка устарела. Начните заново через меню."
)

// Engine conversation state machine. Calls for one user must not overlap;
// the transport serializes them.
type Engine struct {
	catalog  *CatalogService
	sessions repository.SessionRepository
	now      func() time.Time
}

// EngineOption Engine sozlamasi
type EngineOption func(*Engine)

// WithClock overrides the session timestamp clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine yangi dialog mexanizmi
func NewEngine(catalog *CatalogService, sessions repository.SessionRepository, opts ...EngineOption) *Engine {
	e := &Engine{catalog: catalog, sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State current state of the user, Idle when none.
func (e *Engine) State(userID int64) entity.State {
	if s, ok := e.sessions.Get(userID); ok && s.State != nil {
		return s.State
	}
	return entity.Idle{}
}

func (e *Engine) put(userID int64, state entity.State) {
	if _, idle := state.(entity.Idle); idle {
		e.sessions.Delete(userID)
		return
	}
	e.sessions.Put(entity.Session{UserID: userID, State: state, UpdatedAt: e.now()})
}

// Reset drops everything accumulated for the user.
func (e *Engine) Reset(userID int64) {
	e.sessions.Delete(userID)
}

// Start /start and /restart.
func (e *Engine) Start(userID int64) Reply {
	e.Reset(userID)
	return Reply{Text: textWelcome, HTML: true, ShowMenu: true}
}

// Menu /menu.
func (e *Engine) Menu(userID int64) Reply {
	e.Reset(userID)
	return Reply{Text: textMenu, ShowMenu: true}
}

// Help /help and the help button.
func (e *Engine) Help(userID int64) Reply {
	e.Reset(userID)
	return Reply{Text: textHelp, HTML: true, ShowMenu: true}
}

// Reload /reload: fetch both sheets again and rebuild the crop index.
func (e *Engine) Reload(ctx context.Context, userID int64) Reply {
	e.Reset(userID)
	cat, contacts := e.catalog.Reload(ctx)
	if cat.Empty() {
		return Reply{Text: "⚠️ Не удалось загрузить данные из таблицы. Попробуйте позже.", ShowMenu: true}
	}
	return Reply{
		Text: "🔄 Кеш обновлён.\nСтрок: " + itoa(len(cat.Rows())) +
			", культур: " + itoa(cat.Crops().Len()) +
			", препаратов: " + itoa(len(cat.Products())) +
			", контактов: " + itoa(len(contacts.Rows)) + ".",
		ShowMenu: true,
	}
}

// HandleText interprets a typed message according to the user's state.
// Menu captions win over any step in progress.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) Reply {
	text = strings.TrimSpace(text)
	if act := menuActionOf(text); act != menuNone {
		return e.onMenu(ctx, userID, act)
	}

	state := e.State(userID)
	zap.L().Debug("dialog text",
		zap.Int64("user_id", userID),
		zap.String("step", string(state.Step())),
	)

	switch st := state.(type) {
	case entity.AwaitingProductName:
		e.Reset(userID)
		return e.searchByName(ctx, text)
	case entity.AwaitingActiveIngredient:
		if !ActiveQueryUsable(text) {
			e.put(userID, st)
			return Reply{Text: "✏️ Введите название действующего вещества, например: «флорасулам» или «2,4-Д»."}
		}
		e.Reset(userID)
		return e.searchByActive(ctx, text)
	case entity.CalcModeSelected:
		reply := e.calcCrops(ctx, userID, st.Mode)
		reply.Text = "👇 Выберите культуру кнопкой из списка.\n\n" + reply.Text
		return reply
	case entity.CalcCropSelected:
		reply := e.calcProducts(ctx, userID, st.Mode, st.Crop)
		reply.Text = "👇 Выберите препарат кнопкой из списка.\n\n" + reply.Text
		return reply
	case entity.CalcAwaitingManualRate:
		return e.onManualRate(userID, st, text)
	case entity.CalcAwaitingWaterRate:
		return e.onWaterRate(userID, st, text)
	case entity.CalcAwaitingAmount:
		return e.onAmount(userID, st, text)
	case entity.CalcAwaitingCustomRate:
		return e.onCustomRate(userID, st, text)
	default:
		// Idle, or a finished calculation: free text is a name search.
		e.Reset(userID)
		return e.searchByName(ctx, text)
	}
}

func (e *Engine) onMenu(ctx context.Context, userID int64, act menuAction) Reply {
	e.Reset(userID)
	switch act {
	case menuName:
		e.put(userID, entity.AwaitingProductName{})
		return Reply{Text: "🔎 Введите название препарата текстом. Я учту опечатки и раскладку.", ShowMenu: true}
	case menuActive:
		e.put(userID, entity.AwaitingActiveIngredient{})
		return Reply{Text: "🧪 Введите часть названия действующего вещества (например: «флорасулам» или «2,4-Д»).", ShowMenu: true}
	case menuPick:
		return e.pickCrops(ctx)
	case menuCalc:
		return calcModes()
	case menuContacts:
		return e.contacts(ctx)
	default:
		return e.Help(userID)
	}
}

// HandleAction interprets an inline button payload.
func (e *Engine) HandleAction(ctx context.Context, userID int64, data string) Reply {
	kind, args := parseCallback(data)
	zap.L().Debug("dialog action",
		zap.Int64("user_id", userID),
		zap.String("action", kind),
		zap.Strings("args", args),
	)

	switch kind {
	case actCrop, actCategory, actType, actProduct:
		e.Reset(userID)
		return e.onDrillDown(ctx, kind, args)
	case actMode:
		return e.onMode(ctx, userID, args)
	case actCalcCrop:
		return e.onCalcCrop(ctx, userID, args)
	case actCalcProduct:
		return e.onCalcProduct(ctx, userID, args)
	case actCardCalc:
		return e.onCardCalc(ctx, userID, args)
	case actCardCrop:
		return e.onCardCrop(ctx, userID, args)
	case actCustomRate:
		return e.onCustomRateAction(userID)
	case actAnotherAmount:
		return e.onAnotherAmount(userID)
	case actMenu:
		return e.Menu(userID)
	}
	return e.stale(userID)
}

// stale answers a button whose data no longer resolves and clears the flow.
func (e *Engine) stale(userID int64) Reply {
	e.Reset(userID)
	return Reply{Text: textStale, ShowMenu: true}
}
