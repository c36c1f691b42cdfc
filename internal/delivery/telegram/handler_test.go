package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/storage"
	"github.com/yourusername/agro-assistant-bot/internal/usecase"
	"github.com/yourusername/agro-assistant-bot/pkg/logger"
)

const testUserID int64 = 501

// fakeAPI records everything the handler sends
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: testUserID}}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeAPI) requestsOf(kind string) []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.Chattable
	for _, c := range f.requests {
		switch c.(type) {
		case tgbotapi.CallbackConfig:
			if kind == "callback" {
				out = append(out, c)
			}
		case tgbotapi.EditMessageReplyMarkupConfig:
			if kind == "edit" {
				out = append(out, c)
			}
		case tgbotapi.SetMyCommandsConfig:
			if kind == "commands" {
				out = append(out, c)
			}
		}
	}
	return out
}

type gridSource map[string][][]string

func (g gridSource) FetchGrid(_ context.Context, sheet string) ([][]string, error) {
	grid, ok := g[sheet]
	if !ok {
		return nil, eris.Errorf("sheet %q not found", sheet)
	}
	return grid, nil
}

func testGrids() gridSource {
	return gridSource{
		"": {
			{"Вид препарата", "Вид объекта", "Наименование препарата", "Действующее вещество", "Культура", "Вредный объект", "Норма расхода"},
			{"Гербицид", "Однодольные сорняки", "Миура", "хизалофоп-П-этил, 125 г/л",
				"Свекла сахарная, Соя, Подсолнечник, Рапс яровой, Лён, Горох, Нут, Картофель, Морковь, Лук",
				"Злаковые сорняки", "0,4-0,8 л/га"},
			{"Фунгицид", "Болезни", "Тебу", "тебуконазол, 250 г/л", "Пшеница яровая и озимая", "Головня", "0,5 л/т"},
		},
		"Контакты": {
			{"Филиал", "ФИО", "Телефон"},
			{"Краснодар", "Иванов И.И.", "+7 900 000-00-00"},
		},
	}
}

func newTestHandler(t *testing.T, journal ChatStore) (*BotHandler, *fakeAPI) {
	t.Helper()
	repo := storage.NewSheetCatalogRepository(testGrids(), storage.CatalogOptions{ContactsSheet: "Контакты"})
	sessions := storage.NewMemorySessionRepository()
	engine := usecase.NewEngine(usecase.NewCatalogService(repo), sessions)
	api := &fakeAPI{}
	h := newBotHandler(api, engine, sessions, Options{WorkerCount: 2, Journal: journal})
	return h, api
}

func textMessage(userID int64, messageID int, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: messageID,
		From:      &tgbotapi.User{ID: userID, UserName: "agronom"},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

// send runs one text update through the same path a worker uses
func send(t *testing.T, h *BotHandler, text string) {
	t.Helper()
	req := newRequest(t.Context(), tgbotapi.Update{Message: textMessage(testUserID, 1, text)})
	require.NotNil(t, req)
	h.process(req)
}

func press(t *testing.T, h *BotHandler, messageID int, data string) {
	t.Helper()
	cq := &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testUserID, Type: "private"}},
		Data:    data,
	}
	req := newRequest(t.Context(), tgbotapi.Update{CallbackQuery: cq})
	require.NotNil(t, req)
	h.process(req)
}

func inlineKeyboard(t *testing.T, msg tgbotapi.MessageConfig) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "expected inline keyboard, got %T", msg.ReplyMarkup)
	return kb
}

func findButton(t *testing.T, kb tgbotapi.InlineKeyboardMarkup, caption string) string {
	t.Helper()
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.Text == caption && b.CallbackData != nil {
				return *b.CallbackData
			}
		}
	}
	require.Failf(t, "button not found", "%q", caption)
	return ""
}

func TestHandler_StartShowsMenu(t *testing.T) {
	h, api := newTestHandler(t, nil)
	send(t, h, "/start")

	msg := api.last(t)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "Добро пожаловать")
	_, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.True(t, ok)
}

func TestHandler_IgnoresGroupChats(t *testing.T) {
	msg := textMessage(testUserID, 1, "Миура")
	msg.Chat.Type = "supergroup"
	assert.Nil(t, newRequest(t.Context(), tgbotapi.Update{Message: msg}))
	assert.Nil(t, newRequest(t.Context(), tgbotapi.Update{}))
}

func TestHandler_NameSearchWithWrongLayout(t *testing.T) {
	h, api := newTestHandler(t, nil)
	send(t, h, "Vbehf")

	msg := api.last(t)
	assert.Contains(t, msg.Text, "Миура")
}

func TestHandler_PagedCropList(t *testing.T) {
	h, api := newTestHandler(t, nil)
	send(t, h, usecase.MenuPick)

	kb := inlineKeyboard(t, api.last(t))
	require.Len(t, kb.InlineKeyboard, pageSize/2+1, "two columns plus navigation")
	nav := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	assert.Equal(t, "1/2", nav[1].Text)

	press(t, h, 7, *nav[2].CallbackData)
	edits := api.requestsOf("edit")
	require.Len(t, edits, 1)
	edit := edits[0].(tgbotapi.EditMessageReplyMarkupConfig)
	assert.Equal(t, 7, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "2/2", edit.ReplyMarkup.InlineKeyboard[len(edit.ReplyMarkup.InlineKeyboard)-1][1].Text)
	assert.Len(t, api.requestsOf("callback"), 1)
}

func TestHandler_StalePageAnswersCallback(t *testing.T) {
	h, api := newTestHandler(t, nil)
	before := len(api.messages())
	press(t, h, 3, "pg:deadbeef:1")

	assert.Empty(t, api.requestsOf("edit"))
	cbs := api.requestsOf("callback")
	require.Len(t, cbs, 1)
	assert.Contains(t, cbs[0].(tgbotapi.CallbackConfig).Text, "устарел")
	assert.Len(t, api.messages(), before)
}

func TestHandler_AreaCalculationThroughButtons(t *testing.T) {
	h, api := newTestHandler(t, nil)

	send(t, h, usecase.MenuCalculator)
	press(t, h, 1, findButton(t, inlineKeyboard(t, api.last(t)), "🌾 На площадь (га)"))
	press(t, h, 2, findButton(t, inlineKeyboard(t, api.last(t)), "Горох"))
	press(t, h, 3, findButton(t, inlineKeyboard(t, api.last(t)), "Миура"))
	assert.Contains(t, api.last(t).Text, "площадь")

	send(t, h, "сто")
	assert.Contains(t, api.last(t).Text, "площадь", "invalid number re-prompts")
	assert.Equal(t, entity.StepCalcAmount, h.engine.State(testUserID).Step())

	send(t, h, "10")
	result := api.last(t)
	assert.Contains(t, result.Text, "Потребуется")
	assert.Contains(t, result.Text, "4–8 л")
	findButton(t, inlineKeyboard(t, result), "🔁 Другое количество")
}

func TestHandler_Commands(t *testing.T) {
	h, api := newTestHandler(t, nil)
	t.Cleanup(func() { logger.SetDebug(false) })

	send(t, h, "/dbg_on")
	assert.True(t, logger.DebugEnabled())
	send(t, h, "/dbg_off")
	assert.False(t, logger.DebugEnabled())

	send(t, h, "/setcommands")
	cmds := api.requestsOf("commands")
	require.Len(t, cmds, 1)
	assert.Len(t, cmds[0].(tgbotapi.SetMyCommandsConfig).Commands, len(botCommands))

	send(t, h, "/reload")
	assert.Contains(t, api.last(t).Text, "контактов: 1")

	send(t, h, "/unknown")
	assert.Contains(t, api.last(t).Text, "Неизвестная команда")
}

func TestHandler_ContactsButton(t *testing.T) {
	h, api := newTestHandler(t, nil)
	send(t, h, usecase.MenuContacts)
	assert.Contains(t, api.last(t).Text, "Краснодар")
}

func TestHandler_JournalRecordsBothDirections(t *testing.T) {
	journal := newMemoryChatStore(100)
	h, _ := newTestHandler(t, journal)
	send(t, h, "/help")

	assert.Eventually(t, func() bool {
		got, err := journal.ListByUser(context.Background(), testUserID, 10)
		if err != nil || len(got) != 2 {
			return false
		}
		dirs := map[string]bool{got[0].Direction: true, got[1].Direction: true}
		return dirs[directionUser] && dirs[directionBot]
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_RejectPanicResetsState(t *testing.T) {
	h, api := newTestHandler(t, nil)
	send(t, h, usecase.MenuSearchActive)
	require.Equal(t, entity.StepAwaitingActiveIngredient, h.engine.State(testUserID).Step())

	req := newRequest(t.Context(), tgbotapi.Update{Message: textMessage(testUserID, 2, "x")})
	h.reject(req, rejectPanic)
	assert.Equal(t, entity.StepIdle, h.engine.State(testUserID).Step())
	assert.Contains(t, api.last(t).Text, "Внутренняя ошибка")
}

func TestHandler_SweepSessions(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	send(t, h, usecase.MenuSearchName)
	require.Equal(t, entity.StepAwaitingProductName, h.engine.State(testUserID).Step())

	h.now = func() time.Time { return time.Now().Add(h.sessionTTL + time.Minute) }
	assert.Equal(t, 1, h.sweepSessions())
	assert.Equal(t, entity.StepIdle, h.engine.State(testUserID).Step())
}

func TestHandler_HistoryCommand(t *testing.T) {
	h, api := newTestHandler(t, nil)
	send(t, h, "/dbg_history")
	assert.Equal(t, "Журнал отключён.", api.last(t).Text)

	journal := newMemoryChatStore(100)
	h, api = newTestHandler(t, journal)
	ctx := context.Background()
	require.NoError(t, journal.Save(ctx, chatLogMessage{UserID: testUserID, Direction: directionUser, Text: "Миура"}))
	require.NoError(t, journal.Save(ctx, chatLogMessage{UserID: testUserID, Direction: directionBot, Text: "Карточка\nпрепарата"}))
	require.NoError(t, journal.Save(ctx, chatLogMessage{UserID: testUserID + 1, Direction: directionUser, Text: "чужое"}))

	send(t, h, "/dbg_history")
	text := api.last(t).Text
	assert.Contains(t, text, "➡️ Миура")
	assert.Contains(t, text, "⬅️ Карточка препарата")
	assert.NotContains(t, text, "чужое")
	assert.NotContains(t, text, "/dbg_history")
}
