package telegram

import (
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yourusername/agro-assistant-bot/internal/usecase"
)

const (
	pageSize         = 8
	maxCaptionRunes  = 40
	pageCallbackKind = "pg"
	noopCallback     = "noop"
)

// mainMenuKeyboard asosiy menyu (reply keyboard)
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(usecase.MenuLayout))
	for _, line := range usecase.MenuLayout {
		row := make([]tgbotapi.KeyboardButton, 0, len(line))
		for _, caption := range line {
			row = append(row, tgbotapi.NewKeyboardButton(caption))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = usecase.MenuPlaceholder
	return kb
}

// truncateCaption Telegram tugmalari uchun matnni qisqartirish
func truncateCaption(s string) string {
	return truncateRunes(s, maxCaptionRunes)
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}

func pageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// wrapPage maps any page number onto [0, pages); prev on the first page goes to the last.
func wrapPage(page, pages int) int {
	if pages <= 0 {
		return 0
	}
	page %= pages
	if page < 0 {
		page += pages
	}
	return page
}

func pageCallback(token string, page int) string {
	return pageCallbackKind + ":" + token + ":" + strconv.Itoa(page)
}

// parsePageCallback "pg:<token>:<page>"
func parsePageCallback(data string) (token string, page int, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != pageCallbackKind || parts[1] == "" {
		return "", 0, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], page, true
}

// buttonRows groups buttons into rows of the given width.
func buttonRows(buttons []usecase.Button, columns int) [][]tgbotapi.InlineKeyboardButton {
	if columns <= 0 {
		columns = 1
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for start := 0; start < len(buttons); start += columns {
		end := min(start+columns, len(buttons))
		row := make([]tgbotapi.InlineKeyboardButton, 0, end-start)
		for _, b := range buttons[start:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(truncateCaption(b.Text), b.Data))
		}
		rows = append(rows, row)
	}
	return rows
}

// pageKeyboard one page of a list plus a prev/counter/next row when the list spans pages.
func pageKeyboard(token string, list pagedList, page int) tgbotapi.InlineKeyboardMarkup {
	pages := pageCount(len(list.buttons))
	page = wrapPage(page, pages)

	start := page * pageSize
	end := min(start+pageSize, len(list.buttons))
	rows := buttonRows(list.buttons[start:end], list.columns)

	if pages > 1 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️", pageCallback(token, wrapPage(page-1, pages))),
			tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(page+1)+"/"+strconv.Itoa(pages), noopCallback),
			tgbotapi.NewInlineKeyboardButtonData("▶️", pageCallback(token, wrapPage(page+1, pages))),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// inlineMarkup short lists are rendered directly; long ones are cached so
// page callbacks can re-render them without the engine.
func (h *BotHandler) inlineMarkup(userID int64, buttons []usecase.Button, columns int) tgbotapi.InlineKeyboardMarkup {
	list := pagedList{userID: userID, buttons: buttons, columns: columns}
	if len(buttons) <= pageSize {
		return pageKeyboard("", list, 0)
	}
	token := h.pages.put(list)
	return pageKeyboard(token, list, 0)
}
