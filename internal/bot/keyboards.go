package bot

import (
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"booking-bot/internal/models"
	"booking-bot/internal/services"
)

const (
	starFilled = "⭐"
	starEmpty  = "☆"
	warnGlyph  = "⚠"
	backGlyph  = "◀"
)

// stars renders n of 5 filled star glyphs.
func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat(starFilled, n) + strings.Repeat(starEmpty, 5-n)
}

func meanStars(mean *float64) string {
	if mean == nil {
		return stars(0)
	}
	return stars(int(math.Round(*mean)))
}

func (b *BookingBot) mainKeyboard(user *models.User) tgbotapi.ReplyKeyboardMarkup {
	lng := user.Language
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("\U0001F194 "+b.lang.Translate(lng, "Account")),
			tgbotapi.NewKeyboardButton("\U0001F4CC "+b.lang.Translate(lng, "NewRecord")),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("\U0001F30D " + b.lang.Translate(lng, "Language")),
		),
	}

	last := []tgbotapi.KeyboardButton{}
	if user.IsAdmin() {
		last = append(last, tgbotapi.NewKeyboardButton("Add specialist"))
	}
	last = append(last, tgbotapi.NewKeyboardButton("\U0001F198 "+b.lang.Translate(lng, "HelpButton")))
	rows = append(rows, last)

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English \U0001F1FA\U0001F1F8", "en"),
			tgbotapi.NewInlineKeyboardButtonData("Русский \U0001F1F7\U0001F1FA", "ru"),
		),
	)
}

func (b *BookingBot) backRow(lng, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backGlyph+b.lang.Translate(lng, "Back"), data),
	)
}

// accountView builds the account summary with its action buttons; it is
// what every dead-end flow falls back to.
func (b *BookingBot) accountView(user *models.User, history, upcoming, specOrders []*models.Booking, spec *models.Specialist) (string, tgbotapi.InlineKeyboardMarkup) {
	lng := user.Language

	completed := 0
	for _, rec := range history {
		if !rec.Pending {
			completed++
		}
	}

	text := fmt.Sprintf("%s: %s\n%s: %d\n%s: %d\n",
		b.lang.Translate(lng, "Name"), user.Name,
		b.lang.Translate(lng, "NumberOfOrders"), len(history),
		b.lang.Translate(lng, "Completed"), completed)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			"\U0001F4CC "+b.lang.Translate(lng, "NewRecord"), Token{Action: ActionSpecialistList}.Encode())),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			"\U0001F9FE "+b.lang.Translate(lng, "History"), Token{Action: ActionHistory}.Encode())),
	}
	if len(upcoming) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			b.lang.Translate(lng, "FutureOrd"), Token{Action: ActionFuture}.Encode())))
	}

	if user.IsSpecialist() && spec != nil {
		text += fmt.Sprintf("%s: %d", b.lang.Translate(lng, "NumberSpecOrders"), len(specOrders))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			b.lang.Translate(lng, "SpecOrders"), Token{Action: ActionHistorySpec}.Encode())))

		status := "\U0001F534"
		if spec.Work {
			status = "\U0001F7E2"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			b.lang.Translate(lng, "WorkStatus")+" "+status, Token{Action: ActionWorkChange}.Encode())))
	}

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// specialistsView lists working specialists with their star rating,
// excluding the viewer's own profile.
func (b *BookingBot) specialistsView(user *models.User, specs []*models.Specialist) (string, tgbotapi.InlineKeyboardMarkup) {
	lng := user.Language
	var sb strings.Builder
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, spec := range specs {
		if spec.ID == user.TelegramID {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n%s%s\n \n",
			b.lang.Translate(lng, "Spec"), spec.DisplayName,
			b.lang.Translate(lng, "Rating"), meanStars(spec.MeanFeedback))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			spec.DisplayName, Token{Action: ActionCalendar, SpecID: spec.ID}.Encode())))
	}

	text := sb.String()
	if text == "" {
		text = "\U0001F61E " + b.lang.Translate(lng, "SpecialistsEmpty")
	}
	rows = append(rows, b.backRow(lng, Token{Action: ActionAccount}.Encode()))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// calendarKeyboard renders the 4-week grid: a day-name header, day cells
// (selectable ones carry newOrder tokens, the rest stayCalm), the
// non-working placeholder column and a back/month footer.
func (b *BookingBot) calendarKeyboard(lng string, spec *models.Specialist, weeks [][]services.Day, dayNames []string, now time.Time) tgbotapi.InlineKeyboardMarkup {
	stay := Token{Action: ActionCalendarStay, SpecID: spec.ID}.Encode()

	header := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, name := range dayNames {
		header = append(header, tgbotapi.NewInlineKeyboardButtonData(name, stay))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{header}

	for _, week := range weeks {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for _, day := range week {
			switch {
			case day.Holiday:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					b.lang.Translate(lng, "Holidays"), stay))
			case day.Selectable:
				data := Token{Action: ActionTimeChoice, SpecID: spec.ID, Date: day.Date}.Encode()
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%02d", day.Date.Day()), data))
			default:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%02d", day.Date.Day()), stay))
			}
		}
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backGlyph+b.lang.Translate(lng, "Back"),
			Token{Action: ActionBackSpecialistList}.Encode()),
		tgbotapi.NewInlineKeyboardButtonData(monthLabel(lng, now), stay),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var monthNames = map[string][12]string{
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	"ru": {"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"},
}

func monthLabel(lng string, now time.Time) string {
	names, ok := monthNames[lng]
	if !ok {
		names = monthNames["en"]
	}
	return fmt.Sprintf("%s %d", names[now.Month()-1], now.Year())
}

// timeKeyboard lays open slots out 7 per row, Confirm tokens on each.
func (b *BookingBot) timeKeyboard(lng string, tok Token, slots []int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, slot := range slots {
		confirm := Token{Action: ActionConfirm, SpecID: tok.SpecID, Date: tok.Date, Clock: slot}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			models.ClockString(slot), confirm.Encode()))
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 7)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backGlyph+b.lang.Translate(lng, "Back"),
			Token{Action: ActionBackSpecialistList}.Encode()),
		tgbotapi.NewInlineKeyboardButtonData(tok.Date.Format("02/01/2006"),
			Token{Action: ActionNoop}.Encode()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// confirmKeyboard offers commit or decline. Decline re-enters the time
// choice for the same specialist and date.
func (b *BookingBot) confirmKeyboard(lng string, tok Token) tgbotapi.InlineKeyboardMarkup {
	decline := Token{Action: ActionTimeChoice, SpecID: tok.SpecID, Date: tok.Date}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ "+b.lang.Translate(lng, "Confirm"),
			"Create."+tok.Encode()),
		tgbotapi.NewInlineKeyboardButtonData("❌ "+b.lang.Translate(lng, "Decline"),
			decline.Encode()),
	))
}

// ratingKeyboard is one row per star count plus a back row.
func (b *BookingBot) ratingKeyboard(lng string, recordID int64) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 1; i <= 5; i++ {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			strings.Repeat(starFilled, i),
			Token{Action: ActionRate, Record: recordID, Score: i}.Encode())))
	}
	rows = append(rows, b.backRow(lng, Token{Action: ActionAccount}.Encode()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *BookingBot) successKeyboard(lng string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("\U0001F44C "+b.lang.Translate(lng, "Success"),
			Token{Action: ActionAccount}.Encode()),
	))
}
