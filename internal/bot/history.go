package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"booking-bot/internal/models"
)

func (b *BookingBot) specName(ctx context.Context, cache map[int64]string, specID int64) string {
	if name, ok := cache[specID]; ok {
		return name
	}
	name := ""
	if spec, err := b.store.GetSpecialist(ctx, specID); err == nil {
		name = spec.DisplayName
	}
	cache[specID] = name
	return name
}

// sendHistory shows the customer's completed bookings with their feedback
// stars; completed-unrated ones get a Rate button, three per row.
func (b *BookingBot) sendHistory(ctx context.Context, user *models.User, messageID int) {
	lng := user.Language
	bookings, err := b.ledger.History(ctx, user.TelegramID)
	if err != nil {
		b.log.Error("history load failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(lng, "Error"), nil)
		return
	}

	names := make(map[int64]string)
	var sb strings.Builder
	var rows [][]tgbotapi.InlineKeyboardButton
	var rateRow []tgbotapi.InlineKeyboardButton

	for _, rec := range bookings {
		if rec.Pending {
			continue
		}
		if rec.Feedback == 0 {
			rateRow = append(rateRow, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s #%d", b.lang.Translate(lng, "Rate"), rec.ID),
				Token{Action: ActionRate, Record: rec.ID}.Encode()))
			if len(rateRow) == 3 {
				rows = append(rows, rateRow)
				rateRow = nil
			}
		}
		fmt.Fprintf(&sb, "#%d %s\n%s: %s\n%s %s\n \n",
			rec.ID, rec.At.Format("02/01/2006 15:04"),
			b.lang.Translate(lng, "Spec"), b.specName(ctx, names, rec.SpecID),
			b.lang.Translate(lng, "FeedbackUser"), stars(rec.Feedback))
	}
	if len(rateRow) > 0 {
		rows = append(rows, rateRow)
	}

	text := sb.String()
	if text == "" {
		text = "\U0001F61E " + b.lang.Translate(lng, "HistoryEmpty")
	}
	rows = append(rows, b.backRow(lng, Token{Action: ActionAccount}.Encode()))
	b.edit(user.TelegramID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// sendUpcoming lists the customer's pending bookings.
func (b *BookingBot) sendUpcoming(ctx context.Context, user *models.User, messageID int) {
	lng := user.Language
	bookings, err := b.ledger.Upcoming(ctx, user.TelegramID)
	if err != nil {
		b.log.Error("upcoming load failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(lng, "Error"), nil)
		return
	}

	names := make(map[int64]string)
	var sb strings.Builder
	for _, rec := range bookings {
		fmt.Fprintf(&sb, "#%d %s\n%s: %s\n \n",
			rec.ID, rec.At.Format("02/01/2006 15:04"),
			b.lang.Translate(lng, "Spec"), b.specName(ctx, names, rec.SpecID))
	}

	text := sb.String()
	if text == "" {
		text = "\U0001F61E " + b.lang.Translate(lng, "HistoryEmpty")
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(b.backRow(lng, Token{Action: ActionAccount}.Encode()))
	b.edit(user.TelegramID, messageID, text, markup)
}

// sendSpecHistory shows a specialist their incoming bookings and what
// clients rated them.
func (b *BookingBot) sendSpecHistory(ctx context.Context, user *models.User, messageID int) {
	lng := user.Language
	if !user.IsSpecialist() {
		b.sendAccount(ctx, user, messageID)
		return
	}

	bookings, err := b.ledger.SpecialistHistory(ctx, user.TelegramID)
	if err != nil {
		b.log.Error("spec history load failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(lng, "Error"), nil)
		return
	}

	var sb strings.Builder
	for _, rec := range bookings {
		customer := ""
		if cu, err := b.store.GetUser(ctx, rec.UserID); err == nil {
			customer = cu.Name
		}
		fmt.Fprintf(&sb, "#%d %s\n%s: %s\n%s %s\n \n",
			rec.ID, rec.At.Format("02/01/2006 15:04"),
			b.lang.Translate(lng, "Spec"), customer,
			b.lang.Translate(lng, "FeedbackSpec"), stars(rec.Feedback))
	}

	text := sb.String()
	if text == "" {
		text = "\U0001F61E " + b.lang.Translate(lng, "HistoryEmpty")
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(b.backRow(lng, Token{Action: ActionAccount}.Encode()))
	b.edit(user.TelegramID, messageID, text, markup)
}
