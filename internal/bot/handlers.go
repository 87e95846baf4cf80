package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"booking-bot/internal/models"
)

func (b *BookingBot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	ctx := context.Background()
	chatID := msg.Chat.ID

	user, err := b.store.GetUser(ctx, msg.From.ID)
	if errors.Is(err, models.ErrNotFound) {
		// First contact: register with the client's language and greet.
		lng := msg.From.LanguageCode
		if !b.lang.Supported(lng) {
			lng = "en"
		}
		user = &models.User{
			TelegramID: msg.From.ID,
			Name:       msg.From.FirstName,
			Language:   lng,
			Role:       b.roleFor(msg.From.ID),
		}
		if err := b.store.CreateOrUpdateUser(ctx, user); err != nil {
			b.log.Error("user registration failed", zap.Int64("user", msg.From.ID), zap.Error(err))
			b.send(chatID, b.lang.Translate(lng, "Error"), nil)
			return
		}
		b.send(chatID, b.lang.Translate(lng, "Welcome"), b.mainKeyboard(user))
		return
	}
	if err != nil {
		b.log.Error("user lookup failed", zap.Int64("user", msg.From.ID), zap.Error(err))
		lng := msg.From.LanguageCode
		if !b.lang.Supported(lng) {
			lng = "en"
		}
		b.send(chatID, b.lang.Translate(lng, "Error"), nil)
		return
	}

	command := stripWide(msg.Text)
	switch {
	case command == "/start":
		b.send(chatID, "⌨ Keyboard reloaded", b.mainKeyboard(user))

	case command == "/help" || b.isButton("HelpButton", command):
		b.send(chatID, b.lang.Translate(user.Language, "Help"), b.mainKeyboard(user))

	case b.isButton("Account", command):
		b.sendAccount(ctx, user, 0)

	case b.isButton("NewRecord", command):
		b.sendSpecialists(ctx, user, 0)

	case b.isButton("Language", command):
		b.send(chatID, "\U0001F5E3 Choose language", languageKeyboard())

	case (command == "Add specialist" || strings.HasPrefix(command, "AddSpec71/")) && user.IsAdmin():
		b.handleAddSpec(ctx, user, msg.Text)

	default:
		b.send(chatID, "⌨ Keyboard reloaded", b.mainKeyboard(user))
	}
}

// stripWide removes non-BMP runes (button emojis) so translated button
// labels compare by their textual part.
func stripWide(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r <= 0xFFFF {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// isButton reports whether text matches the phrase under key in any loaded
// language; reply-keyboard presses arrive as plain text.
func (b *BookingBot) isButton(key, text string) bool {
	for _, lng := range b.lang.Languages() {
		if strings.TrimSpace(b.lang.Translate(lng, key)) == text {
			return true
		}
	}
	return false
}

// handleAddSpec promotes an existing user to specialist. Command format:
// AddSpec71/TelegramId/Name/StartTime/EndTime/Interval, times HH:mm,
// interval in minutes.
func (b *BookingBot) handleAddSpec(ctx context.Context, admin *models.User, text string) {
	chatID := admin.TelegramID
	const usage = "To add specialist send command in format 'AddSpec71/TelegramId/Name/StartTime/EndTime/Interval'\nTime in format HH:mm\nInterval in minutes"

	parse := strings.Split(text, "/")
	if text == "Add specialist" || len(parse) != 6 {
		b.send(chatID, usage, nil)
		return
	}

	id, errID := strconv.ParseInt(parse[1], 10, 64)
	start, errS := parseClock(parse[3])
	end, errE := parseClock(parse[4])
	interval, errI := strconv.Atoi(parse[5])
	if errID != nil || errS != nil || errE != nil || errI != nil || start >= end || interval <= 0 {
		b.send(chatID, usage, nil)
		return
	}

	if _, err := b.store.GetUser(ctx, id); err != nil {
		b.send(chatID, b.lang.Translate(admin.Language, "Error"), nil)
		return
	}

	spec := &models.Specialist{
		ID:          id,
		DisplayName: parse[2],
		Start:       start,
		End:         end,
		Interval:    interval,
	}
	if err := b.store.CreateSpecialist(ctx, spec); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			b.send(chatID, "#"+parse[1]+" is already a specialist", nil)
			return
		}
		b.log.Warn("specialist creation failed", zap.Int64("spec", id), zap.Error(err))
		b.send(chatID, b.lang.Translate(admin.Language, "Error"), nil)
		return
	}
	if err := b.store.SetRole(ctx, id, models.RoleSpecialist); err != nil {
		b.log.Error("role update failed", zap.Int64("spec", id), zap.Error(err))
		b.send(chatID, b.lang.Translate(admin.Language, "Error"), nil)
		return
	}

	b.send(chatID, "#"+parse[1]+"\n"+spec.DisplayName+
		"\nStart: "+models.ClockString(spec.Start)+
		"\nEnd: "+models.ClockString(spec.End)+
		"\nInterval: "+strconv.Itoa(spec.Interval), nil)
}

func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, models.ErrMalformedToken
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, models.ErrMalformedToken
	}
	return hour*60 + minute, nil
}

func (b *BookingBot) send(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// edit rewrites an existing interactive message, or sends a fresh one when
// there is nothing to edit (messageID 0).
func (b *BookingBot) edit(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		b.send(chatID, text, markup)
		return
	}
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("edit failed", zap.Int64("chat", chatID), zap.Int("message", messageID), zap.Error(err))
	}
}
