package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"booking-bot/internal/models"
)

func (b *BookingBot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	userID := query.From.ID

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Warn("callback ack failed", zap.Error(err))
	}

	if query.Message == nil {
		b.send(userID, "Message is too old for inline buttons \U0001F601", nil)
		return
	}
	messageID := query.Message.MessageID

	// Language buttons carry bare codes and may arrive before registration.
	if b.lang.Supported(query.Data) {
		b.changeLanguage(ctx, query, query.Data)
		return
	}

	user, err := b.store.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		b.log.Warn("callback from unknown user", zap.Int64("user", userID))
		b.send(userID, "\U0001F5E3 Choose language", languageKeyboard())
		return
	}
	if err != nil {
		b.log.Error("user lookup failed", zap.Int64("user", userID), zap.Error(err))
		b.send(userID, b.lang.Translate("en", "Error"), nil)
		return
	}

	tok, err := ParseToken(query.Data)
	if err != nil {
		b.log.Warn("malformed callback", zap.String("data", query.Data), zap.Error(err))
		b.sendError(ctx, user, messageID)
		return
	}

	switch tok.Action {
	case ActionNoop:
		return
	case ActionAccount:
		b.sendAccount(ctx, user, messageID)
	case ActionSpecialistList, ActionBackSpecialistList:
		b.sendSpecialists(ctx, user, messageID)
	case ActionHistory:
		b.sendHistory(ctx, user, messageID)
	case ActionHistorySpec:
		b.sendSpecHistory(ctx, user, messageID)
	case ActionFuture:
		b.sendUpcoming(ctx, user, messageID)
	case ActionWorkChange:
		b.toggleWork(ctx, user, messageID)
	case ActionCalendar:
		b.sendCalendar(ctx, user, tok, messageID, "")
	case ActionCalendarStay:
		b.sendCalendar(ctx, user, tok, messageID, query.Message.Text)
	case ActionTimeChoice:
		b.sendTimeChoice(ctx, user, tok, messageID)
	case ActionConfirm:
		b.sendConfirm(ctx, user, tok, messageID)
	case ActionCreate:
		b.createOrder(ctx, user, tok, messageID)
	case ActionRate:
		b.rateOrder(ctx, user, tok, messageID)
	}
}

// sendError surfaces the generic localized error and falls back to the
// account view: the stateless machine's Idle.
func (b *BookingBot) sendError(ctx context.Context, user *models.User, messageID int) {
	b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
	b.sendAccount(ctx, user, messageID)
}

func (b *BookingBot) changeLanguage(ctx context.Context, query *tgbotapi.CallbackQuery, code string) {
	userID := query.From.ID
	user, err := b.store.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		user = &models.User{
			TelegramID: userID,
			Name:       query.From.FirstName,
			Language:   code,
			Role:       b.roleFor(userID),
		}
		if err := b.store.CreateOrUpdateUser(ctx, user); err != nil {
			b.log.Error("user registration failed", zap.Int64("user", userID), zap.Error(err))
			return
		}
		b.send(userID, b.lang.Translate(code, "Welcome"), b.mainKeyboard(user))
	} else if err != nil {
		b.log.Error("user lookup failed", zap.Int64("user", userID), zap.Error(err))
		b.send(userID, b.lang.Translate(code, "Error"), nil)
		return
	} else {
		if err := b.store.SetLanguage(ctx, userID, code); err != nil {
			b.log.Error("language update failed", zap.Int64("user", userID), zap.Error(err))
			return
		}
		user.Language = code
		b.send(userID, "⌨ Keyboard reloaded", b.mainKeyboard(user))
	}

	del := tgbotapi.NewDeleteMessage(userID, query.Message.MessageID)
	if _, err := b.api.Request(del); err != nil {
		b.log.Warn("delete failed", zap.Error(err))
	}
}

func (b *BookingBot) sendAccount(ctx context.Context, user *models.User, messageID int) {
	history, err := b.store.ListUserBookings(ctx, user.TelegramID)
	if err != nil {
		b.log.Error("history load failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
		return
	}

	var upcoming []*models.Booking
	for _, rec := range history {
		if rec.Pending {
			upcoming = append(upcoming, rec)
		}
	}

	var spec *models.Specialist
	var specOrders []*models.Booking
	if user.IsSpecialist() {
		if spec, err = b.store.GetSpecialist(ctx, user.TelegramID); err != nil {
			b.log.Warn("specialist profile missing", zap.Int64("user", user.TelegramID), zap.Error(err))
			spec = nil
		} else if specOrders, err = b.store.ListSpecialistBookings(ctx, user.TelegramID); err != nil {
			b.log.Error("spec history load failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		}
	}

	text, markup := b.accountView(user, history, upcoming, specOrders, spec)
	b.edit(user.TelegramID, messageID, text, markup)
}

func (b *BookingBot) sendSpecialists(ctx context.Context, user *models.User, messageID int) {
	specs, err := b.store.ListWorking(ctx)
	if err != nil {
		b.log.Error("specialist list failed", zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
		return
	}
	text, markup := b.specialistsView(user, specs)
	b.edit(user.TelegramID, messageID, text, markup)
}

func (b *BookingBot) toggleWork(ctx context.Context, user *models.User, messageID int) {
	if !user.IsSpecialist() {
		b.sendAccount(ctx, user, messageID)
		return
	}
	if _, err := b.store.ToggleWork(ctx, user.TelegramID); err != nil {
		b.log.Error("work toggle failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
		return
	}
	b.sendAccount(ctx, user, messageID)
}

// sendCalendar shows the 4-week grid. prevText is non-empty only on a
// blocked-day press and drives the escalating warning: one glyph on the
// first press, two after that.
func (b *BookingBot) sendCalendar(ctx context.Context, user *models.User, tok Token, messageID int, prevText string) {
	spec, err := b.store.GetSpecialist(ctx, tok.SpecID)
	if err != nil {
		b.sendError(ctx, user, messageID)
		return
	}

	dayNames, err := b.lang.Days(user.Language)
	if err != nil {
		b.log.Error("broken locale data", zap.String("lang", user.Language), zap.Error(err))
		b.sendError(ctx, user, messageID)
		return
	}

	now := time.Now()
	weeks := b.schedule.Calendar(spec, now)
	markup := b.calendarKeyboard(user.Language, spec, weeks, dayNames, now)

	text := b.lang.Translate(user.Language, "DateChoose")
	if prevText != "" {
		text = warningPrefix(prevText) + b.lang.Translate(user.Language, "RecordWarning") + "\n" + text
	}
	b.edit(user.TelegramID, messageID, text, markup)
}

// warningPrefix escalates with repeated blocked-day presses: the first press
// gets one glyph, every press after that gets two.
func warningPrefix(prevText string) string {
	if strings.Count(prevText, warnGlyph) >= 1 {
		return warnGlyph + " " + warnGlyph
	}
	return warnGlyph
}

func (b *BookingBot) sendTimeChoice(ctx context.Context, user *models.User, tok Token, messageID int) {
	spec, err := b.store.GetSpecialist(ctx, tok.SpecID)
	if err != nil {
		b.sendError(ctx, user, messageID)
		return
	}

	slots, err := b.schedule.OpenSlots(ctx, spec, tok.Date, time.Now())
	if err != nil {
		b.log.Error("slot lookup failed", zap.Int64("spec", spec.ID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
		return
	}

	markup := b.timeKeyboard(user.Language, tok, slots)
	b.edit(user.TelegramID, messageID, b.lang.Translate(user.Language, "TimeChoose"), markup)
}

func (b *BookingBot) sendConfirm(ctx context.Context, user *models.User, tok Token, messageID int) {
	spec, err := b.store.GetSpecialist(ctx, tok.SpecID)
	if err != nil {
		b.sendError(ctx, user, messageID)
		return
	}

	text := fmt.Sprintf("%s\n \n%s\n%s\n%s",
		b.lang.Translate(user.Language, "ConfirmText"),
		spec.DisplayName,
		tok.Date.Format("02/01/2006"),
		models.ClockString(tok.Clock))
	b.edit(user.TelegramID, messageID, text, b.confirmKeyboard(user.Language, tok))
}

func (b *BookingBot) createOrder(ctx context.Context, user *models.User, tok Token, messageID int) {
	booking, err := b.ledger.CreateBooking(ctx, user.TelegramID, tok.SpecID, tok.When())
	switch {
	case errors.Is(err, models.ErrSlotTaken):
		// Someone else committed first: back to the time list, refreshed.
		b.send(user.TelegramID, b.lang.Translate(user.Language, "SlotTaken"), nil)
		b.sendTimeChoice(ctx, user, Token{Action: ActionTimeChoice, SpecID: tok.SpecID, Date: tok.Date}, messageID)
		return
	case errors.Is(err, models.ErrSpecialistUnknown):
		b.sendError(ctx, user, messageID)
		return
	case err != nil:
		b.log.Error("booking create failed", zap.Int64("user", user.TelegramID), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
		return
	}

	spec, err := b.store.GetSpecialist(ctx, tok.SpecID)
	name := ""
	if err == nil {
		name = spec.DisplayName
	}
	text := fmt.Sprintf("#%d\n%s\n%s", booking.ID, name, booking.At.Format("02/01/2006 15:04"))
	b.edit(user.TelegramID, messageID, text, b.successKeyboard(user.Language))
}

func (b *BookingBot) rateOrder(ctx context.Context, user *models.User, tok Token, messageID int) {
	booking, err := b.ledger.FindBooking(ctx, tok.Record)
	if err != nil {
		b.sendError(ctx, user, messageID)
		return
	}

	if tok.Score == 0 {
		spec, err := b.store.GetSpecialist(ctx, booking.SpecID)
		name := ""
		if err == nil {
			name = spec.DisplayName
		}
		text := fmt.Sprintf("#%d\n%s\n%s", booking.ID, name, booking.At.Format("02/01/2006 15:04"))
		b.edit(user.TelegramID, messageID, text, b.ratingKeyboard(user.Language, booking.ID))
		return
	}

	if err := b.feedback.SubmitRating(ctx, tok.Record, tok.Score); err != nil {
		if errors.Is(err, models.ErrAlreadyRated) || errors.Is(err, models.ErrNotYetDue) ||
			errors.Is(err, models.ErrNotFound) {
			b.sendError(ctx, user, messageID)
			return
		}
		b.log.Error("rating failed", zap.Int64("booking", tok.Record), zap.Error(err))
		b.send(user.TelegramID, b.lang.Translate(user.Language, "Error"), nil)
		return
	}
	b.edit(user.TelegramID, messageID,
		b.lang.Translate(user.Language, "RateThanks"), b.successKeyboard(user.Language))
}
