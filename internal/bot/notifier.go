package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"booking-bot/internal/models"
)

// BookingCreated tells the specialist's chat about a fresh booking.
func (b *BookingBot) BookingCreated(ctx context.Context, booking *models.Booking, customer *models.User, spec *models.Specialist) error {
	text := fmt.Sprintf("#%d\n%s\n%s",
		booking.ID, customer.Name, booking.At.Format("02/01/2006 15:04"))
	msg := tgbotapi.NewMessage(spec.ID, text)
	_, err := b.api.Send(msg)
	return err
}

// RatingRequest asks a customer to rate a just-completed booking. Emitted
// by the sweeper once per expiry.
func (b *BookingBot) RatingRequest(ctx context.Context, booking *models.Booking, customer *models.User, spec *models.Specialist) error {
	text := fmt.Sprintf("\U0001F680 %s\n \n#%d\n%s\n%s",
		b.lang.Translate(customer.Language, "RateNotification"),
		booking.ID, spec.DisplayName, booking.At.Format("02/01/2006 15:04"))

	msg := tgbotapi.NewMessage(customer.TelegramID, text)
	msg.ReplyMarkup = b.ratingKeyboard(customer.Language, booking.ID)
	_, err := b.api.Send(msg)
	return err
}
