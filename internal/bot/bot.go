package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"booking-bot/config"
	"booking-bot/internal/lang"
	"booking-bot/internal/models"
	"booking-bot/internal/services"
	"booking-bot/internal/storage"
)

// telegram is the slice of the Bot API the handlers use.
type telegram interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type BookingBot struct {
	api     telegram
	store   *storage.SQLiteStorage
	lang    *lang.Store
	log     *zap.Logger
	adminID int64

	schedule *services.ScheduleService
	ledger   *services.LedgerService
	feedback *services.FeedbackService
}

func New(cfg *config.Config, store *storage.SQLiteStorage, langStore *lang.Store, log *zap.Logger) (*BookingBot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	log.Info("authorized", zap.String("username", api.Self.UserName))

	b := &BookingBot{
		api:     api,
		store:   store,
		lang:    langStore,
		log:     log,
		adminID: cfg.AdminID,
	}
	b.schedule = services.NewScheduleService(store)
	b.ledger = services.NewLedgerService(store, b, log)
	b.feedback = services.NewFeedbackService(store)
	return b, nil
}

// roleFor picks the bootstrap role for a fresh registration: the configured
// admin chat starts as admin, everyone else as a regular user.
func (b *BookingBot) roleFor(id int64) int {
	if b.adminID != 0 && id == b.adminID {
		return models.RoleAdmin
	}
	return models.RoleRegular
}

func (b *BookingBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range b.api.GetUpdatesChan(u) {
		if update.Message != nil {
			b.handleMessage(update.Message)
		} else if update.CallbackQuery != nil {
			b.handleCallbackQuery(update.CallbackQuery)
		}
	}
}

func (b *BookingBot) Stop() {
	b.api.StopReceivingUpdates()
}
