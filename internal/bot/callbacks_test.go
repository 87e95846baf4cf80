package bot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-bot/internal/models"
	"booking-bot/internal/storage"
)

// fakeAPI records outgoing messages instead of talking to Telegram.
type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return nil }

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last send was %T, want MessageConfig", f.sent[len(f.sent)-1])
	return msg.Text
}

func wiredBot(t *testing.T, store *storage.SQLiteStorage) (*BookingBot, *fakeAPI) {
	t.Helper()
	b := testBot(t)
	api := &fakeAPI{}
	b.api = api
	b.store = store
	return b, api
}

func newBotStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init())
	return store
}

func message(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "alice", LanguageCode: "en"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
}

func TestWarningPrefixEscalation(t *testing.T) {
	tests := []struct {
		prev string
		want string
	}{
		{"Choose a date", "⚠"},
		{"⚠ Only free days\nChoose a date", "⚠ ⚠"},
		{"⚠ ⚠ Only free days\nChoose a date", "⚠ ⚠"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, warningPrefix(tt.prev))
	}
}

func TestMessageStoreOutage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	b, api := wiredBot(t, storage.NewFromDB(db))
	b.handleMessage(message(5, "/start"))

	// An unreachable store answers with the generic error, never with a
	// fresh registration attempt.
	require.Len(t, api.sent, 1)
	assert.Equal(t, "Something went wrong", api.lastText(t))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallbackStoreOutage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	b, api := wiredBot(t, storage.NewFromDB(db))
	b.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "1",
		From:    &tgbotapi.User{ID: 5},
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 5}},
		Data:    "backAcc",
	})

	require.Len(t, api.sent, 1)
	assert.Equal(t, "Something went wrong", api.lastText(t))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallbackUnknownUserGetsLanguageChooser(t *testing.T) {
	b, api := wiredBot(t, newBotStore(t))
	b.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "1",
		From:    &tgbotapi.User{ID: 5},
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 5}},
		Data:    "backAcc",
	})

	require.Len(t, api.sent, 1)
	assert.Contains(t, api.lastText(t), "Choose language")
}

func TestFirstContactBootstrapsRoles(t *testing.T) {
	store := newBotStore(t)
	b, api := wiredBot(t, store)
	b.adminID = 42

	b.handleMessage(message(42, "hi"))
	admin, err := store.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, "Welcome!", api.lastText(t))

	b.handleMessage(message(100, "hi"))
	user, err := store.GetUser(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRegular, user.Role)
	assert.False(t, user.IsAdmin())
}

func TestAddSpecDuplicate(t *testing.T) {
	store := newBotStore(t)
	b, api := wiredBot(t, store)
	ctx := context.Background()

	admin := &models.User{TelegramID: 1, Name: "root", Language: "en", Role: models.RoleAdmin}
	require.NoError(t, store.CreateOrUpdateUser(ctx, admin))
	require.NoError(t, store.CreateOrUpdateUser(ctx, &models.User{
		TelegramID: 100, Name: "ann", Language: "en", Role: models.RoleRegular,
	}))

	b.handleAddSpec(ctx, admin, "AddSpec71/100/Ann/09:00/18:00/30")
	assert.Contains(t, api.lastText(t), "#100")

	b.handleAddSpec(ctx, admin, "AddSpec71/100/Ann/09:00/18:00/30")
	assert.Equal(t, "#100 is already a specialist", api.lastText(t))
}
