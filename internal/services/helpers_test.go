package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"booking-bot/internal/models"
	"booking-bot/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init())
	return store
}

func seedUser(t *testing.T, store *storage.SQLiteStorage, id int64, name string) *models.User {
	t.Helper()
	user := &models.User{TelegramID: id, Name: name, Language: "en", Role: models.RoleRegular}
	require.NoError(t, store.CreateOrUpdateUser(context.Background(), user))
	return user
}

func seedSpecialist(t *testing.T, store *storage.SQLiteStorage, id int64, start, end, interval int) *models.Specialist {
	t.Helper()
	seedUser(t, store, id, "spec")
	require.NoError(t, store.SetRole(context.Background(), id, models.RoleSpecialist))
	spec := &models.Specialist{
		ID: id, DisplayName: "Dr. Test", Work: true,
		Start: start, End: end, Interval: interval,
	}
	require.NoError(t, store.CreateSpecialist(context.Background(), spec))
	return spec
}

func seedBooking(t *testing.T, store *storage.SQLiteStorage, userID, specID int64, at time.Time) *models.Booking {
	t.Helper()
	booking := &models.Booking{UserID: userID, SpecID: specID, At: at}
	require.NoError(t, store.CreateBooking(context.Background(), booking))
	return booking
}

// fakeNotifier records deliveries and can be told to fail for chosen
// bookings.
type fakeNotifier struct {
	mu             sync.Mutex
	created        []int64
	ratingRequests []int64
	failFor        map[int64]error
}

func (f *fakeNotifier) BookingCreated(_ context.Context, b *models.Booking, _ *models.User, _ *models.Specialist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[b.ID]; err != nil {
		return err
	}
	f.created = append(f.created, b.ID)
	return nil
}

func (f *fakeNotifier) RatingRequest(_ context.Context, b *models.Booking, _ *models.User, _ *models.Specialist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[b.ID]; err != nil {
		return err
	}
	f.ratingRequests = append(f.ratingRequests, b.ID)
	return nil
}

func (f *fakeNotifier) requests() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.ratingRequests...)
}
