package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"booking-bot/internal/storage"
)

func newSweeper(store SweeperStorage, notifier Notifier) *Sweeper {
	return NewSweeper(store, notifier, time.Hour, 5*time.Minute, time.Second, zap.NewNop())
}

func TestSweepExpiresAndNotifiesOnce(t *testing.T) {
	store := newTestStore(t)
	notifier := &fakeNotifier{}
	sweeper := newSweeper(store, notifier)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedSpecialist(t, store, 200, 9*60, 18*60, 30)

	scheduled := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.Local)
	booking := seedBooking(t, store, 100, 200, scheduled)

	// One minute past the grace window: marker cleared, one request sent.
	sweeper.Sweep(ctx, scheduled.Add(61*time.Minute))

	got, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.False(t, got.Pending)
	assert.Equal(t, []int64{booking.ID}, notifier.requests())

	// A later pass finds nothing pending: the sweep is idempotent.
	sweeper.Sweep(ctx, scheduled.Add(66*time.Minute))
	assert.Equal(t, []int64{booking.ID}, notifier.requests())
}

func TestSweepRespectsGraceWindow(t *testing.T) {
	store := newTestStore(t)
	notifier := &fakeNotifier{}
	sweeper := newSweeper(store, notifier)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedSpecialist(t, store, 200, 9*60, 18*60, 30)

	scheduled := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.Local)
	booking := seedBooking(t, store, 100, 200, scheduled)

	sweeper.Sweep(ctx, scheduled.Add(59*time.Minute))

	got, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending, "still inside the grace window")
	assert.Empty(t, notifier.requests())
}

func TestSweepFailureIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedUser(t, store, 101, "bob")
	seedSpecialist(t, store, 200, 9*60, 18*60, 30)

	scheduled := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.Local)
	first := seedBooking(t, store, 100, 200, scheduled)
	second := seedBooking(t, store, 101, 200, scheduled.Add(30*time.Minute))

	notifier := &fakeNotifier{failFor: map[int64]error{first.ID: assert.AnError}}
	sweeper := newSweeper(store, notifier)
	sweeper.Sweep(ctx, scheduled.Add(2*time.Hour))

	// Both markers are gone even though one delivery failed, and the
	// failed delivery is not retried within the pass.
	for _, id := range []int64{first.ID, second.ID} {
		got, err := store.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.Pending)
	}
	assert.Equal(t, []int64{second.ID}, notifier.requests())
}

func TestSweepStoreUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	notifier := &fakeNotifier{}
	sweeper := newSweeper(storage.NewFromDB(db), notifier)

	// The pass aborts cleanly and nothing is notified; the next pass will
	// see the same pending rows again.
	sweeper.Sweep(context.Background(), time.Now())
	assert.Empty(t, notifier.requests())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	sweeper := NewSweeper(store, &fakeNotifier{}, time.Hour, time.Millisecond, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
