package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-bot/internal/models"
)

func TestSubmitRating(t *testing.T) {
	store := newTestStore(t)
	feedback := NewFeedbackService(store)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedSpecialist(t, store, 200, 9*60, 18*60, 30)

	booking := seedBooking(t, store, 100, 200,
		time.Date(2024, time.January, 1, 10, 0, 0, 0, time.Local))

	// Still pending: rating refused.
	assert.ErrorIs(t, feedback.SubmitRating(ctx, booking.ID, 5), models.ErrNotYetDue)

	require.NoError(t, store.ClearPending(ctx, booking.ID))
	require.NoError(t, feedback.SubmitRating(ctx, booking.ID, 5))

	spec, err := store.GetSpecialist(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, spec.MeanFeedback)
	assert.Equal(t, 5.0, *spec.MeanFeedback)
}

func TestSubmitRatingIdempotence(t *testing.T) {
	store := newTestStore(t)
	feedback := NewFeedbackService(store)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedSpecialist(t, store, 200, 9*60, 18*60, 30)
	booking := seedBooking(t, store, 100, 200,
		time.Date(2024, time.January, 1, 10, 0, 0, 0, time.Local))
	require.NoError(t, store.ClearPending(ctx, booking.ID))

	require.NoError(t, feedback.SubmitRating(ctx, booking.ID, 4))
	assert.ErrorIs(t, feedback.SubmitRating(ctx, booking.ID, 1), models.ErrAlreadyRated)

	// The mean moved on the first call only.
	spec, err := store.GetSpecialist(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, spec.MeanFeedback)
	assert.Equal(t, 4.0, *spec.MeanFeedback)
}

func TestSubmitRatingNotFound(t *testing.T) {
	store := newTestStore(t)
	feedback := NewFeedbackService(store)
	assert.ErrorIs(t, feedback.SubmitRating(context.Background(), 12345, 3), models.ErrNotFound)
}

func TestSubmitRatingScoreRange(t *testing.T) {
	store := newTestStore(t)
	feedback := NewFeedbackService(store)
	for _, score := range []int{0, 6, -1} {
		assert.ErrorIs(t, feedback.SubmitRating(context.Background(), 1, score), models.ErrMalformedToken)
	}
}

func TestMeanOverRatedCompletedOnly(t *testing.T) {
	store := newTestStore(t)
	feedback := NewFeedbackService(store)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedSpecialist(t, store, 200, 0, 24*60, 30)

	base := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local)
	for i, score := range []int{5, 4, 3} {
		booking := seedBooking(t, store, 100, 200, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.ClearPending(ctx, booking.ID))
		require.NoError(t, feedback.SubmitRating(ctx, booking.ID, score))
	}

	spec, err := store.GetSpecialist(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, spec.MeanFeedback)
	assert.Equal(t, 4.0, *spec.MeanFeedback)

	// A completed-but-unrated booking leaves the mean untouched.
	unrated := seedBooking(t, store, 100, 200, base.Add(4*time.Hour))
	require.NoError(t, store.ClearPending(ctx, unrated.ID))

	mean, err := store.RatedMean(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, mean)
	assert.Equal(t, 4.0, *mean)

	// A pending booking is excluded too.
	seedBooking(t, store, 100, 200, base.Add(5*time.Hour))
	mean, err = store.RatedMean(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, mean)
	assert.Equal(t, 4.0, *mean)
}

func TestMeanUndefinedWithoutRatings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, 100, "alice")
	seedSpecialist(t, store, 200, 0, 24*60, 30)
	booking := seedBooking(t, store, 100, 200,
		time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local))
	require.NoError(t, store.ClearPending(ctx, booking.ID))

	// Completed but unrated: the mean stays undefined, not zero.
	mean, err := store.RatedMean(ctx, 200)
	require.NoError(t, err)
	assert.Nil(t, mean)
}
