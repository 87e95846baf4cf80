package services

import (
	"context"
	"fmt"

	"booking-bot/internal/models"
	"booking-bot/internal/storage"
)

type FeedbackStorage interface {
	storage.SpecialistRepository
	storage.BookingRepository
}

// FeedbackService records 1-5 ratings against completed bookings and keeps
// each specialist's running mean current.
type FeedbackService struct {
	store FeedbackStorage
}

func NewFeedbackService(store FeedbackStorage) *FeedbackService {
	return &FeedbackService{store: store}
}

// SubmitRating accepts a rating for a completed, not-yet-rated booking.
// The storage update re-checks both conditions, so a replayed button press
// loses cleanly with ErrAlreadyRated instead of rating twice.
func (f *FeedbackService) SubmitRating(ctx context.Context, bookingID int64, score int) error {
	if score < 1 || score > 5 {
		return fmt.Errorf("score %d out of range: %w", score, models.ErrMalformedToken)
	}

	booking, err := f.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Pending {
		return models.ErrNotYetDue
	}
	if booking.Feedback != 0 {
		return models.ErrAlreadyRated
	}

	if err := f.store.RateBooking(ctx, bookingID, score); err != nil {
		return err
	}

	// Mean over completed rated bookings only; none left rates to NULL,
	// never to zero.
	mean, err := f.store.RatedMean(ctx, booking.SpecID)
	if err != nil {
		return fmt.Errorf("recompute mean for specialist %d: %w", booking.SpecID, err)
	}
	return f.store.SetMeanFeedback(ctx, booking.SpecID, mean)
}
