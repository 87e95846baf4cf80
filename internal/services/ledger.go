package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"booking-bot/internal/models"
	"booking-bot/internal/storage"
)

// History depth differs by audience: specialists skim a shorter incoming
// list, customers see a bit more of their own.
const (
	customerHistoryLimit   = 10
	specialistHistoryLimit = 7
)

type LedgerStorage interface {
	storage.UserRepository
	storage.SpecialistRepository
	storage.BookingRepository
}

// LedgerService owns committed bookings: creation with the commit-time
// conflict check, lookup, and the truncated history views.
type LedgerService struct {
	store    LedgerStorage
	notifier Notifier
	log      *zap.Logger
}

func NewLedgerService(store LedgerStorage, notifier Notifier, log *zap.Logger) *LedgerService {
	return &LedgerService{store: store, notifier: notifier, log: log}
}

// CreateBooking re-validates the specialist, commits the booking together
// with its pending marker and tells the specialist's chat. The availability
// list shown earlier is only advisory; the storage constraint decides races.
func (l *LedgerService) CreateBooking(ctx context.Context, userID, specID int64, when time.Time) (*models.Booking, error) {
	spec, err := l.store.GetSpecialist(ctx, specID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrSpecialistUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("load specialist %d: %w", specID, err)
	}

	booking := &models.Booking{UserID: userID, SpecID: specID, At: when}
	if err := l.store.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, models.ErrSlotTaken) {
			return nil, models.ErrSlotTaken
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	customer, err := l.store.GetUser(ctx, userID)
	if err != nil {
		l.log.Warn("booking committed but customer lookup failed",
			zap.Int64("booking", booking.ID), zap.Error(err))
		return booking, nil
	}
	if err := l.notifier.BookingCreated(ctx, booking, customer, spec); err != nil {
		// Delivery is best effort; the booking stands.
		l.log.Warn("specialist notification failed",
			zap.Int64("booking", booking.ID), zap.Int64("spec", specID), zap.Error(err))
	}
	return booking, nil
}

func (l *LedgerService) FindBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return l.store.GetBooking(ctx, id)
}

// History returns the customer's most recent bookings, oldest first.
func (l *LedgerService) History(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings, err := l.store.ListUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return truncateRecent(bookings, customerHistoryLimit), nil
}

// SpecialistHistory returns a specialist's most recent incoming bookings.
func (l *LedgerService) SpecialistHistory(ctx context.Context, specID int64) ([]*models.Booking, error) {
	bookings, err := l.store.ListSpecialistBookings(ctx, specID)
	if err != nil {
		return nil, err
	}
	return truncateRecent(bookings, specialistHistoryLimit), nil
}

// Upcoming returns the customer's pending bookings, oldest first.
func (l *LedgerService) Upcoming(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings, err := l.store.ListUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	upcoming := bookings[:0]
	for _, b := range bookings {
		if b.Pending {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming, nil
}

// truncateRecent keeps the last n of a list sorted ascending by scheduled
// time, booking id breaking ties.
func truncateRecent(bookings []*models.Booking, n int) []*models.Booking {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].At.Equal(bookings[j].At) {
			return bookings[i].At.Before(bookings[j].At)
		}
		return bookings[i].ID < bookings[j].ID
	})
	if len(bookings) > n {
		bookings = bookings[len(bookings)-n:]
	}
	return bookings
}
