package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"booking-bot/internal/models"
	"booking-bot/internal/storage"
)

const sweepConcurrency = 4

type SweeperStorage interface {
	storage.UserRepository
	storage.SpecialistRepository
	storage.BookingRepository
}

// Sweeper periodically promotes pending bookings whose time has passed the
// grace window to completed-awaiting-feedback, and asks each customer for a
// rating. One broken booking never stalls the rest of a pass; whatever a
// pass could not finish is picked up on the next one.
type Sweeper struct {
	store       SweeperStorage
	notifier    Notifier
	grace       time.Duration
	every       time.Duration
	sendTimeout time.Duration
	log         *zap.Logger
}

func NewSweeper(store SweeperStorage, notifier Notifier, grace, every, sendTimeout time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		store:       store,
		notifier:    notifier,
		grace:       grace,
		every:       every,
		sendTimeout: sendTimeout,
		log:         log,
	}
}

// Run blocks until ctx is cancelled, sweeping at the configured period.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		}
	}
}

// Sweep runs one pass at the given reference time.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) {
	pass := s.log.With(zap.String("pass", uuid.NewString()[:8]))

	expired, err := s.store.ListExpiredPending(ctx, now.Add(-s.grace))
	if err != nil {
		pass.Error("listing expired bookings failed, retrying next pass", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}
	pass.Info("sweeping expired bookings", zap.Int("count", len(expired)))

	// Bookings within a pass are independent; bound the fan-out and keep
	// going regardless of individual failures.
	var g errgroup.Group
	g.SetLimit(sweepConcurrency)
	for _, booking := range expired {
		booking := booking
		g.Go(func() error {
			s.expire(ctx, pass, booking)
			return nil
		})
	}
	g.Wait()
}

func (s *Sweeper) expire(ctx context.Context, log *zap.Logger, booking *models.Booking) {
	if err := s.store.ClearPending(ctx, booking.ID); err != nil {
		log.Error("clearing pending marker failed, retrying next pass",
			zap.Int64("booking", booking.ID), zap.Error(err))
		return
	}
	booking.Pending = false

	customer, err := s.store.GetUser(ctx, booking.UserID)
	if err != nil {
		log.Warn("customer lookup failed, rating request skipped",
			zap.Int64("booking", booking.ID), zap.Error(err))
		return
	}
	spec, err := s.store.GetSpecialist(ctx, booking.SpecID)
	if err != nil {
		log.Warn("specialist lookup failed, rating request skipped",
			zap.Int64("booking", booking.ID), zap.Error(err))
		return
	}

	// The marker is already gone; a failed send is not retried here. The
	// booking stays rateable from history.
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.notifier.RatingRequest(sendCtx, booking, customer, spec); err != nil {
		log.Warn("rating request not delivered",
			zap.Int64("booking", booking.ID), zap.Int64("user", booking.UserID), zap.Error(err))
	}
}
