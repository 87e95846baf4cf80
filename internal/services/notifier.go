package services

import (
	"context"

	"booking-bot/internal/models"
)

// Notifier is the outbound half of the messaging gateway the core needs:
// telling a specialist about a new booking and asking a customer to rate a
// completed one. Delivery failures are reported, never fatal.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *models.Booking, customer *models.User, spec *models.Specialist) error
	RatingRequest(ctx context.Context, booking *models.Booking, customer *models.User, spec *models.Specialist) error
}
