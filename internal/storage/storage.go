package storage

import (
	"context"
	"database/sql"
	"time"

	"booking-bot/internal/models"

	_ "modernc.org/sqlite"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// races between the interactive path and the sweeper.
	db.SetMaxOpenConns(1)

	return &SQLiteStorage{db: db}, nil
}

// NewFromDB wraps an existing handle. Used by tests that need to inject
// store failures through a mock driver.
func NewFromDB(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type UserRepository interface {
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	SetLanguage(ctx context.Context, telegramID int64, lang string) error
	SetRole(ctx context.Context, telegramID int64, role int) error
}

type SpecialistRepository interface {
	CreateSpecialist(ctx context.Context, spec *models.Specialist) error
	GetSpecialist(ctx context.Context, id int64) (*models.Specialist, error)
	ListWorking(ctx context.Context) ([]*models.Specialist, error)
	ToggleWork(ctx context.Context, id int64) (bool, error)
	SetMeanFeedback(ctx context.Context, id int64, mean *float64) error
}

type BookingRepository interface {
	// CreateBooking persists the booking plus its pending marker in one
	// transaction; a marker collision on (spec, time) is ErrSlotTaken.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListSpecialistBookings(ctx context.Context, specID int64) ([]*models.Booking, error)
	PendingClocks(ctx context.Context, specID int64, day time.Time) ([]int, error)
	ListExpiredPending(ctx context.Context, before time.Time) ([]*models.Booking, error)
	ClearPending(ctx context.Context, bookingID int64) error
	RateBooking(ctx context.Context, bookingID int64, score int) error
	RatedMean(ctx context.Context, specID int64) (*float64, error)
}
