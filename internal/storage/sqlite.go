package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"booking-bot/internal/models"

	_ "modernc.org/sqlite"
)

func (s *SQLiteStorage) Init() error {
	_, err := s.db.Exec(`
    CREATE TABLE IF NOT EXISTS users (
        telegram_id INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        language TEXT NOT NULL DEFAULT 'en',
        role INTEGER NOT NULL DEFAULT 3
    );

    CREATE TABLE IF NOT EXISTS specialists (
        specialist_id INTEGER PRIMARY KEY,
        display_name TEXT NOT NULL,
        work INTEGER NOT NULL DEFAULT 0,
        mean_feedback REAL,
        start_min INTEGER NOT NULL,
        end_min INTEGER NOT NULL,
        interval_min INTEGER NOT NULL,
        FOREIGN KEY (specialist_id) REFERENCES users(telegram_id)
    );

    CREATE TABLE IF NOT EXISTS records (
        record_id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        spec_id INTEGER NOT NULL,
        scheduled_at INTEGER NOT NULL,
        feedback INTEGER NOT NULL DEFAULT 0,
        FOREIGN KEY (user_id) REFERENCES users(telegram_id),
        FOREIGN KEY (spec_id) REFERENCES specialists(specialist_id)
    );

    CREATE TABLE IF NOT EXISTS future_records (
        record_id INTEGER PRIMARY KEY,
        spec_id INTEGER NOT NULL,
        scheduled_at INTEGER NOT NULL,
        UNIQUE (spec_id, scheduled_at),
        FOREIGN KEY (record_id) REFERENCES records(record_id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_records_user ON records(user_id);
    CREATE INDEX IF NOT EXISTS idx_records_spec ON records(spec_id);
    `)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStorage) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO users (telegram_id, name, language, role)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(telegram_id) DO UPDATE SET
		name = excluded.name`,
		user.TelegramID, user.Name, user.Language, user.Role)
	return err
}

func (s *SQLiteStorage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
	SELECT telegram_id, name, language, role
	FROM users WHERE telegram_id = ?`, telegramID).Scan(
		&user.TelegramID,
		&user.Name,
		&user.Language,
		&user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return user, err
}

func (s *SQLiteStorage) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET language = ? WHERE telegram_id = ?`, lang, telegramID)
	return err
}

func (s *SQLiteStorage) SetRole(ctx context.Context, telegramID int64, role int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE telegram_id = ?`, role, telegramID)
	return err
}

func (s *SQLiteStorage) CreateSpecialist(ctx context.Context, spec *models.Specialist) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO specialists (specialist_id, display_name, work, start_min, end_min, interval_min)
	VALUES (?, ?, ?, ?, ?, ?)`,
		spec.ID, spec.DisplayName, spec.Work, spec.Start, spec.End, spec.Interval)
	if isUniqueViolation(err) {
		return models.ErrAlreadyExists
	}
	return err
}

func (s *SQLiteStorage) GetSpecialist(ctx context.Context, id int64) (*models.Specialist, error) {
	spec := &models.Specialist{}
	err := s.db.QueryRowContext(ctx, `
	SELECT specialist_id, display_name, work, mean_feedback, start_min, end_min, interval_min
	FROM specialists WHERE specialist_id = ?`, id).Scan(
		&spec.ID,
		&spec.DisplayName,
		&spec.Work,
		&spec.MeanFeedback,
		&spec.Start,
		&spec.End,
		&spec.Interval)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return spec, err
}

func (s *SQLiteStorage) ListWorking(ctx context.Context) ([]*models.Specialist, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT specialist_id, display_name, work, mean_feedback, start_min, end_min, interval_min
	FROM specialists WHERE work = 1 ORDER BY specialist_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []*models.Specialist
	for rows.Next() {
		var sp models.Specialist
		if err := rows.Scan(&sp.ID, &sp.DisplayName, &sp.Work, &sp.MeanFeedback,
			&sp.Start, &sp.End, &sp.Interval); err != nil {
			return nil, err
		}
		specs = append(specs, &sp)
	}
	return specs, rows.Err()
}

func (s *SQLiteStorage) ToggleWork(ctx context.Context, id int64) (bool, error) {
	var work bool
	err := s.db.QueryRowContext(ctx, `
	UPDATE specialists SET work = NOT work WHERE specialist_id = ?
	RETURNING work`, id).Scan(&work)
	if errors.Is(err, sql.ErrNoRows) {
		return false, models.ErrNotFound
	}
	return work, err
}

func (s *SQLiteStorage) SetMeanFeedback(ctx context.Context, id int64, mean *float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE specialists SET mean_feedback = ? WHERE specialist_id = ?`, mean, id)
	return err
}

func (s *SQLiteStorage) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO records (user_id, spec_id, scheduled_at, feedback)
	VALUES (?, ?, ?, 0)`,
		booking.UserID, booking.SpecID, booking.At.Unix())
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	// The unique (spec_id, scheduled_at) index on the marker table is the
	// commit-time double-booking check; the loser of a race lands here.
	_, err = tx.ExecContext(ctx, `
	INSERT INTO future_records (record_id, spec_id, scheduled_at)
	VALUES (?, ?, ?)`,
		id, booking.SpecID, booking.At.Unix())
	if isUniqueViolation(err) {
		return models.ErrSlotTaken
	}
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	booking.ID = id
	booking.Pending = true
	return nil
}

const bookingColumns = `
	r.record_id, r.user_id, r.spec_id, r.scheduled_at, r.feedback,
	f.record_id IS NOT NULL`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var unix int64
	if err := row.Scan(&b.ID, &b.UserID, &b.SpecID, &unix, &b.Feedback, &b.Pending); err != nil {
		return nil, err
	}
	b.At = time.Unix(unix, 0).In(time.Local)
	return &b, nil
}

func (s *SQLiteStorage) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT `+bookingColumns+`
	FROM records r LEFT JOIN future_records f ON f.record_id = r.record_id
	WHERE r.record_id = ?`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return b, err
}

func (s *SQLiteStorage) listBookings(ctx context.Context, query string, arg int64) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *SQLiteStorage) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.listBookings(ctx, `
	SELECT `+bookingColumns+`
	FROM records r LEFT JOIN future_records f ON f.record_id = r.record_id
	WHERE r.user_id = ? ORDER BY r.scheduled_at, r.record_id`, userID)
}

func (s *SQLiteStorage) ListSpecialistBookings(ctx context.Context, specID int64) ([]*models.Booking, error) {
	return s.listBookings(ctx, `
	SELECT `+bookingColumns+`
	FROM records r LEFT JOIN future_records f ON f.record_id = r.record_id
	WHERE r.spec_id = ? ORDER BY r.scheduled_at, r.record_id`, specID)
}

// PendingClocks returns the times of day (minutes since midnight) already
// held by pending bookings for the specialist on the given calendar day.
func (s *SQLiteStorage) PendingClocks(ctx context.Context, specID int64, day time.Time) ([]int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1)

	rows, err := s.db.QueryContext(ctx, `
	SELECT scheduled_at FROM future_records
	WHERE spec_id = ? AND scheduled_at >= ? AND scheduled_at < ?`,
		specID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clocks []int
	for rows.Next() {
		var unix int64
		if err := rows.Scan(&unix); err != nil {
			return nil, err
		}
		clocks = append(clocks, models.ClockOf(time.Unix(unix, 0).In(time.Local)))
	}
	return clocks, rows.Err()
}

func (s *SQLiteStorage) ListExpiredPending(ctx context.Context, before time.Time) ([]*models.Booking, error) {
	return s.listBookings(ctx, `
	SELECT `+bookingColumns+`
	FROM records r JOIN future_records f ON f.record_id = r.record_id
	WHERE r.scheduled_at < ? ORDER BY r.record_id`, before.Unix())
}

func (s *SQLiteStorage) ClearPending(ctx context.Context, bookingID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM future_records WHERE record_id = ?`, bookingID)
	return err
}

// RateBooking sets the feedback, refusing already-rated and still-pending
// bookings in the same statement so a double press cannot rate twice.
func (s *SQLiteStorage) RateBooking(ctx context.Context, bookingID int64, score int) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE records SET feedback = ?
	WHERE record_id = ? AND feedback = 0
	  AND NOT EXISTS (SELECT 1 FROM future_records WHERE record_id = records.record_id)`,
		score, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrAlreadyRated
	}
	return nil
}

// RatedMean averages feedback over completed, rated bookings of a specialist.
// nil means no such bookings exist yet.
func (s *SQLiteStorage) RatedMean(ctx context.Context, specID int64) (*float64, error) {
	var mean *float64
	err := s.db.QueryRowContext(ctx, `
	SELECT AVG(r.feedback)
	FROM records r LEFT JOIN future_records f ON f.record_id = r.record_id
	WHERE r.spec_id = ? AND f.record_id IS NULL AND r.feedback != 0`, specID).Scan(&mean)
	return mean, err
}
