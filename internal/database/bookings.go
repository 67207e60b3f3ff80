package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"avtoservis/internal/models"
)

const bookingColumns = `id, user_id, car_id, service_type_id, date, time,
                        notes, status, created_at, updated_at`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				id, user_id, car_id, service_type_id, date, time,
				notes, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.CarID,
		booking.ServiceTypeID,
		booking.Date.Format(models.DateLayout),
		booking.Time,
		booking.Notes,
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return db.queryBooking(ctx, query, id)
}

// UpdateBooking перезаписывает изменяемые поля записи. Read-decide-write,
// последняя запись побеждает.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings SET car_id = ?, service_type_id = ?, date = ?, time = ?,
	                              notes = ?, status = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.CarID,
		booking.ServiceTypeID,
		booking.Date.Format(models.DateLayout),
		booking.Time,
		booking.Notes,
		booking.Status,
		now,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	booking.UpdatedAt = now
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY date DESC, time DESC`
	return db.queryBookings(ctx, query)
}

func (db *DB) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY date DESC, time DESC`
	return db.queryBookings(ctx, query, userID)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date >= ? AND date <= ? ORDER BY date ASC, time ASC`
	return db.queryBookings(ctx, query,
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
}

func (db *DB) queryBooking(ctx context.Context, query string, args ...any) (*models.Booking, error) {
	b := &models.Booking{}
	var dateStr string
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&b.ID, &b.UserID, &b.CarID, &b.ServiceTypeID, &dateStr, &b.Time,
		&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	b.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		var dateStr string
		err := rows.Scan(
			&b.ID, &b.UserID, &b.CarID, &b.ServiceTypeID, &dateStr, &b.Time,
			&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Date, err = time.Parse(models.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
