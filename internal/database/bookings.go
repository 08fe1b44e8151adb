package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"renthub/internal/models"
)

const bookingColumns = `id, item_id, booker_id, start_date, end_date, status, created_at, updated_at`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	query := `INSERT INTO bookings (item_id, booker_id, start_date, end_date, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.db.ExecContext(ctx, query,
		booking.ItemID, booking.BookerID, booking.Start, booking.End, booking.Status, now, now)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Created = now
	booking.Updated = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) BookingExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`
	if err := db.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check booking existence: %w", err)
	}
	return exists, nil
}

// UpdateBookingStatusIfWaiting is the one-shot transition: the UPDATE is
// conditional on the current status so two concurrent approvals cannot both
// succeed. Returns ErrStatusConflict when the booking already left WAITING.
func (db *DB) UpdateBookingStatusIfWaiting(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := db.db.ExecContext(ctx, query, status, time.Now(), id, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStatusConflict
	}
	return nil
}

// GetBookingsByBooker returns every booking created by the user, newest
// start first.
func (db *DB) GetBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booker_id = ? ORDER BY start_date DESC, id DESC`
	return db.queryBookings(ctx, query, bookerID)
}

// GetBookingsByOwner returns every booking against the owner's items, newest
// start first.
func (db *DB) GetBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error) {
	query := `SELECT b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              WHERE i.owner_id = ?
              ORDER BY b.start_date DESC, b.id DESC`
	return db.queryBookings(ctx, query, ownerID)
}

// GetBookingsByItems bulk-fetches bookings across a set of items, for the
// owner-listing enrichment.
func (db *DB) GetBookingsByItems(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(itemIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE item_id IN (` + placeholders + `)`

	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	return db.queryBookings(ctx, query, args...)
}

// GetNextBooking returns the nearest future approved booking of the item,
// visible only to its owner.
func (db *DB) GetNextBooking(ctx context.Context, itemID, ownerID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              WHERE b.item_id = ? AND i.owner_id = ? AND b.status = ? AND b.start_date > ?
              ORDER BY b.start_date ASC
              LIMIT 1`
	return db.queryOptionalBooking(ctx, query, itemID, ownerID, models.StatusApproved, now)
}

// GetLastBooking returns the most recently finished approved booking of the
// item, visible only to its owner.
func (db *DB) GetLastBooking(ctx context.Context, itemID, ownerID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              WHERE b.item_id = ? AND i.owner_id = ? AND b.status = ? AND b.end_date < ?
              ORDER BY b.end_date DESC
              LIMIT 1`
	return db.queryOptionalBooking(ctx, query, itemID, ownerID, models.StatusApproved, now)
}

// CountBookingsForOwnerItem counts bookings of an item owned by the given
// user, any status.
func (db *DB) CountBookingsForOwnerItem(ctx context.Context, itemID, ownerID int64) (int, error) {
	query := `SELECT COUNT(*)
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              WHERE b.item_id = ? AND i.owner_id = ?`
	var count int
	if err := db.db.QueryRowContext(ctx, query, itemID, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// GetSingleBookingForOwnerItem fetches the one booking backing the
// single-booking "last" fallback.
func (db *DB) GetSingleBookingForOwnerItem(ctx context.Context, itemID, ownerID int64) (*models.Booking, error) {
	query := `SELECT b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              WHERE b.item_id = ? AND i.owner_id = ?
              LIMIT 1`
	return db.queryOptionalBooking(ctx, query, itemID, ownerID)
}

// HasFinishedBooking reports whether the user completed at least one rental
// of the item before the given instant. Comment eligibility check.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE booker_id = ? AND item_id = ? AND end_date < ?)`
	if err := db.db.QueryRowContext(ctx, query, bookerID, itemID, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return exists, nil
}

// GetBookingsByDateRange returns bookings whose window intersects the range,
// ordered by start ascending. Used for report exports.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC, id ASC`
	return db.queryBookings(ctx, query, end, start)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (db *DB) queryOptionalBooking(ctx context.Context, query string, args ...any) (*models.Booking, error) {
	row := db.db.QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	return booking, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status, &b.Created, &b.Updated)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
