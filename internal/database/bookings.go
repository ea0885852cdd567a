package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelbook/internal/models"

	"github.com/mattn/go-sqlite3"
)

const bookingColumns = `id, guest_email, guest_name, room_id, room_name, room_image, room_category,
		check_in, check_out, guests, base_price, nights, subtotal, cleaning_fee, service_fee,
		taxes, total, savings, special_requests, card_last_four, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) CreateBookingRecord(ctx context.Context, record *models.BookingRecord) error {
	requests, err := json.Marshal(record.SpecialRequests)
	if err != nil {
		return fmt.Errorf("failed to marshal special requests: %w", err)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = models.StatusConfirmed
	}

	query := `INSERT INTO bookings (
				id, record_key, guest_email, guest_name, room_id, room_name, room_image, room_category,
				check_in, check_out, guests, base_price, nights, subtotal, cleaning_fee, service_fee,
				taxes, total, savings, special_requests, card_last_four, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	p := record.Pricing
	_, err = db.ExecContext(ctx, query,
		record.ID,
		models.RecordKey(record.ID),
		record.GuestEmail,
		record.GuestName,
		record.RoomID,
		record.RoomName,
		record.RoomImage,
		record.RoomCategory,
		record.CheckIn.Format(dateLayout),
		record.CheckOut.Format(dateLayout),
		record.Guests,
		p.BasePrice,
		p.Nights,
		p.Subtotal,
		p.CleaningFee,
		p.ServiceFee,
		p.Taxes,
		p.Total,
		p.Savings,
		string(requests),
		record.CardLastFour,
		record.Status,
		record.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	db.logger.Debug().Str("booking_id", record.ID).Msg("Booking record stored")
	return nil
}

func (db *DB) GetBookingRecord(ctx context.Context, id string) (*models.BookingRecord, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	record, err := scanBookingRecord(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return record, nil
}

// ListBookingRecords returns records whose check-in date falls in [from, to].
func (db *DB) ListBookingRecords(ctx context.Context, from, to time.Time) ([]*models.BookingRecord, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE check_in BETWEEN ? AND ?
              ORDER BY check_in, created_at`
	rows, err := db.QueryContext(ctx, query, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var records []*models.BookingRecord
	for rows.Next() {
		record, err := scanBookingRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return records, nil
}

func (db *DB) CountBookingRecords(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func scanBookingRecord(row rowScanner) (*models.BookingRecord, error) {
	var (
		r                 models.BookingRecord
		checkIn, checkOut string
		requests          string
		image, category   sql.NullString
		lastFour          sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.GuestEmail, &r.GuestName, &r.RoomID, &r.RoomName, &image, &category,
		&checkIn, &checkOut, &r.Guests,
		&r.Pricing.BasePrice, &r.Pricing.Nights, &r.Pricing.Subtotal, &r.Pricing.CleaningFee,
		&r.Pricing.ServiceFee, &r.Pricing.Taxes, &r.Pricing.Total, &r.Pricing.Savings,
		&requests, &lastFour, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.RoomImage = image.String
	r.RoomCategory = category.String
	r.CardLastFour = lastFour.String

	if r.CheckIn, err = time.Parse(dateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("bad check_in %q: %w", checkIn, err)
	}
	if r.CheckOut, err = time.Parse(dateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("bad check_out %q: %w", checkOut, err)
	}
	if err := json.Unmarshal([]byte(requests), &r.SpecialRequests); err != nil {
		return nil, fmt.Errorf("bad special_requests: %w", err)
	}
	return &r, nil
}
