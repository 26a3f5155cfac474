package booking

import (
	"context"
	"database/sql"
	"errors"

	"slotbook/internal/db"
	"slotbook/internal/task"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrDuplicateBooking       = errors.New("user already has an active booking for this slot")
	ErrInvalidTransition      = errors.New("invalid booking status transition")
	ErrConcurrentModification = errors.New("booking was modified concurrently, re-read and retry")
)

const bookingColumns = "id, user_id, slot_id, status, revision, remark, created_at, updated_at"

type repository struct {
	db    *sqlx.DB
	slots task.Repository
}

func NewRepository(database *sqlx.DB, slots task.Repository) Repository {
	return &repository{db: database, slots: slots}
}

func (r *repository) ReserveAndCreate(ctx context.Context, userID, slotID int, remark string) (*Booking, error) {
	var booking Booking

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.slots.TryReserveSlot(ctx, tx, slotID); err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (user_id, slot_id, status, revision, remark)
			VALUES ($1, $2, 'pending', 0, $3)
			RETURNING ` + bookingColumns

		if err := tx.GetContext(ctx, &booking, query, userID, slotID, remark); err != nil {
			// Two creates from the same user can both pass the duplicate
			// check; the loser trips the active-bookings unique index.
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return ErrDuplicateBooking
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (r *repository) HasActiveBookingForSlot(ctx context.Context, userID, slotID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND slot_id = $2 AND status IN ('pending', 'confirmed')
		)
	`

	return db.Exists(ctx, r.db, query, userID, slotID)
}

func (r *repository) TransitionStatus(ctx context.Context, id int, expectedRevision int64, next Status) (*Booking, error) {
	var booking Booking

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bookings
			SET status = $2, revision = revision + 1, updated_at = NOW()
			WHERE id = $1 AND revision = $3
			RETURNING ` + bookingColumns

		err := tx.GetContext(ctx, &booking, query, id, next, expectedRevision)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			// No row matched: the booking is gone or another writer bumped
			// the revision first.
			exists, checkErr := db.Exists(ctx, tx,
				`SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id)
			if checkErr != nil {
				return checkErr
			}
			if !exists {
				return ErrBookingNotFound
			}
			return ErrConcurrentModification
		}

		if next == StatusCancelled {
			return r.slots.ReleaseSlot(ctx, tx, booking.SlotID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) ListBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id,
			b.user_id,
			b.slot_id,
			b.status,
			b.revision,
			b.remark,
			b.created_at,
			b.updated_at,
			s.start_time AS slot_start,
			s.end_time AS slot_end,
			t.title AS task_title,
			u.name AS user_name,
			u.email AS user_email
		FROM bookings b
		JOIN slots s ON b.slot_id = s.id
		JOIN tasks t ON s.task_id = t.id
		JOIN users u ON b.user_id = u.id
		WHERE b.slot_id = $1
		ORDER BY b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, slotID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}
