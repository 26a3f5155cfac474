package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"slotbook/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotFull     = errors.New("slot is fully booked")
	ErrSlotInactive = errors.New("task for this slot is not active")
	ErrInvalidRange = errors.New("slot end time must be after start time")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTask(ctx context.Context, merchantID int, title, description string) (*Task, error) {
	query := `
		INSERT INTO tasks (merchant_id, title, description, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, merchant_id, title, description, active, created_at
	`

	var task Task
	err := r.db.GetContext(ctx, &task, query, merchantID, title, description)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *repository) GetTaskByID(ctx context.Context, id int) (*Task, error) {
	query := `
		SELECT id, merchant_id, title, description, active, created_at
		FROM tasks
		WHERE id = $1
	`

	var task Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return &task, nil
}

func (r *repository) ListTasksByMerchant(ctx context.Context, merchantID int) ([]Task, error) {
	query := `
		SELECT id, merchant_id, title, description, active, created_at
		FROM tasks
		WHERE merchant_id = $1
		ORDER BY created_at DESC
	`

	var tasks []Task
	err := r.db.SelectContext(ctx, &tasks, query, merchantID)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *repository) SetTaskActive(ctx context.Context, id, merchantID int, active bool) error {
	query := `
		UPDATE tasks
		SET active = $3
		WHERE id = $1 AND merchant_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, merchantID, active)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *repository) CreateSlot(ctx context.Context, taskID int, startTime, endTime time.Time, capacity int) (*Slot, error) {
	if !endTime.After(startTime) {
		return nil, ErrInvalidRange
	}

	query := `
		INSERT INTO slots (task_id, start_time, end_time, capacity, booked_count)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, task_id, start_time, end_time, capacity, booked_count, created_at
	`

	var slot Slot
	err := r.db.GetContext(ctx, &slot, query, taskID, startTime, endTime, capacity)
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) GetSlotByID(ctx context.Context, id int) (*Slot, error) {
	query := `
		SELECT id, task_id, start_time, end_time, capacity, booked_count, created_at
		FROM slots
		WHERE id = $1
	`

	var slot Slot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &slot, nil
}

func (r *repository) ListSlotsByTask(ctx context.Context, taskID int, onlyFuture bool) ([]SlotWithAvailability, error) {
	query := `
		SELECT id, task_id, start_time, end_time, capacity, booked_count, created_at
		FROM slots
		WHERE task_id = $1
	`
	args := []interface{}{taskID}

	if onlyFuture {
		query += " AND start_time > NOW()"
	}

	query += " ORDER BY start_time ASC"

	var slots []Slot
	err := r.db.SelectContext(ctx, &slots, query, args...)
	if err != nil {
		return nil, err
	}

	result := make([]SlotWithAvailability, 0, len(slots))
	for _, slot := range slots {
		result = append(result, SlotWithAvailability{
			Slot:      slot,
			Available: slot.Capacity - slot.BookedCount,
			IsFull:    !slot.HasAvailableCapacity(),
		})
	}

	return result, nil
}

// TryReserveSlot consumes one unit of capacity. The compare-and-increment
// happens inside a single UPDATE so concurrent callers can never both take
// the last free seat; the row count tells us whether we won.
func (r *repository) TryReserveSlot(ctx context.Context, q sqlx.ExtContext, slotID int) error {
	query := `
		UPDATE slots
		SET booked_count = booked_count + 1
		WHERE id = $1 AND booked_count < capacity
	`

	result, err := q.ExecContext(ctx, query, slotID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 1 {
		return nil
	}

	// Zero rows: either the slot is full or it does not exist.
	exists, err := db.Exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM slots WHERE id = $1)`, slotID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrSlotFull
}

// ReleaseSlot frees one unit of capacity, clamped at zero. Releasing an
// already-empty slot is a no-op rather than an error.
func (r *repository) ReleaseSlot(ctx context.Context, q sqlx.ExtContext, slotID int) error {
	query := `
		UPDATE slots
		SET booked_count = booked_count - 1
		WHERE id = $1 AND booked_count > 0
	`

	_, err := q.ExecContext(ctx, query, slotID)
	return err
}
