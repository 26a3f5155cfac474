package task

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateTask(ctx context.Context, merchantID int, title, description string) (*Task, error)
	GetTaskByID(ctx context.Context, id int) (*Task, error)
	ListTasksByMerchant(ctx context.Context, merchantID int) ([]Task, error)
	SetTaskActive(ctx context.Context, id, merchantID int, active bool) error

	CreateSlot(ctx context.Context, taskID int, startTime, endTime time.Time, capacity int) (*Slot, error)
	GetSlotByID(ctx context.Context, id int) (*Slot, error)
	ListSlotsByTask(ctx context.Context, taskID int, onlyFuture bool) ([]SlotWithAvailability, error)

	// Capacity store. Both accept any sqlx.ExtContext so the caller can
	// carry them inside a larger transaction.
	TryReserveSlot(ctx context.Context, q sqlx.ExtContext, slotID int) error
	ReleaseSlot(ctx context.Context, q sqlx.ExtContext, slotID int) error
}
