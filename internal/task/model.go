package task

import "time"

type Task struct {
	ID          int       `db:"id" json:"id"`
	MerchantID  int       `db:"merchant_id" json:"merchant_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Slot struct {
	ID          int       `db:"id" json:"id"`
	TaskID      int       `db:"task_id" json:"task_id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	Capacity    int       `db:"capacity" json:"capacity"`
	BookedCount int       `db:"booked_count" json:"booked_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HasAvailableCapacity is a convenience view only; the authoritative
// capacity check is the conditional update in TryReserveSlot.
func (s *Slot) HasAvailableCapacity() bool {
	return s.BookedCount < s.Capacity
}

type SlotWithAvailability struct {
	Slot
	Available int  `json:"available"`
	IsFull    bool `json:"is_full"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type CreateSlotRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
