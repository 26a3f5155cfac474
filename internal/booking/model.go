package booking

import "time"

type Booking struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	SlotID    int       `db:"slot_id" json:"slot_id"`
	Status    Status    `db:"status" json:"status"`
	Revision  int64     `db:"revision" json:"revision"`
	Remark    string    `db:"remark" json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type BookingWithDetails struct {
	Booking
	SlotStart time.Time `db:"slot_start" json:"slot_start"`
	SlotEnd   time.Time `db:"slot_end" json:"slot_end"`
	TaskTitle string    `db:"task_title" json:"task_title"`
	UserName  string    `db:"user_name" json:"user_name"`
	UserEmail string    `db:"user_email" json:"user_email"`
}

type CreateBookingRequest struct {
	Remark string `json:"remark" binding:"max=500"`
}

type PublicBookingRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Remark string `json:"remark" binding:"max=500"`
}

type TransitionRequest struct {
	ExpectedRevision *int64 `json:"expected_revision" binding:"required"`
}
