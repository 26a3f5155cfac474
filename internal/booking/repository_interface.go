package booking

import "context"

type Repository interface {
	// ReserveAndCreate consumes one unit of slot capacity and inserts the
	// booking row in the same transaction. Either both happen or neither.
	ReserveAndCreate(ctx context.Context, userID, slotID int, remark string) (*Booking, error)

	GetByID(ctx context.Context, id int) (*Booking, error)
	HasActiveBookingForSlot(ctx context.Context, userID, slotID int) (bool, error)

	// TransitionStatus writes the new status conditioned on the revision
	// being unchanged. A transition to cancelled releases the slot's
	// capacity unit inside the same transaction.
	TransitionStatus(ctx context.Context, id int, expectedRevision int64, next Status) (*Booking, error)

	ListByUser(ctx context.Context, userID int) ([]Booking, error)
	ListBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error)
}
