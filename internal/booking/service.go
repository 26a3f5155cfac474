package booking

import (
	"context"
	"errors"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/logger"
	"slotbook/internal/metrics"
	"slotbook/internal/task"
)

var (
	ErrSlotInPast = errors.New("cannot book a slot in the past")
	ErrNotAllowed = errors.New("not allowed to manage this booking")
)

type Service interface {
	Create(ctx context.Context, userID, slotID int, remark string) (*Booking, error)
	Confirm(ctx context.Context, merchantID, bookingID int, expectedRevision int64) (*Booking, error)
	Cancel(ctx context.Context, actorID int, actorRole string, bookingID int, expectedRevision int64) (*Booking, error)
	Complete(ctx context.Context, merchantID, bookingID int, expectedRevision int64) (*Booking, error)
	GetUserBookings(ctx context.Context, userID int) ([]Booking, error)
	GetSlotBookings(ctx context.Context, merchantID, slotID int) ([]BookingWithDetails, error)
}

type service struct {
	bookingRepo Repository
	taskRepo    task.Repository
}

func NewService(bookingRepo Repository, taskRepo task.Repository) Service {
	return &service{
		bookingRepo: bookingRepo,
		taskRepo:    taskRepo,
	}
}

// Create admits a new reservation. Order matters: cheap read-only checks
// first, then the duplicate probe, and only then the transactional
// reserve-and-insert. No capacity is consumed on any failure path.
func (s *service) Create(ctx context.Context, userID, slotID int, remark string) (*Booking, error) {
	slot, err := s.taskRepo.GetSlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, task.ErrSlotNotFound) {
			metrics.RecordAdmissionRejected("slot_not_found")
		}
		return nil, err
	}

	parent, err := s.taskRepo.GetTaskByID(ctx, slot.TaskID)
	if err != nil {
		return nil, err
	}
	if !parent.Active {
		metrics.RecordAdmissionRejected("slot_inactive")
		return nil, task.ErrSlotInactive
	}

	if slot.StartTime.Before(time.Now()) {
		metrics.RecordAdmissionRejected("slot_in_past")
		return nil, ErrSlotInPast
	}

	hasBooking, err := s.bookingRepo.HasActiveBookingForSlot(ctx, userID, slotID)
	if err != nil {
		return nil, err
	}
	if hasBooking {
		logger.Warn("duplicate booking attempt", "user_id", userID, "slot_id", slotID)
		metrics.RecordAdmissionRejected("duplicate")
		return nil, ErrDuplicateBooking
	}

	booking, err := s.bookingRepo.ReserveAndCreate(ctx, userID, slotID, remark)
	if err != nil {
		if errors.Is(err, task.ErrSlotFull) {
			logger.Warn("slot full", "slot_id", slotID, "user_id", userID)
			metrics.RecordAdmissionRejected("slot_full")
		}
		if errors.Is(err, ErrDuplicateBooking) {
			logger.Warn("duplicate booking attempt", "user_id", userID, "slot_id", slotID)
			metrics.RecordAdmissionRejected("duplicate")
		}
		return nil, err
	}

	logger.Info("booking created", "booking_id", booking.ID, "user_id", userID, "slot_id", slotID)
	metrics.RecordBookingCreated()
	return booking, nil
}

func (s *service) Confirm(ctx context.Context, merchantID, bookingID int, expectedRevision int64) (*Booking, error) {
	return s.merchantTransition(ctx, merchantID, bookingID, expectedRevision, StatusConfirmed, "confirm")
}

func (s *service) Complete(ctx context.Context, merchantID, bookingID int, expectedRevision int64) (*Booking, error) {
	return s.merchantTransition(ctx, merchantID, bookingID, expectedRevision, StatusCompleted, "complete")
}

// Cancel is allowed for the booking's owner, or for the merchant who owns
// the parent task. Capacity is released in the same transaction as the
// status write.
func (s *service) Cancel(ctx context.Context, actorID int, actorRole string, bookingID int, expectedRevision int64) (*Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Owners and admins may cancel directly; anyone else has to be the
	// merchant behind the slot's task.
	if booking.UserID != actorID && actorRole != auth.RoleAdmin {
		merchantID, err := s.merchantForBooking(ctx, booking)
		if err != nil {
			return nil, err
		}
		if merchantID != actorID {
			return nil, ErrNotAllowed
		}
	}

	return s.transition(ctx, booking, expectedRevision, StatusCancelled, "cancel")
}

func (s *service) merchantTransition(ctx context.Context, merchantID, bookingID int, expectedRevision int64, next Status, action string) (*Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	owner, err := s.merchantForBooking(ctx, booking)
	if err != nil {
		return nil, err
	}
	if owner != merchantID {
		return nil, ErrNotAllowed
	}

	return s.transition(ctx, booking, expectedRevision, next, action)
}

func (s *service) transition(ctx context.Context, booking *Booking, expectedRevision int64, next Status, action string) (*Booking, error) {
	if booking.Revision != expectedRevision {
		metrics.RecordTransition(action, "conflict")
		return nil, ErrConcurrentModification
	}

	if !booking.Status.CanTransitionTo(next) {
		metrics.RecordTransition(action, "invalid")
		return nil, ErrInvalidTransition
	}

	updated, err := s.bookingRepo.TransitionStatus(ctx, booking.ID, expectedRevision, next)
	if err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			logger.Warn("optimistic conflict", "booking_id", booking.ID, "action", action)
			metrics.RecordTransition(action, "conflict")
		}
		return nil, err
	}

	logger.Info("booking transition", "booking_id", updated.ID, "action", action, "status", updated.Status)
	metrics.RecordTransition(action, "ok")
	if next == StatusCancelled {
		metrics.RecordCapacityReleased()
	}
	return updated, nil
}

func (s *service) merchantForBooking(ctx context.Context, booking *Booking) (int, error) {
	slot, err := s.taskRepo.GetSlotByID(ctx, booking.SlotID)
	if err != nil {
		return 0, err
	}
	parent, err := s.taskRepo.GetTaskByID(ctx, slot.TaskID)
	if err != nil {
		return 0, err
	}
	return parent.MerchantID, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID int) ([]Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID)
}

func (s *service) GetSlotBookings(ctx context.Context, merchantID, slotID int) ([]BookingWithDetails, error) {
	slot, err := s.taskRepo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	parent, err := s.taskRepo.GetTaskByID(ctx, slot.TaskID)
	if err != nil {
		return nil, err
	}
	if parent.MerchantID != merchantID {
		return nil, ErrNotAllowed
	}

	return s.bookingRepo.ListBySlot(ctx, slotID)
}
