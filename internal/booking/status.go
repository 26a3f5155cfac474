package booking

// Status tracks the booking lifecycle: pending on creation, confirmed by
// the merchant, then either cancelled or completed. Cancelled and
// completed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// CanConfirm reports whether a confirm transition is allowed.
func (s Status) CanConfirm() bool {
	return s == StatusPending
}

// CanCancel reports whether a cancel transition is allowed.
func (s Status) CanCancel() bool {
	return s.IsActive()
}

// CanComplete reports whether a complete transition is allowed.
func (s Status) CanComplete() bool {
	return s == StatusConfirmed
}

// IsActive reports whether the booking still holds a capacity unit.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsFinal reports whether the booking reached a terminal state.
func (s Status) IsFinal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo validates a single edge of the state machine.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusConfirmed:
		return s.CanConfirm()
	case StatusCancelled:
		return s.CanCancel()
	case StatusCompleted:
		return s.CanComplete()
	}
	return false
}
