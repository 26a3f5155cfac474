package booking

import (
	"errors"
	"net/http"
	"strconv"

	"slotbook/internal/auth"
	"slotbook/internal/signedlink"
	"slotbook/internal/task"
	"slotbook/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service  Service
	taskRepo task.Repository
	userRepo user.Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	taskRepo := task.NewRepository(db)
	return &Handler{
		service:  NewService(NewRepository(db, taskRepo), taskRepo),
		taskRepo: taskRepo,
		userRepo: user.NewRepository(db),
	}
}

// NewHandlerWith wires explicit dependencies; used by tests.
func NewHandlerWith(service Service, taskRepo task.Repository, userRepo user.Repository) *Handler {
	return &Handler{service: service, taskRepo: taskRepo, userRepo: userRepo}
}

// BookSlot godoc
// @Summary      Book a slot
// @Description  Creates a pending booking for the authenticated user.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        slotID   path      int                   true   "Slot ID"
// @Param        request  body      CreateBookingRequest  false  "Optional remark"
// @Success      201      {object}  Booking
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /slots/{slotID}/book [post]
func (h *Handler) BookSlot(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	var req CreateBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	booking, err := h.service.Create(c.Request.Context(), userID, slotID, req.Remark)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// BookSlotPublic godoc
// @Summary      Book a slot via signed link
// @Description  Creates a booking through a signed public link; the guest is identified by email.
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        taskID   path      int                   true  "Task ID"
// @Param        slotID   path      int                   true  "Slot ID"
// @Param        token    query     string                true  "Link signature"
// @Param        exp      query     int                   true  "Link expiry (unix ms)"
// @Param        request  body      PublicBookingRequest  true  "Guest identity"
// @Success      201      {object}  Booking
// @Failure      400      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /public/tasks/{taskID}/slots/{slotID}/book [post]
func (h *Handler) BookSlotPublic(c *gin.Context) {
	linkTaskID, ok := signedlink.GetTaskID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Signed link required"})
		return
	}

	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	slot, err := h.taskRepo.GetSlotByID(c.Request.Context(), slotID)
	if err != nil {
		if errors.Is(err, task.ErrSlotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if slot.TaskID != linkTaskID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Slot does not belong to the linked task"})
		return
	}

	var req PublicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	guest, err := h.userRepo.FindOrCreateGuest(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve guest user"})
		return
	}

	booking, err := h.service.Create(c.Request.Context(), guest.ID, slotID, req.Remark)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ConfirmBooking godoc
// @Summary      Confirm booking
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                true  "Booking ID"
// @Param        request    body      TransitionRequest  true  "Expected revision"
// @Success      200        {object}  Booking
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      422        {object}  gin.H
// @Router       /bookings/{bookingID}/confirm [post]
func (h *Handler) ConfirmBooking(c *gin.Context) {
	h.transition(c, func(actorID int, bookingID int, rev int64) (*Booking, error) {
		return h.service.Confirm(c.Request.Context(), actorID, bookingID, rev)
	})
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Cancels a booking and releases its capacity unit.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                true  "Booking ID"
// @Param        request    body      TransitionRequest  true  "Expected revision"
// @Success      200        {object}  Booking
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      422        {object}  gin.H
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	h.transition(c, func(actorID int, bookingID int, rev int64) (*Booking, error) {
		role, _ := auth.GetUserRole(c)
		return h.service.Cancel(c.Request.Context(), actorID, role, bookingID, rev)
	})
}

// CompleteBooking godoc
// @Summary      Complete booking
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                true  "Booking ID"
// @Param        request    body      TransitionRequest  true  "Expected revision"
// @Success      200        {object}  Booking
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      422        {object}  gin.H
// @Router       /bookings/{bookingID}/complete [post]
func (h *Handler) CompleteBooking(c *gin.Context) {
	h.transition(c, func(actorID int, bookingID int, rev int64) (*Booking, error) {
		return h.service.Complete(c.Request.Context(), actorID, bookingID, rev)
	})
}

func (h *Handler) transition(c *gin.Context, fn func(actorID, bookingID int, rev int64) (*Booking, error)) {
	actorID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected_revision is required"})
		return
	}

	booking, err := fn(actorID, bookingID, *req.ExpectedRevision)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Booking
// @Failure      500  {object}  gin.H
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookings, err := h.service.GetUserBookings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListBookingsBySlot godoc
// @Summary      List bookings for a slot
// @Description  Returns all bookings for one of the merchant's slots.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      int  true  "Slot ID"
// @Success      200     {array}   BookingWithDetails
// @Failure      403     {object}  gin.H
// @Failure      404     {object}  gin.H
// @Router       /merchant/slots/{slotID}/bookings [get]
func (h *Handler) ListBookingsBySlot(c *gin.Context) {
	merchantID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	bookings, err := h.service.GetSlotBookings(c.Request.Context(), merchantID, slotID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// respondBookingError maps each business error to its stable status code so
// clients can tell "slot full" from "already booked" from "conflicting edit".
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrSlotNotFound), errors.Is(err, task.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
	case errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, task.ErrSlotInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not active"})
	case errors.Is(err, ErrSlotInPast):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot book a slot in the past"})
	case errors.Is(err, task.ErrSlotFull):
		c.JSON(http.StatusConflict, gin.H{"error": "Slot is fully booked"})
	case errors.Is(err, ErrDuplicateBooking):
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an active booking for this slot"})
	case errors.Is(err, ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking was modified concurrently, re-read and retry"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid booking status transition"})
	case errors.Is(err, ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to manage this booking"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
