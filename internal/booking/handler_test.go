package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"slotbook/internal/task"
	"slotbook/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct{ mock.Mock }
type MockUserRepo struct{ mock.Mock }

func (m *MockService) Create(ctx context.Context, userID, slotID int, remark string) (*Booking, error) {
	args := m.Called(ctx, userID, slotID, remark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockService) Confirm(ctx context.Context, merchantID, bookingID int, expectedRevision int64) (*Booking, error) {
	args := m.Called(ctx, merchantID, bookingID, expectedRevision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, actorID int, actorRole string, bookingID int, expectedRevision int64) (*Booking, error) {
	args := m.Called(ctx, actorID, actorRole, bookingID, expectedRevision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockService) Complete(ctx context.Context, merchantID, bookingID int, expectedRevision int64) (*Booking, error) {
	args := m.Called(ctx, merchantID, bookingID, expectedRevision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockService) GetUserBookings(ctx context.Context, userID int) ([]Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockService) GetSlotBookings(ctx context.Context, merchantID, slotID int) ([]BookingWithDetails, error) {
	args := m.Called(ctx, merchantID, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) FindOrCreateGuest(ctx context.Context, name, email string) (*user.User, error) {
	args := m.Called(ctx, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func authStub(userID int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(b)
}

func TestBookSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"slot full", task.ErrSlotFull, http.StatusConflict},
		{"duplicate", ErrDuplicateBooking, http.StatusConflict},
		{"slot not found", task.ErrSlotNotFound, http.StatusNotFound},
		{"inactive task", task.ErrSlotInactive, http.StatusBadRequest},
		{"past slot", ErrSlotInPast, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.serviceErr != nil {
				svc.On("Create", mock.Anything, 2, 5, "").Return(nil, tt.serviceErr)
			} else {
				svc.On("Create", mock.Anything, 2, 5, "").Return(&Booking{
					ID: 1, UserID: 2, SlotID: 5, Status: StatusPending,
				}, nil)
			}
			handler := NewHandlerWith(svc, new(MockTaskRepo), new(MockUserRepo))

			router := gin.New()
			router.POST("/slots/:slotID/book", authStub(2, "member"), handler.BookSlot)

			req := httptest.NewRequest("POST", "/slots/5/book", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBookSlotInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWith(new(MockService), new(MockTaskRepo), new(MockUserRepo))

	router := gin.New()
	router.POST("/slots/:slotID/book", authStub(2, "member"), handler.BookSlot)

	req := httptest.NewRequest("POST", "/slots/abc/book", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmBooking(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"confirmed", nil, http.StatusOK},
		{"revision conflict", ErrConcurrentModification, http.StatusConflict},
		{"invalid transition", ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"not found", ErrBookingNotFound, http.StatusNotFound},
		{"not owner", ErrNotAllowed, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.serviceErr != nil {
				svc.On("Confirm", mock.Anything, 7, 1, int64(0)).Return(nil, tt.serviceErr)
			} else {
				svc.On("Confirm", mock.Anything, 7, 1, int64(0)).Return(&Booking{
					ID: 1, UserID: 2, SlotID: 5, Status: StatusConfirmed, Revision: 1,
				}, nil)
			}
			handler := NewHandlerWith(svc, new(MockTaskRepo), new(MockUserRepo))

			router := gin.New()
			router.POST("/bookings/:bookingID/confirm", authStub(7, "merchant"), handler.ConfirmBooking)

			rev := int64(0)
			req := httptest.NewRequest("POST", "/bookings/1/confirm", jsonBody(t, TransitionRequest{ExpectedRevision: &rev}))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestConfirmBookingMissingRevision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWith(new(MockService), new(MockTaskRepo), new(MockUserRepo))

	router := gin.New()
	router.POST("/bookings/:bookingID/confirm", authStub(7, "merchant"), handler.ConfirmBooking)

	req := httptest.NewRequest("POST", "/bookings/1/confirm", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBookingPassesRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := new(MockService)
	svc.On("Cancel", mock.Anything, 2, "member", 1, int64(1)).Return(&Booking{
		ID: 1, UserID: 2, SlotID: 5, Status: StatusCancelled, Revision: 2,
	}, nil)
	handler := NewHandlerWith(svc, new(MockTaskRepo), new(MockUserRepo))

	router := gin.New()
	router.POST("/bookings/:bookingID/cancel", authStub(2, "member"), handler.CancelBooking)

	rev := int64(1)
	req := httptest.NewRequest("POST", "/bookings/1/cancel", jsonBody(t, TransitionRequest{ExpectedRevision: &rev}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestBookSlotPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := new(MockService)
	tr := new(MockTaskRepo)
	ur := new(MockUserRepo)

	tr.On("GetSlotByID", mock.Anything, 5).Return(futureSlot(5, 10), nil)
	ur.On("FindOrCreateGuest", mock.Anything, "Jamie", "jamie@example.com").Return(&user.User{
		ID: 33, Name: "Jamie", Email: "jamie@example.com", Role: "member",
	}, nil)
	svc.On("Create", mock.Anything, 33, 5, "").Return(&Booking{
		ID: 1, UserID: 33, SlotID: 5, Status: StatusPending,
	}, nil)

	handler := NewHandlerWith(svc, tr, ur)

	router := gin.New()
	router.POST("/public/tasks/:taskID/slots/:slotID/book", func(c *gin.Context) {
		c.Set("signed_link_task_id", 10)
		c.Next()
	}, handler.BookSlotPublic)

	req := httptest.NewRequest("POST", "/public/tasks/10/slots/5/book",
		jsonBody(t, PublicBookingRequest{Name: "Jamie", Email: "jamie@example.com"}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	ur.AssertExpectations(t)
}

func TestBookSlotPublicWrongTask(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tr := new(MockTaskRepo)
	tr.On("GetSlotByID", mock.Anything, 5).Return(futureSlot(5, 99), nil)

	handler := NewHandlerWith(new(MockService), tr, new(MockUserRepo))

	router := gin.New()
	router.POST("/public/tasks/:taskID/slots/:slotID/book", func(c *gin.Context) {
		c.Set("signed_link_task_id", 10)
		c.Next()
	}, handler.BookSlotPublic)

	req := httptest.NewRequest("POST", "/public/tasks/10/slots/5/book",
		jsonBody(t, PublicBookingRequest{Name: "Jamie", Email: "jamie@example.com"}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookSlotPublicNoLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWith(new(MockService), new(MockTaskRepo), new(MockUserRepo))

	router := gin.New()
	router.POST("/public/tasks/:taskID/slots/:slotID/book", handler.BookSlotPublic)

	req := httptest.NewRequest("POST", "/public/tasks/10/slots/5/book",
		jsonBody(t, PublicBookingRequest{Name: "Jamie", Email: "jamie@example.com"}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListMyBookings(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := new(MockService)
	svc.On("GetUserBookings", mock.Anything, 2).Return([]Booking{
		{ID: 1, UserID: 2, SlotID: 5, Status: StatusPending},
	}, nil)
	handler := NewHandlerWith(svc, new(MockTaskRepo), new(MockUserRepo))

	router := gin.New()
	router.GET("/bookings", authStub(2, "member"), handler.ListMyBookings)

	req := httptest.NewRequest("GET", "/bookings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []Booking
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}
