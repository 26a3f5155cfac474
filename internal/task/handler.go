package task

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"slotbook/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// CreateTask godoc
// @Summary      Create appointment task
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateTaskRequest  true  "Task data"
// @Success      201      {object}  Task
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /merchant/tasks [post]
func (h *Handler) CreateTask(c *gin.Context) {
	merchantID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.repo.CreateTask(c.Request.Context(), merchantID, req.Title, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// ListMyTasks godoc
// @Summary      List merchant tasks
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Task
// @Failure      500  {object}  gin.H
// @Router       /merchant/tasks [get]
func (h *Handler) ListMyTasks(c *gin.Context) {
	merchantID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tasks, err := h.repo.ListTasksByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// SetTaskActive godoc
// @Summary      Activate or deactivate a task
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        taskID   path      int               true  "Task ID"
// @Param        request  body      SetActiveRequest  true  "Active flag"
// @Success      200      {object}  gin.H
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /merchant/tasks/{taskID}/active [patch]
func (h *Handler) SetTaskActive(c *gin.Context) {
	merchantID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := strconv.Atoi(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.SetTaskActive(c.Request.Context(), taskID, merchantID, *req.Active); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task updated"})
}

// CreateSlot godoc
// @Summary      Create time slot
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        taskID   path      int                true  "Task ID"
// @Param        request  body      CreateSlotRequest  true  "Slot data"
// @Success      201      {object}  Slot
// @Failure      400      {object}  gin.H
// @Failure      403      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /merchant/tasks/{taskID}/slots [post]
func (h *Handler) CreateSlot(c *gin.Context) {
	merchantID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := strconv.Atoi(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	task, err := h.repo.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if task.MerchantID != merchantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage your own tasks"})
		return
	}

	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time format, use RFC3339"})
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time format, use RFC3339"})
		return
	}

	slot, err := h.repo.CreateSlot(c.Request.Context(), taskID, startTime, endTime, req.Capacity)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create slot"})
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// ListSlots godoc
// @Summary      List slots for a task
// @Description  Returns slots with availability for an active task.
// @Tags         tasks
// @Produce      json
// @Param        taskID  path      int  true  "Task ID"
// @Success      200     {array}   SlotWithAvailability
// @Failure      400     {object}  gin.H
// @Failure      404     {object}  gin.H
// @Router       /tasks/{taskID}/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	task, err := h.repo.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !task.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not active"})
		return
	}

	slots, err := h.repo.ListSlotsByTask(c.Request.Context(), taskID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}
