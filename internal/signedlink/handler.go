package signedlink

import (
	"errors"
	"net/http"
	"strconv"

	"slotbook/internal/auth"
	"slotbook/internal/metrics"
	"slotbook/internal/task"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	signer   *Signer
	taskRepo task.Repository
}

func NewHandler(signer *Signer, taskRepo task.Repository) *Handler {
	return &Handler{signer: signer, taskRepo: taskRepo}
}

// GenerateLink godoc
// @Summary      Generate a signed booking link
// @Description  Creates a time-limited public link for one of the merchant's tasks.
// @Tags         links
// @Security     BearerAuth
// @Produce      json
// @Param        taskID  path      int  true  "Task ID"
// @Success      200     {object}  Link
// @Failure      403     {object}  gin.H
// @Failure      404     {object}  gin.H
// @Router       /merchant/tasks/{taskID}/link [post]
func (h *Handler) GenerateLink(c *gin.Context) {
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

	t, err := h.taskRepo.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if t.MerchantID != merchantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only generate links for your own tasks"})
		return
	}

	link := h.signer.Generate(taskID)
	metrics.RecordSignedLinkGenerated()

	c.JSON(http.StatusOK, link)
}

// VerifyLink godoc
// @Summary      Verify a signed link
// @Description  Reports whether a signed link is currently valid.
// @Tags         links
// @Produce      json
// @Param        task_id  query     int     true  "Task ID"
// @Param        token    query     string  true  "Link signature"
// @Param        exp      query     int     true  "Link expiry (unix ms)"
// @Success      200      {object}  gin.H
// @Failure      400      {object}  gin.H
// @Router       /public/links/verify [get]
func (h *Handler) VerifyLink(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Query("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task_id"})
		return
	}

	exp, err := strconv.ParseInt(c.Query("exp"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exp"})
		return
	}

	err = h.signer.Verify(taskID, c.Query("token"), exp)
	switch {
	case err == nil:
		metrics.RecordSignedLinkVerification("ok")
		c.JSON(http.StatusOK, gin.H{"valid": true})
	case errors.Is(err, ErrLinkExpired):
		metrics.RecordSignedLinkVerification("expired")
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "expired"})
	default:
		metrics.RecordSignedLinkVerification("invalid")
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "invalid"})
	}
}
