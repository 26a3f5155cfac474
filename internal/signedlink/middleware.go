package signedlink

import (
	"errors"
	"net/http"
	"strconv"

	"slotbook/internal/metrics"

	"github.com/gin-gonic/gin"
)

const taskIDKey = "signed_link_task_id"

// Middleware verifies the token/exp query parameters against the taskID
// path parameter and stashes the authenticated task ID in the context.
func Middleware(signer *Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.Atoi(c.Param("taskID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
			c.Abort()
			return
		}

		token := c.Query("token")
		expStr := c.Query("exp")
		if token == "" || expStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token and exp query params are required"})
			c.Abort()
			return
		}

		exp, err := strconv.ParseInt(expStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exp parameter"})
			c.Abort()
			return
		}

		if err := signer.Verify(taskID, token, exp); err != nil {
			switch {
			case errors.Is(err, ErrLinkExpired):
				metrics.RecordSignedLinkVerification("expired")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Link expired"})
			default:
				metrics.RecordSignedLinkVerification("invalid")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid link"})
			}
			c.Abort()
			return
		}

		metrics.RecordSignedLinkVerification("ok")
		c.Set(taskIDKey, taskID)
		c.Next()
	}
}

// GetTaskID returns the task ID proven by the signed link, if any.
func GetTaskID(c *gin.Context) (int, bool) {
	v, exists := c.Get(taskIDKey)
	if !exists {
		return 0, false
	}

	id, ok := v.(int)
	return id, ok
}
